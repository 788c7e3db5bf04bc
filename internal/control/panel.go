// Package control maps user actions onto the simplification parameters and
// the one-shot request flags.
package control

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/meshlab/internal/logger"
	"github.com/Faultbox/meshlab/internal/session"
	"github.com/Faultbox/meshlab/internal/simplify"
)

// Action is a named panel control.
type Action string

const (
	ActionReset               Action = "reset"
	ActionSimplify            Action = "simplify"
	ActionMaxErrorUp          Action = "max_error_up"
	ActionMaxErrorDown        Action = "max_error_down"
	ActionTargetUp            Action = "target_up"
	ActionTargetDown          Action = "target_down"
	ActionTargetCount         Action = "target_count"
	ActionTargetMultiplier    Action = "target_multiplier"
	ActionToggleLockBorder    Action = "toggle_lock_border"
	ActionToggleSparse        Action = "toggle_sparse"
	ActionToggleErrorAbsolute Action = "toggle_error_absolute"
	ActionToggleRegularize    Action = "toggle_regularize"
	ActionToggleSloppy        Action = "toggle_sloppy"
	ActionScreenshot          Action = "screenshot"
	ActionQuit                Action = "quit"
)

var allActions = []Action{
	ActionReset, ActionSimplify,
	ActionMaxErrorUp, ActionMaxErrorDown,
	ActionTargetUp, ActionTargetDown,
	ActionTargetCount, ActionTargetMultiplier,
	ActionToggleLockBorder, ActionToggleSparse, ActionToggleErrorAbsolute, ActionToggleRegularize,
	ActionToggleSloppy, ActionScreenshot, ActionQuit,
}

var toggles = map[Action]simplify.Options{
	ActionToggleLockBorder:    simplify.LockBorder,
	ActionToggleSparse:        simplify.Sparse,
	ActionToggleErrorAbsolute: simplify.ErrorAbsolute,
	ActionToggleRegularize:    simplify.Regularize,
}

// Repeatable reports whether holding a key should keep applying a. Only the
// slider steps repeat; toggles and requests fire once per press.
func Repeatable(a Action) bool {
	switch a {
	case ActionMaxErrorUp, ActionMaxErrorDown, ActionTargetUp, ActionTargetDown:
		return true
	}
	return false
}

// ParseAction validates an action name from config.
func ParseAction(name string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range allActions {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown control action %q", name)
}

// DefaultBindings maps SDL key names to actions.
func DefaultBindings() map[string]Action {
	return map[string]Action{
		"R":      ActionReset,
		"Space":  ActionSimplify,
		"Up":     ActionMaxErrorUp,
		"Down":   ActionMaxErrorDown,
		"Right":  ActionTargetUp,
		"Left":   ActionTargetDown,
		"C":      ActionTargetCount,
		"M":      ActionTargetMultiplier,
		"1":      ActionToggleLockBorder,
		"2":      ActionToggleSparse,
		"3":      ActionToggleErrorAbsolute,
		"4":      ActionToggleRegularize,
		"S":      ActionToggleSloppy,
		"F12":    ActionScreenshot,
		"Escape": ActionQuit,
	}
}

// Panel is the only writer of the parameters and the request flags.
type Panel struct {
	bindings map[string]Action
}

// NewPanel returns a panel with the default bindings overlaid by overrides.
// Override keys are SDL key names; values are action names.
func NewPanel(overrides map[string]string) (*Panel, error) {
	b := DefaultBindings()
	for key, name := range overrides {
		a, err := ParseAction(name)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", key, err)
		}
		b[key] = a
	}
	return &Panel{bindings: b}, nil
}

// Lookup returns the action bound to key.
func (p *Panel) Lookup(key string) (Action, bool) {
	a, ok := p.bindings[key]
	return a, ok
}

// Bindings returns "key=action" pairs sorted by key, for help output.
func (p *Panel) Bindings() []string {
	out := make([]string, 0, len(p.bindings))
	for k, a := range p.bindings {
		out = append(out, k+"="+string(a))
	}
	sort.Strings(out)
	return out
}

// Key applies the action bound to key. Unbound keys are ignored.
func (p *Panel) Key(key string, params *simplify.Params, req *session.Requests) (Action, bool) {
	a, ok := p.bindings[key]
	if !ok {
		return "", false
	}
	p.Apply(a, params, req)
	return a, true
}

// Apply edits params or req for a. ActionQuit and ActionScreenshot are left
// to the caller.
func (p *Panel) Apply(a Action, params *simplify.Params, req *session.Requests) {
	switch a {
	case ActionReset:
		req.Reset = true
	case ActionSimplify:
		req.Simplify = true
	case ActionMaxErrorUp:
		params.MaxError = MaxErrorSlider.Step(params.MaxError, 1)
	case ActionMaxErrorDown:
		params.MaxError = MaxErrorSlider.Step(params.MaxError, -1)
	case ActionTargetUp:
		stepTarget(params, 1)
	case ActionTargetDown:
		stepTarget(params, -1)
	case ActionTargetCount:
		params.SelectTarget(simplify.TargetCount)
	case ActionTargetMultiplier:
		params.SelectTarget(simplify.TargetMultiplier)
	case ActionToggleSloppy:
		params.Sloppy = !params.Sloppy
	case ActionQuit, ActionScreenshot:
		return
	default:
		if f, ok := toggles[a]; ok {
			params.Options.Toggle(f)
		}
	}
	logger.Debug("control", zap.String("action", string(a)), zap.Stringer("params", *params))
}

func stepTarget(params *simplify.Params, dir int) {
	if n, ok := params.Target.CountValue(); ok {
		next := int(math.Round(float64(CountSlider.Step(float32(n), dir))))
		if next == n {
			next += dir
		}
		next = int(clamp(float32(next), CountSlider.Min, CountSlider.Max))
		params.Target = simplify.Count(next)
		return
	}
	if f, ok := params.Target.MultiplierValue(); ok {
		params.Target = simplify.Multiplier(MultiplierStep.Move(f, dir))
	}
}

// Describe renders the current settings in one line.
func Describe(p simplify.Params) string {
	return fmt.Sprintf("Max Error: %.4f | Target: %s | Options: %s | Sloppy: %t",
		p.MaxError, p.Target, p.Options, p.Sloppy)
}

// DescribeStats renders the last pass totals.
func DescribeStats(s simplify.Stats) string {
	return fmt.Sprintf("positions %d -> %d, indices %d -> %d",
		s.PositionsBefore, s.PositionsAfter, s.IndicesBefore, s.IndicesAfter)
}
