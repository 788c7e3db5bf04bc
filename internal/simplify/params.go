// Package simplify drives on-demand mesh decimation: the parameter model,
// the per-pass statistics, and the executor that services simplify requests.
package simplify

import (
	"fmt"
	"strings"
)

// Options is a set of independent decimation flags. The zero value is empty.
type Options uint8

const (
	// LockBorder keeps vertices on open boundary loops in place.
	LockBorder Options = 1 << iota
	// Sparse measures error against the referenced vertices only.
	Sparse
	// ErrorAbsolute treats MaxError as a distance instead of a fraction of the mesh extent.
	ErrorAbsolute
	// Regularize favours evenly sized triangles at some cost to fidelity.
	Regularize
)

// AllOptions lists every flag in display order.
var AllOptions = []Options{LockBorder, Sparse, ErrorAbsolute, Regularize}

var optionNames = map[Options]string{
	LockBorder:    "LockBorder",
	Sparse:        "Sparse",
	ErrorAbsolute: "ErrorAbsolute",
	Regularize:    "Regularize",
}

var optionKeys = map[string]Options{
	"lock_border":    LockBorder,
	"sparse":         Sparse,
	"error_absolute": ErrorAbsolute,
	"regularize":     Regularize,
}

// Has reports whether every flag in f is set.
func (o Options) Has(f Options) bool { return o&f == f }

// Set adds f.
func (o *Options) Set(f Options) { *o |= f }

// Clear removes f.
func (o *Options) Clear(f Options) { *o &^= f }

// Toggle flips f.
func (o *Options) Toggle(f Options) { *o ^= f }

func (o Options) String() string {
	if o == 0 {
		return "(empty)"
	}
	var parts []string
	for _, f := range AllOptions {
		if o.Has(f) {
			parts = append(parts, optionNames[f])
		}
	}
	return strings.Join(parts, " | ")
}

// Key returns the config name of a single flag, e.g. "lock_border".
func (o Options) Key() string {
	for k, v := range optionKeys {
		if v == o {
			return k
		}
	}
	return ""
}

// ParseOption maps a config name to its flag.
func ParseOption(name string) (Options, error) {
	f, ok := optionKeys[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown simplify option %q", name)
	}
	return f, nil
}

// ParseOptions combines a list of config names.
func ParseOptions(names []string) (Options, error) {
	var o Options
	for _, n := range names {
		f, err := ParseOption(n)
		if err != nil {
			return 0, err
		}
		o.Set(f)
	}
	return o, nil
}

// TargetKind names the active TargetIndices variant.
type TargetKind uint8

const (
	targetUnset TargetKind = iota
	// TargetCount is an absolute index count.
	TargetCount
	// TargetMultiplier is a fraction of the input index count.
	TargetMultiplier
)

func (k TargetKind) String() string {
	switch k {
	case TargetCount:
		return "Count"
	case TargetMultiplier:
		return "Multiplier"
	default:
		return "Unset"
	}
}

// Defaults applied when the target variant is switched.
const (
	DefaultTargetCount      = 1000
	DefaultTargetMultiplier = 0.5
)

// TargetIndices is the decimation target: exactly one of an absolute index
// count or a multiplier of the input count. Build it with Count or Multiplier;
// the zero value has no active variant.
type TargetIndices struct {
	kind       TargetKind
	count      int
	multiplier float32
}

// Count returns an absolute target of n indices.
func Count(n int) TargetIndices {
	return TargetIndices{kind: TargetCount, count: n}
}

// Multiplier returns a target of f times the input index count.
func Multiplier(f float32) TargetIndices {
	return TargetIndices{kind: TargetMultiplier, multiplier: f}
}

// Kind returns the active variant.
func (t TargetIndices) Kind() TargetKind { return t.kind }

// CountValue returns the count and whether Count is active.
func (t TargetIndices) CountValue() (int, bool) {
	return t.count, t.kind == TargetCount
}

// MultiplierValue returns the multiplier and whether Multiplier is active.
func (t TargetIndices) MultiplierValue() (float32, bool) {
	return t.multiplier, t.kind == TargetMultiplier
}

// Resolve returns the absolute index target for a mesh with indexCount
// indices. It panics if no variant is active.
func (t TargetIndices) Resolve(indexCount int) int {
	var n int
	switch t.kind {
	case TargetCount:
		n = t.count
	case TargetMultiplier:
		n = int(float64(indexCount) * float64(t.multiplier))
	default:
		panic("simplify: TargetIndices has no active variant")
	}
	if n < 0 {
		n = 0
	}
	return n
}

func (t TargetIndices) String() string {
	switch t.kind {
	case TargetCount:
		return fmt.Sprintf("Count(%d)", t.count)
	case TargetMultiplier:
		return fmt.Sprintf("Multiplier(%.3f)", t.multiplier)
	default:
		return "Unset"
	}
}

// Params is the full simplification configuration. The control panel owns
// it; the executor only reads it. Values are stored as given.
type Params struct {
	MaxError float32
	Target   TargetIndices
	Options  Options
	Sloppy   bool
}

// DefaultParams returns the startup parameters.
func DefaultParams() Params {
	return Params{
		MaxError: 0.01,
		Target:   Multiplier(DefaultTargetMultiplier),
	}
}

// SelectTarget switches the active target variant. Switching to a different
// kind installs that kind's default; selecting the active kind keeps the value.
func (p *Params) SelectTarget(kind TargetKind) {
	if p.Target.kind == kind {
		return
	}
	switch kind {
	case TargetCount:
		p.Target = Count(DefaultTargetCount)
	case TargetMultiplier:
		p.Target = Multiplier(DefaultTargetMultiplier)
	default:
		panic(fmt.Sprintf("simplify: cannot select target kind %v", kind))
	}
}

func (p Params) String() string {
	return fmt.Sprintf("max_error=%.4f target=%s options=%s sloppy=%t", p.MaxError, p.Target, p.Options, p.Sloppy)
}
