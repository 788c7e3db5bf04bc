// Package scene owns the single live instance of the loaded asset and the
// scene graph that hosts it.
package scene

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/meshlab/internal/assets"
	"github.com/Faultbox/meshlab/internal/logger"
	"github.com/Faultbox/meshlab/internal/session"
)

// InstanceID identifies a spawned object tree. Zero is never issued.
type InstanceID uint64

func (id InstanceID) String() string {
	return fmt.Sprintf("instance#%d", uint64(id))
}

// Selector picks the sub-scene to instantiate: by Name when set, otherwise
// by Index. The zero Selector is the first sub-scene.
type Selector struct {
	Name  string
	Index int
}

// Named selects a sub-scene by name.
func Named(name string) Selector { return Selector{Name: name} }

// Index selects a sub-scene by position.
func Index(i int) Selector { return Selector{Index: i} }

func (s Selector) String() string {
	if s.Name != "" {
		return fmt.Sprintf("%q", s.Name)
	}
	return fmt.Sprintf("#%d", s.Index)
}

// Host spawns and destroys object trees. Both calls are requests that may
// complete later.
type Host interface {
	Spawn(h assets.Handle, sel Selector) (InstanceID, error)
	Destroy(id InstanceID)
}

// AssetSource reports whether an asset finished loading. Ready must not block.
type AssetSource interface {
	Ready(h assets.Handle) bool
}

// State of the Manager.
type State uint8

const (
	Empty State = iota
	Present
)

func (s State) String() string {
	if s == Present {
		return "Present"
	}
	return "Empty"
}

// Manager keeps at most one instance of an asset alive and replaces it on
// every reset request.
type Manager struct {
	source   AssetSource
	host     Host
	handle   assets.Handle
	selector Selector

	instance InstanceID
	state    State
}

// NewManager returns an Empty manager for the asset behind h.
func NewManager(source AssetSource, host Host, h assets.Handle, sel Selector) *Manager {
	return &Manager{
		source:   source,
		host:     host,
		handle:   h,
		selector: sel,
	}
}

// State returns the current state.
func (m *Manager) State() State { return m.state }

// Instance returns the live instance, if any.
func (m *Manager) Instance() (InstanceID, bool) {
	return m.instance, m.state == Present
}

// Update services a pending reset: the live instance is destroyed and, if the
// asset is ready, a fresh one is spawned. Reset is cleared whatever happens.
// It reports whether a new instance was spawned.
func (m *Manager) Update(req *session.Requests) bool {
	if !req.Reset {
		return false
	}
	defer func() { req.Reset = false }()

	if m.state == Present {
		m.host.Destroy(m.instance)
		logger.Debug("instance destroyed", zap.Stringer("instance", m.instance))
		m.instance, m.state = 0, Empty
	}

	if !m.source.Ready(m.handle) {
		logger.Info("asset not ready, reset deferred", zap.Stringer("asset", m.handle))
		return false
	}

	id, err := m.host.Spawn(m.handle, m.selector)
	if err != nil {
		logger.Error("spawn failed",
			zap.Stringer("asset", m.handle),
			zap.Stringer("scene", m.selector),
			zap.Error(err),
		)
		return false
	}
	m.instance, m.state = id, Present
	logger.Info("instance spawned",
		zap.Stringer("instance", id),
		zap.Stringer("scene", m.selector),
	)
	return true
}
