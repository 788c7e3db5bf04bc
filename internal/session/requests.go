// Package session holds the one-shot request flags shared by the control
// panel and the components that service them.
package session

// Requests are two independent one-shot flags. The control panel sets them;
// the scene manager clears Reset and the simplify executor clears Simplify,
// each unconditionally after it runs.
type Requests struct {
	Reset    bool
	Simplify bool
}

// New returns the startup flags: a reset is pending so the asset is spawned
// as soon as it is ready.
func New() Requests {
	return Requests{Reset: true}
}

// Idle reports whether no request is pending.
func (r Requests) Idle() bool {
	return !r.Reset && !r.Simplify
}
