// Package decimate implements the mesh decimation primitive behind
// simplify.Decimator: an edge-collapse simplifier and a faster grid-clustering
// ("sloppy") simplifier.
package decimate

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/meshlab/internal/engine/model"
	"github.com/Faultbox/meshlab/internal/logger"
	"github.com/Faultbox/meshlab/internal/simplify"
)

// Validation failures. The mesh is never modified when one is returned.
var (
	ErrNoPositions  = errors.New("mesh has no positions")
	ErrIndexFormat  = errors.New("indices are not 32-bit")
	ErrNotTriangles = errors.New("index count is not a multiple of 3")
	ErrIndexRange   = errors.New("index out of range")
	ErrMaxError     = errors.New("max error must be a non-negative number")
)

// Error describes a mesh the simplifier refused.
type Error struct {
	Mesh string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("decimate %q: %v", e.Mesh, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// DefaultMaxGrid bounds the clustering grid resolution per axis.
const DefaultMaxGrid = 1024

// Simplifier implements simplify.Decimator.
type Simplifier struct {
	// MaxGrid is the finest grid the sloppy path may use.
	MaxGrid int
}

// New returns a Simplifier with default settings.
func New() *Simplifier {
	return &Simplifier{MaxGrid: DefaultMaxGrid}
}

var _ simplify.Decimator = (*Simplifier)(nil)

// Simplify reduces m in place towards p.Target. Every input vertex ends up
// within p.MaxError of the output vertex that replaced it. The error bound
// wins over the target, so the result may keep more indices than requested
// but never more than the input had.
func (s *Simplifier) Simplify(m *model.Mesh, p simplify.Params) error {
	if err := validate(m, p); err != nil {
		name := ""
		if m != nil {
			name = m.Name
		}
		return &Error{Mesh: name, Err: err}
	}

	indexCount := m.IndexCount()
	target := p.Target.Resolve(indexCount)
	target -= target % 3
	if target >= indexCount {
		return nil
	}

	limit := errorLimit(m, p)
	var achieved float32
	if p.Sloppy {
		achieved = clusterSimplify(m, target, limit, p.Options, s.maxGrid())
	} else {
		achieved = collapseSimplify(m, target, limit, p.Options)
	}
	m.ComputeBounds()

	logger.Debug("mesh decimated",
		zap.String("mesh", m.Name),
		zap.Bool("sloppy", p.Sloppy),
		zap.Int("target", target),
		zap.Int("indices_before", indexCount),
		zap.Int("indices_after", m.IndexCount()),
		zap.Float32("limit", limit),
		zap.Float32("error", achieved),
	)
	return nil
}

func (s *Simplifier) maxGrid() int {
	if s.MaxGrid <= 0 {
		return DefaultMaxGrid
	}
	return s.MaxGrid
}

func validate(m *model.Mesh, p simplify.Params) error {
	if m == nil || len(m.Vertices) == 0 {
		return ErrNoPositions
	}
	if m.Indices.Format() != model.IndexU32 {
		return ErrIndexFormat
	}
	if len(m.Indices.U32)%3 != 0 {
		return ErrNotTriangles
	}
	n := uint32(len(m.Vertices))
	for i, idx := range m.Indices.U32 {
		if idx >= n {
			return fmt.Errorf("%w: index %d is %d, mesh has %d vertices", ErrIndexRange, i, idx, n)
		}
	}
	if p.MaxError < 0 || math32.IsNaN(p.MaxError) {
		return ErrMaxError
	}
	return nil
}

// errorLimit converts MaxError into a distance. Relative errors scale with the
// mesh extent; with Sparse only referenced vertices contribute to it.
func errorLimit(m *model.Mesh, p simplify.Params) float32 {
	if p.Options.Has(simplify.ErrorAbsolute) {
		return p.MaxError
	}
	var b model.Bounds
	if p.Options.Has(simplify.Sparse) {
		b = model.BoundsOf(m.Vertices, m.Indices.U32)
	} else {
		b = model.BoundsOf(m.Vertices, nil)
	}
	return p.MaxError * b.Extent()
}

type edgeKey [2]uint32

func makeEdge(a, b uint32) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// borderVertices marks vertices on edges used by exactly one triangle.
func borderVertices(vertexCount int, indices []uint32) []bool {
	uses := make(map[edgeKey]int, len(indices))
	for t := 0; t+2 < len(indices); t += 3 {
		a, b, c := indices[t], indices[t+1], indices[t+2]
		uses[makeEdge(a, b)]++
		uses[makeEdge(b, c)]++
		uses[makeEdge(c, a)]++
	}
	border := make([]bool, vertexCount)
	for e, n := range uses {
		if n == 1 {
			border[e[0]] = true
			border[e[1]] = true
		}
	}
	return border
}

// dropDegenerate remaps indices and removes triangles that lost an edge.
func dropDegenerate(indices []uint32, remap []uint32) []uint32 {
	out := indices[:0]
	for t := 0; t+2 < len(indices); t += 3 {
		a, b, c := remap[indices[t]], remap[indices[t+1]], remap[indices[t+2]]
		if a == b || b == c || c == a {
			continue
		}
		out = append(out, a, b, c)
	}
	return out
}
