package simplify

import "github.com/Faultbox/meshlab/internal/engine/model"

// Stats sums position and index counts over the meshes of one pass.
type Stats struct {
	PositionsBefore int
	PositionsAfter  int
	IndicesBefore   int
	IndicesAfter    int
}

// Reset zeroes every counter.
func (s *Stats) Reset() {
	*s = Stats{}
}

// AddBefore records a mesh's counts ahead of decimation.
func (s *Stats) AddBefore(m *model.Mesh) {
	s.PositionsBefore += m.PositionCount()
	s.IndicesBefore += m.IndexCount()
}

// AddAfter records a mesh's counts once decimation has returned.
func (s *Stats) AddAfter(m *model.Mesh) {
	s.PositionsAfter += m.PositionCount()
	s.IndicesAfter += m.IndexCount()
}

// TriangleRatio is after/before in triangles, or 1 when nothing was visited.
func (s Stats) TriangleRatio() float64 {
	if s.IndicesBefore == 0 {
		return 1
	}
	return float64(s.IndicesAfter) / float64(s.IndicesBefore)
}
