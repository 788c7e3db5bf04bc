package decimate

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/meshlab/internal/engine/model"
	"github.com/Faultbox/meshlab/internal/simplify"
)

const sqrt3 = 1.7320508

// clusterSimplify snaps vertices to a uniform grid and merges every vertex in
// a cell. It picks the finest grid whose output fits target, but never a grid
// whose cell diagonal exceeds limit. Border vertices stay in cells of their own
// with LockBorder; Regularize moves each survivor to its cell's centroid.
// It returns the cell diagonal used.
func clusterSimplify(m *model.Mesh, target int, limit float32, opts simplify.Options, maxGrid int) float32 {
	indices := m.Indices.U32

	var b model.Bounds
	if opts.Has(simplify.Sparse) {
		b = model.BoundsOf(m.Vertices, indices)
	} else {
		b = model.BoundsOf(m.Vertices, nil)
	}
	extent := b.Extent()
	if extent == 0 {
		return 0
	}

	var locked []bool
	if opts.Has(simplify.LockBorder) {
		locked = borderVertices(len(m.Vertices), indices)
	}

	// Coarsest grid the error bound allows.
	minGrid := maxGrid
	if limit > 0 {
		minGrid = int(math32.Ceil(extent * sqrt3 / limit))
	}
	minGrid = clampInt(minGrid, 1, maxGrid)

	c := clusterer{verts: m.Vertices, indices: indices, bounds: b, extent: extent, locked: locked}

	grid := minGrid
	if c.count(maxGrid)*3 <= target {
		grid = maxGrid
	} else if c.count(minGrid)*3 <= target {
		// count grows with grid resolution; find the finest grid within target.
		lo, hi := minGrid, maxGrid
		for hi-lo > 1 {
			mid := (lo + hi) / 2
			if c.count(mid)*3 <= target {
				lo = mid
			} else {
				hi = mid
			}
		}
		grid = lo
	}

	remap, kept := c.build(grid)
	if len(kept)*3 >= len(indices) {
		return 0
	}

	if opts.Has(simplify.Regularize) {
		c.centroids(remap)
	}

	out := make([]uint32, 0, len(kept)*3)
	for _, tri := range kept {
		out = append(out, tri[0], tri[1], tri[2])
	}
	m.Indices.U32 = out
	m.Compact()
	return extent / float32(grid) * sqrt3
}

type clusterer struct {
	verts   []model.Vertex
	indices []uint32
	bounds  model.Bounds
	extent  float32
	locked  []bool
}

// cellKey quantises a position to a grid cell.
func (c *clusterer) cellKey(p [3]float32, grid int) [3]int32 {
	scale := float32(grid) / c.extent
	var key [3]int32
	for i := 0; i < 3; i++ {
		cell := int32((p[i] - c.bounds.Min[i]) * scale)
		if cell >= int32(grid) {
			cell = int32(grid) - 1
		}
		key[i] = cell
	}
	return key
}

// build maps each vertex to the first vertex of its cell and returns the
// distinct non-degenerate triangles that survive.
func (c *clusterer) build(grid int) ([]uint32, [][3]uint32) {
	remap := make([]uint32, len(c.verts))
	cells := make(map[[3]int32]uint32)
	for i := range c.verts {
		if c.locked != nil && c.locked[i] {
			remap[i] = uint32(i)
			continue
		}
		key := c.cellKey(c.verts[i].Position, grid)
		rep, ok := cells[key]
		if !ok {
			rep = uint32(i)
			cells[key] = rep
		}
		remap[i] = rep
	}

	seen := make(map[[3]uint32]struct{})
	var kept [][3]uint32
	for t := 0; t+2 < len(c.indices); t += 3 {
		a, b, d := remap[c.indices[t]], remap[c.indices[t+1]], remap[c.indices[t+2]]
		if a == b || b == d || d == a {
			continue
		}
		key := canonical(a, b, d)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, [3]uint32{a, b, d})
	}
	return remap, kept
}

func (c *clusterer) count(grid int) int {
	_, kept := c.build(grid)
	return len(kept)
}

// centroids moves every representative to the mean of its cell.
func (c *clusterer) centroids(remap []uint32) {
	sums := make(map[uint32][3]float32)
	counts := make(map[uint32]float32)
	for i, rep := range remap {
		s := sums[rep]
		p := c.verts[i].Position
		sums[rep] = [3]float32{s[0] + p[0], s[1] + p[1], s[2] + p[2]}
		counts[rep]++
	}
	for rep, s := range sums {
		n := counts[rep]
		c.verts[rep].Position = [3]float32{s[0] / n, s[1] / n, s[2] / n}
	}
}

// canonical rotates a triangle so its smallest index comes first, keeping winding.
func canonical(a, b, c uint32) [3]uint32 {
	switch {
	case a <= b && a <= c:
		return [3]uint32{a, b, c}
	case b <= a && b <= c:
		return [3]uint32{b, c, a}
	default:
		return [3]uint32{c, a, b}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
