package decimate

import (
	"sort"

	"github.com/Faultbox/meshlab/internal/engine/model"
	"github.com/Faultbox/meshlab/internal/simplify"
)

type candidate struct {
	edge edgeKey
	cost float32
}

// collapseSimplify removes edges shortest-first until the index count reaches
// target or no edge can move within limit. Each collapse merges one vertex
// into another (or both into their midpoint with Regularize) and is rejected
// if it would flip a neighbouring triangle. Every vertex carries a bound on how
// far the input vertices folded into it have moved; a collapse that would push
// that bound past limit is rejected. It returns the largest bound reached.
func collapseSimplify(m *model.Mesh, target int, limit float32, opts simplify.Options) float32 {
	verts := m.Vertices
	indices := m.Indices.U32
	midpoint := opts.Has(simplify.Regularize)

	var locked []bool
	if opts.Has(simplify.LockBorder) {
		locked = borderVertices(len(verts), indices)
	} else {
		locked = make([]bool, len(verts))
	}

	remap := make([]uint32, len(verts))
	drift := make([]float32, len(verts))
	var achieved float32

	for len(indices) > target {
		vt := vertexTriangles(len(verts), indices)
		edges := candidates(verts, indices, midpoint, limit)
		if len(edges) == 0 {
			break
		}

		for i := range remap {
			remap[i] = uint32(i)
		}
		dirty := make([]bool, len(verts))
		live := len(indices)
		collapsed := 0

		for _, c := range edges {
			a, b := c.edge[0], c.edge[1]
			if dirty[a] || dirty[b] {
				continue
			}
			if locked[a] && locked[b] {
				continue
			}

			// b folds into a unless b is locked; u is never locked.
			u, v := b, a
			if locked[b] {
				u, v = a, b
			}

			pu, pv := verts[u].Position, verts[v].Position
			pos := pv
			moveV := midpoint && !locked[v]
			if moveV {
				pos = [3]float32{(pu[0] + pv[0]) / 2, (pu[1] + pv[1]) / 2, (pu[2] + pv[2]) / 2}
			}
			disp := max(drift[u]+model.Distance(pu, pos), drift[v]+model.Distance(pv, pos))
			if disp > limit {
				continue
			}

			if flips(verts, indices, vt[u], u, v, pos) {
				continue
			}
			if moveV && flips(verts, indices, vt[v], v, u, pos) {
				continue
			}

			removed := 0
			for _, t := range vt[u] {
				if triangleHas(indices, t, v) {
					removed++
				}
			}

			remap[u] = v
			drift[v] = disp
			if moveV {
				verts[v].Position = pos
				verts[v].Normal = model.Normalize([3]float32{
					verts[u].Normal[0] + verts[v].Normal[0],
					verts[u].Normal[1] + verts[v].Normal[1],
					verts[u].Normal[2] + verts[v].Normal[2],
				})
			}
			if disp > achieved {
				achieved = disp
			}

			markNeighbours(dirty, indices, vt[u])
			markNeighbours(dirty, indices, vt[v])

			live -= removed * 3
			collapsed++
			if live <= target {
				break
			}
		}

		if collapsed == 0 {
			break
		}
		indices = dropDegenerate(indices, remap)
	}

	m.Indices.U32 = indices
	m.Compact()
	return achieved
}

// candidates lists every edge whose collapse stays within limit, cheapest first.
func candidates(verts []model.Vertex, indices []uint32, midpoint bool, limit float32) []candidate {
	seen := make(map[edgeKey]struct{}, len(indices))
	var out []candidate
	for t := 0; t+2 < len(indices); t += 3 {
		tri := [3]uint32{indices[t], indices[t+1], indices[t+2]}
		for k := 0; k < 3; k++ {
			e := makeEdge(tri[k], tri[(k+1)%3])
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}

			cost := model.Distance(verts[e[0]].Position, verts[e[1]].Position)
			if midpoint {
				cost /= 2
			}
			if cost > limit {
				continue
			}
			out = append(out, candidate{edge: e, cost: cost})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].cost != out[j].cost {
			return out[i].cost < out[j].cost
		}
		if out[i].edge[0] != out[j].edge[0] {
			return out[i].edge[0] < out[j].edge[0]
		}
		return out[i].edge[1] < out[j].edge[1]
	})
	return out
}

func vertexTriangles(vertexCount int, indices []uint32) [][]int {
	vt := make([][]int, vertexCount)
	for t := 0; t+2 < len(indices); t += 3 {
		for k := 0; k < 3; k++ {
			idx := indices[t+k]
			vt[idx] = append(vt[idx], t)
		}
	}
	return vt
}

func triangleHas(indices []uint32, t int, v uint32) bool {
	return indices[t] == v || indices[t+1] == v || indices[t+2] == v
}

func markNeighbours(dirty []bool, indices []uint32, tris []int) {
	for _, t := range tris {
		dirty[indices[t]] = true
		dirty[indices[t+1]] = true
		dirty[indices[t+2]] = true
	}
}

// flips reports whether moving vertex u to pos turns any of its triangles
// (other than those shared with other, which disappear) upside down or flat.
func flips(verts []model.Vertex, indices []uint32, tris []int, u, other uint32, pos [3]float32) bool {
	for _, t := range tris {
		if triangleHas(indices, t, other) {
			continue
		}
		var before, after [3][3]float32
		for k := 0; k < 3; k++ {
			idx := indices[t+k]
			before[k] = verts[idx].Position
			after[k] = before[k]
			if idx == u {
				after[k] = pos
			}
		}
		nb := faceNormal(before)
		if model.Length(nb) < 1e-12 {
			continue
		}
		if model.Dot(nb, faceNormal(after)) <= 0 {
			return true
		}
	}
	return false
}

func faceNormal(p [3][3]float32) [3]float32 {
	return model.Cross(model.Sub(p[1], p[0]), model.Sub(p[2], p[0]))
}
