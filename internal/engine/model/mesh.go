package model

// Clone returns a deep copy of the mesh. Spawned scene instances own clones so
// simplifying one never touches the loaded asset.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Name:     m.Name,
		Vertices: append([]Vertex(nil), m.Vertices...),
		Bounds:   m.Bounds,
	}
	if m.Indices.U32 != nil {
		c.Indices.U32 = append([]uint32{}, m.Indices.U32...)
	}
	if m.Indices.U16 != nil {
		c.Indices.U16 = append([]uint16{}, m.Indices.U16...)
	}
	return c
}

// PositionCount returns the number of vertex positions.
func (m *Mesh) PositionCount() int {
	return len(m.Vertices)
}

// IndexCount returns the number of indices.
func (m *Mesh) IndexCount() int {
	return m.Indices.Len()
}

// EnsureIndicesU32 converts the index buffer to 32-bit storage.
// A non-indexed mesh gets the sequential indices 0..n-1.
func (m *Mesh) EnsureIndicesU32() {
	switch m.Indices.Format() {
	case IndexU32:
		return
	case IndexU16:
		out := make([]uint32, len(m.Indices.U16))
		for i, idx := range m.Indices.U16 {
			out[i] = uint32(idx)
		}
		m.Indices = IndexBuffer{U32: out}
	default:
		out := make([]uint32, len(m.Vertices))
		for i := range out {
			out[i] = uint32(i)
		}
		m.Indices = IndexBuffer{U32: out}
	}
}

// ComputeBounds recalculates Bounds from every vertex.
func (m *Mesh) ComputeBounds() {
	m.Bounds = BoundsOf(m.Vertices, nil)
}

// BoundsOf returns the box around vertices. When indices is non-nil only
// referenced vertices count.
func BoundsOf(vertices []Vertex, indices []uint32) Bounds {
	b := Bounds{
		Min: [3]float32{1e30, 1e30, 1e30},
		Max: [3]float32{-1e30, -1e30, -1e30},
	}
	n := 0
	if indices != nil {
		for _, idx := range indices {
			b.Include(vertices[idx].Position)
			n++
		}
	} else {
		for i := range vertices {
			b.Include(vertices[i].Position)
			n++
		}
	}
	if n == 0 {
		return Bounds{}
	}
	return b
}

// Compact drops vertices no index refers to and rewrites the indices.
// The mesh must use 32-bit indices.
func (m *Mesh) Compact() {
	remap := make([]int32, len(m.Vertices))
	for i := range remap {
		remap[i] = -1
	}

	kept := make([]Vertex, 0, len(m.Vertices))
	for i, idx := range m.Indices.U32 {
		if remap[idx] < 0 {
			remap[idx] = int32(len(kept))
			kept = append(kept, m.Vertices[idx])
		}
		m.Indices.U32[i] = uint32(remap[idx])
	}
	m.Vertices = kept
}

// RecomputeNormals rebuilds per-vertex normals by averaging the normals of
// the faces that use each vertex. Degenerate faces are skipped.
func (m *Mesh) RecomputeNormals() {
	sums := make([][3]float32, len(m.Vertices))
	n := m.Indices.Len()
	for t := 0; t+2 < n; t += 3 {
		i0, i1, i2 := m.Indices.At(t), m.Indices.At(t+1), m.Indices.At(t+2)
		p0 := m.Vertices[i0].Position
		e1 := Sub(m.Vertices[i1].Position, p0)
		e2 := Sub(m.Vertices[i2].Position, p0)
		fn := Cross(e1, e2)
		if Length(fn) < 1e-12 {
			continue
		}
		for _, idx := range [3]uint32{i0, i1, i2} {
			sums[idx][0] += fn[0]
			sums[idx][1] += fn[1]
			sums[idx][2] += fn[2]
		}
	}
	for i := range m.Vertices {
		m.Vertices[i].Normal = Normalize(sums[i])
	}
}
