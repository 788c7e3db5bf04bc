package model

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func quad() *Mesh {
	return &Mesh{
		Name: "quad",
		Vertices: []Vertex{
			{Position: [3]float32{0, 0, 0}},
			{Position: [3]float32{1, 0, 0}},
			{Position: [3]float32{1, 1, 0}},
			{Position: [3]float32{0, 1, 0}},
		},
		Indices: IndexBuffer{U16: []uint16{0, 1, 2, 0, 2, 3}},
	}
}

func TestEnsureIndicesU32(t *testing.T) {
	tests := []struct {
		name string
		mesh *Mesh
		want []uint32
	}{
		{"u16", quad(), []uint32{0, 1, 2, 0, 2, 3}},
		{"u32 unchanged", &Mesh{Vertices: make([]Vertex, 3), Indices: IndexBuffer{U32: []uint32{2, 1, 0}}}, []uint32{2, 1, 0}},
		{"not indexed", &Mesh{Vertices: make([]Vertex, 3)}, []uint32{0, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mesh.EnsureIndicesU32()
			if tt.mesh.Indices.Format() != IndexU32 {
				t.Fatalf("format = %v, want u32", tt.mesh.Indices.Format())
			}
			if tt.mesh.Indices.U16 != nil {
				t.Error("u16 storage still set")
			}
			got := tt.mesh.Indices.U32
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("index %d = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := quad()
	c := m.Clone()

	c.Vertices[0].Position[0] = 42
	c.Indices.U16[0] = 3

	if m.Vertices[0].Position[0] != 0 {
		t.Error("clone shares vertex storage")
	}
	if m.Indices.U16[0] != 0 {
		t.Error("clone shares index storage")
	}
	if c.Indices.U32 != nil {
		t.Error("clone invented u32 storage")
	}
}

func TestCompact(t *testing.T) {
	m := quad()
	m.Vertices = append(m.Vertices, Vertex{Position: [3]float32{9, 9, 9}})
	m.EnsureIndicesU32()
	m.Indices.U32 = m.Indices.U32[:3] // keep the first triangle only

	m.Compact()

	if m.PositionCount() != 3 {
		t.Errorf("PositionCount = %d, want 3", m.PositionCount())
	}
	for i, idx := range m.Indices.U32 {
		if int(idx) >= m.PositionCount() {
			t.Errorf("index %d out of range after compact: %d", i, idx)
		}
	}
	if m.Vertices[m.Indices.U32[2]].Position != [3]float32{1, 1, 0} {
		t.Errorf("remapped vertex mismatch: %v", m.Vertices[m.Indices.U32[2]].Position)
	}
}

func TestBounds(t *testing.T) {
	m := quad()
	m.Vertices = append(m.Vertices, Vertex{Position: [3]float32{-4, 0, 0}})
	m.ComputeBounds()

	if m.Bounds.Min != [3]float32{-4, 0, 0} || m.Bounds.Max != [3]float32{1, 1, 0} {
		t.Errorf("bounds = %+v", m.Bounds)
	}
	if m.Bounds.Extent() != 5 {
		t.Errorf("Extent = %f, want 5", m.Bounds.Extent())
	}

	sparse := BoundsOf(m.Vertices, []uint32{0, 1, 2})
	if sparse.Extent() != 1 {
		t.Errorf("sparse Extent = %f, want 1", sparse.Extent())
	}

	if (BoundsOf(nil, nil) != Bounds{}) {
		t.Error("empty bounds should be zero")
	}
}

func TestRecomputeNormals(t *testing.T) {
	m := quad()
	m.RecomputeNormals()
	for i, v := range m.Vertices {
		if v.Normal != [3]float32{0, 0, 1} {
			t.Errorf("vertex %d normal = %v, want +Z", i, v.Normal)
		}
	}
}

func TestTransformPoint(t *testing.T) {
	p := TransformPoint(mgl32.Translate3D(1, 2, 3), [3]float32{1, 1, 1})
	if p != [3]float32{2, 3, 4} {
		t.Errorf("TransformPoint = %v", p)
	}
}
