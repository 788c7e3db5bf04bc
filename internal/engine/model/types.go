// Package model holds the mesh buffers the simplifier mutates in place.
package model

// Vertex is a mesh vertex with position, normal, and texture coordinates.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// IndexFormat identifies the storage width of an IndexBuffer.
type IndexFormat uint8

const (
	// IndexNone means the mesh is not indexed.
	IndexNone IndexFormat = iota
	IndexU16
	IndexU32
)

func (f IndexFormat) String() string {
	switch f {
	case IndexU16:
		return "u16"
	case IndexU32:
		return "u32"
	default:
		return "none"
	}
}

// IndexBuffer stores triangle indices in exactly one width.
// At most one of U16 and U32 is non-nil.
type IndexBuffer struct {
	U16 []uint16
	U32 []uint32
}

// Format reports which storage is in use.
func (b IndexBuffer) Format() IndexFormat {
	switch {
	case b.U32 != nil:
		return IndexU32
	case b.U16 != nil:
		return IndexU16
	default:
		return IndexNone
	}
}

// Len returns the number of indices.
func (b IndexBuffer) Len() int {
	if b.U32 != nil {
		return len(b.U32)
	}
	return len(b.U16)
}

// At returns index i widened to uint32.
func (b IndexBuffer) At(i int) uint32 {
	if b.U32 != nil {
		return b.U32[i]
	}
	return uint32(b.U16[i])
}

// Mesh is a vertex attribute set plus an index sequence.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  IndexBuffer
	Bounds   Bounds
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Extent returns the largest side of the box, or 0 for an empty box.
func (b Bounds) Extent() float32 {
	var ext float32
	for i := 0; i < 3; i++ {
		if d := b.Max[i] - b.Min[i]; d > ext {
			ext = d
		}
	}
	return ext
}

// Center returns the midpoint of the box.
func (b Bounds) Center() [3]float32 {
	return [3]float32{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Include grows b to contain p.
func (b *Bounds) Include(p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}
