package model

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Cross returns a × b.
func Cross(a, b [3]float32) [3]float32 {
	return mgl32.Vec3(a).Cross(mgl32.Vec3(b))
}

// Sub returns a - b.
func Sub(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Dot returns the dot product of a and b.
func Dot(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// Length returns the magnitude of v.
func Length(v [3]float32) float32 {
	return math32.Sqrt(Dot(v, v))
}

// Distance returns the distance between two points.
func Distance(a, b [3]float32) float32 {
	return Length(Sub(a, b))
}

// Normalize returns v scaled to unit length; near-zero vectors become +Y.
func Normalize(v [3]float32) [3]float32 {
	if Length(v) < 1e-4 {
		return [3]float32{0, 1, 0}
	}
	return mgl32.Vec3(v).Normalize()
}

// TransformPoint applies a 4x4 matrix to a point.
func TransformPoint(m mgl32.Mat4, p [3]float32) [3]float32 {
	return m.Mul4x1(mgl32.Vec4{p[0], p[1], p[2], 1}).Vec3()
}
