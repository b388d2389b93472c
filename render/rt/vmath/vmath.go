// Package vmath holds the small set of vector primitives shared by the
// bounding volume, mesh and picking code. Vectors are mgl32 value types.
package vmath

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon is the threshold below which intersection distances and
// discriminants are treated as zero.
const Epsilon = 1e-6

// Ray is a half line origin + t*dir. Dir does not have to be unit length.
type Ray struct {
	Origin mgl32.Vec3
	Dir    mgl32.Vec3
}

// NewRay returns a ray from origin along dir.
func NewRay(origin, dir mgl32.Vec3) Ray {
	return Ray{Origin: origin, Dir: dir}
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// HitPoint is filled in by a successful intersection.
type HitPoint struct {
	T   float32
	Pos mgl32.Vec3
}

// Normalize returns v scaled to unit length. A zero vector is returned
// unchanged (mgl32's Normalize would produce NaNs).
func Normalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Mul(1.0 / l)
}

// Normalize2 is Normalize for 2D vectors.
func Normalize2(v mgl32.Vec2) mgl32.Vec2 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Mul(1.0 / l)
}

// Distance returns |a - b|.
func Distance(a, b mgl32.Vec3) float32 {
	return a.Sub(b).Len()
}
