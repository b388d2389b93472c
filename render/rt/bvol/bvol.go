// Package bvol provides bounding volumes used to approximate ray picking.
package bvol

import (
	"github.com/gekko3d/eqemu/render/rt/vmath"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Volume is anything a ray can be tested against.
type Volume interface {
	Intersect(ray vmath.Ray) (vmath.HitPoint, bool)
}

// Sphere is a bounding sphere. The zero value has radius 0; use NewSphere
// or DefaultSphere for the unit sphere.
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

var _ Volume = (*Sphere)(nil)

func NewSphere(center mgl32.Vec3, radius float32) Sphere {
	return Sphere{Center: center, Radius: radius}
}

// DefaultSphere is the unit sphere at the origin.
func DefaultSphere() Sphere {
	return Sphere{Radius: 1.0}
}

// Scale multiplies the radius by f.
func (s *Sphere) Scale(f float32) {
	s.Radius *= f
}

// Contains reports whether p lies within radius+eps of the center.
func (s *Sphere) Contains(p mgl32.Vec3, eps float32) bool {
	return vmath.Distance(p, s.Center) <= s.Radius+eps
}

// Intersect solves |O + tD - C|^2 = r^2 for the nearest t in front of the
// ray origin. Near-tangent rays (discriminant below Epsilon) are misses.
// If one root lies behind the origin the other one is used, so a ray
// starting inside the sphere reports the exit point.
func (s *Sphere) Intersect(ray vmath.Ray) (vmath.HitPoint, bool) {
	o, d, c := ray.Origin, ray.Dir, s.Center

	a := d.Dot(d)
	b := 2.0 * d.Dot(o.Sub(c))
	cc := o.Dot(o) + c.Dot(c) - 2.0*o.Dot(c) - s.Radius*s.Radius

	disc := b*b - 4.0*a*cc
	if disc < vmath.Epsilon {
		return vmath.HitPoint{}, false
	}

	sqrtDisc := math32.Sqrt(disc)
	x1 := (-b + sqrtDisc) / (2.0 * a)
	x2 := (-b - sqrtDisc) / (2.0 * a)

	if x1 < vmath.Epsilon {
		x1 = x2
	}
	if x2 < vmath.Epsilon {
		x2 = x1
	}

	t := x1
	if x2 < t {
		t = x2
	}
	if t < vmath.Epsilon {
		return vmath.HitPoint{}, false
	}

	return vmath.HitPoint{T: t, Pos: ray.At(t)}, true
}

// ComputeSphere returns a sphere enclosing the first count xyz triples in
// positions: the center is the mean and the radius the largest distance
// from it. This is not the minimal enclosing sphere. An empty set yields
// DefaultSphere.
func ComputeSphere(positions []float32, count int) Sphere {
	if n := len(positions) / 3; count > n {
		count = n
	}
	if count <= 0 {
		return DefaultSphere()
	}

	var center mgl32.Vec3
	for i := 0; i < count; i++ {
		center = center.Add(mgl32.Vec3{positions[i*3], positions[i*3+1], positions[i*3+2]})
	}
	center = center.Mul(1.0 / float32(count))

	var maxLenSq float32
	for i := 0; i < count; i++ {
		v := mgl32.Vec3{positions[i*3], positions[i*3+1], positions[i*3+2]}.Sub(center)
		if lenSq := v.Dot(v); lenSq > maxLenSq {
			maxLenSq = lenSq
		}
	}

	return Sphere{Center: center, Radius: math32.Sqrt(maxLenSq)}
}
