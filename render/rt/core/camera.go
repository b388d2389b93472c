package core

import (
	"github.com/gekko3d/eqemu/render/rt/vmath"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera orbits the origin: the view is translate(0,0,-Dist) * rotX(Phi) *
// rotY(Theta), angles in degrees.
type Camera struct {
	Theta float32
	Phi   float32
	Dist  float32

	FovY float32 // degrees
	Near float32
	Far  float32

	Sensitivity float32 // degrees (or units of Dist) per pixel
	LookRange   float32 // degrees at the window edge, for Look
}

func NewCamera() *Camera {
	return &Camera{
		Dist:        140,
		FovY:        50,
		Near:        1,
		Far:         1000,
		Sensitivity: 0.5,
		LookRange:   15,
	}
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	translate := mgl32.Translate3D(0, 0, -c.Dist)
	rotX := mgl32.HomogRotate3DX(mgl32.DegToRad(c.Phi))
	rotY := mgl32.HomogRotate3DY(mgl32.DegToRad(c.Theta))
	return translate.Mul4(rotX).Mul4(rotY)
}

func (c *Camera) Projection(width, height int) mgl32.Mat4 {
	aspect := float32(1.0)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// Eye returns the camera position in world space.
func (c *Camera) Eye() mgl32.Vec3 {
	inv := c.ViewMatrix().Inv()
	return inv.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
}

// Orbit rotates by a mouse drag of dx, dy pixels. Phi is clamped to ±90.
func (c *Camera) Orbit(dx, dy float32) {
	c.Theta += dx * c.Sensitivity
	c.Phi += dy * c.Sensitivity
	c.Phi = mgl32.Clamp(c.Phi, -90, 90)
}

// Zoom moves the camera along its view axis; Dist never goes negative.
func (c *Camera) Zoom(dy float32) {
	c.Dist += dy * c.Sensitivity
	if c.Dist < 0 {
		c.Dist = 0
	}
}

// Look aims a little towards the cursor, with x and y in pixels from the
// top-left corner.
func (c *Camera) Look(x, y float32, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	xoffs := 2.0*x/float32(width) - 1.0
	yoffs := 2.0*y/float32(height) - 1.0
	c.Theta = -xoffs * c.LookRange * (float32(width) / float32(height))
	c.Phi = -yoffs * c.LookRange
}

// PickRay returns the world-space ray through window pixel (x, y), with y
// measured from the bottom edge. The origin lies on the near plane and the
// direction is unit length.
func (c *Camera) PickRay(x, y float32, width, height int) (vmath.Ray, error) {
	view := c.ViewMatrix()
	proj := c.Projection(width, height)

	near, err := mgl32.UnProject(mgl32.Vec3{x, y, 0}, view, proj, 0, 0, width, height)
	if err != nil {
		return vmath.Ray{}, err
	}
	far, err := mgl32.UnProject(mgl32.Vec3{x, y, 1}, view, proj, 0, 0, width, height)
	if err != nil {
		return vmath.Ray{}, err
	}
	return vmath.NewRay(near, vmath.Normalize(far.Sub(near))), nil
}
