package core

import (
	"github.com/gekko3d/eqemu/render/rt/texture"

	"github.com/go-gl/mathgl/mgl32"
)

// Texture slots.
const (
	TexDiffuse = iota
	TexEnvMap

	NumTextures
)

// MaxShininess is the largest specular exponent fixed-function style
// renderers accept.
const MaxShininess = 128.0

// Material is copied by value onto each object. Copies share texture ids
// but keep independent offsets and scales.
type Material struct {
	Emissive  mgl32.Vec3
	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3
	Shininess float32
	IOR       float32
	Alpha     float32

	Tex       [NumTextures]texture.AssetId
	TexOffset [NumTextures]mgl32.Vec2
	TexScale  [NumTextures]mgl32.Vec2

	// Shader is an opaque program id; 0 means the renderer default.
	Shader uint32
}

func NewMaterial() Material {
	m := Material{
		Diffuse:   mgl32.Vec3{1, 1, 1},
		Specular:  mgl32.Vec3{0, 0, 0},
		Shininess: 1.0,
		IOR:       1.0,
		Alpha:     1.0,
	}
	for i := range m.TexScale {
		m.TexScale[i] = mgl32.Vec2{1, 1}
	}
	return m
}

// HasTexture reports whether slot has a texture bound.
func (m *Material) HasTexture(slot int) bool {
	return m.Tex[slot] != texture.None
}

// ClampedShininess limits Shininess to [0, MaxShininess].
func (m *Material) ClampedShininess() float32 {
	return mgl32.Clamp(m.Shininess, 0, MaxShininess)
}

// TextureMatrix is translate(offset) * scale(scale) for slot.
func (m *Material) TextureMatrix(slot int) mgl32.Mat3 {
	off, sc := m.TexOffset[slot], m.TexScale[slot]
	return mgl32.Translate2D(off.X(), off.Y()).Mul3(mgl32.Scale2D(sc.X(), sc.Y()))
}
