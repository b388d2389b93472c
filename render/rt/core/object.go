package core

import (
	"github.com/gekko3d/eqemu/render/rt/mesh"
)

// Renderer draws objects. Implementations live outside this package.
type Renderer interface {
	SetupMaterial(mtl *Material)
	DrawMesh(m *mesh.Mesh)
}

// Object is a named mesh with its own material copy.
type Object struct {
	name string
	mesh *mesh.Mesh

	Mtl Material
}

func NewObject(name string) *Object {
	return &Object{
		name: name,
		Mtl:  NewMaterial(),
	}
}

func (o *Object) SetName(name string) { o.name = name }

func (o *Object) Name() string { return o.name }

// SetMesh hands ownership of m to the object.
func (o *Object) SetMesh(m *mesh.Mesh) { o.mesh = m }

func (o *Object) Mesh() *mesh.Mesh { return o.mesh }

func (o *Object) Render(r Renderer) {
	if o.mesh == nil {
		return
	}
	r.SetupMaterial(&o.Mtl)
	r.DrawMesh(o.mesh)
}
