package core

import (
	"github.com/gekko3d/eqemu/render/rt/mesh"
)

// Scene keeps objects in insertion order, which is also the draw order.
type Scene struct {
	objects []*Object
	meshes  []*mesh.Mesh
}

func NewScene() *Scene {
	return &Scene{
		objects: []*Object{},
	}
}

func (s *Scene) AddObject(obj *Object) {
	s.objects = append(s.objects, obj)
}

func (s *Scene) AddMesh(m *mesh.Mesh) {
	s.meshes = append(s.meshes, m)
}

func (s *Scene) NumObjects() int { return len(s.objects) }

func (s *Scene) NumMeshes() int { return len(s.meshes) }

func (s *Scene) Object(idx int) *Object { return s.objects[idx] }

func (s *Scene) Mesh(idx int) *mesh.Mesh { return s.meshes[idx] }

// Objects returns a snapshot of the object list.
func (s *Scene) Objects() []*Object {
	out := make([]*Object, len(s.objects))
	copy(out, s.objects)
	return out
}

// ObjectByName returns the first object named name, or nil.
func (s *Scene) ObjectByName(name string) *Object {
	for _, o := range s.objects {
		if o.name == name {
			return o
		}
	}
	return nil
}

// RemoveObject drops the first occurrence of obj, keeping the order of the
// rest. It reports whether obj was found.
func (s *Scene) RemoveObject(obj *Object) bool {
	for i, o := range s.objects {
		if o == obj {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			return true
		}
	}
	return false
}

// Render draws every object in insertion order.
func (s *Scene) Render(r Renderer) {
	for _, o := range s.objects {
		o.Render(r)
	}
}

// Sync uploads stale mesh channels of every object through u. The first
// error is returned after all objects were visited.
func (s *Scene) Sync(u func(o *Object) mesh.Uploader) error {
	var first error
	for _, o := range s.objects {
		if o.mesh == nil || !o.mesh.AnyStale() {
			continue
		}
		if err := o.mesh.Sync(u(o)); err != nil && first == nil {
			first = err
		}
	}
	return first
}
