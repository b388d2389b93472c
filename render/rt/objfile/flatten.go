package objfile

import (
	"github.com/gekko3d/eqemu/render/rt/core"
	"github.com/gekko3d/eqemu/render/rt/mesh"

	"github.com/go-gl/mathgl/mgl32"
)

// consObject flattens the pending triangles into a new object. Every
// corner gets its own copy of position, normal and texcoord; nothing is
// welded. Corners without a normal or texcoord reference get zeros.
// Triangles referencing a position outside the pool are dropped. Returns
// nil if no triangle survives.
func (s *Session) consObject(geo *geometry) *core.Object {
	nelem := len(geo.faces) * 3

	varr := make([]float32, 0, nelem*3)
	narr := make([]float32, 0, nelem*3)
	tarr := make([]float32, 0, nelem*2)

	dropped := 0
	for _, f := range geo.faces {
		if !inRange(f.v[0], len(geo.v)) || !inRange(f.v[1], len(geo.v)) || !inRange(f.v[2], len(geo.v)) {
			dropped++
			continue
		}
		for j := 0; j < 3; j++ {
			p := geo.v[f.v[j]]
			varr = append(varr, p[0], p[1], p[2])

			var n mgl32.Vec3
			if inRange(f.n[j], len(geo.vn)) {
				n = geo.vn[f.n[j]]
			} else if f.n[j] != noIndex {
				s.log.Debugf("object %s: normal index %d out of range", geo.curObj, f.n[j])
			}
			narr = append(narr, n[0], n[1], n[2])

			var tc mgl32.Vec2
			if inRange(f.t[j], len(geo.vt)) {
				tc = geo.vt[f.t[j]]
			} else if f.t[j] != noIndex {
				s.log.Debugf("object %s: texcoord index %d out of range", geo.curObj, f.t[j])
			}
			tarr = append(tarr, tc[0], tc[1])
		}
	}

	if dropped > 0 {
		s.log.Warnf("object %s: dropped %d faces with invalid vertex indices", geo.curObj, dropped)
	}
	count := len(varr) / 3
	if count == 0 {
		return nil
	}

	obj := core.NewObject(geo.curObj)
	m := mesh.New()
	m.SetAttrib(mesh.AttribVertex, count, 3, varr)
	m.SetAttrib(mesh.AttribNormal, count, 3, narr)
	m.SetAttrib(mesh.AttribTexCoord, count, 2, tarr)
	obj.SetMesh(m)

	s.log.Infof("loaded object %s: %d faces", geo.curObj, count/3)
	return obj
}

func inRange(idx, size int) bool {
	return idx >= 0 && idx < size
}
