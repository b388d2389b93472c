package core

import (
	"github.com/gekko3d/eqemu/render/rt/vmath"
)

// PickNearest tests ray against the bounding sphere of each object's mesh
// and returns the index of the closest hit. Objects without a mesh are
// skipped.
func PickNearest(ray vmath.Ray, objs []*Object) (int, vmath.HitPoint, bool) {
	best := -1
	var bestHit vmath.HitPoint

	for i, o := range objs {
		if o == nil || o.mesh == nil {
			continue
		}
		hit, ok := o.mesh.Bounds().Intersect(ray)
		if ok && (best < 0 || hit.T < bestHit.T) {
			best = i
			bestHit = hit
		}
	}
	return best, bestHit, best >= 0
}
