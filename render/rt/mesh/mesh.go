// Package mesh stores flattened, non-indexed vertex streams and tracks
// which channels are stale relative to their GPU-side copies.
package mesh

import (
	"fmt"

	"github.com/gekko3d/eqemu/render/rt/bvol"
)

// Attrib identifies an attribute channel.
type Attrib int

const (
	AttribVertex Attrib = iota
	AttribNormal
	AttribTexCoord

	NumAttribs
)

// DefaultElemSize is the element width each channel is normally populated with.
var DefaultElemSize = [NumAttribs]int{3, 3, 2}

func (a Attrib) String() string {
	switch a {
	case AttribVertex:
		return "vertex"
	case AttribNormal:
		return "normal"
	case AttribTexCoord:
		return "texcoord"
	}
	return fmt.Sprintf("Attrib(%d)", int(a))
}

const allValid = ^uint32(0)

// Uploader receives the contents of stale channels during Sync.
type Uploader interface {
	Upload(a Attrib, data []float32, elemSize, vcount int) error
}

// Mesh owns one float array per attribute channel. All channels share the
// same vertex count; nothing checks that they agree.
//
// bufValid is a bitmask with one bit per channel, set when the derived
// buffer matches the CPU data.
type Mesh struct {
	attr     [NumAttribs][]float32
	attrSize [NumAttribs]int
	vcount   int

	bufValid uint32

	bsph      bvol.Sphere
	bsphValid bool
}

func New() *Mesh {
	m := &Mesh{
		bufValid: allValid,
		bsph:     bvol.DefaultSphere(),
	}
	for i := Attrib(0); i < NumAttribs; i++ {
		m.bufValid &^= 1 << uint(i)
	}
	return m
}

// SetAttrib replaces the channel with a copy of the first count*elemSize
// floats of data (zero-filled if data is shorter), sets the vertex count and
// marks the channel stale. Setting the vertex channel invalidates the bounds.
// The returned slice is the new backing array.
func (m *Mesh) SetAttrib(a Attrib, count, elemSize int, data []float32) []float32 {
	if count < 0 {
		count = 0
	}
	buf := make([]float32, count*elemSize)
	copy(buf, data)

	m.attr[a] = buf
	m.attrSize[a] = elemSize
	m.vcount = count
	m.bufValid &^= 1 << uint(a)

	if a == AttribVertex {
		m.bsphValid = false
	}
	return buf
}

// Attrib returns the channel for writing. The channel (and the bounds, for
// the vertex channel) is marked stale whether or not the caller writes.
func (m *Mesh) Attrib(a Attrib) []float32 {
	m.bufValid &^= 1 << uint(a)
	if a == AttribVertex {
		m.bsphValid = false
	}
	return m.attr[a]
}

// AttribView returns the channel without invalidating anything. The caller
// must not modify the result.
func (m *Mesh) AttribView(a Attrib) []float32 {
	return m.attr[a]
}

func (m *Mesh) ElemSize(a Attrib) int { return m.attrSize[a] }

func (m *Mesh) VertexCount() int { return m.vcount }

// IsStale reports whether the channel changed since it was last marked clean.
func (m *Mesh) IsStale(a Attrib) bool {
	return m.bufValid&(1<<uint(a)) == 0
}

func (m *Mesh) MarkClean(a Attrib) {
	m.bufValid |= 1 << uint(a)
}

func (m *Mesh) MarkStale(a Attrib) {
	m.bufValid &^= 1 << uint(a)
}

// AnyStale reports whether Sync has work to do.
func (m *Mesh) AnyStale() bool {
	return m.bufValid != allValid
}

// Sync hands every stale, populated channel to u and marks it clean once
// the upload succeeds. It stops at the first upload error, leaving that
// channel stale.
func (m *Mesh) Sync(u Uploader) error {
	if m.vcount == 0 || m.bufValid == allValid {
		return nil
	}

	for a := Attrib(0); a < NumAttribs; a++ {
		if !m.IsStale(a) {
			continue
		}
		if m.attr[a] == nil {
			// nothing to upload; an absent channel is never stale
			m.MarkClean(a)
			continue
		}
		if err := u.Upload(a, m.attr[a], m.attrSize[a], m.vcount); err != nil {
			return fmt.Errorf("mesh: uploading %s channel: %w", a, err)
		}
		m.MarkClean(a)
	}
	return nil
}

// Bounds returns the cached bounding sphere, recomputing it if the vertex
// channel changed. The pointer is writable so callers can inflate it; the
// change lasts until the next vertex invalidation. A mesh with no vertices
// reports the unit sphere at the origin.
func (m *Mesh) Bounds() *bvol.Sphere {
	m.calcBounds()
	return &m.bsph
}

func (m *Mesh) calcBounds() {
	if m.bsphValid {
		return
	}
	if m.vcount == 0 || m.attr[AttribVertex] == nil {
		m.bsph = bvol.DefaultSphere()
		return
	}
	m.bsph = bvol.ComputeSphere(m.attr[AttribVertex], m.vcount)
	m.bsphValid = true
}
