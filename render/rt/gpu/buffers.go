package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gekko3d/eqemu/render/rt/mesh"

	"github.com/cogentcore/webgpu/wgpu"
)

// MeshBuffers holds one vertex buffer per mesh channel. It implements
// mesh.Uploader, so mesh.Sync only touches the buffers of stale channels.
type MeshBuffers struct {
	Device *wgpu.Device
	Label  string

	Buffers [mesh.NumAttribs]*wgpu.Buffer
	Strides [mesh.NumAttribs]uint64
	Count   int

	// Writes counts WriteBuffer calls per channel.
	Writes [mesh.NumAttribs]int
}

func NewMeshBuffers(device *wgpu.Device, label string) *MeshBuffers {
	return &MeshBuffers{
		Device: device,
		Label:  label,
	}
}

func (b *MeshBuffers) Upload(a mesh.Attrib, data []float32, elemSize, vcount int) error {
	if a < 0 || a >= mesh.NumAttribs {
		return fmt.Errorf("gpu: invalid attribute %d", a)
	}
	name := fmt.Sprintf("%s %s", b.Label, a)
	if err := b.ensureBuffer(name, &b.Buffers[a], floatsToBytes(data), wgpu.BufferUsageVertex); err != nil {
		return err
	}
	b.Writes[a]++
	b.Strides[a] = uint64(elemSize * 4)
	b.Count = vcount
	return nil
}

// Buffer returns the vertex buffer of channel a, nil before its first
// upload.
func (b *MeshBuffers) Buffer(a mesh.Attrib) *wgpu.Buffer {
	return b.Buffers[a]
}

func (b *MeshBuffers) Release() {
	for i, buf := range b.Buffers {
		if buf != nil {
			buf.Release()
			b.Buffers[i] = nil
		}
	}
	b.Count = 0
}

// ensureBuffer creates or grows buf to hold data and writes it. Buffers
// are never shrunk.
func (b *MeshBuffers) ensureBuffer(name string, buf **wgpu.Buffer, data []byte, usage wgpu.BufferUsage) error {
	neededSize := alignedSize(len(data))

	current := *buf
	if current == nil || current.GetSize() < neededSize {
		if current != nil {
			current.Release()
			*buf = nil
		}

		newBuf, err := b.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            name,
			Size:             neededSize,
			Usage:            usage | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return fmt.Errorf("gpu: creating buffer %s: %w", name, err)
		}
		*buf = newBuf
	}

	if len(data) > 0 {
		b.Device.GetQueue().WriteBuffer(*buf, 0, data)
	}
	return nil
}

// alignedSize rounds n up to the 4-byte copy alignment. Empty data still
// gets a 4-byte buffer.
func alignedSize(n int) uint64 {
	size := uint64(n)
	if size == 0 {
		return 4
	}
	if size%4 != 0 {
		size += 4 - (size % 4)
	}
	return size
}

func floatsToBytes(data []float32) []byte {
	buf := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
