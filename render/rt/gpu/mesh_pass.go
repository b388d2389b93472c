package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gekko3d/eqemu/render/rt/core"
	"github.com/gekko3d/eqemu/render/rt/mesh"
	"github.com/gekko3d/eqemu/render/rt/shaders"
	"github.com/gekko3d/eqemu/render/rt/texture"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// drawSlotSize is the stride of per-draw uniform blocks; dynamic offsets
// must be multiples of 256.
const (
	drawDataSize = 176
	drawSlotSize = 256
)

// TextureSource hands out decoded textures by id.
type TextureSource interface {
	Get(id texture.AssetId) (*texture.Texture, bool)
}

type gpuTexture struct {
	tex   *wgpu.Texture
	view  *wgpu.TextureView
	group *wgpu.BindGroup
}

func (t *gpuTexture) release() {
	if t.group != nil {
		t.group.Release()
	}
	if t.view != nil {
		t.view.Release()
	}
	if t.tex != nil {
		t.tex.Release()
	}
}

// MeshPass draws meshes with a simple lit pipeline. It implements
// core.Renderer between Begin and End; every DrawMesh takes one uniform
// slot, so Reserve must be called with the number of draws of the frame.
type MeshPass struct {
	Device   *wgpu.Device
	Pipeline *wgpu.RenderPipeline
	Sampler  *wgpu.Sampler

	// Buffers returns the uploaded channels of a mesh, nil if it has none.
	Buffers  func(m *mesh.Mesh) *MeshBuffers
	Textures TextureSource
	LightDir mgl32.Vec3

	drawLayout *wgpu.BindGroupLayout
	texLayout  *wgpu.BindGroupLayout
	uniforms   *wgpu.Buffer
	drawGroup  *wgpu.BindGroup
	capacity   int

	white    *gpuTexture
	textures map[texture.AssetId]*gpuTexture

	pass     *wgpu.RenderPassEncoder
	viewProj mgl32.Mat4
	mtl      core.Material
	slot     int
	Dropped  int
}

func NewMeshPass(device *wgpu.Device, format wgpu.TextureFormat, buffers func(m *mesh.Mesh) *MeshBuffers, textures TextureSource) (*MeshPass, error) {
	shaderModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "MeshShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.MeshWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: mesh shader: %w", err)
	}
	defer shaderModule.Release()

	drawLayout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "MeshDrawBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					MinBindingSize:   drawDataSize,
					HasDynamicOffset: true,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	texLayout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "MeshTextureBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
					Multisampled:  false,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{drawLayout, texLayout},
	})
	if err != nil {
		return nil, err
	}
	defer pipelineLayout.Release()

	channel := func(format wgpu.VertexFormat, size uint64, loc uint32) wgpu.VertexBufferLayout {
		return wgpu.VertexBufferLayout{
			ArrayStride: size,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{Format: format, Offset: 0, ShaderLocation: loc},
			},
		}
	}

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "MeshPipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     shaderModule,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				channel(wgpu.VertexFormatFloat32x3, 12, 0),
				channel(wgpu.VertexFormatFloat32x3, 12, 1),
				channel(wgpu.VertexFormatFloat32x2, 8, 2),
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shaderModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    format,
					WriteMask: wgpu.ColorWriteMaskAll,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorSrcAlpha,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						},
						Alpha: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						},
					},
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		// TODO: add a depth attachment; draw order decides visibility until then
		DepthStencil: nil,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}

	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0.,
		LodMaxClamp:   1.,
		Compare:       wgpu.CompareFunctionUndefined,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, err
	}

	p := &MeshPass{
		Device:     device,
		Pipeline:   pipeline,
		Sampler:    sampler,
		Buffers:    buffers,
		Textures:   textures,
		LightDir:   mgl32.Vec3{-7, 5, 10},
		drawLayout: drawLayout,
		texLayout:  texLayout,
		textures:   make(map[texture.AssetId]*gpuTexture),
	}

	p.white, err = p.uploadTexture("MeshWhite", []uint8{255, 255, 255, 255}, 1, 1, wgpu.TextureFormatRGBA8Unorm)
	if err != nil {
		return nil, err
	}
	if err := p.Reserve(16); err != nil {
		return nil, err
	}
	return p, nil
}

// Reserve makes room for n draws per frame.
func (p *MeshPass) Reserve(n int) error {
	if n <= p.capacity {
		return nil
	}
	if p.drawGroup != nil {
		p.drawGroup.Release()
		p.drawGroup = nil
	}
	if p.uniforms != nil {
		p.uniforms.Release()
		p.uniforms = nil
	}

	buf, err := p.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "MeshDrawUniforms",
		Size:  uint64(n * drawSlotSize),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: draw uniforms: %w", err)
	}
	group, err := p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "MeshDrawBG",
		Layout: p.drawLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  buf,
				Size:    drawDataSize,
			},
		},
	})
	if err != nil {
		buf.Release()
		return fmt.Errorf("gpu: draw bind group: %w", err)
	}

	p.uniforms = buf
	p.drawGroup = group
	p.capacity = n
	return nil
}

func (p *MeshPass) uploadTexture(label string, texels []uint8, w, h uint32, format wgpu.TextureFormat) (*gpuTexture, error) {
	size := wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}
	tex, err := p.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          size,
		Format:        format,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}
	p.Device.GetQueue().WriteTexture(tex.AsImageCopy(), texels, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  4 * w,
		RowsPerImage: h,
	}, &size)

	gt := &gpuTexture{tex: tex}
	if gt.view, err = tex.CreateView(nil); err != nil {
		gt.release()
		return nil, err
	}
	gt.group, err = p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label,
		Layout: p.texLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: gt.view},
			{Binding: 1, Sampler: p.Sampler},
		},
	})
	if err != nil {
		gt.release()
		return nil, err
	}
	return gt, nil
}

// texture returns the bind group for id, uploading it on first use.
// Unknown or failed textures bind white.
func (p *MeshPass) texture(id texture.AssetId) (*gpuTexture, bool) {
	if id == texture.None || p.Textures == nil {
		return p.white, false
	}
	if gt, ok := p.textures[id]; ok {
		return gt, gt != p.white
	}

	gt := p.white
	if tex, ok := p.Textures.Get(id); ok && tex.Width > 0 && tex.Height > 0 {
		if up, err := p.uploadTexture(tex.Name, tex.Texels, tex.Width, tex.Height, wgpu.TextureFormat(tex.Format)); err == nil {
			gt = up
		}
	}
	p.textures[id] = gt
	return gt, gt != p.white
}

func (p *MeshPass) Begin(pass *wgpu.RenderPassEncoder, viewProj mgl32.Mat4) {
	p.pass = pass
	p.viewProj = viewProj
	p.mtl = core.NewMaterial()
	p.slot = 0
	p.Dropped = 0
	pass.SetPipeline(p.Pipeline)
}

func (p *MeshPass) SetupMaterial(m *core.Material) {
	p.mtl = *m
}

func (p *MeshPass) DrawMesh(m *mesh.Mesh) {
	if p.pass == nil || m == nil || p.Buffers == nil {
		return
	}
	b := p.Buffers(m)
	if b == nil || b.Count == 0 {
		return
	}
	for _, buf := range b.Buffers {
		if buf == nil {
			return
		}
	}
	if p.slot >= p.capacity {
		p.Dropped++
		return
	}

	gt, textured := p.texture(p.mtl.Tex[core.TexDiffuse])
	offset := uint64(p.slot * drawSlotSize)
	p.Device.GetQueue().WriteBuffer(p.uniforms, offset, drawData(p.viewProj, &p.mtl, p.LightDir, textured))
	p.slot++

	p.pass.SetBindGroup(0, p.drawGroup, []uint32{uint32(offset)})
	p.pass.SetBindGroup(1, gt.group, nil)
	for i, buf := range b.Buffers {
		p.pass.SetVertexBuffer(uint32(i), buf, 0, buf.GetSize())
	}
	p.pass.Draw(uint32(b.Count), 1, 0, 0)
}

func (p *MeshPass) End() {
	p.pass = nil
}

func (p *MeshPass) Release() {
	for _, gt := range p.textures {
		if gt != p.white {
			gt.release()
		}
	}
	p.textures = make(map[texture.AssetId]*gpuTexture)
	if p.white != nil {
		p.white.release()
		p.white = nil
	}
	if p.drawGroup != nil {
		p.drawGroup.Release()
	}
	if p.uniforms != nil {
		p.uniforms.Release()
	}
	if p.Sampler != nil {
		p.Sampler.Release()
	}
	if p.Pipeline != nil {
		p.Pipeline.Release()
	}
}

// drawData packs one DrawData uniform block as laid out in mesh.wgsl.
func drawData(viewProj mgl32.Mat4, mtl *core.Material, lightDir mgl32.Vec3, textured bool) []byte {
	buf := make([]byte, drawDataSize)
	put := func(offset int, vals ...float32) {
		for i, v := range vals {
			binary.LittleEndian.PutUint32(buf[offset+i*4:], math.Float32bits(v))
		}
	}

	put(0, viewProj[:]...)
	put(64, mtl.Diffuse.X(), mtl.Diffuse.Y(), mtl.Diffuse.Z(), mtl.Alpha)
	put(80, mtl.Emissive.X(), mtl.Emissive.Y(), mtl.Emissive.Z(), 0)
	put(96, mtl.Ambient.X(), mtl.Ambient.Y(), mtl.Ambient.Z(), 0)
	put(112, mtl.Specular.X(), mtl.Specular.Y(), mtl.Specular.Z(), mtl.ClampedShininess())
	put(128, lightDir.X(), lightDir.Y(), lightDir.Z(), 0)

	off, sc := mtl.TexOffset[core.TexDiffuse], mtl.TexScale[core.TexDiffuse]
	put(144, off.X(), off.Y(), sc.X(), sc.Y())

	var flag float32
	if textured {
		flag = 1
	}
	put(160, flag, 0, 0, 0)
	return buf
}
