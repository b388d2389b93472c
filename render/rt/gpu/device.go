package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// State is the device side of a window: surface, adapter, device and
// the configured swapchain.
type State struct {
	Surface       *wgpu.Surface
	Adapter       *wgpu.Adapter
	Device        *wgpu.Device
	Queue         *wgpu.Queue
	SurfaceConfig *wgpu.SurfaceConfiguration
}

func NewState(win *glfw.Window) (*State, error) {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(win))
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		surface.Release()
		return nil, fmt.Errorf("gpu: requesting adapter: %w", err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		adapter.Release()
		surface.Release()
		return nil, fmt.Errorf("gpu: requesting device: %w", err)
	}

	width, height := win.GetFramebufferSize()
	caps := surface.GetCapabilities(adapter)
	cfg := &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, cfg)

	return &State{
		Surface:       surface,
		Adapter:       adapter,
		Device:        device,
		Queue:         device.GetQueue(),
		SurfaceConfig: cfg,
	}, nil
}

// Resize reconfigures the swapchain. Zero sizes (minimized windows) are
// ignored.
func (s *State) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.SurfaceConfig.Width = uint32(width)
	s.SurfaceConfig.Height = uint32(height)
	s.Surface.Configure(s.Adapter, s.Device, s.SurfaceConfig)
}

func (s *State) Release() {
	if s.Device != nil {
		s.Device.Release()
	}
	if s.Adapter != nil {
		s.Adapter.Release()
	}
	if s.Surface != nil {
		s.Surface.Release()
	}
}
