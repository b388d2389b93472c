package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/gekko3d/eqemu"
	"github.com/gekko3d/eqemu/render/rt/core"
	"github.com/gekko3d/eqemu/render/rt/gpu"
	"github.com/gekko3d/eqemu/render/rt/mesh"
	"github.com/gekko3d/eqemu/render/rt/texture"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	cfgPath := flag.String("config", "", "TOML config file")
	model := flag.String("model", "", "Device model (.obj), overrides the config")
	debug := flag.Bool("debug", false, "Enable debug logging")
	commands := flag.Bool("stdin", false, "Read device commands from stdin")
	flag.Parse()

	cfg := eqemu.DefaultConfig()
	if *cfgPath != "" {
		var err error
		if cfg, err = eqemu.LoadConfig(*cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if *model != "" {
		cfg.Model.Path = *model
	}
	if *debug {
		cfg.Debug = true
	}

	log := eqemu.NewDefaultLogger(cfg.LogPrefix, cfg.Debug)
	if err := run(cfg, log, *commands); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(cfg eqemu.Config, log eqemu.Logger, readCommands bool) error {
	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(512, 512, "equeue device emulator", nil, nil)
	if err != nil {
		return err
	}
	defer window.Destroy()

	state, err := gpu.NewState(window)
	if err != nil {
		return err
	}
	defer state.Release()

	textures := texture.NewServer()
	textures.Dirs = append(textures.Dirs, cfg.Model.TextureDirs...)

	panel := eqemu.NewPanel(cfg, eqemu.WithLogger(log), eqemu.WithTextureServer(textures))
	if err := panel.Load(); err != nil {
		return err
	}

	queue := eqemu.NewQueue(log)
	queue.Reports = func(line string) { fmt.Println(line) }
	panel.OnTicket = queue.IssueTicket
	panel.OnNext = queue.NextCustomer

	buffers := make(map[*mesh.Mesh]*gpu.MeshBuffers)
	defer func() {
		for _, b := range buffers {
			b.Release()
		}
	}()
	uploader := func(o *core.Object) mesh.Uploader {
		b, ok := buffers[o.Mesh()]
		if !ok {
			b = gpu.NewMeshBuffers(state.Device, o.Name())
			buffers[o.Mesh()] = b
		}
		return b
	}

	pass, err := gpu.NewMeshPass(state.Device, state.SurfaceConfig.Format,
		func(m *mesh.Mesh) *gpu.MeshBuffers { return buffers[m] }, textures)
	if err != nil {
		return err
	}
	defer pass.Release()

	v := &viewer{
		camera: cfg.Camera.NewCamera(),
		panel:  panel,
		log:    log,
	}
	v.install(window)
	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		state.Resize(width, height)
	})

	var lines <-chan string
	if readCommands {
		lines = readLines(bufio.NewScanner(os.Stdin))
	}

	for !window.ShouldClose() {
		glfw.PollEvents()
		drainCommands(lines, queue)

		queue.Apply(panel)
		if err := panel.Sync(uploader); err != nil {
			return err
		}
		if err := pass.Reserve(len(panel.Objects())); err != nil {
			return err
		}
		if err := drawFrame(state, pass, panel, v.camera); err != nil {
			log.Warnf("frame: %v", err)
		}
	}
	return nil
}

func drawFrame(state *gpu.State, pass *gpu.MeshPass, panel *eqemu.Panel, cam *core.Camera) error {
	next, err := state.Surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("GetCurrentTexture: %w", err)
	}
	defer next.Release()

	view, err := next.CreateView(nil)
	if err != nil {
		return fmt.Errorf("CreateView: %w", err)
	}
	defer view.Release()

	encoder, err := state.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("CreateCommandEncoder: %w", err)
	}

	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{0.05, 0.05, 0.05, 1},
		}},
	})

	width, height := int(state.SurfaceConfig.Width), int(state.SurfaceConfig.Height)
	pass.Begin(rPass, cam.Projection(width, height).Mul4(cam.ViewMatrix()))
	panel.Render(pass)
	pass.End()

	if err := rPass.End(); err != nil {
		return fmt.Errorf("render pass End: %w", err)
	}
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("encoder Finish: %w", err)
	}
	state.Queue.Submit(cmd)
	state.Surface.Present()
	return nil
}

func readLines(sc *bufio.Scanner) <-chan string {
	lines := make(chan string, 16)
	go func() {
		defer close(lines)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return lines
}

// drainCommands runs the commands received since the last frame without
// blocking.
func drainCommands(lines <-chan string, q *eqemu.Queue) {
	if lines == nil {
		return
	}
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			if q.Echo {
				fmt.Println(line)
			}
			if reply := q.Command(line); reply != "" {
				fmt.Println(reply)
			}
		default:
			return
		}
	}
}
