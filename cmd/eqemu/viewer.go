package main

import (
	"github.com/gekko3d/eqemu"
	"github.com/gekko3d/eqemu/render/rt/core"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// viewer turns window input into camera motion and button presses.
type viewer struct {
	camera *core.Camera
	panel  *eqemu.Panel
	log    eqemu.Logger

	left, right  bool
	prevX, prevY float64
}

func (v *viewer) install(window *glfw.Window) {
	window.SetMouseButtonCallback(v.mouseButton)
	window.SetCursorPosCallback(v.cursorPos)
	window.SetCursorEnterCallback(func(w *glfw.Window, entered bool) {
		if !entered {
			v.camera.Theta, v.camera.Phi = 0, 0
		}
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})
}

func (v *viewer) mouseButton(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	pressed := action == glfw.Press
	switch button {
	case glfw.MouseButtonLeft:
		v.left = pressed
	case glfw.MouseButtonRight:
		v.right = pressed
	}
	x, y := w.GetCursorPos()
	v.prevX, v.prevY = x, y

	if button != glfw.MouseButtonLeft || !pressed {
		return
	}
	width, height := w.GetSize()
	// window y grows downwards
	ray, err := v.camera.PickRay(float32(x), float32(float64(height)-y), width, height)
	if err != nil {
		v.log.Debugf("pick ray: %v", err)
		return
	}
	v.panel.Click(ray)
}

func (v *viewer) cursorPos(w *glfw.Window, x, y float64) {
	dx := float32(x - v.prevX)
	dy := float32(y - v.prevY)
	v.prevX, v.prevY = x, y

	switch {
	case v.left:
		v.camera.Orbit(dx, dy)
	case v.right:
		v.camera.Zoom(dy)
	default:
		width, height := w.GetSize()
		v.camera.Look(float32(x), float32(y), width, height)
	}
}
