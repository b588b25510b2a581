package app

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"pulseanime/internal/scene"
)

// NormalizePointer maps a cursor position in window coordinates to [-1,1]
// on both axes, y up. A degenerate window yields the center.
func NormalizePointer(x, y float64, width, height int) (nx, ny float64) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	nx = x/float64(width)*2 - 1
	ny = -(y/float64(height)*2 - 1)
	return clamp1(nx), clamp1(ny)
}

// ScrollBy moves a scroll offset by delta, kept within [0, distance].
func ScrollBy(offset, delta, distance float64) float64 {
	offset += delta
	if offset < 0 {
		return 0
	}
	if offset > distance {
		return distance
	}
	return offset
}

func clamp1(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// bindInput registers the window callbacks that drive the engine. Each
// registration hands its detach func to the engine, which runs it on Close.
func bindInput(window *glfw.Window, e *scene.Engine, step float64, drop func(paths []string)) {
	window.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		ww, wh := w.GetSize()
		e.SetPointer(NormalizePointer(x, y, ww, wh))
	})
	e.AttachSource(func() { window.SetCursorPosCallback(nil) })

	// Wheel down moves forward through the timeline.
	window.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		e.SetScroll(ScrollBy(e.Scroll(), -yoff*step, e.ScrollDistance()))
	})
	e.AttachSource(func() { window.SetScrollCallback(nil) })

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action == glfw.Release {
			return
		}
		dist := e.ScrollDistance()
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeyDown, glfw.KeyJ:
			e.SetScroll(ScrollBy(e.Scroll(), step, dist))
		case glfw.KeyUp, glfw.KeyK:
			e.SetScroll(ScrollBy(e.Scroll(), -step, dist))
		case glfw.KeyPageDown, glfw.KeySpace:
			e.SetScroll(ScrollBy(e.Scroll(), dist/4, dist))
		case glfw.KeyPageUp:
			e.SetScroll(ScrollBy(e.Scroll(), -dist/4, dist))
		case glfw.KeyHome:
			e.SetScroll(0)
		case glfw.KeyEnd:
			e.SetScroll(dist)
		}
	})
	e.AttachSource(func() { window.SetKeyCallback(nil) })

	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		e.Resize(width, height)
	})
	e.AttachSource(func() { window.SetFramebufferSizeCallback(nil) })

	if drop != nil {
		window.SetDropCallback(func(_ *glfw.Window, names []string) {
			drop(names)
		})
		e.AttachSource(func() { window.SetDropCallback(nil) })
	}
}
