package main

import (
	"log/slog"

	"github.com/taigrr/tinyrender/pkg/render"
)

const (
	spinImpulse = 0.08  // radians per frame added by Space
	dragScale   = 0.004 // radians per frame per pixel of horizontal drag
)

// toggleKeys are the option switches bound to single keys.
var toggleKeys = []string{"i", "c", "z", "n", "s", "r"}

// toggle flips the option bound to key on the running loop. It reports
// whether key is bound.
func toggle(h *render.LoopHandle, key string) bool {
	o := h.Options()
	switch key {
	case "i":
		if o.Interpolation == render.InterpolationBarycentric {
			o.Interpolation = render.InterpolationScanline
		} else {
			o.Interpolation = render.InterpolationBarycentric
		}
	case "c":
		if o.Camera == render.CameraPerspective {
			o.Camera = render.CameraOrthographic
		} else {
			o.Camera = render.CameraPerspective
		}
	case "z":
		o.DepthBuffer = !o.DepthBuffer
	case "n":
		o.TangentNormalMap = !o.TangentNormalMap
	case "s":
		o.Shadows = !o.Shadows
	case "r":
		o.Rotate = !o.Rotate
	default:
		return false
	}
	h.SetOptions(o)
	slog.Debug("options changed", "key", key, "options", o)
	return true
}

// drag turns horizontal pointer motion into orbit spin.
type drag struct {
	active bool
	lastX  int
}

func (d *drag) press(x int) {
	d.active, d.lastX = true, x
}

// move returns the spin to add for a pointer now at x.
func (d *drag) move(x int) float64 {
	if !d.active {
		return 0
	}
	dx := x - d.lastX
	d.lastX = x
	return float64(dx) * dragScale
}

func (d *drag) release() {
	d.active = false
}

// resize fits the loop's frame to a new output size.
func resize(h *render.LoopHandle, vp render.Viewport) {
	o := h.Options()
	o.Width, o.Height = vp.Width, vp.Height
	h.SetOptions(o)
}
