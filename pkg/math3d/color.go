package math3d

import (
	"image/color"
	"math"
)

// Color is an RGBA color with channels in the [0,255] floating domain.
// Channels are only rounded when written to a buffer.
type Color struct {
	R, G, B, A float64
}

// RGB returns an opaque color.
func RGB(r, g, b float64) Color {
	return Color{r, g, b, 255}
}

// Common colors.
var (
	Black = Color{0, 0, 0, 255}
	White = Color{255, 255, 255, 255}
	Red   = Color{255, 0, 0, 255}
	Green = Color{0, 255, 0, 255}
	Blue  = Color{0, 0, 255, 255}
)

// Mul modulates c by o per channel, treating o as a factor in [0,255].
// Alpha is kept from c.
func (c Color) Mul(o Color) Color {
	return Color{c.R * o.R / 255, c.G * o.G / 255, c.B * o.B / 255, c.A}
}

// Scale multiplies the RGB channels by s; alpha is kept.
func (c Color) Scale(s float64) Color {
	return Color{c.R * s, c.G * s, c.B * s, c.A}
}

// Add accumulates o into c, clamping each RGB channel at 255.
func (c Color) Add(o Color) Color {
	return Color{
		math.Min(c.R+o.R, 255),
		math.Min(c.G+o.G, 255),
		math.Min(c.B+o.B, 255),
		c.A,
	}
}

// RGBA8 rounds and clamps the channels to bytes.
func (c Color) RGBA8() color.RGBA {
	return color.RGBA{R: toByte(c.R), G: toByte(c.G), B: toByte(c.B), A: toByte(c.A)}
}

// FromRGBA converts an 8-bit color.
func FromRGBA(c color.RGBA) Color {
	return Color{float64(c.R), float64(c.G), float64(c.B), float64(c.A)}
}

func toByte(v float64) uint8 {
	v = math.Round(v)
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
