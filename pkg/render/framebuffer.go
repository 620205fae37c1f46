package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

// Framebuffer is an RGBA color buffer, 4 bytes per pixel, row 0 at the top.
type Framebuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewFramebuffer creates a new framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c color.RGBA) {
	n := len(fb.Pix)
	if n == 0 {
		return
	}
	fb.Pix[0], fb.Pix[1], fb.Pix[2], fb.Pix[3] = c.R, c.G, c.B, c.A
	// Use copy-doubling for faster clearing
	for i := 4; i < n; i *= 2 {
		copy(fb.Pix[i:], fb.Pix[:i])
	}
}

// SetPixel writes c at the rounded screen position p. The write is dropped
// when p is outside the buffer or p.Z is outside [0, DepthRange]. With a
// depth buffer the write only happens if p.Z is strictly closer than the
// stored depth, which is then updated. It reports whether the pixel was
// written.
func (fb *Framebuffer) SetPixel(p math3d.Vec3, c math3d.Color, depth *DepthBuffer) bool {
	x := int(math.Round(p.X))
	y := int(math.Round(p.Y))
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height || !(p.Z >= 0 && p.Z <= DepthRange) {
		return false
	}
	if depth != nil && !depth.Test(x, y, p.Z) {
		return false
	}

	rgba := c.RGBA8()
	i := (y*fb.Width + x) * 4
	fb.Pix[i], fb.Pix[i+1], fb.Pix[i+2], fb.Pix[i+3] = rgba.R, rgba.G, rgba.B, rgba.A
	return true
}

// GetPixel returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	i := (y*fb.Width + x) * 4
	return color.RGBA{fb.Pix[i], fb.Pix[i+1], fb.Pix[i+2], fb.Pix[i+3]}
}

// ToImage copies the framebuffer into a standard Go image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	copy(img.Pix, fb.Pix)
	return img
}

// SavePNG saves the framebuffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	return savePNG(path, fb.ToImage())
}

// DepthBuffer holds one quantized depth byte per pixel; 0 is nearest and
// DepthRange (the cleared value) is farthest.
type DepthBuffer struct {
	Width  int
	Height int
	Z      []uint8
}

// NewDepthBuffer creates a cleared depth buffer.
func NewDepthBuffer(width, height int) *DepthBuffer {
	d := &DepthBuffer{Width: width, Height: height, Z: make([]uint8, width*height)}
	d.Clear()
	return d
}

// Clear resets every pixel to the far value.
func (d *DepthBuffer) Clear() {
	for i := range d.Z {
		d.Z[i] = DepthRange
	}
}

// At returns the stored depth at (x, y), or DepthRange out of bounds.
func (d *DepthBuffer) At(x, y int) uint8 {
	if x < 0 || x >= d.Width || y < 0 || y >= d.Height {
		return DepthRange
	}
	return d.Z[y*d.Width+x]
}

// Test stores round(z) at (x, y) and reports true if z is strictly less than
// the stored depth; otherwise it leaves the buffer unchanged.
func (d *DepthBuffer) Test(x, y int, z float64) bool {
	if x < 0 || x >= d.Width || y < 0 || y >= d.Height || !(z >= 0 && z <= DepthRange) {
		return false
	}
	i := y*d.Width + x
	// z is compared with the rounded stored value, so a later fragment that
	// rounds to the same byte (10.7 after 10.6) still wins.
	if z >= float64(d.Z[i]) {
		return false
	}
	d.Z[i] = uint8(math.Round(z))
	return true
}

// ToImage returns the depth buffer as a grayscale image, near is dark.
func (d *DepthBuffer) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, d.Width, d.Height))
	copy(img.Pix, d.Z)
	return img
}

// SavePNG saves the depth buffer as a grayscale PNG file.
func (d *DepthBuffer) SavePNG(path string) error {
	return savePNG(path, d.ToImage())
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
