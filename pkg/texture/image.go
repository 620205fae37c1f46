package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp" // Register BMP decoder

	"github.com/taigrr/tinyrender/pkg/math3d"
)

// Image is a decoded TGA pixel buffer. Pixels are stored in the order the
// header's origin bits describe, B,G,R[,A] for color images and a single
// byte for grayscale. len(Pix) is always Width*Height*BytesPerPixel.
type Image struct {
	Header Header
	Pix    []byte
}

// New allocates a blank image. bpp is the pixel size in bytes (1, 3 or 4).
func New(width, height, bpp int, descriptor uint8) (*Image, error) {
	if width <= 0 || height <= 0 || width > math.MaxUint16 || height > math.MaxUint16 || !validBpp(bpp) {
		return nil, FormatError(fmt.Sprintf("bad bpp (%d) or size (%dx%d)", bpp, width, height))
	}
	dt := uint8(TypeTrueColor)
	if bpp == 1 {
		dt = TypeGrayscale
	}
	return &Image{
		Header: Header{
			DataType:     dt,
			Width:        uint16(width),
			Height:       uint16(height),
			BitsPerPixel: uint8(bpp * 8),
			Descriptor:   descriptor,
		},
		Pix: make([]byte, width*height*bpp),
	}, nil
}

// Width returns the image width in pixels.
func (img *Image) Width() int { return int(img.Header.Width) }

// Height returns the image height in pixels.
func (img *Image) Height() int { return int(img.Header.Height) }

// index returns the byte offset of the stored pixel at (row, col).
func (img *Image) index(row, col int) int {
	return (row*img.Width() + col) * img.Header.BytesPerPixel()
}

func (img *Image) read(i int) math3d.Color {
	if img.Header.BytesPerPixel() == 1 {
		g := float64(img.Pix[i])
		return math3d.Color{R: g, G: g, B: g, A: 255}
	}
	c := math3d.Color{
		B: float64(img.Pix[i]),
		G: float64(img.Pix[i+1]),
		R: float64(img.Pix[i+2]),
		A: 255,
	}
	if img.Header.BytesPerPixel() == 4 {
		c.A = float64(img.Pix[i+3])
	}
	return c
}

// Pixel samples the texture at normalized (u, v). The texel is
// (round(u*w), round(v*h)) with the row and column mirrored according to the
// origin bits, then clamped to the image.
func (img *Image) Pixel(u, v float64) math3d.Color {
	w, h := img.Width(), img.Height()
	x := int(math.Round(u * float64(w)))
	y := int(math.Round(v * float64(h)))

	row, col := y, x
	if img.Header.Descriptor&OriginTop != 0 {
		row = h - y
	}
	if img.Header.Descriptor&OriginRight != 0 {
		col = w - x
	}
	row = clamp(row, h)
	col = clamp(col, w)

	return img.read(img.index(row, col))
}

// Normal samples a normal map at (u, v), decoding each channel from [0,255]
// to [-1,1].
func (img *Image) Normal(u, v float64) math3d.Vec3 {
	c := img.Pixel(u, v)
	return math3d.V3(c.R/255*2-1, c.G/255*2-1, c.B/255*2-1)
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// storage maps display coordinates (row 0 at the top, column 0 at the left)
// to stored row and column.
func (img *Image) storage(x, y int) (row, col int) {
	row, col = y, x
	if img.Header.Descriptor&OriginTop == 0 {
		row = img.Height() - 1 - y
	}
	if img.Header.Descriptor&OriginRight != 0 {
		col = img.Width() - 1 - x
	}
	return row, col
}

// Set writes c at display coordinates (x, y). Out of range writes are ignored.
func (img *Image) Set(x, y int, c color.Color) {
	if x < 0 || y < 0 || x >= img.Width() || y >= img.Height() {
		return
	}
	row, col := img.storage(x, y)
	i := img.index(row, col)
	switch img.Header.BytesPerPixel() {
	case 1:
		img.Pix[i] = color.GrayModel.Convert(c).(color.Gray).Y
	case 3:
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = n.B, n.G, n.R
	case 4:
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = n.B, n.G, n.R, n.A
	}
}

// ColorModel implements image.Image.
func (img *Image) ColorModel() color.Model {
	if img.Header.BytesPerPixel() == 1 {
		return color.GrayModel
	}
	return color.NRGBAModel
}

// Bounds implements image.Image.
func (img *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.Width(), img.Height())
}

// At implements image.Image with row 0 at the top.
func (img *Image) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= img.Width() || y >= img.Height() {
		return color.NRGBA{}
	}
	row, col := img.storage(x, y)
	c := img.read(img.index(row, col))
	if img.Header.BytesPerPixel() == 1 {
		return color.Gray{Y: uint8(c.R)}
	}
	return color.NRGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: uint8(c.A)}
}

// FromImage converts any image.Image to a 32-bit top-left origin TGA image.
func FromImage(src image.Image) (*Image, error) {
	bounds := src.Bounds()
	img, err := New(bounds.Dx(), bounds.Dy(), 4, OriginTop)
	if err != nil {
		return nil, err
	}
	for y := range bounds.Dy() {
		for x := range bounds.Dx() {
			img.Set(x, y, src.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return img, nil
}

// Load decodes texture data by file name: .tga files go through the TGA
// decoder, anything else through the registered image decoders (PNG, JPEG,
// BMP).
func Load(name string, data []byte) (*Image, error) {
	if strings.EqualFold(filepath.Ext(name), ".tga") {
		img, err := DecodeBytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		return img, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return FromImage(src)
}

// LoadFile reads and decodes a texture from disk.
func LoadFile(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture: %w", err)
	}
	return Load(path, data)
}
