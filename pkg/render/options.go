package render

import (
	"fmt"
	"image/color"
	"strings"
)

// Interpolation selects the triangle fill strategy.
type Interpolation int

const (
	// InterpolationBarycentric walks the screen bounding box and interpolates
	// attributes with perspective-correct barycentric weights.
	InterpolationBarycentric Interpolation = iota
	// InterpolationScanline walks rows between the triangle's edges and
	// interpolates linearly in screen space.
	InterpolationScanline
)

func (i Interpolation) String() string {
	switch i {
	case InterpolationBarycentric:
		return "barycentric"
	case InterpolationScanline:
		return "scanline"
	}
	return fmt.Sprintf("Interpolation(%d)", int(i))
}

// MarshalText implements encoding.TextMarshaler.
func (i Interpolation) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Interpolation) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "barycentric":
		*i = InterpolationBarycentric
	case "scanline", "linear":
		*i = InterpolationScanline
	default:
		return fmt.Errorf("unknown interpolation %q", b)
	}
	return nil
}

// CameraKind selects the projection used for the main pass.
type CameraKind int

const (
	CameraPerspective CameraKind = iota
	CameraOrthographic
)

func (k CameraKind) String() string {
	switch k {
	case CameraPerspective:
		return "perspective"
	case CameraOrthographic:
		return "orthographic"
	}
	return fmt.Sprintf("CameraKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k CameraKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *CameraKind) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "perspective":
		*k = CameraPerspective
	case "orthographic", "ortho":
		*k = CameraOrthographic
	default:
		return fmt.Errorf("unknown camera kind %q", b)
	}
	return nil
}

// HexColor is an opaque color written as "#rrggbb" in configuration files.
type HexColor color.RGBA

// MarshalText implements encoding.TextMarshaler.
func (c HexColor) MarshalText() ([]byte, error) {
	return fmt.Appendf(nil, "#%02x%02x%02x", c.R, c.G, c.B), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *HexColor) UnmarshalText(b []byte) error {
	s := strings.TrimPrefix(string(b), "#")
	var r, g, bl uint8
	if len(s) != 6 {
		return fmt.Errorf("bad color %q: want #rrggbb", b)
	}
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &bl); err != nil {
		return fmt.Errorf("bad color %q: %w", b, err)
	}
	*c = HexColor{R: r, G: g, B: bl, A: 255}
	return nil
}

// Options is the per-frame render configuration. It is passed by value to
// every render call; whoever toggles options at runtime owns the value.
type Options struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	Interpolation    Interpolation `yaml:"interpolation"`
	Camera           CameraKind    `yaml:"camera"`
	DepthBuffer      bool          `yaml:"depth_buffer"`
	TangentNormalMap bool          `yaml:"tangent_normal_map"`
	Shadows          bool          `yaml:"shadows"`
	Rotate           bool          `yaml:"rotate"`

	// RotateSpeed is the orbit step in radians per frame when Rotate is set.
	RotateSpeed float64  `yaml:"rotate_speed"`
	Background  HexColor `yaml:"background"`
}

// DefaultOptions returns barycentric perspective rendering with depth
// buffering and shadows on, tangent-space normal mapping and rotation off.
func DefaultOptions() Options {
	return Options{
		Width:         400,
		Height:        400,
		Interpolation: InterpolationBarycentric,
		Camera:        CameraPerspective,
		DepthBuffer:   true,
		Shadows:       true,
		RotateSpeed:   0.01,
		Background:    HexColor{A: 255},
	}
}
