// Package scene reads YAML scene descriptions and builds render scenes from
// them. Meshes and textures are retrieved through a Fetcher.
//
// A minimal scene file:
//
//	camera:
//	  position: [0, 0, 2]
//	models:
//	  - mesh: african_head.obj
//	    diffuse: african_head_diffuse.tga
//	    shader: lambert
//	options:
//	  interpolation: barycentric
//	  background: "#1e1e28"
//
// Mesh and texture names starting with "builtin:" select generated assets:
// builtin:plane and builtin:cube meshes, builtin:checker and
// builtin:flat-normal textures.
package scene

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"strings"

	"github.com/taigrr/tinyrender/pkg/math3d"
	"github.com/taigrr/tinyrender/pkg/render"
	"gopkg.in/yaml.v3"
)

// Builtin asset names.
const (
	BuiltinPrefix     = "builtin:"
	BuiltinPlane      = BuiltinPrefix + "plane"
	BuiltinCube       = BuiltinPrefix + "cube"
	BuiltinChecker    = BuiltinPrefix + "checker"
	BuiltinFlatNormal = BuiltinPrefix + "flat-normal"
)

var (
	// ErrNoModels is returned when a scene file lists no models.
	ErrNoModels = errors.New("scene: no models")
	// ErrNoFetcher is returned when a scene references asset files but the
	// builder has no fetcher.
	ErrNoFetcher = errors.New("scene: no fetcher")
)

// Vec is a 3D vector written as a YAML sequence [x, y, z].
type Vec [3]float64

// Vec3 converts v.
func (v Vec) Vec3() math3d.Vec3 {
	return math3d.V3(v[0], v[1], v[2])
}

// ShaderKind names one of the render shaders.
type ShaderKind int

const (
	ShaderLambert ShaderKind = iota
	ShaderGouraud
	ShaderSimple
	ShaderDepth
)

func (k ShaderKind) String() string {
	switch k {
	case ShaderLambert:
		return "lambert"
	case ShaderGouraud:
		return "gouraud"
	case ShaderSimple:
		return "simple"
	case ShaderDepth:
		return "depth"
	}
	return fmt.Sprintf("ShaderKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k ShaderKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ShaderKind) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "lambert", "phong":
		*k = ShaderLambert
	case "gouraud":
		*k = ShaderGouraud
	case "simple", "unlit":
		*k = ShaderSimple
	case "depth":
		*k = ShaderDepth
	default:
		return fmt.Errorf("unknown shader %q", b)
	}
	return nil
}

// Camera describes the viewpoint. Zero Near, Far and FOV keep the render
// defaults; FOV is in degrees.
type Camera struct {
	Position Vec  `yaml:"position"`
	Target   Vec  `yaml:"target"`
	Up       *Vec `yaml:"up,omitempty"`

	Near float64 `yaml:"near,omitempty"`
	Far  float64 `yaml:"far,omitempty"`
	FOV  float64 `yaml:"fov,omitempty"`

	// Extent is the half height of the orthographic view; its width follows
	// the image aspect. Depth is how far the orthographic view reaches.
	// Zero sizes either from the scene.
	Extent float64 `yaml:"extent,omitempty"`
	Depth  float64 `yaml:"depth,omitempty"`
}

// Light describes one directional light.
type Light struct {
	Position  Vec             `yaml:"position"`
	Direction Vec             `yaml:"direction"`
	Color     render.HexColor `yaml:"color"`
	// Shadows defaults to true.
	Shadows *bool `yaml:"shadows,omitempty"`
	// ShadowExtent is the half-width of the square area covered by the
	// shadow map and ShadowDepth its depth; zero keeps the defaults.
	ShadowExtent float64 `yaml:"shadow_extent,omitempty"`
	ShadowDepth  float64 `yaml:"shadow_depth,omitempty"`
}

// Model describes one mesh and how it is shaded.
type Model struct {
	Mesh string `yaml:"mesh"`
	// Size is the edge length of builtin meshes.
	Size float64 `yaml:"size,omitempty"`
	// Fit centers the mesh on the origin and scales its largest extent to
	// Fit units. Zero leaves the geometry as loaded.
	Fit float64 `yaml:"fit,omitempty"`
	// Rotate turns the mesh by the given degrees about X, then Y, then Z.
	// It is applied after Fit and before Offset.
	Rotate Vec `yaml:"rotate,omitempty"`
	Offset Vec `yaml:"offset,omitempty"`

	Diffuse    string `yaml:"diffuse,omitempty"`
	NormalMap  string `yaml:"normal_map,omitempty"`
	TangentMap string `yaml:"tangent_map,omitempty"`

	Shader ShaderKind `yaml:"shader"`
	// Factor is the Lambert ambient factor in [0,1].
	Factor float64 `yaml:"factor,omitempty"`
	// Color is the surface color used when no diffuse texture is bound.
	Color *render.HexColor `yaml:"color,omitempty"`
}

// File is a parsed scene description.
type File struct {
	Camera Camera `yaml:"camera"`
	// PresetLights adds the white, red, green and blue preset lights. They
	// are also used when Lights is empty.
	PresetLights bool           `yaml:"preset_lights"`
	Lights       []Light        `yaml:"lights"`
	Models       []Model        `yaml:"models"`
	Options      render.Options `yaml:"options"`
}

// Default returns a scene with the camera at (0,0,2) looking at the origin
// and default render options. It has no models.
func Default() *File {
	return &File{
		Camera:  Camera{Position: Vec{0, 0, 2}},
		Options: render.DefaultOptions(),
	}
}

// Load parses a scene file. Fields the file omits keep the values of
// Default.
func Load(data []byte) (*File, error) {
	f := Default()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parsing scene: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// LoadFile reads and parses a scene file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}
	return Load(data)
}

// Validate checks the scene for settings that cannot render.
func (f *File) Validate() error {
	if len(f.Models) == 0 {
		return ErrNoModels
	}
	if f.Camera.Position == f.Camera.Target {
		return fmt.Errorf("scene: camera position equals target %v", f.Camera.Target)
	}
	if f.Options.Width <= 0 || f.Options.Height <= 0 {
		return fmt.Errorf("scene: bad size %dx%d: %w", f.Options.Width, f.Options.Height, render.ErrEmptyViewport)
	}
	if f.Camera.Extent < 0 || f.Camera.Depth < 0 {
		return fmt.Errorf("scene: negative orthographic extent %v or depth %v", f.Camera.Extent, f.Camera.Depth)
	}
	for i, m := range f.Models {
		if m.Mesh == "" {
			return fmt.Errorf("scene: model %d has no mesh", i)
		}
		if m.Factor < 0 || m.Factor > 1 {
			return fmt.Errorf("scene: model %d: factor %v outside [0,1]", i, m.Factor)
		}
	}
	for i, l := range f.Lights {
		if l.Direction == (Vec{}) {
			return fmt.Errorf("scene: light %d has no direction", i)
		}
	}
	return nil
}

// Assets lists the asset names the scene fetches, in load order. Builtin
// assets are not included.
func (f *File) Assets() []string {
	var names []string
	add := func(name string) {
		if name != "" && !strings.HasPrefix(name, BuiltinPrefix) {
			names = append(names, name)
		}
	}
	for _, m := range f.Models {
		add(m.Mesh)
		add(m.Diffuse)
		add(m.NormalMap)
		add(m.TangentMap)
	}
	return names
}

func (c Camera) camera() render.Camera {
	cam := render.NewCamera(c.Position.Vec3(), c.Target.Vec3())
	if c.Up != nil {
		cam.Up = c.Up.Vec3()
	}

	p := render.DefaultPerspective()
	if c.Near > 0 {
		p.Near = c.Near
	}
	if c.Far > 0 {
		p.Far = c.Far
	}
	if c.FOV > 0 {
		p.FOV = c.FOV * math.Pi / 180
	}
	cam.Projection = p

	if c.Extent > 0 || c.Depth > 0 {
		cam.Ortho = render.DefaultOrthographic()
		if c.Extent > 0 {
			cam.Ortho.Top, cam.Ortho.Bottom = c.Extent, -c.Extent
		}
		cam.Ortho.Far = c.Depth
	}
	return cam
}

// rotation returns the matrix for r, in degrees.
func (r Vec) rotation() math3d.Mat4 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	return math3d.RotateZ(rad(r[2])).Mul(math3d.RotateY(rad(r[1]))).Mul(math3d.RotateX(rad(r[0])))
}

func (l Light) light() *render.Light {
	c := math3d.White
	if l.Color != (render.HexColor{}) {
		c = math3d.FromRGBA(color.RGBA(l.Color))
	}
	rl := render.NewLight(l.Position.Vec3(), l.Direction.Vec3(), c)
	if l.Shadows != nil {
		rl.CastShadows = *l.Shadows
	}
	if e := l.ShadowExtent; e > 0 {
		rl.ShadowBox.Left, rl.ShadowBox.Right = -e, e
		rl.ShadowBox.Bottom, rl.ShadowBox.Top = -e, e
	}
	if l.ShadowDepth > 0 {
		rl.ShadowBox.Far = rl.ShadowBox.Near + l.ShadowDepth
	}
	return rl
}

func (m Model) shader() render.Shader {
	var c math3d.Color // zero selects white in every shader
	if m.Color != nil {
		c = math3d.FromRGBA(color.RGBA(*m.Color))
	}
	switch m.Shader {
	case ShaderDepth:
		return &render.DepthShader{}
	case ShaderSimple:
		return &render.SimpleShader{Color: c}
	case ShaderGouraud:
		return &render.GouraudShader{Color: c}
	default:
		return &render.LambertShader{Factor: m.Factor, Color: c}
	}
}
