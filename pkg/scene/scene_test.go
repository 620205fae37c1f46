package scene

import (
	"bytes"
	"errors"
	"image/color"
	"io/fs"
	"math"
	"testing"
	"testing/fstest"

	"github.com/taigrr/tinyrender/pkg/models"
	"github.com/taigrr/tinyrender/pkg/render"
	"github.com/taigrr/tinyrender/pkg/texture"
)

const sceneYAML = `
camera:
  position: [1, 2, 3]
  fov: 60
  extent: 1.5
  depth: 12
lights:
  - position: [0, 5, 0]
    direction: [0, -1, 0]
    color: "#ff8000"
  - position: [2, 2, 2]
    direction: [-1, -1, -1]
    shadows: false
    shadow_extent: 3
models:
  - mesh: tri.obj
    diffuse: skin.tga
    tangent_map: builtin:flat-normal
    shader: lambert
    factor: 0.25
  - mesh: builtin:cube
    size: 0.5
    offset: [0, 0.25, 0]
    shader: gouraud
    color: "#00ff00"
options:
  interpolation: scanline
  shadows: false
  background: "#102030"
`

const triangleOBJ = `v -1 -1 0
v 1 -1 0
v 0 1 0
vt 0 0
vt 1 0
vt 0.5 1
f 1/1 2/2 3/3
`

func tgaBytes(t *testing.T) []byte {
	t.Helper()
	img, err := texture.New(2, 2, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	for y := range 2 {
		for x := range 2 {
			img.Set(x, y, color.RGBA{200, 100, 50, 255})
		}
	}
	var buf bytes.Buffer
	if err := texture.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testFS(t *testing.T) fstest.MapFS {
	return fstest.MapFS{
		"tri.obj":  {Data: []byte(triangleOBJ)},
		"skin.tga": {Data: tgaBytes(t)},
		"bad.obj":  {Data: []byte("v 0 0 0\nf 1 2 3\n")},
	}
}

func TestLoad(t *testing.T) {
	f, err := Load([]byte(sceneYAML))
	if err != nil {
		t.Fatal(err)
	}

	if f.Camera.Position != (Vec{1, 2, 3}) || f.Camera.FOV != 60 {
		t.Errorf("camera = %+v", f.Camera)
	}
	if len(f.Lights) != 2 || f.Lights[0].Color != (render.HexColor{R: 0xff, G: 0x80, B: 0, A: 255}) {
		t.Errorf("lights = %+v", f.Lights)
	}
	if s := f.Lights[1].Shadows; s == nil || *s {
		t.Errorf("second light shadows = %v", s)
	}
	if len(f.Models) != 2 || f.Models[1].Shader != ShaderGouraud || f.Models[0].Factor != 0.25 {
		t.Errorf("models = %+v", f.Models)
	}

	o := f.Options
	if o.Interpolation != render.InterpolationScanline || o.Shadows {
		t.Errorf("options = %+v", o)
	}
	// Omitted options keep their defaults.
	if !o.DepthBuffer || o.Width != render.DefaultOptions().Width {
		t.Errorf("defaults lost: %+v", o)
	}
	if o.Background != (render.HexColor{R: 0x10, G: 0x20, B: 0x30, A: 255}) {
		t.Errorf("background = %v", o.Background)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"no models", "camera: {position: [0, 0, 2]}", ErrNoModels},
		{"empty viewport", "models: [{mesh: 'builtin:cube'}]\noptions: {width: 0}", render.ErrEmptyViewport},
		{"bad shader", "models: [{mesh: 'builtin:cube', shader: toon}]", nil},
		{"camera on target", "camera: {position: [0, 0, 0]}\nmodels: [{mesh: 'builtin:cube'}]", nil},
		{"factor out of range", "models: [{mesh: 'builtin:cube', factor: 2}]", nil},
		{"missing mesh", "models: [{shader: depth}]", nil},
		{"light without direction", "lights: [{position: [1, 1, 1]}]\nmodels: [{mesh: 'builtin:cube'}]", nil},
		{"negative extent", "camera: {position: [0, 0, 2], extent: -1}\nmodels: [{mesh: 'builtin:cube'}]", nil},
		{"not yaml", "models: [", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load([]byte(tc.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestShaderKindText(t *testing.T) {
	for _, k := range []ShaderKind{ShaderLambert, ShaderGouraud, ShaderSimple, ShaderDepth} {
		b, err := k.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var got ShaderKind
		if err := got.UnmarshalText(b); err != nil || got != k {
			t.Errorf("%v round trip = %v, %v", k, got, err)
		}
	}
}

func TestAssets(t *testing.T) {
	f, err := Load([]byte(sceneYAML))
	if err != nil {
		t.Fatal(err)
	}
	got := f.Assets()
	want := []string{"tri.obj", "skin.tga"}
	if len(got) != len(want) {
		t.Fatalf("Assets() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Assets()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuild(t *testing.T) {
	f, err := Load([]byte(sceneYAML))
	if err != nil {
		t.Fatal(err)
	}

	var loaded []string
	b := &Builder{
		Fetcher: FSFetcher{FS: testFS(t)},
		Loaded:  func(name string) { loaded = append(loaded, name) },
	}
	s, err := b.Build(f)
	if err != nil {
		t.Fatal(err)
	}

	if len(loaded) != 2 {
		t.Errorf("loaded = %v", loaded)
	}
	if len(s.Lights) != 2 {
		t.Fatalf("got %d lights, want 2", len(s.Lights))
	}
	if s.Lights[1].CastShadows || s.Lights[1].ShadowBox.Right != 3 {
		t.Errorf("second light = %+v", s.Lights[1])
	}
	if p, ok := s.Camera.Projection.(render.Perspective); !ok || math.Abs(p.FOV-math.Pi/3) > 1e-12 {
		t.Errorf("projection = %#v", s.Camera.Projection)
	}

	if want := (render.Orthographic{Top: 1.5, Bottom: -1.5, Far: 12}); s.Camera.Ortho != want {
		t.Errorf("orthographic box = %+v, want %+v", s.Camera.Ortho, want)
	}

	if len(s.Items) != 2 {
		t.Fatalf("got %d items", len(s.Items))
	}
	tri := s.Items[0].Model
	if tri.Name != "tri.obj" || tri.Diffuse == nil || tri.TangentNormalMap == nil || tri.NormalMap != nil {
		t.Errorf("triangle model = %+v", tri)
	}
	if !tri.HasNormals() {
		t.Error("smooth normals not generated")
	}
	if sh, ok := s.Items[0].Shader.(*render.LambertShader); !ok || sh.Factor != 0.25 {
		t.Errorf("shader 0 = %#v", s.Items[0].Shader)
	}

	cube := s.Items[1].Model
	lo, hi := cube.Bounds()
	if math.Abs(lo.Y) > 1e-9 || math.Abs(hi.Y-0.5) > 1e-9 {
		t.Errorf("cube bounds = %v..%v, want y in [0,0.5]", lo, hi)
	}
	if _, ok := s.Items[1].Shader.(*render.GouraudShader); !ok {
		t.Errorf("shader 1 = %#v", s.Items[1].Shader)
	}
}

func TestBuildRotate(t *testing.T) {
	f := Default()
	f.Models = []Model{{Mesh: BuiltinPlane, Size: 2, Rotate: Vec{90, 0, 0}, Offset: Vec{0, 0, -1}}}

	s, err := (&Builder{}).Build(f)
	if err != nil {
		t.Fatal(err)
	}
	m := s.Items[0].Model

	// The floor plane stands up facing the camera, then moves back.
	lo, hi := m.Bounds()
	if math.Abs(lo.Y+1) > 1e-9 || math.Abs(hi.Y-1) > 1e-9 {
		t.Errorf("bounds = %v..%v, want y in [-1,1]", lo, hi)
	}
	if math.Abs(lo.Z+1) > 1e-9 || math.Abs(hi.Z+1) > 1e-9 {
		t.Errorf("bounds = %v..%v, want z = -1", lo, hi)
	}
	if n := m.Normals[0]; math.Abs(n.Z-1) > 1e-9 {
		t.Errorf("normal = %v, want +Z", n)
	}
}

func TestBuildDefaults(t *testing.T) {
	f := Default()
	f.Models = []Model{{Mesh: BuiltinPlane}}

	s, err := (&Builder{}).Build(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Lights) != 4 {
		t.Errorf("got %d lights, want the 4 presets", len(s.Lights))
	}
	if s.Camera.Position.Z != 2 {
		t.Errorf("camera = %+v", s.Camera)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		model   Model
		fetcher Fetcher
		check   func(error) bool
	}{
		{
			name:    "missing file",
			model:   Model{Mesh: "nope.obj"},
			fetcher: FSFetcher{FS: testFS(t)},
			check:   func(err error) bool { return errors.Is(err, fs.ErrNotExist) },
		},
		{
			name:  "no fetcher",
			model: Model{Mesh: "tri.obj"},
			check: func(err error) bool { return errors.Is(err, ErrNoFetcher) },
		},
		{
			name:    "malformed mesh",
			model:   Model{Mesh: "bad.obj"},
			fetcher: FSFetcher{FS: testFS(t)},
			check: func(err error) bool {
				var me *models.MeshError
				return errors.As(err, &me)
			},
		},
		{
			name:    "malformed texture",
			model:   Model{Mesh: BuiltinCube, Diffuse: "tri.obj"},
			fetcher: FSFetcher{FS: testFS(t)},
			check:   func(err error) bool { return err != nil },
		},
		{
			name:  "unknown builtin",
			model: Model{Mesh: "builtin:teapot"},
			check: func(err error) bool { return err != nil },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := Default()
			f.Models = []Model{tc.model}
			_, err := (&Builder{Fetcher: tc.fetcher}).Build(f)
			if err == nil || !tc.check(err) {
				t.Errorf("Build error = %v", err)
			}
		})
	}
}

func TestFSFetcher(t *testing.T) {
	f := FSFetcher{FS: testFS(t)}

	data, err := f.Fetch("./tri.obj")
	if err != nil || string(data) != triangleOBJ {
		t.Errorf("Fetch = %q, %v", data, err)
	}
	if _, err := f.Fetch("../escape.obj"); !errors.Is(err, fs.ErrInvalid) {
		t.Errorf("escaping path error = %v", err)
	}

	calls := 0
	ff := FetcherFunc(func(string) ([]byte, error) {
		calls++
		return nil, nil
	})
	ff.Fetch("x")
	if calls != 1 {
		t.Error("FetcherFunc not called")
	}
}

func TestBuiltSceneRenders(t *testing.T) {
	f := Default()
	f.Camera.Position = Vec{0, 2, 3}
	f.Models = []Model{
		{Mesh: BuiltinPlane, Size: 3, Diffuse: BuiltinChecker},
		{Mesh: BuiltinCube, Size: 0.5, Offset: Vec{0, 0.5, 0}, Shader: ShaderGouraud},
	}
	f.Options.Width, f.Options.Height = 64, 64

	s, err := (&Builder{}).Build(f)
	if err != nil {
		t.Fatal(err)
	}
	r := render.NewRenderer(nil)
	if _, err := r.Render(s, f.Options); err != nil {
		t.Fatal(err)
	}
	st := r.Stats()
	if st.ModelsDrawn != 2 || st.Fragments == 0 || st.ShadowMaps != 4 {
		t.Errorf("stats = %+v", st)
	}
}
