// tinyrender - CPU software renderer
// Renders meshes with depth buffering, per-pixel lighting, normal mapping and
// shadow maps, to image files, the terminal or a desktop window.
//
// Controls (terminal and window):
//
//	Mouse drag  - Orbit the camera
//	Space       - Spin
//	I           - Toggle barycentric/scanline interpolation
//	C           - Toggle perspective/orthographic camera
//	Z           - Toggle depth buffer
//	N           - Toggle tangent-space normal map
//	S           - Toggle shadows
//	R           - Toggle continuous rotation
//	Esc, Q      - Quit
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/taigrr/tinyrender/pkg/render"
	"github.com/taigrr/tinyrender/pkg/scene"
	"golang.org/x/term"
)

var (
	scenePath = flag.String("scene", "", "Path to a YAML scene file")
	meshPath  = flag.String("mesh", "", "Mesh to render (.obj, .glb, .gltf) when no scene file is given")
	diffuse   = flag.String("diffuse", "", "Diffuse texture for -mesh (TGA/PNG/JPEG/BMP)")
	normalMap = flag.String("normal", "", "Object-space normal map for -mesh")
	tangent   = flag.String("tangent", "", "Tangent-space normal map for -mesh")
	shader    = flag.String("shader", "lambert", "Shader for -mesh: lambert, gouraud, simple, depth")

	mode      = flag.String("mode", "auto", "Output: auto, image, terminal, window")
	outPath   = flag.String("out", "", "Color image output (.png, .bmp, .tga)")
	depthPath = flag.String("depth", "", "Depth image output (.png, .bmp, .tga)")
	frames    = flag.Int("frames", 1, "Number of frames to write, orbiting a full turn")
	targetFPS = flag.Int("fps", 30, "Target FPS for interactive modes")
	verbose   = flag.Bool("v", false, "Enable debug logging")

	width    = flag.Int("width", 0, "Frame width (overrides the scene)")
	height   = flag.Int("height", 0, "Frame height (overrides the scene)")
	interp   = flag.String("interp", "", "Interpolation: barycentric or scanline")
	camera   = flag.String("camera", "", "Camera: perspective or orthographic")
	zbuffer  = flag.Bool("zbuffer", true, "Depth buffering")
	shadows  = flag.Bool("shadows", true, "Shadow pass")
	tangents = flag.Bool("tangent-map", false, "Tangent-space normal mapping")
	rotate   = flag.Bool("rotate", false, "Continuous rotation")
	bgColor  = flag.String("bg", "", "Background color (#rrggbb)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "tinyrender - CPU software renderer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: tinyrender [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  Mouse drag  - Orbit the camera\n")
		fmt.Fprintf(os.Stderr, "  Space       - Spin\n")
		fmt.Fprintf(os.Stderr, "  I/C/Z/N/S/R - Toggle interpolation, camera, depth buffer, tangent map, shadows, rotation\n")
		fmt.Fprintf(os.Stderr, "  Esc, Q      - Quit\n")
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(); err != nil {
		slog.Error("tinyrender failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	file, fetcher, err := loadScene()
	if err != nil {
		return err
	}
	setFlags := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	if err := applyFlags(&file.Options, setFlags); err != nil {
		return err
	}
	if err := file.Validate(); err != nil {
		return err
	}

	sc, err := buildScene(file, fetcher)
	if err != nil {
		return err
	}

	switch m := resolveMode(*mode, *outPath, *depthPath); m {
	case "image":
		return renderImages(sc, file.Options, *outPath, *depthPath, *frames)
	case "terminal":
		return runTerminal(sc, file.Options, *targetFPS)
	case "window":
		return runWindow(sc, file.Options, *targetFPS)
	default:
		return fmt.Errorf("unknown mode %q", m)
	}
}

// loadScene reads -scene, or describes a one-model scene from -mesh, or
// falls back to the demo scene.
func loadScene() (*scene.File, scene.Fetcher, error) {
	if *scenePath != "" {
		f, err := scene.LoadFile(*scenePath)
		if err != nil {
			return nil, nil, err
		}
		return f, scene.Dir(filepath.Dir(*scenePath)), nil
	}

	f := scene.Default()
	if *meshPath == "" {
		f.Camera.Position = scene.Vec{1, 1.5, 3}
		f.Models = demoModels()
		return f, nil, nil
	}

	var kind scene.ShaderKind
	if err := kind.UnmarshalText([]byte(*shader)); err != nil {
		return nil, nil, err
	}
	f.Models = []scene.Model{{
		Mesh:       *meshPath,
		Fit:        2,
		Diffuse:    *diffuse,
		NormalMap:  *normalMap,
		TangentMap: *tangent,
		Shader:     kind,
	}}
	return f, scene.FetcherFunc(os.ReadFile), nil
}

// demoModels is a checkered floor with a cube resting on it.
func demoModels() []scene.Model {
	return []scene.Model{
		{Mesh: scene.BuiltinPlane, Size: 3, Diffuse: scene.BuiltinChecker, Factor: 0.2},
		{Mesh: scene.BuiltinCube, Size: 0.8, Offset: scene.Vec{0, 0.4, 0}, TangentMap: scene.BuiltinFlatNormal, Factor: 0.2},
	}
}

// applyFlags copies the option flags the user set onto opts.
func applyFlags(opts *render.Options, set map[string]bool) error {
	if set["width"] {
		opts.Width = *width
	}
	if set["height"] {
		opts.Height = *height
	}
	if set["interp"] {
		if err := opts.Interpolation.UnmarshalText([]byte(*interp)); err != nil {
			return err
		}
	}
	if set["camera"] {
		if err := opts.Camera.UnmarshalText([]byte(*camera)); err != nil {
			return err
		}
	}
	if set["bg"] {
		if err := opts.Background.UnmarshalText([]byte(*bgColor)); err != nil {
			return err
		}
	}
	if set["zbuffer"] {
		opts.DepthBuffer = *zbuffer
	}
	if set["shadows"] {
		opts.Shadows = *shadows
	}
	if set["tangent-map"] {
		opts.TangentNormalMap = *tangents
	}
	if set["rotate"] {
		opts.Rotate = *rotate
	}
	return nil
}

// resolveMode picks an output for "auto": images when a path is given, the
// terminal when stdout is one.
func resolveMode(m, out, depth string) string {
	if m != "auto" {
		return strings.ToLower(m)
	}
	if out != "" || depth != "" {
		return "image"
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return "terminal"
	}
	return "image"
}

func buildScene(f *scene.File, fetcher scene.Fetcher) (*render.Scene, error) {
	b := &scene.Builder{Fetcher: fetcher}

	if assets := f.Assets(); len(assets) > 0 {
		pb := progressbar.Default(int64(len(assets)), "loading assets")
		defer pb.Close()
		b.Loaded = func(name string) {
			slog.Debug("asset loaded", "name", name)
			pb.Add(1)
		}
	}

	sc, err := b.Build(f)
	if err != nil {
		return nil, fmt.Errorf("build scene: %w", err)
	}
	if len(sc.Items) == 0 {
		return nil, errors.New("scene has nothing to draw")
	}
	return sc, nil
}
