package scene

import (
	"bytes"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/taigrr/tinyrender/pkg/math3d"
	"github.com/taigrr/tinyrender/pkg/models"
	"github.com/taigrr/tinyrender/pkg/render"
	"github.com/taigrr/tinyrender/pkg/texture"
)

// Sizes of generated textures.
const (
	builtinTextureSize = 64
	checkerCell        = 8
)

// Builder turns a File into a render.Scene.
type Builder struct {
	Fetcher Fetcher
	// Log receives debug output; nil means slog.Default().
	Log *slog.Logger
	// Loaded, if set, is called after each fetched asset is decoded.
	Loaded func(name string)
}

// Build loads every model and texture of f and assembles the scene. Each
// model gets its own shader instance.
func (b *Builder) Build(f *File) (*render.Scene, error) {
	log := b.Log
	if log == nil {
		log = slog.Default()
	}

	s := &render.Scene{Camera: f.Camera.camera()}
	if f.PresetLights || len(f.Lights) == 0 {
		s.Lights = render.PresetLights()
	}
	for _, l := range f.Lights {
		s.Lights = append(s.Lights, l.light())
	}

	for i, ms := range f.Models {
		m, err := b.model(ms, log)
		if err != nil {
			return nil, fmt.Errorf("model %d (%s): %w", i, ms.Mesh, err)
		}
		log.Debug("model ready",
			"name", m.Name,
			"triangles", m.TriangleCount(),
			"shader", ms.Shader,
		)
		s.Items = append(s.Items, render.Item{Model: m, Shader: ms.shader()})
	}
	return s, nil
}

func (b *Builder) model(ms Model, log *slog.Logger) (*models.Model, error) {
	m, err := b.mesh(ms)
	if err != nil {
		return nil, err
	}

	if !m.HasNormals() {
		log.Debug("generating smooth normals", "model", m.Name)
		m.CalculateSmoothNormals()
	}
	if ms.Fit > 0 {
		m.Fit(ms.Fit)
	}
	if ms.Rotate != (Vec{}) || ms.Offset != (Vec{}) {
		m.Transform(math3d.Translate(ms.Offset.Vec3()).Mul(ms.Rotate.rotation()))
	}

	slots := []struct {
		name string
		dst  **texture.Image
	}{
		{ms.Diffuse, &m.Diffuse},
		{ms.NormalMap, &m.NormalMap},
		{ms.TangentMap, &m.TangentNormalMap},
	}
	for _, slot := range slots {
		if slot.name == "" {
			continue
		}
		img, err := b.texture(slot.name)
		if err != nil {
			return nil, err
		}
		*slot.dst = img
	}
	return m, nil
}

func (b *Builder) mesh(ms Model) (*models.Model, error) {
	switch ms.Mesh {
	case BuiltinPlane:
		return models.Plane(sizeOr(ms.Size, 2)), nil
	case BuiltinCube:
		return models.Cube(math3d.V3(0, 0, 0), sizeOr(ms.Size, 1)), nil
	}
	if strings.HasPrefix(ms.Mesh, BuiltinPrefix) {
		return nil, fmt.Errorf("unknown builtin mesh %q", ms.Mesh)
	}

	data, err := b.fetch(ms.Mesh)
	if err != nil {
		return nil, err
	}

	var m *models.Model
	switch strings.ToLower(path.Ext(ms.Mesh)) {
	case ".glb", ".gltf":
		m, err = models.DecodeGLTF(bytes.NewReader(data))
	default:
		m, err = models.Parse(bytes.NewReader(data))
	}
	if err != nil {
		return nil, err
	}
	m.Name = path.Base(ms.Mesh)
	b.loaded(ms.Mesh)
	return m, nil
}

func (b *Builder) texture(name string) (*texture.Image, error) {
	switch name {
	case BuiltinChecker:
		return texture.NewChecker(builtinTextureSize, builtinTextureSize, checkerCell)
	case BuiltinFlatNormal:
		return texture.NewFlatNormal(builtinTextureSize, builtinTextureSize)
	}
	if strings.HasPrefix(name, BuiltinPrefix) {
		return nil, fmt.Errorf("unknown builtin texture %q", name)
	}

	data, err := b.fetch(name)
	if err != nil {
		return nil, err
	}
	img, err := texture.Load(name, data)
	if err != nil {
		return nil, err
	}
	b.loaded(name)
	return img, nil
}

func (b *Builder) fetch(name string) ([]byte, error) {
	if b.Fetcher == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNoFetcher)
	}
	return b.Fetcher.Fetch(name)
}

func (b *Builder) loaded(name string) {
	if b.Loaded != nil {
		b.Loaded(name)
	}
}

func sizeOr(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}
