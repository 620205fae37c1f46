package models

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/tinyrender/pkg/math3d"
	"github.com/taigrr/tinyrender/pkg/texture"
)

// LoadGLTF loads a .gltf or .glb file. Every triangle primitive of every
// mesh is merged into one Model and the first decodable embedded image
// becomes its diffuse texture.
func LoadGLTF(path string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	m, err := fromDocument(doc)
	if err != nil {
		return nil, err
	}
	m.Name = filepath.Base(path)
	return m, nil
}

// DecodeGLTF reads a self-contained glTF document (GLB or JSON with data
// URIs) from r.
func DecodeGLTF(r io.Reader) (*Model, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode gltf: %w", err)
	}
	return fromDocument(doc)
}

func fromDocument(doc *gltf.Document) (*Model, error) {
	m := &Model{}

	for _, mesh := range doc.Meshes {
		for i, prim := range mesh.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
				// Skip non-triangle primitives (lines, points, etc)
				continue
			}
			posIdx, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				continue
			}

			positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
			if err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: read positions: %w", mesh.Name, i, err)
			}
			var normals [][3]float32
			if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
				if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
					return nil, fmt.Errorf("mesh %q primitive %d: read normals: %w", mesh.Name, i, err)
				}
			}
			var uvs [][2]float32
			if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
				if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
					return nil, fmt.Errorf("mesh %q primitive %d: read uvs: %w", mesh.Name, i, err)
				}
			}

			var indices []uint32
			if prim.Indices != nil {
				if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
					return nil, fmt.Errorf("mesh %q primitive %d: read indices: %w", mesh.Name, i, err)
				}
			} else {
				// No indices, assume sequential triangles
				indices = make([]uint32, len(positions))
				for j := range indices {
					indices[j] = uint32(j)
				}
			}

			part := &Model{}
			if err := part.appendPrimitive(positions, normals, uvs, indices); err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: %w", mesh.Name, i, err)
			}
			m.Merge(part)
		}
	}

	if len(m.Faces) == 0 {
		return nil, fmt.Errorf("gltf has no triangle primitives")
	}
	if !m.HasNormals() {
		m.CalculateSmoothNormals()
	}
	m.CalculateBounds()
	m.Diffuse = firstImage(doc)
	return m, nil
}

// appendPrimitive adds one primitive's unified vertex stream. glTF shares a
// single index between all attributes, so each corner uses it for all three.
func (m *Model) appendPrimitive(positions, normals [][3]float32, uvs [][2]float32, indices []uint32) error {
	base := len(m.Positions)
	hasNormals := len(normals) == len(positions)
	hasUVs := len(uvs) == len(positions)

	for i, p := range positions {
		m.Positions = append(m.Positions, math3d.V3(float64(p[0]), float64(p[1]), float64(p[2])))
		if hasNormals {
			n := normals[i]
			m.Normals = append(m.Normals, math3d.V3(float64(n[0]), float64(n[1]), float64(n[2])))
		}
		if hasUVs {
			// glTF uses top-left origin (V=0 at top), flip V for bottom-left origin
			m.TexCoords = append(m.TexCoords, math3d.V2(float64(uvs[i][0]), 1-float64(uvs[i][1])))
		}
	}
	nbase := len(m.Normals) - len(positions)
	tbase := len(m.TexCoords) - len(positions)

	for j := 0; j+2 < len(indices); j += 3 {
		var f Face
		for k := range 3 {
			v := int(indices[j+k])
			if v >= len(positions) {
				return fmt.Errorf("index %d out of range (%d vertices)", v, len(positions))
			}
			f[k] = Index{Pos: base + v, Tex: -1, Norm: -1}
			if hasNormals {
				f[k].Norm = nbase + v
			}
			if hasUVs {
				f[k].Tex = tbase + v
			}
		}
		m.Faces = append(m.Faces, f)
	}
	return nil
}

// firstImage decodes the first embedded image usable as a texture.
func firstImage(doc *gltf.Document) *texture.Image {
	for i, img := range doc.Images {
		if img.BufferView == nil {
			continue
		}
		raw, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			slog.Debug("gltf image unreadable", "image", i, "err", err)
			continue
		}
		tex, err := texture.Load(img.Name, raw)
		if err != nil {
			slog.Debug("gltf image not decodable", "image", i, "err", err)
			continue
		}
		return tex
	}
	return nil
}
