// Package models parses triangle meshes and exposes per-face vertex
// attributes to the renderer.
package models

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taigrr/tinyrender/pkg/math3d"
	"github.com/taigrr/tinyrender/pkg/texture"
)

// Index points one face corner into the model's attribute arrays.
// Indices are 0-based; -1 marks an attribute the face omitted.
type Index struct {
	Pos, Tex, Norm int
}

// Face is a triangle made of three corners.
type Face [3]Index

// Vertex is the resolved attribute set of one face corner.
type Vertex struct {
	Position math3d.Vec3
	TexCoord math3d.Vec2
	Normal   math3d.Vec3
}

// Model is a parsed mesh. Geometry is immutable after parsing; only the
// texture handles are expected to change.
type Model struct {
	Name      string
	Positions []math3d.Vec3
	TexCoords []math3d.Vec2
	Normals   []math3d.Vec3
	Faces     []Face

	Diffuse          *texture.Image // surface color
	NormalMap        *texture.Image // object-space normals
	TangentNormalMap *texture.Image // tangent-space normals

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// MeshError reports malformed mesh input. Face is the 0-based index of the
// offending face, or -1 when the error is not tied to a face.
type MeshError struct {
	Line int
	Face int
	Msg  string
}

func (e *MeshError) Error() string {
	if e.Face >= 0 {
		return fmt.Sprintf("mesh: line %d: face %d: %s", e.Line, e.Face, e.Msg)
	}
	return fmt.Sprintf("mesh: line %d: %s", e.Line, e.Msg)
}

// LoadFile parses a mesh file from disk.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mesh: %w", err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	m.Name = filepath.Base(path)
	return m, nil
}

// ParseString parses mesh text held in memory.
func ParseString(s string) (*Model, error) {
	return Parse(strings.NewReader(s))
}

// Parse reads the line-oriented mesh format: "v x y z", "vt u v [w]",
// "vn x y z" and "f p/t/n p/t/n p/t/n ...", with 1-based (or negative,
// relative) indices. Polygons with more than three corners are split into a
// triangle fan. Every index is checked against the parsed arrays, so a
// returned Model never refers outside its own data.
func Parse(r io.Reader) (*Model, error) {
	m := &Model{}
	var faceLines []int

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseFloats(fields[1:], 3, line)
			if err != nil {
				return nil, err
			}
			m.Positions = append(m.Positions, math3d.V3(v[0], v[1], v[2]))
		case "vt":
			v, err := parseFloats(fields[1:], 2, line)
			if err != nil {
				return nil, err
			}
			m.TexCoords = append(m.TexCoords, math3d.V2(v[0], v[1]))
		case "vn":
			v, err := parseFloats(fields[1:], 3, line)
			if err != nil {
				return nil, err
			}
			m.Normals = append(m.Normals, math3d.V3(v[0], v[1], v[2]))
		case "f":
			if len(fields) < 4 {
				return nil, &MeshError{Line: line, Face: len(m.Faces), Msg: "face needs at least three corners"}
			}
			corners := make([]Index, 0, len(fields)-1)
			for _, group := range fields[1:] {
				idx, err := m.parseCorner(group)
				if err != nil {
					return nil, &MeshError{Line: line, Face: len(m.Faces), Msg: err.Error()}
				}
				corners = append(corners, idx)
			}
			for i := 1; i+1 < len(corners); i++ {
				m.Faces = append(m.Faces, Face{corners[0], corners[i], corners[i+1]})
				faceLines = append(faceLines, line)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mesh: %w", err)
	}

	// Validate after the whole file is read so faces may refer forward.
	for i, f := range m.Faces {
		for _, c := range f {
			if msg := m.checkCorner(c); msg != "" {
				return nil, &MeshError{Line: faceLines[i], Face: i, Msg: msg}
			}
		}
	}

	m.CalculateBounds()
	return m, nil
}

func parseFloats(fields []string, n, line int) ([]float64, error) {
	if len(fields) < n {
		return nil, &MeshError{Line: line, Face: -1, Msg: fmt.Sprintf("expected %d components, got %d", n, len(fields))}
	}
	out := make([]float64, n)
	for i := range n {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, &MeshError{Line: line, Face: -1, Msg: fmt.Sprintf("bad number %q", fields[i])}
		}
		out[i] = v
	}
	return out, nil
}

// parseCorner converts "p", "p/t", "p//n" or "p/t/n" to 0-based indices.
// Negative indices count back from the attributes parsed so far.
func (m *Model) parseCorner(group string) (Index, error) {
	parts := strings.Split(group, "/")
	if len(parts) > 3 {
		return Index{}, fmt.Errorf("bad index group %q", group)
	}

	idx := Index{Pos: -1, Tex: -1, Norm: -1}
	targets := []*int{&idx.Pos, &idx.Tex, &idx.Norm}
	counts := []int{len(m.Positions), len(m.TexCoords), len(m.Normals)}

	for i, p := range parts {
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Index{}, fmt.Errorf("bad index %q", p)
		}
		switch {
		case n > 0:
			*targets[i] = n - 1
		case n < 0:
			*targets[i] = counts[i] + n
			if *targets[i] < 0 {
				return Index{}, fmt.Errorf("relative index %d out of range", n)
			}
		default:
			return Index{}, fmt.Errorf("index 0 in %q", group)
		}
	}
	if idx.Pos < 0 {
		return Index{}, fmt.Errorf("missing position index in %q", group)
	}
	return idx, nil
}

func (m *Model) checkCorner(c Index) string {
	if c.Pos < 0 || c.Pos >= len(m.Positions) {
		return fmt.Sprintf("position index %d out of range (%d positions)", c.Pos+1, len(m.Positions))
	}
	if c.Tex >= len(m.TexCoords) {
		return fmt.Sprintf("texcoord index %d out of range (%d texcoords)", c.Tex+1, len(m.TexCoords))
	}
	if c.Norm >= len(m.Normals) {
		return fmt.Sprintf("normal index %d out of range (%d normals)", c.Norm+1, len(m.Normals))
	}
	return ""
}

// Vertex returns the attributes of corner i (0..2) of face f. Omitted
// attributes come back as zero values.
func (m *Model) Vertex(f, i int) Vertex {
	c := m.Faces[f][i]
	v := Vertex{Position: m.Positions[c.Pos]}
	if c.Tex >= 0 {
		v.TexCoord = m.TexCoords[c.Tex]
	}
	if c.Norm >= 0 {
		v.Normal = m.Normals[c.Norm]
	}
	return v
}

// Triangle returns the three resolved corners of face f.
func (m *Model) Triangle(f int) [3]Vertex {
	return [3]Vertex{m.Vertex(f, 0), m.Vertex(f, 1), m.Vertex(f, 2)}
}

// TriangleCount returns the number of triangles.
func (m *Model) TriangleCount() int {
	return len(m.Faces)
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Model) CalculateBounds() {
	if len(m.Positions) == 0 {
		m.BoundsMin, m.BoundsMax = math3d.Vec3{}, math3d.Vec3{}
		return
	}

	m.BoundsMin = m.Positions[0]
	m.BoundsMax = m.Positions[0]

	for _, p := range m.Positions[1:] {
		m.BoundsMin = m.BoundsMin.Min(p)
		m.BoundsMax = m.BoundsMax.Max(p)
	}
}

// Bounds returns the axis-aligned bounding box.
func (m *Model) Bounds() (lo, hi math3d.Vec3) {
	return m.BoundsMin, m.BoundsMax
}

// Center returns the center of the bounding box.
func (m *Model) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Model) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// HasNormals reports whether every face corner carries a normal.
func (m *Model) HasNormals() bool {
	for _, f := range m.Faces {
		for _, c := range f {
			if c.Norm < 0 {
				return false
			}
		}
	}
	return len(m.Faces) > 0
}

// CalculateSmoothNormals replaces the normal array with one area-weighted
// normal per position and points every face corner at it.
func (m *Model) CalculateSmoothNormals() {
	normals := make([]math3d.Vec3, len(m.Positions))

	for _, f := range m.Faces {
		p0 := m.Positions[f[0].Pos]
		p1 := m.Positions[f[1].Pos]
		p2 := m.Positions[f[2].Pos]
		n := p1.Sub(p0).Cross(p2.Sub(p0)) // Don't normalize yet

		for _, c := range f {
			normals[c.Pos] = normals[c.Pos].Add(n)
		}
	}

	for i := range normals {
		normals[i] = normals[i].Normalize()
	}
	for i := range m.Faces {
		for j := range m.Faces[i] {
			m.Faces[i][j].Norm = m.Faces[i][j].Pos
		}
	}
	m.Normals = normals
}

// Transform bakes mat into the positions and normals.
func (m *Model) Transform(mat math3d.Mat4) {
	normalMat := mat.Inverse().Transpose()
	if normalMat.IsZero() {
		normalMat = mat
	}
	for i := range m.Positions {
		m.Positions[i] = mat.MulVec3(m.Positions[i])
	}
	for i := range m.Normals {
		m.Normals[i] = normalMat.MulVec3Dir(m.Normals[i]).Normalize()
	}
	m.CalculateBounds()
}

// Fit centers the model on the origin and scales it uniformly so its largest
// extent equals size.
func (m *Model) Fit(size float64) {
	ext := m.Size()
	largest := max(ext.X, ext.Y, ext.Z)
	if largest == 0 {
		return
	}
	m.Transform(math3d.ScaleUniform(size / largest).Mul(math3d.Translate(m.Center().Negate())))
}
