package models

import "github.com/taigrr/tinyrender/pkg/math3d"

// Plane returns a size×size quad in the XZ plane at y=0 facing +Y.
func Plane(size float64) *Model {
	h := size / 2
	m := &Model{Name: "plane"}
	m.addQuad(
		math3d.V3(-h, 0, h),
		math3d.V3(h, 0, h),
		math3d.V3(h, 0, -h),
		math3d.V3(-h, 0, -h),
		math3d.Up(),
	)
	m.CalculateBounds()
	return m
}

// Cube returns an axis-aligned cube of the given edge length centered on
// center, with flat per-side normals and a full [0,1] UV square per side.
func Cube(center math3d.Vec3, size float64) *Model {
	h := size / 2
	m := &Model{Name: "cube"}

	p := func(x, y, z float64) math3d.Vec3 {
		return center.Add(math3d.V3(x*h, y*h, z*h))
	}

	m.addQuad(p(-1, -1, 1), p(1, -1, 1), p(1, 1, 1), p(-1, 1, 1), math3d.V3(0, 0, 1))     // front
	m.addQuad(p(1, -1, -1), p(-1, -1, -1), p(-1, 1, -1), p(1, 1, -1), math3d.V3(0, 0, -1)) // back
	m.addQuad(p(1, -1, 1), p(1, -1, -1), p(1, 1, -1), p(1, 1, 1), math3d.V3(1, 0, 0))      // right
	m.addQuad(p(-1, -1, -1), p(-1, -1, 1), p(-1, 1, 1), p(-1, 1, -1), math3d.V3(-1, 0, 0)) // left
	m.addQuad(p(-1, 1, 1), p(1, 1, 1), p(1, 1, -1), p(-1, 1, -1), math3d.V3(0, 1, 0))      // top
	m.addQuad(p(-1, -1, -1), p(1, -1, -1), p(1, -1, 1), p(-1, -1, 1), math3d.V3(0, -1, 0)) // bottom

	m.CalculateBounds()
	return m
}

// Merge appends the geometry of other to m. Texture handles of m are kept.
func (m *Model) Merge(other *Model) {
	pos, tex, norm := len(m.Positions), len(m.TexCoords), len(m.Normals)
	m.Positions = append(m.Positions, other.Positions...)
	m.TexCoords = append(m.TexCoords, other.TexCoords...)
	m.Normals = append(m.Normals, other.Normals...)

	shift := func(i, by int) int {
		if i < 0 {
			return i
		}
		return i + by
	}
	for _, f := range other.Faces {
		for j := range f {
			f[j] = Index{shift(f[j].Pos, pos), shift(f[j].Tex, tex), shift(f[j].Norm, norm)}
		}
		m.Faces = append(m.Faces, f)
	}
	m.CalculateBounds()
}

// addQuad appends the counter-clockwise quad abcd as two triangles.
func (m *Model) addQuad(a, b, c, d, normal math3d.Vec3) {
	pos, tex, norm := len(m.Positions), len(m.TexCoords), len(m.Normals)

	m.Positions = append(m.Positions, a, b, c, d)
	m.TexCoords = append(m.TexCoords,
		math3d.V2(0, 0), math3d.V2(1, 0), math3d.V2(1, 1), math3d.V2(0, 1))
	m.Normals = append(m.Normals, normal)

	corner := func(i int) Index {
		return Index{Pos: pos + i, Tex: tex + i, Norm: norm}
	}
	m.Faces = append(m.Faces,
		Face{corner(0), corner(1), corner(2)},
		Face{corner(0), corner(2), corner(3)},
	)
}
