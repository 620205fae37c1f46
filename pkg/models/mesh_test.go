package models

import (
	"errors"
	"math"
	"testing"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

const triangleMesh = `# single triangle
v -1 -1 0
v 1 -1 0
v 0 1 0
vt 0 0
vt 1 0
vt 0.5 1 0
vn 0 0 1
f 1/1/1 2/2/1 3/3/1
`

func TestParseTriangle(t *testing.T) {
	m, err := ParseString(triangleMesh)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if len(m.Positions) != 3 || len(m.TexCoords) != 3 || len(m.Normals) != 1 {
		t.Fatalf("arrays = %d/%d/%d", len(m.Positions), len(m.TexCoords), len(m.Normals))
	}
	if want := (Face{{0, 0, 0}, {1, 1, 0}, {2, 2, 0}}); m.Faces[0] != want {
		t.Errorf("face = %v, want %v", m.Faces[0], want)
	}

	v := m.Vertex(0, 2)
	if v.Position != math3d.V3(0, 1, 0) || v.TexCoord != math3d.V2(0.5, 1) || v.Normal != math3d.V3(0, 0, 1) {
		t.Errorf("Vertex(0,2) = %+v", v)
	}

	lo, hi := m.Bounds()
	if lo != math3d.V3(-1, -1, 0) || hi != math3d.V3(1, 1, 0) {
		t.Errorf("Bounds = %v %v", lo, hi)
	}
}

func TestParseIndexForms(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
vn 0 0 1
f 1 2 3
f 1//1 2//1 3//1
f -3 -2 -1
f 1 2 4 3
unknown line is ignored
`
	m, err := ParseString(src)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if m.TriangleCount() != 5 {
		t.Fatalf("TriangleCount = %d, want 5 (quad becomes two triangles)", m.TriangleCount())
	}

	if c := m.Faces[0][0]; c != (Index{Pos: 0, Tex: -1, Norm: -1}) {
		t.Errorf("position only corner = %+v", c)
	}
	if c := m.Faces[1][1]; c != (Index{Pos: 1, Tex: -1, Norm: 0}) {
		t.Errorf("p//n corner = %+v", c)
	}
	if got := [3]int{m.Faces[2][0].Pos, m.Faces[2][1].Pos, m.Faces[2][2].Pos}; got != [3]int{1, 2, 3} {
		t.Errorf("relative indices = %v, want [1 2 3]", got)
	}
	if got := [3]int{m.Faces[4][0].Pos, m.Faces[4][1].Pos, m.Faces[4][2].Pos}; got != [3]int{0, 3, 2} {
		t.Errorf("fan triangle = %v, want [0 3 2]", got)
	}

	if v := m.Vertex(0, 1); v.Normal != (math3d.Vec3{}) || v.TexCoord != (math3d.Vec2{}) {
		t.Errorf("omitted attributes should be zero, got %+v", v)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		face int
	}{
		{"position out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n", 4, 0},
		{"texcoord out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nf 1/1 2/2 3/1\n", 5, 0},
		{"normal out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1//1 2//1 3//1\n", 4, 0},
		{"second face", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n\nf 1 2 9\n", 6, 1},
		{"index zero", "v 0 0 0\nf 0 1 1\n", 2, 0},
		{"too few corners", "v 0 0 0\nf 1 1\n", 2, 0},
		{"bad number", "v 0 x 0\n", 1, -1},
		{"short vertex", "v 0 0\n", 1, -1},
		{"relative underflow", "v 0 0 0\nf -2 1 1\n", 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseString(tt.src)
			if m != nil {
				t.Error("expected no model on error")
			}
			var me *MeshError
			if !errors.As(err, &me) {
				t.Fatalf("err = %v, want *MeshError", err)
			}
			if me.Line != tt.line || me.Face != tt.face {
				t.Errorf("MeshError at line %d face %d, want line %d face %d", me.Line, me.Face, tt.line, tt.face)
			}
		})
	}
}

func TestForwardReferenceAllowed(t *testing.T) {
	if _, err := ParseString("f 1 2 3\nv 0 0 0\nv 1 0 0\nv 0 1 0\n"); err != nil {
		t.Errorf("forward reference rejected: %v", err)
	}
}

func TestCalculateSmoothNormals(t *testing.T) {
	m, err := ParseString("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")
	if err != nil {
		t.Fatal(err)
	}
	if m.HasNormals() {
		t.Fatal("HasNormals should be false without vn")
	}
	m.CalculateSmoothNormals()
	if !m.HasNormals() {
		t.Fatal("HasNormals should be true after CalculateSmoothNormals")
	}
	for i := range 3 {
		if n := m.Vertex(0, i).Normal; n != math3d.V3(0, 0, 1) {
			t.Errorf("normal %d = %v, want (0,0,1)", i, n)
		}
	}
}

func TestTransformAndFit(t *testing.T) {
	m := Cube(math3d.V3(5, 5, 5), 4)
	m.Fit(1)

	if c := m.Center(); c.Len() > 1e-9 {
		t.Errorf("Center after Fit = %v, want origin", c)
	}
	if s := m.Size(); math.Abs(s.X-1) > 1e-9 || math.Abs(s.Y-1) > 1e-9 {
		t.Errorf("Size after Fit = %v, want 1", s)
	}

	m.Transform(math3d.RotateY(math.Pi / 2))
	for _, n := range m.Normals {
		if math.Abs(n.Len()-1) > 1e-9 {
			t.Errorf("normal %v not unit length after transform", n)
		}
	}
}

func TestPrimitives(t *testing.T) {
	p := Plane(2)
	if p.TriangleCount() != 2 {
		t.Errorf("plane triangles = %d", p.TriangleCount())
	}
	for f := range p.Faces {
		tri := p.Triangle(f)
		n := math3d.TriangleNormal(tri[0].Position, tri[1].Position, tri[2].Position)
		if n != tri[0].Normal {
			t.Errorf("plane face %d winding normal %v disagrees with %v", f, n, tri[0].Normal)
		}
	}

	c := Cube(math3d.V3(0, 1, 0), 2)
	if c.TriangleCount() != 12 {
		t.Errorf("cube triangles = %d", c.TriangleCount())
	}
	for f := range c.Faces {
		tri := c.Triangle(f)
		n := math3d.TriangleNormal(tri[0].Position, tri[1].Position, tri[2].Position)
		if n.Sub(tri[0].Normal).Len() > 1e-9 {
			t.Errorf("cube face %d winding normal %v disagrees with %v", f, n, tri[0].Normal)
		}
	}
	if lo, hi := c.Bounds(); lo != math3d.V3(-1, 0, -1) || hi != math3d.V3(1, 2, 1) {
		t.Errorf("cube bounds = %v %v", lo, hi)
	}

	p.Merge(c)
	if p.TriangleCount() != 14 || p.Faces[2][0].Pos != 4 {
		t.Errorf("merged model = %d faces, first merged pos %d", p.TriangleCount(), p.Faces[2][0].Pos)
	}
}
