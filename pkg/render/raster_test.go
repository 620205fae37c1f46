package render

import (
	"math"
	"math/rand"
	"testing"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

// passShader hands clip-space triangles straight to the rasterizer and
// records every fragment it shades.
type passShader struct {
	color     math3d.Color
	fragments map[[2]int]Fragment
}

func newPassShader() *passShader {
	return &passShader{color: math3d.White, fragments: map[[2]int]Fragment{}}
}

func (*passShader) shader() {}

func (*passShader) Bind(DrawState) {}

func (*passShader) Vertex(tri Triangle) Triangle { return tri }

func (s *passShader) Fragment(f Fragment) (Pixel, bool) {
	s.fragments[[2]int{int(f.Screen.X), int(f.Screen.Y)}] = f
	return Pixel{Position: f.Screen, Color: s.color}, true
}

func clipTriangle(a, b, c math3d.Vec4) Triangle {
	return Triangle{Positions: [3]math3d.Vec4{a, b, c}}
}

func TestBarycentric(t *testing.T) {
	// Triangle: (0,0), (1,0), (0,1)
	a, b, c := math3d.V2(0, 0), math3d.V2(1, 0), math3d.V2(0, 1)

	tests := []struct {
		name     string
		p        math3d.Vec2
		expected math3d.Vec3
	}{
		{"vertex 0", math3d.V2(0, 0), math3d.V3(1, 0, 0)},
		{"vertex 1", math3d.V2(1, 0), math3d.V3(0, 1, 0)},
		{"vertex 2", math3d.V2(0, 1), math3d.V3(0, 0, 1)},
		{"centroid", math3d.V2(1.0/3, 1.0/3), math3d.V3(1.0/3, 1.0/3, 1.0/3)},
		{"edge midpoint", math3d.V2(0.5, 0), math3d.V3(0.5, 0.5, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bc := Barycentric(a, b, c, tc.p)
			if math.Abs(bc.X-tc.expected.X) > 1e-9 ||
				math.Abs(bc.Y-tc.expected.Y) > 1e-9 ||
				math.Abs(bc.Z-tc.expected.Z) > 1e-9 {
				t.Errorf("Barycentric(%v) = %v, want %v", tc.p, bc, tc.expected)
			}
		})
	}

	t.Run("outside triangle", func(t *testing.T) {
		bc := Barycentric(a, b, c, math3d.V2(-1, -1))
		if bc.X >= 0 && bc.Y >= 0 && bc.Z >= 0 {
			t.Error("point outside triangle should have negative barycentric coordinate")
		}
	})

	t.Run("clockwise winding", func(t *testing.T) {
		bc := Barycentric(a, c, b, math3d.V2(0.25, 0.25))
		if bc.X < 0 || bc.Y < 0 || bc.Z < 0 {
			t.Errorf("interior point of clockwise triangle got %v", bc)
		}
	})

	t.Run("degenerate", func(t *testing.T) {
		bc := Barycentric(a, math3d.V2(1, 1), math3d.V2(2, 2), math3d.V2(1, 1))
		if bc != math3d.V3(-1, -1, -1) {
			t.Errorf("degenerate triangle got %v, want (-1,-1,-1)", bc)
		}
	})
}

func TestBarycentricWeightsSumToOne(t *testing.T) {
	a, b, c := math3d.V2(3, 2), math3d.V2(40, 9), math3d.V2(12, 35)
	rng := rand.New(rand.NewSource(7))

	for range 500 {
		p := math3d.V2(rng.Float64()*50-5, rng.Float64()*50-5)
		bc := Barycentric(a, b, c, p)
		if sum := bc.X + bc.Y + bc.Z; math.Abs(sum-1) > 1e-9 {
			t.Fatalf("weights at %v sum to %v", p, sum)
		}

		// Cross-check inside/outside with the sign of each edge function.
		d1 := b.Sub(a).Cross(p.Sub(a))
		d2 := c.Sub(b).Cross(p.Sub(b))
		d3 := a.Sub(c).Cross(p.Sub(c))
		inside := (d1 > 0 && d2 > 0 && d3 > 0) || (d1 < 0 && d2 < 0 && d3 < 0)
		nonNegative := bc.X >= 0 && bc.Y >= 0 && bc.Z >= 0
		if inside != nonNegative {
			t.Fatalf("point %v: inside=%v but weights %v", p, inside, bc)
		}
	}
}

func TestPerspectiveCorrectInterpolation(t *testing.T) {
	vp := Viewport{Width: 100, Height: 100}
	tg := newTarget(NewFramebuffer(100, 100), nil, vp)

	// Screen positions (50,50), (75,50), (50,25) with different w.
	tri := clipTriangle(
		math3d.V4(0, 0, 0, 2),
		math3d.V4(2, 0, 0, 4),
		math3d.V4(0, 0.5, 0, 1),
	)
	tri.TexCoords = [3]math3d.Vec2{math3d.V2(0, 0), math3d.V2(1, 0), math3d.V2(0, 1)}
	tri.Normals = [3]math3d.Vec3{math3d.V3(0, 0, 1), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0)}

	sh := newPassShader()
	if n := drawTriangle(tri, sh, tg, InterpolationBarycentric); n == 0 {
		t.Fatal("triangle wrote no pixels")
	}

	f, ok := sh.fragments[[2]int{50, 50}]
	if !ok {
		t.Fatal("no fragment at vertex 0")
	}
	if f.TexCoord != tri.TexCoords[0] {
		t.Errorf("texcoord at vertex 0 = %v, want %v", f.TexCoord, tri.TexCoords[0])
	}
	if f.Normal != tri.Normals[0] {
		t.Errorf("normal at vertex 0 = %v, want %v", f.Normal, tri.Normals[0])
	}

	// 40% of the way along the first edge in screen space is 25% of the way
	// in clip space, because w doubles along that edge.
	f, ok = sh.fragments[[2]int{60, 50}]
	if !ok {
		t.Fatal("no fragment on edge 0-1")
	}
	if math.Abs(f.TexCoord.X-0.25) > 1e-9 {
		t.Errorf("u on edge = %v, want 0.25", f.TexCoord.X)
	}
	if math.Abs(f.Bary.X+f.Bary.Y+f.Bary.Z-1) > 1e-9 {
		t.Errorf("corrected weights %v do not sum to 1", f.Bary)
	}
}

func TestDepthBufferKeepsNearest(t *testing.T) {
	const size = 100
	vp := Viewport{Width: size, Height: size}
	depths := []float64{0.5, -0.2, 0.8, 0.1, -0.6, 0.3}
	want := uint8(math.Round((-0.6 + 1) * DepthRange / 2))

	rng := rand.New(rand.NewSource(42))
	for trial := range 5 {
		fb := NewFramebuffer(size, size)
		db := NewDepthBuffer(size, size)
		tg := newTarget(fb, db, vp)

		for _, i := range rng.Perm(len(depths)) {
			z := depths[i]
			// Oversized triangle covering the whole viewport.
			tri := clipTriangle(math3d.V4(-1, -1, z, 1), math3d.V4(3, -1, z, 1), math3d.V4(-1, 3, z, 1))
			drawTriangle(tri, newPassShader(), tg, InterpolationBarycentric)
		}

		for y := range size {
			for x := range size {
				if got := db.At(x, y); got != want {
					t.Fatalf("trial %d: depth at (%d,%d) = %d, want %d", trial, x, y, got, want)
				}
			}
		}
	}
}

func TestScanlineFill(t *testing.T) {
	vp := Viewport{Width: 100, Height: 100}

	t.Run("covers interior", func(t *testing.T) {
		tg := newTarget(NewFramebuffer(100, 100), nil, vp)
		// Screen apex (50,25), base (25,75)-(75,75).
		tri := clipTriangle(math3d.V4(0, 0.5, 0, 1), math3d.V4(-0.5, -0.5, 0, 1), math3d.V4(0.5, -0.5, 0, 1))
		sh := newPassShader()
		if n := drawTriangle(tri, sh, tg, InterpolationScanline); n == 0 {
			t.Fatal("no pixels written")
		}
		for _, p := range [][2]int{{50, 50}, {50, 74}, {30, 74}, {70, 74}} {
			if _, ok := sh.fragments[p]; !ok {
				t.Errorf("interior pixel %v not shaded", p)
			}
		}
		for _, p := range [][2]int{{10, 10}, {50, 20}, {20, 74}, {50, 80}} {
			if _, ok := sh.fragments[p]; ok {
				t.Errorf("exterior pixel %v shaded", p)
			}
		}
		if f := sh.fragments[[2]int{50, 25}]; f.Bary != math3d.V3(1, 0, 0) {
			t.Errorf("weights at apex = %v, want (1,0,0)", f.Bary)
		}
	})

	t.Run("flat top", func(t *testing.T) {
		tg := newTarget(NewFramebuffer(100, 100), nil, vp)
		tri := clipTriangle(math3d.V4(-0.5, 0.5, 0, 1), math3d.V4(0.5, 0.5, 0, 1), math3d.V4(0, -0.5, 0, 1))
		if n := drawTriangle(tri, newPassShader(), tg, InterpolationScanline); n == 0 {
			t.Error("flat-top triangle wrote no pixels")
		}
	})

	t.Run("zero height", func(t *testing.T) {
		tg := newTarget(NewFramebuffer(100, 100), nil, vp)
		tri := clipTriangle(math3d.V4(-0.5, 0, 0, 1), math3d.V4(0.5, 0, 0, 1), math3d.V4(0, 0, 0, 1))
		if n := drawTriangle(tri, newPassShader(), tg, InterpolationScanline); n != 0 {
			t.Errorf("zero-height triangle wrote %d pixels", n)
		}
	})

	t.Run("weights sum to one", func(t *testing.T) {
		tg := newTarget(NewFramebuffer(100, 100), nil, vp)
		tri := clipTriangle(math3d.V4(-0.8, 0.7, 0, 1), math3d.V4(0.9, 0.1, 0, 1), math3d.V4(-0.2, -0.9, 0, 1))
		sh := newPassShader()
		drawTriangle(tri, sh, tg, InterpolationScanline)
		for p, f := range sh.fragments {
			if sum := f.Bary.X + f.Bary.Y + f.Bary.Z; math.Abs(sum-1) > 1e-9 {
				t.Fatalf("weights at %v sum to %v", p, sum)
			}
		}
	})
}

func TestDegenerateTriangles(t *testing.T) {
	vp := Viewport{Width: 50, Height: 50}

	tests := []struct {
		name string
		tri  Triangle
	}{
		{"collinear", clipTriangle(math3d.V4(-1, -1, 0, 1), math3d.V4(0, 0, 0, 1), math3d.V4(1, 1, 0, 1))},
		{"single point", clipTriangle(math3d.V4(0, 0, 0, 1), math3d.V4(0, 0, 0, 1), math3d.V4(0, 0, 0, 1))},
		{"behind eye", clipTriangle(math3d.V4(-1, -1, 0, -1), math3d.V4(1, -1, 0, 1), math3d.V4(0, 1, 0, 1))},
	}

	for _, tc := range tests {
		for _, mode := range []Interpolation{InterpolationBarycentric, InterpolationScanline} {
			t.Run(tc.name+"/"+mode.String(), func(t *testing.T) {
				tg := newTarget(NewFramebuffer(50, 50), NewDepthBuffer(50, 50), vp)
				if n := drawTriangle(tc.tri, newPassShader(), tg, mode); n != 0 {
					t.Errorf("wrote %d pixels, want 0", n)
				}
			})
		}
	}
}

func TestDepthOnlyTarget(t *testing.T) {
	vp := Viewport{Width: 20, Height: 20}
	db := NewDepthBuffer(20, 20)
	tg := newTarget(nil, db, vp)

	tri := clipTriangle(math3d.V4(-1, -1, 0, 1), math3d.V4(3, -1, 0, 1), math3d.V4(-1, 3, 0, 1))
	if n := drawTriangle(tri, newPassShader(), tg, InterpolationBarycentric); n != 400 {
		t.Errorf("wrote %d depth samples, want 400", n)
	}
	if got := db.At(10, 10); got != 128 {
		t.Errorf("depth = %d, want 128", got)
	}
}

func BenchmarkFillBarycentric(b *testing.B) {
	vp := Viewport{Width: 200, Height: 200}
	tg := newTarget(NewFramebuffer(200, 200), NewDepthBuffer(200, 200), vp)
	tri := clipTriangle(math3d.V4(-0.8, -0.8, 0, 1), math3d.V4(0.8, -0.8, 0, 1), math3d.V4(0, 0.8, 0, 1))
	sh := &GouraudShader{}
	sh.Bind(DrawState{})

	for b.Loop() {
		tg.depth.Clear()
		drawTriangle(tri, sh, tg, InterpolationBarycentric)
	}
}

func BenchmarkFillScanline(b *testing.B) {
	vp := Viewport{Width: 200, Height: 200}
	tg := newTarget(NewFramebuffer(200, 200), NewDepthBuffer(200, 200), vp)
	tri := clipTriangle(math3d.V4(-0.8, -0.8, 0, 1), math3d.V4(0.8, -0.8, 0, 1), math3d.V4(0, 0.8, 0, 1))
	sh := &GouraudShader{}
	sh.Bind(DrawState{})

	for b.Loop() {
		tg.depth.Clear()
		drawTriangle(tri, sh, tg, InterpolationScanline)
	}
}
