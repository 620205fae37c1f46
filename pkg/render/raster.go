package render

import (
	"math"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

// degenerateArea is the screen-space area below which a triangle covers
// nothing.
const degenerateArea = 0.001

// Barycentric returns the weights of p relative to triangle abc using edge
// functions. The weights sum to 1; a point outside the triangle has at
// least one negative weight. A degenerate triangle yields (-1,-1,-1).
func Barycentric(a, b, c, p math3d.Vec2) math3d.Vec3 {
	area := b.Sub(a).Cross(c.Sub(a))
	if math.Abs(area) < degenerateArea {
		return math3d.V3(-1, -1, -1)
	}
	w0 := b.Sub(p).Cross(c.Sub(p)) / area
	w1 := c.Sub(p).Cross(a.Sub(p)) / area
	return math3d.V3(w0, w1, 1-w0-w1)
}

// target is where the rasterizer writes shaded pixels. With no color
// buffer only depth is written, which is how shadow maps are filled.
type target struct {
	color    *Framebuffer
	depth    *DepthBuffer
	viewport math3d.Mat4
	width    int
	height   int
}

func newTarget(color *Framebuffer, depth *DepthBuffer, vp Viewport) target {
	return target{
		color:    color,
		depth:    depth,
		viewport: vp.Matrix(),
		width:    vp.Width,
		height:   vp.Height,
	}
}

func (t target) write(px Pixel) bool {
	if t.color != nil {
		return t.color.SetPixel(px.Position, px.Color, t.depth)
	}
	if t.depth == nil {
		return false
	}
	x := int(math.Round(px.Position.X))
	y := int(math.Round(px.Position.Y))
	return t.depth.Test(x, y, px.Position.Z)
}

// rasterVertex is one corner of a triangle in screen space with the
// attributes carried across it.
type rasterVertex struct {
	screen math3d.Vec3
	w      float64
	tex    math3d.Vec2
	normal math3d.Vec3
	bary   math3d.Vec3
}

func (a rasterVertex) lerp(b rasterVertex, t float64) rasterVertex {
	return rasterVertex{
		screen: a.screen.Lerp(b.screen, t),
		w:      a.w + (b.w-a.w)*t,
		tex:    a.tex.Lerp(b.tex, t),
		normal: a.normal.Lerp(b.normal, t),
		bary:   a.bary.Lerp(b.bary, t),
	}
}

// drawTriangle rasterizes a clip-space triangle produced by sh.Vertex and
// returns the number of pixels written. Triangles with a vertex at or
// behind the eye (w <= 0) are skipped.
func drawTriangle(tri Triangle, sh Shader, t target, mode Interpolation) int {
	var v [3]rasterVertex
	for i := range 3 {
		c := tri.Positions[i]
		if c.W <= 0 {
			return 0
		}
		v[i] = rasterVertex{
			screen: t.viewport.MulVec4(c).PerspectiveDivide(),
			w:      c.W,
			tex:    tri.TexCoords[i],
			normal: tri.Normals[i],
		}
	}
	v[0].bary = math3d.V3(1, 0, 0)
	v[1].bary = math3d.V3(0, 1, 0)
	v[2].bary = math3d.V3(0, 0, 1)

	if mode == InterpolationScanline {
		return fillScanline(v, sh, t)
	}
	return fillBarycentric(v, sh, t)
}

// fillBarycentric walks the triangle's pixel bounding box and shades every
// pixel with non-negative weights, interpolating attributes with
// perspective-correct weights.
func fillBarycentric(v [3]rasterVertex, sh Shader, t target) int {
	a := math3d.V2(v[0].screen.X, v[0].screen.Y)
	b := math3d.V2(v[1].screen.X, v[1].screen.Y)
	c := math3d.V2(v[2].screen.X, v[2].screen.Y)

	minX := max(0, int(math.Floor(min(a.X, b.X, c.X))))
	maxX := min(t.width-1, int(math.Ceil(max(a.X, b.X, c.X))))
	minY := max(0, int(math.Floor(min(a.Y, b.Y, c.Y))))
	maxY := min(t.height-1, int(math.Ceil(max(a.Y, b.Y, c.Y))))

	depths := math3d.V3(v[0].screen.Z, v[1].screen.Z, v[2].screen.Z)
	written := 0
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			bc := Barycentric(a, b, c, math3d.V2(float64(x), float64(y)))
			if bc.X < 0 || bc.Y < 0 || bc.Z < 0 {
				continue
			}

			pc := math3d.V3(bc.X/v[0].w, bc.Y/v[1].w, bc.Z/v[2].w)
			sum := pc.X + pc.Y + pc.Z
			if sum == 0 {
				continue
			}
			pc = pc.Scale(1 / sum)

			f := Fragment{
				Screen:   math3d.V3(float64(x), float64(y), bc.Dot(depths)),
				TexCoord: math3d.Weighted2(v[0].tex, v[1].tex, v[2].tex, pc),
				Normal:   math3d.Weighted(v[0].normal, v[1].normal, v[2].normal, pc),
				Bary:     pc,
			}
			px, ok := sh.Fragment(f)
			if ok && t.write(px) {
				written++
			}
		}
	}
	return written
}

// fillScanline sorts the corners by y and fills the triangle one row at a
// time, interpolating attributes linearly in screen space.
func fillScanline(v [3]rasterVertex, sh Shader, t target) int {
	for i := range v {
		v[i].screen.X = math.Round(v[i].screen.X)
		v[i].screen.Y = math.Round(v[i].screen.Y)
	}
	a := math3d.V2(v[0].screen.X, v[0].screen.Y)
	b := math3d.V2(v[1].screen.X, v[1].screen.Y)
	c := math3d.V2(v[2].screen.X, v[2].screen.Y)
	if math.Abs(b.Sub(a).Cross(c.Sub(a))) < degenerateArea {
		return 0
	}

	if v[0].screen.Y > v[1].screen.Y {
		v[0], v[1] = v[1], v[0]
	}
	if v[0].screen.Y > v[2].screen.Y {
		v[0], v[2] = v[2], v[0]
	}
	if v[1].screen.Y > v[2].screen.Y {
		v[1], v[2] = v[2], v[1]
	}

	y0, y1, y2 := int(v[0].screen.Y), int(v[1].screen.Y), int(v[2].screen.Y)
	total := y2 - y0
	if total == 0 {
		return 0
	}

	written := 0
	for y := max(y0, 0); y <= min(y2, t.height-1); y++ {
		upper := y <= y1 && y1 != y0
		var seg int
		if upper {
			seg = y1 - y0
		} else {
			seg = y2 - y1
		}
		if seg == 0 {
			continue
		}

		alpha := float64(y-y0) / float64(total)
		left := v[0].lerp(v[2], alpha)
		var right rasterVertex
		if upper {
			right = v[0].lerp(v[1], float64(y-y0)/float64(seg))
		} else {
			right = v[1].lerp(v[2], float64(y-y1)/float64(seg))
		}

		lx, rx := int(math.Round(left.screen.X)), int(math.Round(right.screen.X))
		if lx > rx {
			left, right = right, left
			lx, rx = rx, lx
		}

		for x := max(lx, 0); x <= min(rx, t.width-1); x++ {
			phi := 1.0
			if rx != lx {
				phi = float64(x-lx) / float64(rx-lx)
			}
			p := left.lerp(right, phi)

			f := Fragment{
				Screen:   math3d.V3(float64(x), float64(y), p.screen.Z),
				TexCoord: p.tex,
				Normal:   p.normal,
				Bary:     p.bary,
			}
			px, ok := sh.Fragment(f)
			if ok && t.write(px) {
				written++
			}
		}
	}
	return written
}
