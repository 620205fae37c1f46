package render

import (
	"math"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

// simpleLightDirection is the fixed world-space travel direction used by
// SimpleShader.
var simpleLightDirection = math3d.V3(0, 0, -1)

// simpleThreshold is the intensity below which SimpleShader outputs black.
const simpleThreshold = 0.001

// DepthShader outputs the fragment depth as a gray level. The shadow pass
// uses it to fill shadow maps.
type DepthShader struct {
	u struct {
		viewProj math3d.Mat4
	}
}

func (*DepthShader) shader() {}

// Bind implements Shader.
func (s *DepthShader) Bind(ds DrawState) {
	s.u.viewProj = ds.ViewProj
}

// Vertex implements Shader.
func (s *DepthShader) Vertex(tri Triangle) Triangle {
	for i := range 3 {
		tri.Positions[i] = s.u.viewProj.MulVec4(tri.Positions[i])
	}
	return tri
}

// Fragment implements Shader.
func (s *DepthShader) Fragment(f Fragment) (Pixel, bool) {
	z := f.Screen.Z
	return Pixel{Position: f.Screen, Color: math3d.Color{R: z, G: z, B: z, A: 255}}, true
}

// SimpleShader is unlit apart from one fixed light shining along -Z.
// Color is used when the model has no diffuse map; zero means white.
type SimpleShader struct {
	Color math3d.Color

	u struct {
		viewProj  math3d.Mat4
		normalMat math3d.Mat4
		toLight   math3d.Vec3
		diffuse   textureSampler
		color     math3d.Color
	}
}

func (*SimpleShader) shader() {}

// Bind implements Shader.
func (s *SimpleShader) Bind(ds DrawState) {
	s.u.viewProj = ds.ViewProj
	s.u.normalMat = ds.NormalMatrix
	s.u.toLight = ds.View.MulVec3Dir(simpleLightDirection.Negate()).Normalize()
	s.u.diffuse = ds.Diffuse
	s.u.color = s.Color
}

// Vertex implements Shader.
func (s *SimpleShader) Vertex(tri Triangle) Triangle {
	return transformTriangle(tri, s.u.viewProj, s.u.normalMat)
}

// Fragment implements Shader.
func (s *SimpleShader) Fragment(f Fragment) (Pixel, bool) {
	intensity := f.Normal.Normalize().Dot(s.u.toLight)
	if intensity < simpleThreshold {
		intensity = 0
	}
	c := surfaceColor(s.u.diffuse, s.u.color, f.TexCoord).Scale(intensity)
	return Pixel{Position: f.Screen, Color: c}, true
}

// GouraudShader lights each vertex and blends the intensities across the
// face with the rasterizer's barycentric weights.
type GouraudShader struct {
	Color math3d.Color

	u struct {
		viewProj  math3d.Mat4
		normalMat math3d.Mat4
		lights    []lightUniform
		diffuse   textureSampler
		color     math3d.Color
	}
	// per-light vertex intensities of the triangle being drawn
	lit [][3]float64
}

func (*GouraudShader) shader() {}

// Bind implements Shader.
func (s *GouraudShader) Bind(ds DrawState) {
	s.u.viewProj = ds.ViewProj
	s.u.normalMat = ds.NormalMatrix
	s.u.lights = ds.viewLights()
	s.u.diffuse = ds.Diffuse
	s.u.color = s.Color
	s.lit = make([][3]float64, len(s.u.lights))
}

// Vertex implements Shader.
func (s *GouraudShader) Vertex(tri Triangle) Triangle {
	tri = transformTriangle(tri, s.u.viewProj, s.u.normalMat)
	for i, l := range s.u.lights {
		for k := range 3 {
			s.lit[i][k] = math.Max(0, tri.Normals[k].Dot(l.toLight))
		}
	}
	return tri
}

// Fragment implements Shader.
func (s *GouraudShader) Fragment(f Fragment) (Pixel, bool) {
	acc := math3d.Black
	for i, l := range s.u.lights {
		lit := math3d.V3(s.lit[i][0], s.lit[i][1], s.lit[i][2])
		intensity := math.Max(lit.Dot(f.Bary), 0)
		acc = acc.Add(l.color.Scale(intensity))
	}
	c := surfaceColor(s.u.diffuse, s.u.color, f.TexCoord).Mul(acc)
	return Pixel{Position: f.Screen, Color: c}, true
}

// LambertShader lights every pixel from its own normal. The normal comes
// from the interpolated vertex normals, the model's normal map, or, when
// tangent-space mapping is enabled, its tangent-space normal map. Lights
// with a shadow map attenuate occluded pixels.
//
// Factor in [0,1] lifts the unlit side: intensity = max(n·l+f, 0)/(1+f).
type LambertShader struct {
	Factor float64
	Color  math3d.Color

	u struct {
		viewProj      math3d.Mat4
		view          math3d.Mat4
		normalMat     math3d.Mat4
		screenToWorld math3d.Mat4
		lights        []lightUniform
		diffuse       textureSampler
		normalMap     textureSampler
		tangentMap    textureSampler
		factor        float64
		color         math3d.Color
	}
	// tangent basis of the triangle being drawn, view space
	tangent, bitangent math3d.Vec3
	basisOK            bool
}

func (*LambertShader) shader() {}

// Bind implements Shader.
func (s *LambertShader) Bind(ds DrawState) {
	s.u.viewProj = ds.ViewProj
	s.u.view = ds.View
	s.u.normalMat = ds.NormalMatrix
	s.u.screenToWorld = ds.ScreenToWorld
	s.u.lights = ds.viewLights()
	s.u.diffuse = ds.Diffuse
	s.u.normalMap = ds.NormalMap
	s.u.tangentMap = nil
	if ds.TangentNormalMap {
		s.u.tangentMap = ds.TangentNormalTex
	}
	s.u.factor = math.Max(math.Min(s.Factor, 1), 0)
	s.u.color = s.Color
	s.basisOK = false
}

// Vertex implements Shader.
func (s *LambertShader) Vertex(tri Triangle) Triangle {
	if s.u.tangentMap != nil {
		s.computeBasis(tri)
	}
	return transformTriangle(tri, s.u.viewProj, s.u.normalMat)
}

// computeBasis derives the view-space tangent and bitangent from the
// triangle's edges and UV gradients.
func (s *LambertShader) computeBasis(tri Triangle) {
	p0 := s.u.view.MulVec3(tri.Positions[0].Vec3())
	e1 := s.u.view.MulVec3(tri.Positions[1].Vec3()).Sub(p0)
	e2 := s.u.view.MulVec3(tri.Positions[2].Vec3()).Sub(p0)
	d1 := tri.TexCoords[1].Sub(tri.TexCoords[0])
	d2 := tri.TexCoords[2].Sub(tri.TexCoords[0])

	det := d1.Cross(d2)
	if math.Abs(det) < 1e-12 {
		s.basisOK = false
		return
	}
	r := 1 / det
	s.tangent = e1.Scale(d2.Y).Sub(e2.Scale(d1.Y)).Scale(r)
	s.bitangent = e2.Scale(d1.X).Sub(e1.Scale(d2.X)).Scale(r)
	s.basisOK = true
}

func (s *LambertShader) normal(f Fragment) math3d.Vec3 {
	n := f.Normal.Normalize()

	if s.u.tangentMap != nil && s.basisOK {
		m := s.u.tangentMap.Normal(f.TexCoord.X, f.TexCoord.Y)
		// Gram-Schmidt against the interpolated normal.
		t := s.tangent.Sub(n.Scale(n.Dot(s.tangent))).Normalize()
		b := n.Cross(t)
		if b.Dot(s.bitangent) < 0 {
			b = b.Negate()
		}
		return t.Scale(m.X).Add(b.Scale(m.Y)).Add(n.Scale(m.Z)).Normalize()
	}
	if s.u.normalMap != nil {
		m := s.u.normalMap.Normal(f.TexCoord.X, f.TexCoord.Y)
		return s.u.normalMat.MulVec3Dir(m).Normalize()
	}
	return n
}

// Fragment implements Shader.
func (s *LambertShader) Fragment(f Fragment) (Pixel, bool) {
	n := s.normal(f)
	factor := s.u.factor

	var world math3d.Vec3
	worldKnown := false

	acc := math3d.Black
	for _, l := range s.u.lights {
		intensity := math.Max(n.Dot(l.toLight)+factor, 0) / (1 + factor)

		if l.shadow != nil && !s.u.screenToWorld.IsZero() {
			if !worldKnown {
				world = s.u.screenToWorld.MulVec3(f.Screen)
				worldKnown = true
			}
			if l.shadow.Occluded(world) {
				intensity *= ShadowAttenuation
			}
		}
		acc = acc.Add(l.color.Scale(intensity))
	}

	c := surfaceColor(s.u.diffuse, s.u.color, f.TexCoord).Mul(acc)
	return Pixel{Position: f.Screen, Color: c}, true
}
