package render

import (
	"math"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

// Shadow test constants, in depth units of the 0..255 range.
const (
	ShadowBias        = 2
	ShadowAttenuation = 0.3
)

// Light is a directional light. Direction is the world-space direction the
// light travels; it is kept normalized.
type Light struct {
	Position  math3d.Vec3
	Direction math3d.Vec3
	Color     math3d.Color

	// CastShadows enables the shadow pass for this light.
	CastShadows bool
	// ShadowBox is the orthographic volume, in light view space, covered by
	// the shadow map.
	ShadowBox Orthographic

	shadow *ShadowMap
}

// ShadowMap is a depth image rendered from a light. It is owned by exactly
// one Light, written during the shadow pass and read during the main pass.
type ShadowMap struct {
	Viewport Viewport
	Depth    *DepthBuffer
	// LightSpace maps world space to the shadow map's pixels and depth
	// (viewport × viewProj of the light camera).
	LightSpace math3d.Mat4
}

// NewLight creates a shadow-casting light.
func NewLight(position, direction math3d.Vec3, c math3d.Color) *Light {
	return &Light{
		Position:    position,
		Direction:   direction.Normalize(),
		Color:       c,
		CastShadows: true,
		ShadowBox:   Orthographic{Left: -2, Right: 2, Top: 2, Bottom: -2, Near: 0, Far: 10},
	}
}

// PresetLights returns a white key light and red, green and blue fill
// lights, all aimed at the origin.
func PresetLights() []*Light {
	return []*Light{
		NewLight(math3d.V3(0, 1, 1), math3d.V3(0, -1, -1), math3d.White),
		NewLight(math3d.V3(0, 1, -2), math3d.V3(0, -1, 1), math3d.Red),
		NewLight(math3d.V3(-2, 1, 0), math3d.V3(1, -1, 0), math3d.Green),
		NewLight(math3d.V3(2, 1, 0), math3d.V3(-1, -1, 0), math3d.Blue),
	}
}

// Camera returns the orthographic camera looking from the light's position
// along its direction.
func (l *Light) Camera() Camera {
	up := math3d.Up()
	if math.Abs(l.Direction.Dot(up)) > 0.99 {
		up = math3d.V3(0, 0, -1)
	}
	return Camera{
		Position:   l.Position,
		Target:     l.Position.Add(l.Direction),
		Up:         up,
		Projection: l.ShadowBox,
	}
}

// ShadowMap returns the light's shadow map, or nil before the first shadow
// pass.
func (l *Light) ShadowMap() *ShadowMap {
	return l.shadow
}

// prepareShadowMap readies the shadow map for a pass over vp: the depth
// buffer is reallocated when the viewport size changed and cleared
// otherwise, and the light-space matrix is recomputed. It reports whether a
// new buffer was allocated.
func (l *Light) prepareShadowMap(vp Viewport) (*ShadowMap, bool) {
	allocated := false
	if l.shadow == nil || l.shadow.Viewport != vp {
		l.shadow = &ShadowMap{Viewport: vp, Depth: NewDepthBuffer(vp.Width, vp.Height)}
		allocated = true
	} else {
		l.shadow.Depth.Clear()
	}
	l.shadow.LightSpace = vp.Matrix().Mul(l.Camera().ViewProjectionMatrix())
	return l.shadow, allocated
}

// Occluded reports whether world point p lies behind the depth stored in
// the shadow map. Points outside the map, including its depth range, are
// never occluded.
func (s *ShadowMap) Occluded(p math3d.Vec3) bool {
	lp := s.LightSpace.MulVec3(p)
	x := int(math.Round(lp.X))
	y := int(math.Round(lp.Y))
	if x < 0 || y < 0 || x >= s.Depth.Width || y >= s.Depth.Height || lp.Z < 0 || lp.Z > DepthRange {
		return false
	}
	return lp.Z > float64(s.Depth.At(x, y))+ShadowBias
}
