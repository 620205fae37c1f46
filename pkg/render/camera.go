package render

import (
	"github.com/taigrr/tinyrender/pkg/math3d"
)

// DepthRange is the span of quantized depth values a viewport maps to.
const DepthRange = 255

// Projection is either Perspective or Orthographic.
type Projection interface {
	projection()
}

// Perspective projects along +Z with w' = z.
type Perspective struct {
	Near, Far float64
	// FOV is the vertical field of view in radians; zero means 90 degrees.
	FOV float64
	// Aspect is width/height; zero leaves x unscaled.
	Aspect float64
}

// Orthographic maps a box onto NDC with w' = 1. A box with Left == Right
// takes its width from Top and Bottom and the viewport aspect, and a box
// with Far <= Near takes its depth from the scene; see Fit.
type Orthographic struct {
	Left, Right, Top, Bottom float64
	Near, Far                float64
}

// orthoDepth is the least depth Fit gives an open box.
const orthoDepth = 5

// Fit closes the open sides of o. The width becomes the height times aspect,
// centered on Left, and the depth covers reach units past Near.
func (o Orthographic) Fit(aspect, reach float64) Orthographic {
	if o.Left == o.Right {
		if aspect <= 0 {
			aspect = 1
		}
		half := (o.Top - o.Bottom) / 2 * aspect
		c := o.Left
		o.Left, o.Right = c-half, c+half
	}
	if o.Far <= o.Near {
		o.Far = o.Near + max(reach+1, orthoDepth)
	}
	return o
}

func (Perspective) projection()  {}
func (Orthographic) projection() {}

// DefaultPerspective is the projection NewCamera uses.
func DefaultPerspective() Perspective {
	return Perspective{Near: 1, Far: 100}
}

// DefaultOrthographic is two units tall with its width and depth left open
// for Fit.
func DefaultOrthographic() Orthographic {
	return Orthographic{Top: 1, Bottom: -1}
}

// ProjectionMatrix returns the matrix for p. A nil projection is treated
// as DefaultPerspective and an open orthographic box is fitted to a square
// viewport.
func ProjectionMatrix(p Projection) math3d.Mat4 {
	switch p := p.(type) {
	case Perspective:
		return math3d.Perspective(p.FOV, p.Aspect, p.Near, p.Far)
	case Orthographic:
		p = p.Fit(1, 0)
		return math3d.Orthographic(p.Left, p.Right, p.Bottom, p.Top, p.Near, p.Far)
	}
	d := DefaultPerspective()
	return math3d.Perspective(d.FOV, d.Aspect, d.Near, d.Far)
}

// Camera is a look-at camera. All matrices are derived on request.
type Camera struct {
	Position   math3d.Vec3
	Target     math3d.Vec3
	Up         math3d.Vec3
	Projection Projection
	// Ortho is the box As switches to when the projection is not already
	// orthographic. The zero value means DefaultOrthographic.
	Ortho Orthographic
}

// NewCamera creates a perspective camera at position looking at target with
// +Y up.
func NewCamera(position, target math3d.Vec3) Camera {
	return Camera{
		Position:   position,
		Target:     target,
		Up:         math3d.Up(),
		Projection: DefaultPerspective(),
	}
}

// As returns a copy of the camera using the requested projection kind. A
// camera that already has that kind is returned unchanged. Otherwise
// orthographic uses c.Ortho and perspective uses DefaultPerspective.
func (c Camera) As(kind CameraKind) Camera {
	switch kind {
	case CameraOrthographic:
		if _, ok := c.Projection.(Orthographic); !ok {
			c.Projection = c.Ortho
			if c.Ortho == (Orthographic{}) {
				c.Projection = DefaultOrthographic()
			}
		}
	default:
		if _, ok := c.Projection.(Perspective); !ok {
			c.Projection = DefaultPerspective()
		}
	}
	return c
}

// fit sizes the projection for vp: perspective takes the viewport aspect when
// it has none and an open orthographic box is closed to cover reach.
func (c Camera) fit(vp Viewport, reach float64) Camera {
	aspect := float64(vp.Width) / float64(vp.Height)
	switch p := c.Projection.(type) {
	case Perspective:
		if p.Aspect == 0 {
			p.Aspect = aspect
			c.Projection = p
		}
	case Orthographic:
		c.Projection = p.Fit(aspect, reach)
	}
	return c
}

// ViewMatrix returns the world to view transform.
func (c Camera) ViewMatrix() math3d.Mat4 {
	return math3d.LookAt(c.Position, c.Target, c.Up)
}

// ProjectionMatrix returns the view to clip transform.
func (c Camera) ProjectionMatrix() math3d.Mat4 {
	return ProjectionMatrix(c.Projection)
}

// ViewProjectionMatrix returns proj × view.
func (c Camera) ViewProjectionMatrix() math3d.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

// Frustum returns the camera's clip volume in world space.
func (c Camera) Frustum() Frustum {
	return NewFrustumFromMatrix(c.ViewProjectionMatrix())
}

// Viewport is the pixel extent of a render target.
type Viewport struct {
	Width, Height int
}

// Matrix maps NDC to pixels and depth to [0, DepthRange].
func (v Viewport) Matrix() math3d.Mat4 {
	return math3d.Viewport(float64(v.Width), float64(v.Height), DepthRange)
}

// Empty reports whether the viewport covers no pixels.
func (v Viewport) Empty() bool {
	return v.Width <= 0 || v.Height <= 0
}

// WorldToScreen projects a world point to pixel coordinates and depth.
func (c Camera) WorldToScreen(p math3d.Vec3, vp Viewport) math3d.Vec3 {
	return vp.Matrix().Mul(c.ViewProjectionMatrix()).MulVec3(p)
}
