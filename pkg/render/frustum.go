package render

import (
	"github.com/taigrr/tinyrender/pkg/math3d"
)

// Plane is the set of points p with Normal·p + D = 0.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// Normalize scales the plane so its normal has unit length; distances are
// then in world units. A zero normal is left alone.
func (p *Plane) Normalize() {
	n := p.Normal.Len()
	if n == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1 / n)
	p.D /= n
}

// DistanceToPoint is positive on the side the normal points to.
func (p Plane) DistanceToPoint(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Frustum is a camera's clip volume as six inward-facing planes.
type Frustum struct {
	Planes [6]Plane
}

// Plane indices.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// NewFrustumFromMatrix extracts the planes of a view-projection matrix
// (Gribb/Hartmann). Each plane is a sum or difference of the w row and one
// of the x, y, z rows, matching the clip tests -w <= x,y,z <= w.
func NewFrustumFromMatrix(m math3d.Mat4) Frustum {
	row := func(i int) Plane {
		return Plane{Normal: math3d.V3(m.Get(i, 0), m.Get(i, 1), m.Get(i, 2)), D: m.Get(i, 3)}
	}
	add := func(a, b Plane) Plane { return Plane{Normal: a.Normal.Add(b.Normal), D: a.D + b.D} }
	sub := func(a, b Plane) Plane { return Plane{Normal: a.Normal.Sub(b.Normal), D: a.D - b.D} }

	w := row(3)
	var f Frustum
	for axis := range 3 {
		r := row(axis)
		f.Planes[2*axis] = add(w, r)
		f.Planes[2*axis+1] = sub(w, r)
	}
	for i := range f.Planes {
		f.Planes[i].Normalize()
	}
	return f
}

// ContainsPoint reports whether p is inside every plane.
func (f Frustum) ContainsPoint(p math3d.Vec3) bool {
	for _, pl := range f.Planes {
		if pl.DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

// AABB is an axis-aligned box.
type AABB struct {
	Min, Max math3d.Vec3
}

// NewAABB creates a box from its corners.
func NewAABB(min, max math3d.Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// IntersectAABB reports whether any part of box may be inside the frustum.
// For each plane only the corner farthest along the normal is tested; when
// that corner is outside so is the whole box. Boxes near a frustum corner
// can pass without being visible, which only costs a wasted draw.
func (f Frustum) IntersectAABB(box AABB) bool {
	for _, pl := range f.Planes {
		far := box.Min
		if pl.Normal.X >= 0 {
			far.X = box.Max.X
		}
		if pl.Normal.Y >= 0 {
			far.Y = box.Max.Y
		}
		if pl.Normal.Z >= 0 {
			far.Z = box.Max.Z
		}
		if pl.DistanceToPoint(far) < 0 {
			return false
		}
	}
	return true
}
