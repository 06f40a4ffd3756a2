package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned box. A box with Min > Max on any axis is empty.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func EmptyAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

func (b AABB) Empty() bool {
	return b.Min.X() > b.Max.X() || b.Min.Y() > b.Max.Y() || b.Min.Z() > b.Max.Z()
}

func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b AABB) Extents() mgl32.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

func (b AABB) Corners() [8]mgl32.Vec3 {
	return [8]mgl32.Vec3{
		{b.Min.X(), b.Min.Y(), b.Min.Z()},
		{b.Max.X(), b.Min.Y(), b.Min.Z()},
		{b.Min.X(), b.Max.Y(), b.Min.Z()},
		{b.Max.X(), b.Max.Y(), b.Min.Z()},
		{b.Min.X(), b.Min.Y(), b.Max.Z()},
		{b.Max.X(), b.Min.Y(), b.Max.Z()},
		{b.Min.X(), b.Max.Y(), b.Max.Z()},
		{b.Max.X(), b.Max.Y(), b.Max.Z()},
	}
}

func (b AABB) Encapsulate(p mgl32.Vec3) AABB {
	return AABB{
		Min: mgl32.Vec3{minf(b.Min.X(), p.X()), minf(b.Min.Y(), p.Y()), minf(b.Min.Z(), p.Z())},
		Max: mgl32.Vec3{maxf(b.Max.X(), p.X()), maxf(b.Max.Y(), p.Y()), maxf(b.Max.Z(), p.Z())},
	}
}

func (b AABB) Union(o AABB) AABB {
	if o.Empty() {
		return b
	}
	return b.Encapsulate(o.Min).Encapsulate(o.Max)
}

// Sweep extends the box along dir by distance, covering every position the box
// passes through.
func (b AABB) Sweep(dir mgl32.Vec3, distance float32) AABB {
	offset := dir.Mul(distance)
	return b.Union(AABB{Min: b.Min.Add(offset), Max: b.Max.Add(offset)})
}

// Transform returns the conservative world box of b under m.
func (b AABB) Transform(m mgl32.Mat4) AABB {
	out := EmptyAABB()
	for _, c := range b.Corners() {
		out = out.Encapsulate(m.Mul4x1(c.Vec4(1.0)).Vec3())
	}
	return out
}

// Sphere is a bounding sphere. Vec4 packs it as (center, radius).
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

func (s Sphere) Vec4() mgl32.Vec4 {
	return s.Center.Vec4(s.Radius)
}

func (s Sphere) Contains(p mgl32.Vec3) bool {
	return p.Sub(s.Center).Len() <= s.Radius
}

// BoundingSphere centers the sphere on the centroid of points and grows it
// to the farthest point.
func BoundingSphere(points []mgl32.Vec3) Sphere {
	if len(points) == 0 {
		return Sphere{}
	}
	var center mgl32.Vec3
	for _, p := range points {
		center = center.Add(p)
	}
	center = center.Mul(1.0 / float32(len(points)))

	var radius float32
	for _, p := range points {
		radius = maxf(radius, p.Sub(center).Len())
	}
	return Sphere{Center: center, Radius: radius}
}

// AABBInFrustum checks if an AABB is visible within the frustum defined by 6 planes.
// Planes are expected to be in Ax+By+Cz+D=0 form, with the normal pointing INSIDE.
func AABBInFrustum(aabb AABB, planes [6]mgl32.Vec4) bool {
	for i := 0; i < 6; i++ {
		plane := planes[i]
		// Most-inside corner; if it is behind the plane, the whole box is.
		var p mgl32.Vec3
		for axis := 0; axis < 3; axis++ {
			if plane[axis] > 0 {
				p[axis] = aabb.Max[axis]
			} else {
				p[axis] = aabb.Min[axis]
			}
		}

		dist := plane[0]*p[0] + plane[1]*p[1] + plane[2]*p[2] + plane[3]
		if dist < 0 {
			return false
		}
	}
	return true
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
