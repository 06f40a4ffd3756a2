package soft

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/csm/rt/core"
	"github.com/gekko3d/csm/rt/shadows"
)

// Results is one camera's culling output. It implements shadows.CullingResults.
type Results struct {
	scene          *Scene
	camera         *core.CameraState
	shadowDistance float32
	viewFrustum    [6]mgl32.Vec4
	shadowFrustum  [6]mgl32.Vec4
	visible        []shadows.VisibleLight
}

func (r *Results) ShadowDistance() float32 { return r.shadowDistance }

func (r *Results) VisibleLights() []shadows.VisibleLight { return r.visible }

func (r *Results) lightVisible(l Light) bool {
	if l.Visible.Type == shadows.LightTypeDirectional {
		return true
	}
	p := l.Position()
	ext := mgl32.Vec3{l.Range, l.Range, l.Range}
	return core.AABBInFrustum(core.AABB{Min: p.Sub(ext), Max: p.Add(ext)}, r.viewFrustum)
}

// lightForward is the direction light travels for a directional light.
func lightForward(vl shadows.VisibleLight) mgl32.Vec3 {
	f := vl.LocalToWorld.Col(2).Vec3()
	if f.Len() < 1e-6 {
		return mgl32.Vec3{0, 0, 1}
	}
	return f.Normalize()
}

// ShadowCasterBounds unions the casters whose shadow volume reaches the
// shadow-distance frustum. Each caster is swept along the light direction far
// enough to cross the whole frustum.
func (r *Results) ShadowCasterBounds(visibleLightIndex int) (core.AABB, bool) {
	if visibleLightIndex < 0 || visibleLightIndex >= len(r.visible) {
		return core.EmptyAABB(), false
	}
	vl := r.visible[visibleLightIndex]
	if vl.Type != shadows.LightTypeDirectional {
		return core.EmptyAABB(), false
	}

	dir := lightForward(vl)
	reach := 2 * (r.shadowDistance + r.camera.Near)
	bounds := core.EmptyAABB()
	for _, c := range r.scene.Casters {
		if c.Bounds.Empty() {
			continue
		}
		if core.AABBInFrustum(c.Bounds.Sweep(dir, reach), r.shadowFrustum) {
			bounds = bounds.Union(c.Bounds)
		}
	}
	return bounds, !bounds.Empty()
}

// SplitDistances returns the far distance of each cascade. Ratios beyond
// count are ignored and the last cascade always ends at the shadow distance.
func SplitDistances(shadowDistance float32, count int, ratios mgl32.Vec3) []float32 {
	out := make([]float32, count)
	for i := 0; i < count-1; i++ {
		out[i] = ratios[i] * shadowDistance
	}
	out[count-1] = shadowDistance
	return out
}

// ComputeDirectionalShadowMatrices fits an orthographic light frustum
// around the bounding sphere of the requested slice of the camera view.
// The sphere center is snapped to whole texels in light space so shadow
// edges do not shimmer as the camera moves.
func (r *Results) ComputeDirectionalShadowMatrices(req shadows.CascadeRequest) (mgl32.Mat4, mgl32.Mat4, shadows.ShadowSplitData) {
	count := req.SplitCount
	if count < 1 {
		count = 1
	}
	ends := SplitDistances(r.shadowDistance, count, req.SplitRatios)
	split := req.SplitIndex
	if split >= count {
		split = count - 1
	}
	start := r.camera.Near
	if split > 0 {
		start = ends[split-1]
	}
	corners := r.camera.SliceCorners(start, ends[split])
	sphere := core.BoundingSphere(corners[:])

	forward := mgl32.Vec3{0, 0, 1}
	if req.VisibleLightIndex >= 0 && req.VisibleLightIndex < len(r.visible) {
		forward = lightForward(r.visible[req.VisibleLightIndex])
	}
	upHint := mgl32.Vec3{0, 1, 0}
	if math.Abs(float64(forward.Dot(upHint))) > 0.999 {
		upHint = mgl32.Vec3{0, 0, 1}
	}
	side := forward.Cross(upHint).Normalize()
	up := side.Cross(forward)

	radius := sphere.Radius
	center := sphere.Center
	if req.Resolution > 0 && radius > 0 {
		texel := 2 * radius / float32(req.Resolution)
		snap := func(v float32) float32 {
			return float32(math.Floor(float64(v/texel))) * texel
		}
		center = side.Mul(snap(center.Dot(side))).
			Add(up.Mul(snap(center.Dot(up)))).
			Add(forward.Mul(center.Dot(forward)))
	}

	back := radius + req.NearPlaneOffset
	eye := center.Sub(forward.Mul(back))
	view := mgl32.LookAtV(eye, center, upHint)
	proj := mgl32.Ortho(-radius, radius, -radius, radius, 0, back+radius)

	return view, proj, shadows.ShadowSplitData{CullingSphere: sphere.Vec4()}
}
