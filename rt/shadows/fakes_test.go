package shadows

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/csm/rt/core"
)

type fakeCull struct {
	lights    []VisibleLight
	noCasters map[int]bool
	radius    float32
	view      mgl32.Mat4
	proj      mgl32.Mat4
	requests  []CascadeRequest
}

func newFakeCull(n int) *fakeCull {
	c := &fakeCull{
		noCasters: map[int]bool{},
		radius:    10,
		view:      mgl32.Ident4(),
		proj:      mgl32.Ortho(-10, 10, -10, 10, 0, 20),
	}
	for i := 0; i < n; i++ {
		c.lights = append(c.lights, VisibleLight{Type: LightTypeDirectional, Light: shadowedLight(1)})
	}
	return c
}

func (c *fakeCull) VisibleLights() []VisibleLight { return c.lights }

func (c *fakeCull) ShadowCasterBounds(i int) (core.AABB, bool) {
	if c.noCasters[i] {
		return core.EmptyAABB(), false
	}
	return core.AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}, true
}

func (c *fakeCull) ComputeDirectionalShadowMatrices(req CascadeRequest) (mgl32.Mat4, mgl32.Mat4, ShadowSplitData) {
	c.requests = append(c.requests, req)
	// Each cascade doubles in size and later lights get larger spheres so
	// tests can tell them apart.
	r := c.radius * float32(int(1)<<req.SplitIndex) * float32(1+req.VisibleLightIndex)
	return c.view, c.proj, ShadowSplitData{CullingSphere: mgl32.Vec4{0, 0, float32(req.SplitIndex), r}}
}

type fakeCmd struct {
	calls     []string
	viewports []Viewport
	biases    [][2]float32
	draws     []ShadowDrawSettings
	acquired  []AtlasHandle
	released  []AtlasHandle
	shadows   *DirectionalShadowGlobals
	mask      *ShadowMaskSelector
}

func (c *fakeCmd) AcquireAtlas(size int) AtlasHandle {
	h := AtlasHandle{ID: uuid.New(), Size: size}
	c.acquired = append(c.acquired, h)
	c.calls = append(c.calls, fmt.Sprintf("acquire %d", size))
	return h
}

func (c *fakeCmd) SetViewport(v Viewport) {
	c.viewports = append(c.viewports, v)
	c.calls = append(c.calls, "viewport")
}

func (c *fakeCmd) SetViewProjection(view, proj mgl32.Mat4) {
	c.calls = append(c.calls, "viewproj")
}

func (c *fakeCmd) SetDepthBias(constant, slope float32) {
	c.biases = append(c.biases, [2]float32{constant, slope})
	c.calls = append(c.calls, "bias")
}

func (c *fakeCmd) DrawShadows(d ShadowDrawSettings) {
	c.draws = append(c.draws, d)
	c.calls = append(c.calls, "draw")
}

func (c *fakeCmd) EndAtlas() { c.calls = append(c.calls, "end") }

func (c *fakeCmd) PublishDirectionalShadows(g *DirectionalShadowGlobals) {
	cp := *g
	c.shadows = &cp
	c.calls = append(c.calls, "publish shadows")
}

func (c *fakeCmd) PublishShadowMask(m ShadowMaskSelector) {
	c.mask = &m
	c.calls = append(c.calls, "publish mask")
}

func (c *fakeCmd) ReleaseAtlas(h AtlasHandle) {
	c.released = append(c.released, h)
	c.calls = append(c.calls, "release")
}

func shadowedLight(strength float32) *Light {
	return &Light{
		Shadows:          ShadowsSoft,
		ShadowStrength:   strength,
		ShadowBias:       0.5,
		ShadowNormalBias: 0.25,
		ShadowNearPlane:  0.2,
	}
}
