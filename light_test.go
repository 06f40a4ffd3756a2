package csm

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/gekko3d/csm/rt/core"
	"github.com/gekko3d/csm/rt/shadows"
)

func TestLightComponentVisibleLight(t *testing.T) {
	l := NewDirectionalLight([3]float32{1, 0.5, 0.25}, 2)
	l.Baking = shadows.BakingOutput{BakeType: shadows.BakeMixed, MixedMode: shadows.MixedShadowmask, OcclusionMaskChannel: 2}

	tr := core.LookRotation(mgl32.Vec3{}, mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, 0, 1})
	vl := l.VisibleLight(tr)

	assert.Equal(t, shadows.LightTypeDirectional, vl.Type)
	assert.Equal(t, mgl32.Vec4{2, 1, 0.5, 1}, vl.FinalColor)
	fwd := vl.LocalToWorld.Col(2).Vec3()
	assert.InDelta(t, -1, fwd.Y(), 1e-5)
	assert.Equal(t, float32(1), vl.Light.ShadowStrength)
	assert.Equal(t, 2, vl.Light.Baking.OcclusionMaskChannel)

	// The shadow light is a copy.
	vl.Light.ShadowStrength = 0
	assert.Equal(t, float32(1), l.ShadowStrength)
}

func TestLightComponentNilTransform(t *testing.T) {
	l := &LightComponent{Type: shadows.LightTypePoint, Color: [3]float32{1, 1, 1}, Intensity: 1}
	vl := l.VisibleLight(nil)
	assert.Equal(t, mgl32.Ident4(), vl.LocalToWorld)
}
