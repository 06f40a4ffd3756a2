package csm

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/csm/rt/core"
	"github.com/gekko3d/csm/rt/shadows"
)

// LightComponent describes a light and its shadow settings.
type LightComponent struct {
	Type      shadows.LightType
	Color     [3]float32 // RGB, linear
	Intensity float32
	Range     float32 // For point/spot
	ConeAngle float32 // Full cone angle in degrees (spot)

	Shadows          shadows.ShadowMode
	ShadowStrength   float32
	ShadowBias       float32
	ShadowNormalBias float32
	ShadowNearPlane  float32
	Baking           shadows.BakingOutput
}

// NewDirectionalLight returns a soft-shadowed directional light with common bias values.
func NewDirectionalLight(color [3]float32, intensity float32) *LightComponent {
	return &LightComponent{
		Type:             shadows.LightTypeDirectional,
		Color:            color,
		Intensity:        intensity,
		Shadows:          shadows.ShadowsSoft,
		ShadowStrength:   1,
		ShadowBias:       0.05,
		ShadowNormalBias: 0.4,
		ShadowNearPlane:  0.2,
	}
}

// FinalColor is the color scaled by intensity, alpha fixed at 1.
func (l *LightComponent) FinalColor() mgl32.Vec4 {
	return mgl32.Vec4{l.Color[0] * l.Intensity, l.Color[1] * l.Intensity, l.Color[2] * l.Intensity, 1}
}

func (l *LightComponent) ShadowLight() *shadows.Light {
	return &shadows.Light{
		Shadows:          l.Shadows,
		ShadowStrength:   l.ShadowStrength,
		ShadowBias:       l.ShadowBias,
		ShadowNormalBias: l.ShadowNormalBias,
		ShadowNearPlane:  l.ShadowNearPlane,
		Baking:           l.Baking,
	}
}

// VisibleLight places the light at t for the culling host.
func (l *LightComponent) VisibleLight(t *core.Transform) shadows.VisibleLight {
	if t == nil {
		t = core.NewTransform()
	}
	return shadows.VisibleLight{
		Type:         l.Type,
		FinalColor:   l.FinalColor(),
		LocalToWorld: t.ObjectToWorld(),
		Light:        l.ShadowLight(),
	}
}
