package shadows

import (
	"github.com/go-gl/mathgl/mgl32"
)

type LightType int

const (
	LightTypeDirectional LightType = iota
	LightTypePoint
	LightTypeSpot
)

// ShadowMode is the light's realtime shadow setting.
type ShadowMode int

const (
	ShadowsNone ShadowMode = iota
	ShadowsHard
	ShadowsSoft
)

type BakeType int

const (
	BakeRealtime BakeType = iota
	BakeMixed
	BakeBaked
)

type MixedLightingMode int

const (
	MixedIndirectOnly MixedLightingMode = iota
	MixedShadowmask
	MixedSubtractive
)

// BakingOutput describes how a light was treated by the lightmapper.
type BakingOutput struct {
	BakeType             BakeType
	MixedMode            MixedLightingMode
	OcclusionMaskChannel int // 0-3, valid when MixedMode is MixedShadowmask
}

// Light holds the shadow inputs of one light source.
type Light struct {
	Shadows          ShadowMode
	ShadowStrength   float32
	ShadowBias       float32 // slope-scale depth bias
	ShadowNormalBias float32
	ShadowNearPlane  float32
	Baking           BakingOutput
}

func (l *Light) usesShadowMask() bool {
	return l.Baking.BakeType == BakeMixed && l.Baking.MixedMode == MixedShadowmask
}

// VisibleLight is one entry of the host's visibility list.
type VisibleLight struct {
	Type         LightType
	FinalColor   mgl32.Vec4
	LocalToWorld mgl32.Mat4
	Light        *Light
}
