package shadows

import (
	"github.com/go-gl/mathgl/mgl32"
)

const (
	MaxShadowedDirectionalLights = 4
	MaxCascades                  = 4
	MaxAtlasTiles                = MaxShadowedDirectionalLights * MaxCascades
)

// DirectionalShadowGlobals is everything the shading stage reads about
// directional shadows for one frame.
type DirectionalShadowGlobals struct {
	CascadeCount          int
	CascadeCullingSpheres [MaxCascades]mgl32.Vec4
	CascadeData           [MaxCascades]mgl32.Vec4
	// Matrices is indexed by lightSlot*CascadeCount + cascade.
	Matrices     [MaxAtlasTiles]mgl32.Mat4
	DistanceFade mgl32.Vec4
	Filter       FilterSelector
	CascadeBlend CascadeBlendSelector
	// AtlasSize is (size, 1/size).
	AtlasSize mgl32.Vec4

	// Layout of the atlas this frame.
	ShadowedLights int
	Tiles          int
	Split          int
	TileSize       int
}

type ShadowParams struct {
	Strength      float32
	CascadeOffset float32
	NormalBias    float32
	MaskChannel   float32
}

// NoShadow is returned for lights that get neither an atlas slot nor a shadow mask.
var NoShadow = ShadowParams{MaskChannel: -1}

func (p ShadowParams) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{p.Strength, p.CascadeOffset, p.NormalBias, p.MaskChannel}
}

// Shadowed reports whether the light owns atlas tiles.
func (p ShadowParams) Shadowed() bool { return p.Strength > 0 }
