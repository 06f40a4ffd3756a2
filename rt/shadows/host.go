package shadows

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/csm/rt/core"
)

// CascadeRequest parameterizes one cascade matrix computation.
type CascadeRequest struct {
	VisibleLightIndex int
	SplitIndex        int
	SplitCount        int
	SplitRatios       mgl32.Vec3
	Resolution        int
	NearPlaneOffset   float32
}

// ShadowSplitData is the culling primitive returned for a cascade. The
// allocator sets BlendCullingFactor before handing it back to the host.
type ShadowSplitData struct {
	CullingSphere      mgl32.Vec4 // xyz center, w radius
	BlendCullingFactor float32
}

// CullingResults is the host's view of what the camera can see.
type CullingResults interface {
	VisibleLights() []VisibleLight
	ShadowCasterBounds(visibleLightIndex int) (core.AABB, bool)
	ComputeDirectionalShadowMatrices(req CascadeRequest) (view, proj mgl32.Mat4, split ShadowSplitData)
}

// AtlasHandle identifies the temporary shadow atlas of one frame.
type AtlasHandle struct {
	ID   uuid.UUID
	Size int
}

type Viewport struct {
	X, Y, Width, Height float32
}

// ShadowDrawSettings selects the casters of one light for one cascade.
type ShadowDrawSettings struct {
	VisibleLightIndex int
	SplitIndex        int
	SplitData         ShadowSplitData
}

// CommandBuffer is the write-only sink the allocator records into.
type CommandBuffer interface {
	// AcquireAtlas allocates an atlasSize² depth target, binds it and clears it.
	AcquireAtlas(size int) AtlasHandle
	SetViewport(v Viewport)
	SetViewProjection(view, proj mgl32.Mat4)
	SetDepthBias(constant, slopeScale float32)
	DrawShadows(d ShadowDrawSettings)
	// EndAtlas marks the last tile of the frame as recorded.
	EndAtlas()
	PublishDirectionalShadows(g *DirectionalShadowGlobals)
	PublishShadowMask(m ShadowMaskSelector)
	ReleaseAtlas(h AtlasHandle)
}

type ShadowmaskMode int

const (
	ShadowmaskModeShadowmask ShadowmaskMode = iota
	ShadowmaskModeDistance
)

// Capabilities exposes platform and quality facts chosen by the host.
type Capabilities interface {
	UsesReversedZBuffer() bool
	ShadowmaskMode() ShadowmaskMode
}

// StaticCapabilities is a fixed Capabilities value.
type StaticCapabilities struct {
	ReversedZ  bool
	Shadowmask ShadowmaskMode
}

func (c StaticCapabilities) UsesReversedZBuffer() bool      { return c.ReversedZ }
func (c StaticCapabilities) ShadowmaskMode() ShadowmaskMode { return c.Shadowmask }

// Logger is the subset of the engine logger the allocator writes to.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}
