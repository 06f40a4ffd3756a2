package shadows

import (
	"errors"
	"fmt"
)

// ErrFrameState is returned when an allocator call is made out of order.
var ErrFrameState = errors.New("shadows: call not valid in current frame state")

type FrameState int

const (
	StateIdle FrameState = iota
	StateReserving
	StateRendered
	StateCleanedUp
)

func (s FrameState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReserving:
		return "reserving"
	case StateRendered:
		return "rendered"
	case StateCleanedUp:
		return "cleaned-up"
	}
	return fmt.Sprintf("FrameState(%d)", int(s))
}

type shadowedDirectionalLight struct {
	visibleLightIndex int
	slopeScaleBias    float32
	nearPlaneOffset   float32
}

// FrameStats counts what happened to the lights offered in one frame.
type FrameStats struct {
	Offered          int
	Reserved         int
	RejectedCapacity int
	RejectedDisabled int
	NoCasters        int
	ShadowMask       bool
	Tiles            int
	Split            int
	TileSize         int
}

// Allocator reserves atlas space for directional lights and renders their
// cascades. One Allocator drives one camera pass at a time and is not safe
// for concurrent use.
type Allocator struct {
	log  Logger
	caps Capabilities

	state    FrameState
	cull     CullingResults
	cmd      CommandBuffer
	settings Settings

	useShadowMask bool
	lights        [MaxShadowedDirectionalLights]shadowedDirectionalLight
	lightCount    int

	atlas     AtlasHandle
	atlasHeld bool

	globals DirectionalShadowGlobals
	stats   FrameStats
}

type Option func(*Allocator)

func WithLogger(l Logger) Option {
	return func(a *Allocator) {
		if l != nil {
			a.log = l
		}
	}
}

func WithCapabilities(c Capabilities) Option {
	return func(a *Allocator) {
		if c != nil {
			a.caps = c
		}
	}
}

func NewAllocator(opts ...Option) *Allocator {
	a := &Allocator{
		log:  nopLogger{},
		caps: StaticCapabilities{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Allocator) State() FrameState { return a.state }

func (a *Allocator) Settings() Settings { return a.settings }

// ShadowedLightCount is the number of lights reserved so far this frame.
func (a *Allocator) ShadowedLightCount() int { return a.lightCount }

func (a *Allocator) Stats() FrameStats { return a.stats }

// Globals returns the directional shadow state published by the last Render.
func (a *Allocator) Globals() *DirectionalShadowGlobals { return &a.globals }

// BeginFrame resets per-frame state and starts accepting reservations.
func (a *Allocator) BeginFrame(cull CullingResults, cmd CommandBuffer, settings Settings) error {
	if a.state != StateIdle && a.state != StateCleanedUp {
		return fmt.Errorf("%w: BeginFrame in state %s", ErrFrameState, a.state)
	}
	if err := settings.Validate(); err != nil {
		a.log.Warnf("shadow settings rejected: %v", err)
		return err
	}
	a.cull = cull
	a.cmd = cmd
	a.settings = settings
	a.lightCount = 0
	a.useShadowMask = false
	a.stats = FrameStats{}
	a.globals = DirectionalShadowGlobals{}
	a.state = StateReserving
	return nil
}

// Reserve claims atlas space for a directional light. Call it at most once per
// light per frame; repeated calls reserve the light again.
func (a *Allocator) Reserve(light *Light, visibleLightIndex int) (ShadowParams, error) {
	if a.state != StateReserving {
		return NoShadow, fmt.Errorf("%w: Reserve in state %s", ErrFrameState, a.state)
	}
	a.stats.Offered++

	if a.lightCount >= MaxShadowedDirectionalLights {
		a.stats.RejectedCapacity++
		a.log.Debugf("shadow capacity reached, light %d gets no shadows", visibleLightIndex)
		return NoShadow, nil
	}
	if light == nil || light.Shadows == ShadowsNone || light.ShadowStrength <= 0 {
		a.stats.RejectedDisabled++
		return NoShadow, nil
	}

	maskChannel := float32(-1)
	if light.usesShadowMask() {
		a.useShadowMask = true
		a.stats.ShadowMask = true
		maskChannel = float32(light.Baking.OcclusionMaskChannel)
	}

	if _, ok := a.cull.ShadowCasterBounds(visibleLightIndex); !ok {
		a.stats.NoCasters++
		return ShadowParams{Strength: -light.ShadowStrength, MaskChannel: maskChannel}, nil
	}

	slot := a.lightCount
	a.lights[slot] = shadowedDirectionalLight{
		visibleLightIndex: visibleLightIndex,
		slopeScaleBias:    light.ShadowBias,
		nearPlaneOffset:   light.ShadowNearPlane,
	}
	a.lightCount++
	a.stats.Reserved = a.lightCount

	return ShadowParams{
		Strength:      light.ShadowStrength,
		CascadeOffset: float32(a.settings.Directional.CascadeCount * slot),
		NormalBias:    light.ShadowNormalBias,
		MaskChannel:   maskChannel,
	}, nil
}

// Render draws every reserved light's cascades into the atlas and publishes
// the resulting shading state. The shadow mask selector is published even
// when nothing was reserved.
func (a *Allocator) Render() error {
	if a.state != StateReserving {
		return fmt.Errorf("%w: Render in state %s", ErrFrameState, a.state)
	}
	if a.lightCount > 0 {
		a.renderDirectionalShadows()
	}
	a.cmd.PublishShadowMask(NewShadowMaskSelector(a.useShadowMask, a.caps.ShadowmaskMode()))
	a.state = StateRendered
	return nil
}

func (a *Allocator) renderDirectionalShadows() {
	d := a.settings.Directional
	atlasSize := d.AtlasSize

	a.atlas = a.cmd.AcquireAtlas(atlasSize)
	a.atlasHeld = true

	tiles := a.lightCount * d.CascadeCount
	split := TileSplit(tiles)
	tileSize := atlasSize / split

	g := &a.globals
	*g = DirectionalShadowGlobals{}
	for i := 0; i < a.lightCount; i++ {
		a.renderLight(i, split, tileSize)
	}
	a.cmd.EndAtlas()

	g.CascadeCount = d.CascadeCount
	g.DistanceFade = DistanceFade(a.settings)
	g.Filter = NewFilterSelector(d.Filter)
	g.CascadeBlend = NewCascadeBlendSelector(d.CascadeBlend)
	g.AtlasSize[0] = float32(atlasSize)
	g.AtlasSize[1] = 1 / float32(atlasSize)
	g.ShadowedLights = a.lightCount
	g.Tiles = tiles
	g.Split = split
	g.TileSize = tileSize

	a.stats.Tiles = tiles
	a.stats.Split = split
	a.stats.TileSize = tileSize

	a.cmd.PublishDirectionalShadows(g)
}

func (a *Allocator) renderLight(index, split, tileSize int) {
	light := a.lights[index]
	d := a.settings.Directional
	cascadeCount := d.CascadeCount
	ratios := d.CascadeRatios()
	cullingFactor := BlendCullingFactor(d.CascadeFade)
	reversedZ := a.caps.UsesReversedZBuffer()

	for i := 0; i < cascadeCount; i++ {
		view, proj, splitData := a.cull.ComputeDirectionalShadowMatrices(CascadeRequest{
			VisibleLightIndex: light.visibleLightIndex,
			SplitIndex:        i,
			SplitCount:        cascadeCount,
			SplitRatios:       ratios,
			Resolution:        tileSize,
			NearPlaneOffset:   light.nearPlaneOffset,
		})
		splitData.BlendCullingFactor = cullingFactor

		// Cascades follow the camera, so the first light's spheres serve all lights.
		if index == 0 {
			slice := ComputeCascadeSlice(splitData.CullingSphere, tileSize, d.Filter)
			a.globals.CascadeCullingSpheres[i] = slice.CullingSphere
			a.globals.CascadeData[i] = slice.Data
		}

		tileIndex := index*cascadeCount + i
		offset := TileOffset(tileIndex, split)
		a.cmd.SetViewport(TileViewport(offset, tileSize))
		a.globals.Matrices[tileIndex] = AtlasMatrix(proj.Mul4(view), offset, split, reversedZ)
		a.cmd.SetViewProjection(view, proj)

		a.cmd.SetDepthBias(0, light.slopeScaleBias)
		a.cmd.DrawShadows(ShadowDrawSettings{
			VisibleLightIndex: light.visibleLightIndex,
			SplitIndex:        i,
			SplitData:         splitData,
		})
		a.cmd.SetDepthBias(0, 0)
	}
}

// Cleanup releases the frame's atlas. It is a no-op when nothing was rendered
// into the atlas or the frame is already cleaned up.
func (a *Allocator) Cleanup() error {
	switch a.state {
	case StateIdle, StateCleanedUp:
		return nil
	case StateReserving:
		return fmt.Errorf("%w: Cleanup in state %s", ErrFrameState, a.state)
	}
	if a.atlasHeld {
		a.cmd.ReleaseAtlas(a.atlas)
		a.atlasHeld = false
	}
	a.cull = nil
	a.cmd = nil
	a.state = StateCleanedUp
	return nil
}

// Reset abandons the current frame, releasing the atlas if one is held, and
// returns the allocator to idle.
func (a *Allocator) Reset() {
	if a.atlasHeld && a.cmd != nil {
		a.cmd.ReleaseAtlas(a.atlas)
	}
	a.atlasHeld = false
	a.cull = nil
	a.cmd = nil
	a.lightCount = 0
	a.state = StateIdle
}
