package soft

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/csm/rt/core"
	"github.com/gekko3d/csm/rt/lighting"
	"github.com/gekko3d/csm/rt/shadows"
)

type CommandKind int

const (
	CmdAcquireAtlas CommandKind = iota
	CmdViewport
	CmdViewProjection
	CmdDepthBias
	CmdDrawShadows
	CmdEndAtlas
	CmdPublishShadows
	CmdPublishShadowMask
	CmdPublishLights
	CmdReleaseAtlas
)

var commandNames = [...]string{
	"acquire-atlas", "viewport", "view-projection", "depth-bias", "draw-shadows",
	"end-atlas", "publish-shadows", "publish-shadow-mask", "publish-lights", "release-atlas",
}

func (k CommandKind) String() string {
	if k < 0 || int(k) >= len(commandNames) {
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
	return commandNames[k]
}

// Command is one recorded call. Only the fields of its kind are set.
type Command struct {
	Kind     CommandKind
	Atlas    shadows.AtlasHandle
	Viewport shadows.Viewport
	View     mgl32.Mat4
	Proj     mgl32.Mat4
	Bias     [2]float32
	Draw     shadows.ShadowDrawSettings
	Casters  int
}

// TileDraw summarizes one cascade drawn into the atlas.
type TileDraw struct {
	Viewport          shadows.Viewport
	VisibleLightIndex int
	Cascade           int
	Casters           int
}

// Recorder is a lighting.CommandBuffer that keeps a log of every call and
// the last published state. Shadow draws count the casters inside the
// current light frustum.
type Recorder struct {
	casters func() []core.AABB

	Commands []Command
	Tiles    []TileDraw

	Shadows    *shadows.DirectionalShadowGlobals
	ShadowMask shadows.ShadowMaskSelector
	Lights     *lighting.LightGlobals

	viewport   shadows.Viewport
	viewProj   mgl32.Mat4
	live       map[uuid.UUID]shadows.AtlasHandle
	acquired   int
	lastHandle shadows.AtlasHandle
}

var _ lighting.CommandBuffer = (*Recorder)(nil)

// NewRecorder records frames for scene. A nil scene draws no casters.
func NewRecorder(scene *Scene) *Recorder {
	r := &Recorder{live: make(map[uuid.UUID]shadows.AtlasHandle)}
	if scene != nil {
		r.casters = scene.CasterBounds
	}
	return r
}

// Reset drops the command log and published state but keeps track of
// atlases that were never released.
func (r *Recorder) Reset() {
	r.Commands = r.Commands[:0]
	r.Tiles = r.Tiles[:0]
	r.Shadows = nil
	r.ShadowMask = shadows.ShadowMaskSelector{}
	r.Lights = nil
}

// Outstanding is the number of atlases acquired and not yet released.
func (r *Recorder) Outstanding() int { return len(r.live) }

// Acquired is the total number of atlases acquired since creation.
func (r *Recorder) Acquired() int { return r.acquired }

func (r *Recorder) Kinds() []CommandKind {
	out := make([]CommandKind, len(r.Commands))
	for i, c := range r.Commands {
		out[i] = c.Kind
	}
	return out
}

func (r *Recorder) AcquireAtlas(size int) shadows.AtlasHandle {
	h := shadows.AtlasHandle{ID: uuid.New(), Size: size}
	r.live[h.ID] = h
	r.acquired++
	r.lastHandle = h
	r.Commands = append(r.Commands, Command{Kind: CmdAcquireAtlas, Atlas: h})
	return h
}

func (r *Recorder) SetViewport(v shadows.Viewport) {
	r.viewport = v
	r.Commands = append(r.Commands, Command{Kind: CmdViewport, Viewport: v})
}

func (r *Recorder) SetViewProjection(view, proj mgl32.Mat4) {
	r.viewProj = proj.Mul4(view)
	r.Commands = append(r.Commands, Command{Kind: CmdViewProjection, View: view, Proj: proj})
}

func (r *Recorder) SetDepthBias(constant, slope float32) {
	r.Commands = append(r.Commands, Command{Kind: CmdDepthBias, Bias: [2]float32{constant, slope}})
}

func (r *Recorder) DrawShadows(d shadows.ShadowDrawSettings) {
	n := 0
	if r.casters != nil {
		planes := core.ExtractFrustum(r.viewProj)
		for _, b := range r.casters() {
			if core.AABBInFrustum(b, planes) {
				n++
			}
		}
	}
	r.Commands = append(r.Commands, Command{Kind: CmdDrawShadows, Draw: d, Casters: n})
	r.Tiles = append(r.Tiles, TileDraw{
		Viewport:          r.viewport,
		VisibleLightIndex: d.VisibleLightIndex,
		Cascade:           d.SplitIndex,
		Casters:           n,
	})
}

func (r *Recorder) EndAtlas() {
	r.Commands = append(r.Commands, Command{Kind: CmdEndAtlas})
}

func (r *Recorder) PublishDirectionalShadows(g *shadows.DirectionalShadowGlobals) {
	cp := *g
	r.Shadows = &cp
	r.Commands = append(r.Commands, Command{Kind: CmdPublishShadows})
}

func (r *Recorder) PublishShadowMask(m shadows.ShadowMaskSelector) {
	r.ShadowMask = m
	r.Commands = append(r.Commands, Command{Kind: CmdPublishShadowMask})
}

func (r *Recorder) PublishLights(g *lighting.LightGlobals) {
	cp := *g
	r.Lights = &cp
	r.Commands = append(r.Commands, Command{Kind: CmdPublishLights})
}

func (r *Recorder) ReleaseAtlas(h shadows.AtlasHandle) {
	delete(r.live, h.ID)
	r.Commands = append(r.Commands, Command{Kind: CmdReleaseAtlas, Atlas: h})
}

// AtlasSize is the size of the most recently acquired atlas.
func (r *Recorder) AtlasSize() int { return r.lastHandle.Size }
