package lighting

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/csm/rt/shadows"
)

const MaxDirectionalLights = 4

// LightGlobals is the per-frame directional light table read by shading.
type LightGlobals struct {
	Count      int
	Colors     [MaxDirectionalLights]mgl32.Vec4
	Directions [MaxDirectionalLights]mgl32.Vec4
	ShadowData [MaxDirectionalLights]mgl32.Vec4
}

// CommandBuffer is a shadow command buffer that can also publish lights.
type CommandBuffer interface {
	shadows.CommandBuffer
	PublishLights(g *LightGlobals)
}

// CountPolicy selects what LightGlobals.Count reports.
type CountPolicy int

const (
	// CountFilled reports the number of slots written this frame.
	CountFilled CountPolicy = iota
	// CountVisible reports the length of the whole visibility list, including
	// non-directional and dropped lights.
	CountVisible
)

func (p CountPolicy) String() string {
	switch p {
	case CountFilled:
		return "filled"
	case CountVisible:
		return "visible"
	}
	return fmt.Sprintf("CountPolicy(%d)", int(p))
}

func ParseCountPolicy(s string) (CountPolicy, error) {
	switch s {
	case "filled", "":
		return CountFilled, nil
	case "visible":
		return CountVisible, nil
	}
	return CountFilled, fmt.Errorf("lighting: unknown count policy %q", s)
}

// Aggregator collects the visible directional lights of a frame, reserves
// their shadows and publishes the result.
type Aggregator struct {
	alloc  *shadows.Allocator
	policy CountPolicy
	log    shadows.Logger

	globals LightGlobals
	dropped int
}

type Option func(*Aggregator)

func WithCountPolicy(p CountPolicy) Option {
	return func(a *Aggregator) { a.policy = p }
}

func WithLogger(l shadows.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

func New(alloc *shadows.Allocator, opts ...Option) *Aggregator {
	a := &Aggregator{alloc: alloc, log: nopLogger{}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) Allocator() *shadows.Allocator { return a.alloc }

func (a *Aggregator) Policy() CountPolicy { return a.policy }

// Dropped is the number of directional lights ignored last frame because the
// table was full.
func (a *Aggregator) Dropped() int { return a.dropped }

// Setup fills the light table from the visibility list, renders shadows and
// publishes both. The returned globals stay valid until the next Setup.
// A failure after the frame has begun resets the allocator so the next Setup
// can run.
func (a *Aggregator) Setup(cull shadows.CullingResults, cmd CommandBuffer, settings shadows.Settings) (_ *LightGlobals, err error) {
	if err := a.alloc.BeginFrame(cull, cmd, settings); err != nil {
		return nil, fmt.Errorf("lighting setup: %w", err)
	}
	defer func() {
		if err != nil {
			a.alloc.Reset()
		}
	}()

	visible := cull.VisibleLights()
	g := &a.globals
	*g = LightGlobals{}
	a.dropped = 0

	filled := 0
	for i := range visible {
		vl := &visible[i]
		if vl.Type != shadows.LightTypeDirectional {
			continue
		}
		if filled >= MaxDirectionalLights {
			a.dropped++
			continue
		}
		params, err := a.alloc.Reserve(vl.Light, i)
		if err != nil {
			return nil, fmt.Errorf("lighting setup: reserve light %d: %w", i, err)
		}
		g.Colors[filled] = vl.FinalColor
		g.Directions[filled] = vl.LocalToWorld.Col(2).Mul(-1)
		g.ShadowData[filled] = params.Vec4()
		filled++
	}
	if a.dropped > 0 {
		a.log.Debugf("%d directional lights over the limit of %d were ignored", a.dropped, MaxDirectionalLights)
	}

	switch a.policy {
	case CountVisible:
		g.Count = len(visible)
	default:
		g.Count = filled
	}

	if err := a.alloc.Render(); err != nil {
		return nil, fmt.Errorf("lighting setup: %w", err)
	}
	cmd.PublishLights(g)
	return g, nil
}

// Cleanup releases the frame's shadow atlas.
func (a *Aggregator) Cleanup() error {
	return a.alloc.Cleanup()
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}
