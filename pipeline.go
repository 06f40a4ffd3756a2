package csm

import (
	"errors"
	"fmt"

	"github.com/gekko3d/csm/rt/core"
	"github.com/gekko3d/csm/rt/lighting"
	"github.com/gekko3d/csm/rt/shadows"
	"github.com/gekko3d/csm/rt/stats"
)

var ErrNoCameras = errors.New("no cameras to render")

// PipelineSettings is fixed for the lifetime of a Pipeline.
type PipelineSettings struct {
	UseDynamicBatching bool
	UseGPUInstancing   bool
	UseSRPBatcher      bool
	Shadows            shadows.Settings
}

// Pipeline renders a list of cameras with one shared CameraRenderer.
type Pipeline struct {
	settings PipelineSettings
	renderer *CameraRenderer
	log      Logger
}

type pipelineOptions struct {
	log      Logger
	caps     shadows.Capabilities
	policy   lighting.CountPolicy
	profiler *stats.Profiler
	metrics  *stats.Metrics
}

type PipelineOption func(*pipelineOptions)

func WithLogger(l Logger) PipelineOption {
	return func(o *pipelineOptions) { o.log = l }
}

func WithCapabilities(c shadows.Capabilities) PipelineOption {
	return func(o *pipelineOptions) { o.caps = c }
}

func WithCountPolicy(p lighting.CountPolicy) PipelineOption {
	return func(o *pipelineOptions) { o.policy = p }
}

func WithProfiler(p *stats.Profiler) PipelineOption {
	return func(o *pipelineOptions) { o.profiler = p }
}

func WithMetrics(m *stats.Metrics) PipelineOption {
	return func(o *pipelineOptions) { o.metrics = m }
}

// NewPipeline validates the shadow settings once; frames do not re-check them.
func NewPipeline(settings PipelineSettings, opts ...PipelineOption) (*Pipeline, error) {
	if err := settings.Shadows.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	o := pipelineOptions{log: NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = NewNopLogger()
	}

	alloc := shadows.NewAllocator(shadows.WithLogger(o.log), shadows.WithCapabilities(o.caps))
	agg := lighting.New(alloc, lighting.WithCountPolicy(o.policy), lighting.WithLogger(o.log))
	return &Pipeline{
		settings: settings,
		renderer: NewCameraRenderer(agg, o.profiler, o.metrics, o.log),
		log:      o.log,
	}, nil
}

// NewPipelineFromConfig builds a pipeline from a loaded configuration.
func NewPipelineFromConfig(cfg *Config, opts ...PipelineOption) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	settings, err := cfg.PipelineSettings()
	if err != nil {
		return nil, err
	}
	caps, err := cfg.Capabilities()
	if err != nil {
		return nil, err
	}
	policy, err := lighting.ParseCountPolicy(cfg.Lighting.CountPolicy)
	if err != nil {
		return nil, err
	}
	base := []PipelineOption{WithCapabilities(caps), WithCountPolicy(policy)}
	return NewPipeline(settings, append(base, opts...)...)
}

func (p *Pipeline) Settings() PipelineSettings { return p.settings }

func (p *Pipeline) Renderer() *CameraRenderer { return p.renderer }

// Render draws every camera in order and returns how many were rendered.
// A failing camera does not stop the others.
func (p *Pipeline) Render(cameras []*core.CameraState, culler Culler, cmd lighting.CommandBuffer, geometry GeometryFunc) (int, error) {
	if len(cameras) == 0 {
		return 0, ErrNoCameras
	}
	p.renderer.profiler.Reset()

	rendered := 0
	var errs []error
	for _, cam := range cameras {
		ok, err := p.renderer.Render(cam, culler, cmd, p.settings, geometry)
		if err != nil {
			p.log.Warnf("%v", err)
			errs = append(errs, err)
		}
		if ok {
			rendered++
		}
	}
	return rendered, errors.Join(errs...)
}
