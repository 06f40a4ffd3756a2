package csm

import (
	"errors"
	"fmt"
	"time"

	"github.com/gekko3d/csm/rt/core"
	"github.com/gekko3d/csm/rt/lighting"
	"github.com/gekko3d/csm/rt/shadows"
	"github.com/gekko3d/csm/rt/stats"
)

// Culler produces the visibility of one camera. It reports false when the
// camera cannot be culled, in which case the camera is skipped.
type Culler interface {
	Cull(camera *core.CameraState, shadowDistance float32) (shadows.CullingResults, bool)
}

// DrawSettings is handed to the geometry pass of each camera.
type DrawSettings struct {
	UseDynamicBatching bool
	UseGPUInstancing   bool
	UseSRPBatcher      bool
	Lights             *lighting.LightGlobals
	Shadows            *shadows.DirectionalShadowGlobals
}

// GeometryFunc draws the visible geometry of a camera after lights and
// shadows have been published.
type GeometryFunc func(camera *core.CameraState, cull shadows.CullingResults, draw DrawSettings) error

// CameraRenderer renders one camera at a time: lighting and shadows first,
// then geometry, then releases the frame's shadow resources.
type CameraRenderer struct {
	lighting *lighting.Aggregator
	profiler *stats.Profiler
	metrics  *stats.Metrics
	log      Logger
}

func NewCameraRenderer(agg *lighting.Aggregator, profiler *stats.Profiler, metrics *stats.Metrics, log Logger) *CameraRenderer {
	if profiler == nil {
		profiler = stats.NewProfiler()
	}
	if log == nil {
		log = NewNopLogger()
	}
	return &CameraRenderer{lighting: agg, profiler: profiler, metrics: metrics, log: log}
}

func (r *CameraRenderer) Profiler() *stats.Profiler { return r.profiler }

// ShadowDistance is how far shadows reach for camera: the configured maximum
// clamped to the far plane.
func ShadowDistance(maxDistance float32, camera *core.CameraState) float32 {
	if camera.Far < maxDistance {
		return camera.Far
	}
	return maxDistance
}

// Render draws camera. It returns false without error when the camera was
// skipped by culling.
func (r *CameraRenderer) Render(camera *core.CameraState, culler Culler, cmd lighting.CommandBuffer, settings PipelineSettings, geometry GeometryFunc) (bool, error) {
	if camera == nil {
		return false, nil
	}
	cull, ok := culler.Cull(camera, ShadowDistance(settings.Shadows.MaxDistance, camera))
	if !ok {
		r.log.Debugf("camera %q skipped: culling failed", camera.Name)
		return false, nil
	}

	start := time.Now()
	r.profiler.BeginScope("lighting")
	lights, err := r.lighting.Setup(cull, cmd, settings.Shadows)
	r.profiler.EndScope("lighting")
	if err != nil {
		return false, fmt.Errorf("camera %q: %w", camera.Name, err)
	}

	alloc := r.lighting.Allocator()
	frame := alloc.Stats()
	r.profiler.Record(frame)
	if frame.RejectedCapacity > 0 {
		r.log.Debugf("camera %q: %d shadowed lights over capacity", camera.Name, frame.RejectedCapacity)
	}

	var errs []error
	if geometry != nil {
		r.profiler.BeginScope("geometry")
		err := geometry(camera, cull, DrawSettings{
			UseDynamicBatching: settings.UseDynamicBatching,
			UseGPUInstancing:   settings.UseGPUInstancing,
			UseSRPBatcher:      settings.UseSRPBatcher,
			Lights:             lights,
			Shadows:            alloc.Globals(),
		})
		r.profiler.EndScope("geometry")
		if err != nil {
			errs = append(errs, fmt.Errorf("camera %q geometry: %w", camera.Name, err))
		}
	}

	if err := r.lighting.Cleanup(); err != nil {
		errs = append(errs, fmt.Errorf("camera %q cleanup: %w", camera.Name, err))
	}
	if r.metrics != nil {
		r.metrics.Observe(frame, time.Since(start).Seconds())
	}
	return true, errors.Join(errs...)
}
