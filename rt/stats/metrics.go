package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gekko3d/csm/rt/shadows"
)

// Metrics exports shadow allocation counters to Prometheus.
type Metrics struct {
	Frames           prometheus.Counter
	LightsOffered    prometheus.Counter
	LightsRejected   *prometheus.CounterVec
	ReservedLights   prometheus.Gauge
	AtlasTiles       prometheus.Gauge
	AtlasTileSize    prometheus.Gauge
	FrameDuration    prometheus.Histogram
	ShadowMaskFrames prometheus.Counter
}

// NewMetrics registers the collectors on reg. A nil reg registers nothing,
// which keeps tests and repeated construction independent.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Frames: f.NewCounter(prometheus.CounterOpts{
			Name: "csm_frames_total",
			Help: "Total number of camera frames rendered",
		}),
		LightsOffered: f.NewCounter(prometheus.CounterOpts{
			Name: "csm_lights_offered_total",
			Help: "Directional lights offered for shadow reservation",
		}),
		LightsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "csm_lights_rejected_total",
			Help: "Directional lights that did not get atlas space",
		}, []string{"reason"}),
		ReservedLights: f.NewGauge(prometheus.GaugeOpts{
			Name: "csm_reserved_lights",
			Help: "Shadowed directional lights in the last frame",
		}),
		AtlasTiles: f.NewGauge(prometheus.GaugeOpts{
			Name: "csm_atlas_tiles",
			Help: "Atlas tiles drawn in the last frame",
		}),
		AtlasTileSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "csm_atlas_tile_size_pixels",
			Help: "Edge length of one atlas tile in the last frame",
		}),
		FrameDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "csm_frame_duration_seconds",
			Help:    "Time spent in lighting setup and shadow rendering",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		ShadowMaskFrames: f.NewCounter(prometheus.CounterOpts{
			Name: "csm_shadow_mask_frames_total",
			Help: "Frames in which a reserved light used a baked shadow mask",
		}),
	}
}

// Observe records one frame's allocator statistics.
func (m *Metrics) Observe(s shadows.FrameStats, seconds float64) {
	m.Frames.Inc()
	m.LightsOffered.Add(float64(s.Offered))
	m.LightsRejected.WithLabelValues("capacity").Add(float64(s.RejectedCapacity))
	m.LightsRejected.WithLabelValues("disabled").Add(float64(s.RejectedDisabled))
	m.LightsRejected.WithLabelValues("no_casters").Add(float64(s.NoCasters))
	m.ReservedLights.Set(float64(s.Reserved))
	m.AtlasTiles.Set(float64(s.Tiles))
	m.AtlasTileSize.Set(float64(s.TileSize))
	m.FrameDuration.Observe(seconds)
	if s.ShadowMask {
		m.ShadowMaskFrames.Inc()
	}
}

// Record copies the frame statistics into the profiler counters.
func (p *Profiler) Record(s shadows.FrameStats) {
	p.SetCount("reserved_lights", s.Reserved)
	p.SetCount("atlas_tiles", s.Tiles)
	p.SetCount("atlas_split", s.Split)
	p.SetCount("rejected_lights", s.RejectedCapacity+s.RejectedDisabled)
	p.SetCount("no_caster_lights", s.NoCasters)
}
