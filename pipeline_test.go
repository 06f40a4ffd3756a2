package csm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/csm/rt/core"
	"github.com/gekko3d/csm/rt/shadows"
	"github.com/gekko3d/csm/rt/soft"
	"github.com/gekko3d/csm/rt/stats"
)

type distanceCuller struct {
	inner     Culler
	distances []float32
	fail      map[string]bool
}

func (c *distanceCuller) Cull(cam *core.CameraState, d float32) (shadows.CullingResults, bool) {
	c.distances = append(c.distances, d)
	if c.fail[cam.Name] {
		return nil, false
	}
	return c.inner.Cull(cam, d)
}

func loadTestScene(t *testing.T) (*core.CameraState, *soft.Scene) {
	t.Helper()
	cam, scene, err := ParseScene([]byte(testSceneYAML))
	require.NoError(t, err)
	return cam, scene
}

func TestPipelineRendersCameras(t *testing.T) {
	cam, scene := loadTestScene(t)
	near := core.NewCameraState()
	near.Name = "near"
	near.Far = 40
	near.Transform = cam.Transform

	var logBuf bytes.Buffer
	reg := prometheus.NewRegistry()
	p, err := NewPipelineFromConfig(DefaultConfig(),
		WithLogger(NewLoggerTo(&logBuf, "test", true)),
		WithMetrics(stats.NewMetrics(reg)),
	)
	require.NoError(t, err)

	culler := &distanceCuller{inner: scene}
	rec := soft.NewRecorder(scene)
	var drawn []DrawSettings
	geometry := func(c *core.CameraState, cull shadows.CullingResults, d DrawSettings) error {
		drawn = append(drawn, d)
		return nil
	}

	n, err := p.Render([]*core.CameraState{cam, near}, culler, rec, geometry)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, []float32{100, 40}, culler.distances, "shadow distance clamps to the far plane")
	require.Len(t, drawn, 2)
	assert.True(t, drawn[0].UseSRPBatcher)
	assert.Equal(t, 2, drawn[0].Lights.Count, "two directional lights")
	assert.Equal(t, 1, drawn[0].Shadows.ShadowedLights, "only the sun casts shadows")
	assert.True(t, rec.ShadowMask.Always)

	assert.Zero(t, rec.Outstanding(), "every atlas is released")
	assert.Equal(t, 2, rec.Acquired())
	assert.Equal(t, float64(2), testutil.ToFloat64(p.Renderer().metrics.Frames))

	prof := p.Renderer().Profiler()
	assert.Equal(t, []string{"lighting", "geometry"}, prof.Order)
	assert.Equal(t, 4, prof.Counts["atlas_tiles"])
}

func TestPipelineSkipsUncullableCamera(t *testing.T) {
	cam, scene := loadTestScene(t)
	cam.Name = "broken"
	other := core.NewCameraState()

	p, err := NewPipeline(PipelineSettings{Shadows: shadows.DefaultSettings()})
	require.NoError(t, err)

	culler := &distanceCuller{inner: scene, fail: map[string]bool{"broken": true}}
	n, err := p.Render([]*core.CameraState{cam, other}, culler, soft.NewRecorder(scene), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPipelineGeometryErrorStillCleansUp(t *testing.T) {
	cam, scene := loadTestScene(t)
	p, err := NewPipeline(PipelineSettings{Shadows: shadows.DefaultSettings()})
	require.NoError(t, err)

	boom := errors.New("boom")
	rec := soft.NewRecorder(scene)
	n, err := p.Render([]*core.CameraState{cam}, scene, rec, func(*core.CameraState, shadows.CullingResults, DrawSettings) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
	assert.Zero(t, rec.Outstanding())

	// The next frame starts cleanly.
	_, err = p.Render([]*core.CameraState{cam}, scene, rec, nil)
	assert.NoError(t, err)
}

func TestPipelineErrors(t *testing.T) {
	bad := shadows.DefaultSettings()
	bad.Directional.CascadeCount = 0
	_, err := NewPipeline(PipelineSettings{Shadows: bad})
	assert.ErrorIs(t, err, shadows.ErrInvalidSettings)

	p, err := NewPipeline(PipelineSettings{Shadows: shadows.DefaultSettings()})
	require.NoError(t, err)
	_, err = p.Render(nil, &soft.Scene{}, soft.NewRecorder(nil), nil)
	assert.ErrorIs(t, err, ErrNoCameras)
}

func TestShadowDistance(t *testing.T) {
	cam := core.NewCameraState()
	cam.Far = 50
	assert.Equal(t, float32(50), ShadowDistance(100, cam))
	assert.Equal(t, float32(20), ShadowDistance(20, cam))
}

func TestDefaultLoggerDebugToggle(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "shadows", false)
	l.Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("shown %d", 2)
	l.Warnf("careful")
	out := buf.String()
	assert.Contains(t, out, `"component":"shadows"`)
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, `"level":"warn"`)

	assert.NotPanics(t, func() { NewNopLogger().Errorf("x %v", mgl32.Vec3{}) })
}
