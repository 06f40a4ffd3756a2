package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/gekko3d/csm"
	"github.com/gekko3d/csm/rt/core"
	"github.com/gekko3d/csm/rt/debugviz"
	"github.com/gekko3d/csm/rt/shadows"
	"github.com/gekko3d/csm/rt/soft"
	"github.com/gekko3d/csm/rt/stats"
)

var (
	sceneFile   string
	frames      int
	pngFile     string
	pngEdge     int
	showMetrics bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render frames of a scene file and report the atlas layout",
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVar(&sceneFile, "scene", "", "scene file (YAML)")
	renderCmd.Flags().IntVar(&frames, "frames", 1, "frames to render")
	renderCmd.Flags().StringVar(&pngFile, "png", "", "write the last frame's atlas layout to this PNG")
	renderCmd.Flags().IntVar(&pngEdge, "png-size", 512, "maximum edge of the PNG in pixels")
	renderCmd.Flags().BoolVar(&showMetrics, "metrics", false, "print collected metrics")
	_ = renderCmd.MarkFlagRequired("scene")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	cam, scene, err := csm.LoadScene(sceneFile)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	profiler := stats.NewProfiler()
	p, err := csm.NewPipelineFromConfig(cfg,
		csm.WithLogger(log),
		csm.WithProfiler(profiler),
		csm.WithMetrics(stats.NewMetrics(reg)),
	)
	if err != nil {
		return err
	}

	rec := soft.NewRecorder(scene)
	geometry := func(c *core.CameraState, cull shadows.CullingResults, d csm.DrawSettings) error {
		log.Debugf("camera %q: %d directional lights, %d visible", c.Name, d.Lights.Count, len(cull.VisibleLights()))
		return nil
	}

	for i := 0; i < frames; i++ {
		rec.Reset()
		n, err := p.Render([]*core.CameraState{cam}, scene, rec, geometry)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if n == 0 {
			log.Warnf("frame %d: camera %q was not rendered", i, cam.Name)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, profiler.GetStatsString())
	fmt.Fprintln(out)
	for _, t := range rec.Tiles {
		fmt.Fprintf(out, "tile light=%d cascade=%d at (%g,%g) %gpx casters=%d\n",
			t.VisibleLightIndex, t.Cascade, t.Viewport.X, t.Viewport.Y, t.Viewport.Width, t.Casters)
	}

	if pngFile != "" {
		if err := writeAtlasPNG(rec); err != nil {
			return err
		}
		log.Infof("wrote atlas layout to %s", pngFile)
	}

	if showMetrics {
		families, err := reg.Gather()
		if err != nil {
			return fmt.Errorf("failed to gather metrics: %w", err)
		}
		for _, mf := range families {
			for _, m := range mf.GetMetric() {
				switch {
				case m.GetCounter() != nil:
					fmt.Fprintf(out, "%s %v %g\n", mf.GetName(), m.GetLabel(), m.GetCounter().GetValue())
				case m.GetGauge() != nil:
					fmt.Fprintf(out, "%s %g\n", mf.GetName(), m.GetGauge().GetValue())
				case m.GetHistogram() != nil:
					fmt.Fprintf(out, "%s count=%d sum=%g\n", mf.GetName(), m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum())
				}
			}
		}
	}
	return nil
}

func writeAtlasPNG(rec *soft.Recorder) error {
	f, err := os.Create(pngFile)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", pngFile, err)
	}
	defer f.Close()
	return debugviz.WritePNG(f, debugviz.Render(debugviz.FromRecorder(rec), pngEdge))
}
