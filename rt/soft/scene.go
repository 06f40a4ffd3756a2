// Package soft is a CPU host for the shadow allocator. It culls a small
// scene of lights and box casters against a camera and records the commands
// the allocator issues, so whole frames can run without a GPU.
package soft

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/csm/rt/core"
	"github.com/gekko3d/csm/rt/shadows"
)

// Light is a scene light. Range bounds point and spot lights for visibility
// and is ignored for directional lights.
type Light struct {
	Name    string
	Visible shadows.VisibleLight
	Range   float32
}

// Position is the translation of the light's local-to-world matrix.
func (l Light) Position() mgl32.Vec3 {
	return l.Visible.LocalToWorld.Col(3).Vec3()
}

type Caster struct {
	Name   string
	Bounds core.AABB
}

// Scene holds everything that can be lit or cast shadows.
type Scene struct {
	Lights  []Light
	Casters []Caster
}

func (s *Scene) AddLight(l Light) { s.Lights = append(s.Lights, l) }

func (s *Scene) AddCaster(name string, bounds core.AABB) {
	s.Casters = append(s.Casters, Caster{Name: name, Bounds: bounds})
}

// CasterBounds returns the bounds of every caster in insertion order.
func (s *Scene) CasterBounds() []core.AABB {
	out := make([]core.AABB, len(s.Casters))
	for i, c := range s.Casters {
		out[i] = c.Bounds
	}
	return out
}

// Cull computes the visibility of the scene from camera. Shadow queries are
// limited to shadowDistance along the view axis. It reports false when the
// camera cannot produce a usable frustum.
func (s *Scene) Cull(camera *core.CameraState, shadowDistance float32) (shadows.CullingResults, bool) {
	if camera == nil || camera.Transform == nil || camera.Near <= 0 || camera.Far <= camera.Near {
		return nil, false
	}
	if shadowDistance <= camera.Near {
		shadowDistance = camera.Near
	}

	r := &Results{
		scene:          s,
		camera:         camera,
		shadowDistance: shadowDistance,
		viewFrustum:    camera.Frustum(camera.Far),
		shadowFrustum:  camera.Frustum(shadowDistance),
	}
	for _, l := range s.Lights {
		if !r.lightVisible(l) {
			continue
		}
		r.visible = append(r.visible, l.Visible)
	}
	return r, true
}
