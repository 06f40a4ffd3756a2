// Package uniform lays out published shadow and light state as little-endian
// bytes matching the WGSL structs in assets/.
package uniform

import (
	_ "embed"
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/csm/rt/lighting"
	"github.com/gekko3d/csm/rt/shadows"
)

// DirectionalShadowsSource is the WGSL definition matching MarshalDirectionalShadows.
//
//go:embed assets/directional_shadows.wgsl
var DirectionalShadowsSource string

// DirectionalLightsSource is the WGSL definition matching MarshalLights.
//
//go:embed assets/directional_lights.wgsl
var DirectionalLightsSource string

// Layout of DirectionalShadows:
//
//	vec4<i32>              header          (16 bytes, offset 0)
//	array<vec4<f32>, 4>    culling spheres (64 bytes, offset 16)
//	array<vec4<f32>, 4>    cascade data    (64 bytes, offset 80)
//	array<mat4x4<f32>, 16> matrices        (1024 bytes, offset 144)
//	vec4<f32>              distance fade   (16 bytes, offset 1168)
//	vec4<f32>              atlas size      (16 bytes, offset 1184)
const (
	offsetSpheres      = 16
	offsetCascadeData  = offsetSpheres + shadows.MaxCascades*16
	offsetMatrices     = offsetCascadeData + shadows.MaxCascades*16
	offsetDistanceFade = offsetMatrices + shadows.MaxAtlasTiles*64
	offsetAtlasSize    = offsetDistanceFade + 16

	DirectionalShadowsSize = offsetAtlasSize + 16
	LightsSize             = 16 + 3*lighting.MaxDirectionalLights*16
)

type writer struct {
	buf []byte
	off int
}

func (w *writer) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:w.off+4], v)
	w.off += 4
}

func (w *writer) i32(v int) { w.u32(uint32(int32(v))) }

func (w *writer) f32(v float32) { w.u32(math.Float32bits(v)) }

func (w *writer) vec4(v mgl32.Vec4) {
	for _, c := range v {
		w.f32(c)
	}
}

// mat4 writes columns in order, which is how both mgl32 and WGSL store them.
func (w *writer) mat4(m mgl32.Mat4) {
	for _, c := range m {
		w.f32(c)
	}
}

// MarshalDirectionalShadows serializes g together with the shadow mask
// selector, which shares the header.
func MarshalDirectionalShadows(g *shadows.DirectionalShadowGlobals, mask shadows.ShadowMaskSelector) []byte {
	w := &writer{buf: make([]byte, DirectionalShadowsSize)}
	w.i32(g.CascadeCount)
	w.i32(g.Filter.Index())
	w.i32(g.CascadeBlend.Index())
	w.i32(mask.Index())
	for _, s := range g.CascadeCullingSpheres {
		w.vec4(s)
	}
	for _, d := range g.CascadeData {
		w.vec4(d)
	}
	for _, m := range g.Matrices {
		w.mat4(m)
	}
	w.vec4(g.DistanceFade)
	w.vec4(g.AtlasSize)
	return w.buf
}

// PatchShadowMask rewrites only the shadow mask slot of a marshaled buffer.
func PatchShadowMask(buf []byte, mask shadows.ShadowMaskSelector) {
	w := &writer{buf: buf, off: 12}
	w.i32(mask.Index())
}

func MarshalLights(g *lighting.LightGlobals) []byte {
	w := &writer{buf: make([]byte, LightsSize)}
	w.i32(g.Count)
	w.off += 12 // padding
	for _, c := range g.Colors {
		w.vec4(c)
	}
	for _, d := range g.Directions {
		w.vec4(d)
	}
	for _, s := range g.ShadowData {
		w.vec4(s)
	}
	return w.buf
}
