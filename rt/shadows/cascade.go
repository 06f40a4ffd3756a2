package shadows

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CascadeSlice is the shading-side description of one cascade.
type CascadeSlice struct {
	// CullingSphere holds the center in xyz and the squared, filter-shrunk radius in w.
	CullingSphere mgl32.Vec4
	// Data holds 1/r² in x and the diagonal filter width in y.
	Data mgl32.Vec4
}

// ComputeCascadeSlice derives the slice from the host's culling sphere. The
// radius is shrunk by the filter width so samples near the cascade edge stay
// inside the tile; it never goes below zero.
func ComputeCascadeSlice(sphere mgl32.Vec4, tileSize int, filter FilterMode) CascadeSlice {
	radius := sphere.W()
	texelSize := 2 * radius / float32(tileSize)
	filterSize := texelSize * (float32(filter) + 1)

	shrunk := radius - filterSize
	if shrunk < 0 {
		shrunk = 0
	}

	cull := sphere
	cull[3] = shrunk * shrunk
	return CascadeSlice{
		CullingSphere: cull,
		Data:          mgl32.Vec4{1 / (radius * radius), filterSize * math.Sqrt2, 0, 0},
	}
}

// DistanceFade packs (1/maxDistance, 1/distanceFade, 1/(1-f²)) with f = 1-cascadeFade.
func DistanceFade(s Settings) mgl32.Vec4 {
	f := 1 - s.Directional.CascadeFade
	return mgl32.Vec4{
		1 / s.MaxDistance,
		1 / s.DistanceFade,
		1 / (1 - f*f),
		0,
	}
}

// BlendCullingFactor is handed to the host's visibility pass with each cascade.
func BlendCullingFactor(cascadeFade float32) float32 {
	return float32(math.Max(0, float64(0.8-cascadeFade)))
}
