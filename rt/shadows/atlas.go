package shadows

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TileSplit returns how many tiles per side the atlas is divided into.
func TileSplit(tiles int) int {
	switch {
	case tiles <= 1:
		return 1
	case tiles <= 4:
		return 2
	default:
		return 4
	}
}

// TileOffset is the grid cell of a flat tile index.
func TileOffset(index, split int) mgl32.Vec2 {
	return mgl32.Vec2{float32(index % split), float32(index / split)}
}

// TileViewport is the pixel rectangle of a tile.
func TileViewport(offset mgl32.Vec2, tileSize int) Viewport {
	size := float32(tileSize)
	return Viewport{X: offset.X() * size, Y: offset.Y() * size, Width: size, Height: size}
}

// AtlasMatrix converts a clip-space world-to-light matrix into one that maps
// world positions to atlas UV in xy and [0, 1] depth in z, restricted to the
// tile at offset.
func AtlasMatrix(worldToLight mgl32.Mat4, offset mgl32.Vec2, split int, reversedZ bool) mgl32.Mat4 {
	m := worldToLight
	if reversedZ {
		m.SetRow(2, m.Row(2).Mul(-1))
	}

	scale := 1 / float32(split)
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)
	m.SetRow(0, r0.Add(r3).Mul(0.5).Add(r3.Mul(offset.X())).Mul(scale))
	m.SetRow(1, r1.Add(r3).Mul(0.5).Add(r3.Mul(offset.Y())).Mul(scale))
	m.SetRow(2, r2.Add(r3).Mul(0.5))
	return m
}
