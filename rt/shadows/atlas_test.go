package shadows

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTileSplit(t *testing.T) {
	tests := []struct {
		tiles int
		want  int
	}{
		{0, 1}, {1, 1},
		{2, 2}, {3, 2}, {4, 2},
		{5, 4}, {8, 4}, {12, 4}, {16, 4},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, TileSplit(tc.tiles), "tiles=%d", tc.tiles)
	}
}

func TestTileOffsetRowMajor(t *testing.T) {
	assert.Equal(t, mgl32.Vec2{0, 0}, TileOffset(0, 4))
	assert.Equal(t, mgl32.Vec2{3, 0}, TileOffset(3, 4))
	assert.Equal(t, mgl32.Vec2{0, 1}, TileOffset(4, 4))
	assert.Equal(t, mgl32.Vec2{1, 1}, TileOffset(3, 2))
	assert.Equal(t, mgl32.Vec2{3, 3}, TileOffset(15, 4))

	assert.Equal(t, Viewport{X: 512, Y: 256, Width: 256, Height: 256}, TileViewport(mgl32.Vec2{2, 1}, 256))
}

func project(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	v := m.Mul4x1(p.Vec4(1))
	return v.Vec3().Mul(1 / v.W())
}

func TestAtlasMatrixMapsIntoTile(t *testing.T) {
	// x, y in [-10, 10], z in [0, 20] in front of the light.
	worldToLight := mgl32.Ortho(-10, 10, -10, 10, 0, 20)
	p := mgl32.Vec3{5, -5, -5}

	tests := []struct {
		name     string
		offset   mgl32.Vec2
		split    int
		reversed bool
		want     mgl32.Vec3
	}{
		{"single tile", mgl32.Vec2{0, 0}, 1, false, mgl32.Vec3{0.75, 0.25, 0.25}},
		{"2x2 second column", mgl32.Vec2{1, 0}, 2, false, mgl32.Vec3{0.875, 0.125, 0.25}},
		{"4x4 last tile", mgl32.Vec2{3, 3}, 4, false, mgl32.Vec3{0.9375, 0.8125, 0.25}},
		{"reversed z", mgl32.Vec2{0, 0}, 1, true, mgl32.Vec3{0.75, 0.25, 0.75}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := project(AtlasMatrix(worldToLight, tc.offset, tc.split, tc.reversed), p)
			assert.InDelta(t, tc.want.X(), got.X(), 1e-5)
			assert.InDelta(t, tc.want.Y(), got.Y(), 1e-5)
			assert.InDelta(t, tc.want.Z(), got.Z(), 1e-5)
		})
	}
}

func TestAtlasMatrixStaysInsideTile(t *testing.T) {
	view := mgl32.LookAtV(mgl32.Vec3{0, 20, 0}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1})
	proj := mgl32.Ortho(-8, 8, -8, 8, 0, 40)
	worldToLight := proj.Mul4(view)

	split := 4
	for tile := 0; tile < 16; tile++ {
		offset := TileOffset(tile, split)
		m := AtlasMatrix(worldToLight, offset, split, false)
		lo := offset.Mul(1 / float32(split))
		hi := offset.Add(mgl32.Vec2{1, 1}).Mul(1 / float32(split))

		for _, c := range []mgl32.Vec3{{-8, 0, -8}, {8, 0, 8}, {-7.9, -10, 3}, {0, 19, 0}} {
			uvz := project(m, c)
			assert.GreaterOrEqual(t, uvz.X(), lo.X()-1e-5, "tile %d", tile)
			assert.LessOrEqual(t, uvz.X(), hi.X()+1e-5, "tile %d", tile)
			assert.GreaterOrEqual(t, uvz.Y(), lo.Y()-1e-5, "tile %d", tile)
			assert.LessOrEqual(t, uvz.Y(), hi.Y()+1e-5, "tile %d", tile)
			assert.GreaterOrEqual(t, uvz.Z(), float32(-1e-5))
			assert.LessOrEqual(t, uvz.Z(), float32(1+1e-5))
		}
	}
}

func TestCascadeSliceShrinksWithFilter(t *testing.T) {
	sphere := mgl32.Vec4{1, 2, 3, 10}
	prev := float32(sphere.W() * sphere.W())
	prevWidth := float32(0)
	for f := FilterPCF2x2; f <= FilterPCF7x7; f++ {
		s := ComputeCascadeSlice(sphere, 256, f)
		assert.Equal(t, sphere.Vec3(), s.CullingSphere.Vec3())
		assert.Less(t, s.CullingSphere.W(), prev, "filter %s", f)
		assert.Greater(t, s.Data.Y(), prevWidth, "filter %s", f)
		prev = s.CullingSphere.W()
		prevWidth = s.Data.Y()
	}
}

func TestCascadeSliceValues(t *testing.T) {
	// texel = 2*8/128 = 0.125, PCF3x3 doubles it.
	s := ComputeCascadeSlice(mgl32.Vec4{0, 0, 0, 8}, 128, FilterPCF3x3)
	assert.InDelta(t, (8-0.25)*(8-0.25), s.CullingSphere.W(), 1e-4)
	assert.InDelta(t, 1.0/64, s.Data.X(), 1e-7, "inverse squared radius")
	assert.InDelta(t, 0.25*1.41421356, s.Data.Y(), 1e-5)
}

func TestCascadeSliceRadiusNeverNegative(t *testing.T) {
	// A one-texel tile with the widest filter would shrink past zero.
	s := ComputeCascadeSlice(mgl32.Vec4{0, 0, 0, 1}, 1, FilterPCF7x7)
	assert.Equal(t, float32(0), s.CullingSphere.W())
}

func TestSelectorsAreExclusive(t *testing.T) {
	for f := FilterPCF2x2; f <= FilterPCF7x7; f++ {
		s := NewFilterSelector(f)
		assert.Equal(t, int(f)-1, s.Index())
		n := 0
		for _, b := range []bool{s.PCF3, s.PCF5, s.PCF7} {
			if b {
				n++
			}
		}
		assert.LessOrEqual(t, n, 1)
	}
	assert.Equal(t, FilterSelector{}, NewFilterSelector(FilterMode(9)))

	assert.Equal(t, CascadeBlendSelector{}, NewCascadeBlendSelector(CascadeBlendHard))
	assert.Equal(t, CascadeBlendSelector{Soft: true}, NewCascadeBlendSelector(CascadeBlendSoft))
	assert.Equal(t, CascadeBlendSelector{Dither: true}, NewCascadeBlendSelector(CascadeBlendDither))

	assert.Equal(t, -1, NewShadowMaskSelector(false, ShadowmaskModeDistance).Index())
	assert.Equal(t, 0, NewShadowMaskSelector(true, ShadowmaskModeShadowmask).Index())
	assert.Equal(t, 1, NewShadowMaskSelector(true, ShadowmaskModeDistance).Index())
}

func TestDistanceFadeDefaults(t *testing.T) {
	fade := DistanceFade(DefaultSettings())
	assert.InDelta(t, 0.01, fade.X(), 1e-7)
	assert.InDelta(t, 10, fade.Y(), 1e-4)
	// f = 0.9
	assert.InDelta(t, 1/(1-0.81), fade.Z(), 1e-3)
}

func TestSettingsValidate(t *testing.T) {
	require.NoError(t, DefaultSettings().Validate())

	bad := DefaultSettings()
	bad.MaxDistance = 0
	bad.Directional.AtlasSize = 1000
	bad.Directional.CascadeCount = 5
	bad.Directional.CascadeRatio2 = 0.05

	err := bad.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSettings))
	for _, frag := range []string{"max distance", "atlas size", "cascade count", "cascade ratios"} {
		assert.Contains(t, err.Error(), frag)
	}
}

func TestParseModes(t *testing.T) {
	f, err := ParseFilterMode("pcf5x5")
	require.NoError(t, err)
	assert.Equal(t, FilterPCF5x5, f)
	assert.Equal(t, "pcf5x5", f.String())

	_, err = ParseFilterMode("pcf9x9")
	assert.ErrorIs(t, err, ErrInvalidSettings)

	b, err := ParseCascadeBlendMode("dither")
	require.NoError(t, err)
	assert.Equal(t, CascadeBlendDither, b)

	_, err = ParseCascadeBlendMode("smooth")
	assert.ErrorIs(t, err, ErrInvalidSettings)
}
