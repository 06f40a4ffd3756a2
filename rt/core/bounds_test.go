package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAABBUnionAndEmpty(t *testing.T) {
	b := EmptyAABB()
	assert.True(t, b.Empty())

	b = b.Union(AABB{mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}})
	b = b.Union(AABB{mgl32.Vec3{-2, 0, 3}, mgl32.Vec3{-1, 4, 5}})
	b = b.Union(EmptyAABB())

	require.False(t, b.Empty())
	assert.Equal(t, mgl32.Vec3{-2, 0, 0}, b.Min)
	assert.Equal(t, mgl32.Vec3{1, 4, 5}, b.Max)
}

func TestAABBSweep(t *testing.T) {
	b := AABB{mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}}.Sweep(mgl32.Vec3{0, 1, 0}, 10)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, b.Min)
	assert.Equal(t, mgl32.Vec3{1, 11, 1}, b.Max)
}

func TestBoundingSphereCoversPoints(t *testing.T) {
	cam := NewCameraState()
	corners := cam.SliceCorners(1, 10)
	s := BoundingSphere(corners[:])

	require.Greater(t, s.Radius, float32(0))
	for _, c := range corners {
		assert.True(t, s.Contains(c.Sub(c.Sub(s.Center).Mul(1e-4))), "corner %v outside sphere", c)
	}
	assert.InDelta(t, s.Radius, s.Vec4().W(), 1e-6)
}

func assertVec3InDelta(t *testing.T, want, got mgl32.Vec3, delta float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], delta, "component %d of %v", i, got)
	}
}

func TestLookRotationForward(t *testing.T) {
	dir := mgl32.Vec3{1, -1, 0}.Normalize()
	tr := LookRotation(mgl32.Vec3{}, dir, mgl32.Vec3{0, 1, 0})
	assertVec3InDelta(t, dir, tr.Forward(), 1e-5)

	down := LookRotation(mgl32.Vec3{}, mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, 1, 0})
	assertVec3InDelta(t, mgl32.Vec3{0, -1, 0}, down.Forward(), 1e-5)
}

func TestTransformRoundTrip(t *testing.T) {
	tr := NewTransform()
	tr.Position = mgl32.Vec3{10, 20, 30}
	tr.Rotation = mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})
	tr.Scale = mgl32.Vec3{2, 2, 2}

	m := tr.ObjectToWorld().Mul4(tr.WorldToObject())
	ident := mgl32.Ident4()
	for i := range m {
		assert.InDelta(t, ident[i], m[i], 1e-4, "element %d of %v", i, m)
	}
}
