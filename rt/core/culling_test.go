package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestFrustumCulling(t *testing.T) {
	// Camera at origin looking down -Z, 90 deg FOV, near 1, far 100.
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1.0, 1.0, 100.0)
	view := mgl32.LookAtV(
		mgl32.Vec3{0, 0, 0},
		mgl32.Vec3{0, 0, -1},
		mgl32.Vec3{0, 1, 0},
	)
	planes := ExtractFrustum(proj.Mul4(view))

	tests := []struct {
		name     string
		box      AABB
		expected bool
	}{
		{"Inside (center)", AABB{mgl32.Vec3{-1, -1, -10}, mgl32.Vec3{1, 1, -5}}, true},
		{"Outside (Left)", AABB{mgl32.Vec3{-20, -1, -10}, mgl32.Vec3{-15, 1, -5}}, false},
		{"Outside (Right)", AABB{mgl32.Vec3{15, -1, -10}, mgl32.Vec3{20, 1, -5}}, false},
		{"Outside (Behind/Near)", AABB{mgl32.Vec3{-1, -1, 2}, mgl32.Vec3{1, 1, 5}}, false},
		{"Outside (Far)", AABB{mgl32.Vec3{-1, -1, -200}, mgl32.Vec3{1, 1, -150}}, false},
		{"Intersecting (Left Plane)", AABB{mgl32.Vec3{-15, -1, -10}, mgl32.Vec3{-5, 1, -5}}, true},
		{"Encompassing (Huge box)", AABB{mgl32.Vec3{-1000, -1000, -1000}, mgl32.Vec3{1000, 1000, 1000}}, true},
	}

	for _, tc := range tests {
		visible := AABBInFrustum(tc.box, planes)
		if visible != tc.expected {
			t.Errorf("Test %s failed: expected %v, got %v", tc.name, tc.expected, visible)
			for i, p := range planes {
				dist := p.Dot(tc.box.Center().Vec4(1.0))
				t.Logf("  P%d: %v, Dist(Center)=%f", i, p, dist)
			}
		}
	}
}

func TestFrustumOrtho(t *testing.T) {
	proj := mgl32.Ortho(-10, 10, -10, 10, 0, 20)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	planes := ExtractFrustum(proj.Mul4(view))

	if !AABBInFrustum(AABB{mgl32.Vec3{-1, -1, -6}, mgl32.Vec3{1, 1, -4}}, planes) {
		t.Error("Ortho: AABB should be inside")
	}
	// Far is 20, so Z=-25 is beyond the far plane.
	if AABBInFrustum(AABB{mgl32.Vec3{-1, -1, -26}, mgl32.Vec3{1, 1, -24}}, planes) {
		t.Error("Ortho: AABB at -25 should be outside (Far=20 => Z=-20)")
	}
}

func TestCameraFrustumUsesForwardAxis(t *testing.T) {
	cam := NewCameraState()
	cam.FieldOfView = 90
	cam.Aspect = 1
	cam.Near = 1

	planes := cam.Frustum(50)
	if !AABBInFrustum(AABB{mgl32.Vec3{-1, -1, 9}, mgl32.Vec3{1, 1, 11}}, planes) {
		t.Error("box in front of the camera (+Z) should be visible")
	}
	if AABBInFrustum(AABB{mgl32.Vec3{-1, -1, -11}, mgl32.Vec3{1, 1, -9}}, planes) {
		t.Error("box behind the camera should be culled")
	}
	if AABBInFrustum(AABB{mgl32.Vec3{-1, -1, 60}, mgl32.Vec3{1, 1, 70}}, planes) {
		t.Error("box past the pulled-in far plane should be culled")
	}
}
