package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraState is a perspective camera looking along its transform's +Z axis.
type CameraState struct {
	Name        string
	Transform   *Transform
	FieldOfView float32 // vertical, degrees
	Aspect      float32
	Near        float32
	Far         float32
}

func NewCameraState() *CameraState {
	return &CameraState{
		Name:        "Main Camera",
		Transform:   NewTransform(),
		FieldOfView: 60,
		Aspect:      16.0 / 9.0,
		Near:        0.3,
		Far:         1000,
	}
}

func (c *CameraState) GetForward() mgl32.Vec3 {
	return c.Transform.Forward()
}

func (c *CameraState) GetViewMatrix() mgl32.Mat4 {
	eye := c.Transform.Position
	target := eye.Add(c.GetForward())
	return mgl32.LookAtV(eye, target, c.Transform.Up())
}

func (c *CameraState) GetProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FieldOfView), c.Aspect, c.Near, c.Far)
}

// Frustum returns the camera planes with the far plane pulled in to far.
func (c *CameraState) Frustum(far float32) [6]mgl32.Vec4 {
	proj := mgl32.Perspective(mgl32.DegToRad(c.FieldOfView), c.Aspect, c.Near, far)
	return ExtractFrustum(proj.Mul4(c.GetViewMatrix()))
}

// SliceCorners returns the 8 world-space corners of the view volume between
// the near and far distances along the view axis. Near corners come first.
func (c *CameraState) SliceCorners(near, far float32) [8]mgl32.Vec3 {
	forward := c.GetForward().Normalize()
	up := c.Transform.Up().Normalize()
	right := forward.Cross(up).Normalize()
	tanHalf := float32(math.Tan(float64(mgl32.DegToRad(c.FieldOfView)) / 2))

	var corners [8]mgl32.Vec3
	for i, d := range [2]float32{near, far} {
		center := c.Transform.Position.Add(forward.Mul(d))
		h := d * tanHalf
		w := h * c.Aspect
		corners[i*4+0] = center.Sub(right.Mul(w)).Sub(up.Mul(h))
		corners[i*4+1] = center.Add(right.Mul(w)).Sub(up.Mul(h))
		corners[i*4+2] = center.Sub(right.Mul(w)).Add(up.Mul(h))
		corners[i*4+3] = center.Add(right.Mul(w)).Add(up.Mul(h))
	}
	return corners
}

// ExtractFrustum extracts the 6 planes of the frustum from the view-projection matrix.
// Returns planes in order: Left, Right, Bottom, Top, Near, Far.
// Plane is Ax + By + Cz + D = 0.
func ExtractFrustum(vp mgl32.Mat4) [6]mgl32.Vec4 {
	var planes [6]mgl32.Vec4

	row0, row1, row2, row3 := vp.Row(0), vp.Row(1), vp.Row(2), vp.Row(3)
	planes[0] = row3.Add(row0) // Left
	planes[1] = row3.Sub(row0) // Right
	planes[2] = row3.Add(row1) // Bottom
	planes[3] = row3.Sub(row1) // Top
	// OpenGL-style depth -1..1
	planes[4] = row3.Add(row2) // Near
	planes[5] = row3.Sub(row2) // Far

	for i := 0; i < 6; i++ {
		length := planes[i].Vec3().Len()
		if length > 0 {
			planes[i] = planes[i].Mul(1.0 / length)
		}
	}

	return planes
}
