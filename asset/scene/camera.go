package scene

import (
	"fmt"
	"math"

	"github.com/achilleasa/prism/types"
)

// The direction of a camera movement.
type CameraDirection uint8

const (
	Forward CameraDirection = iota
	Backward
	Left
	Right
	Up
	Down
)

const (
	// Pitch is clamped to this range (in degrees) to avoid flipping the view.
	maxPitch float32 = 89.0

	defaultNear float32 = 0.1
	defaultFar  float32 = 1000.0
)

var worldUp = types.Vec3{0, 1, 0}

// The camera type controls the scene camera. Orientation is expressed as
// yaw/pitch angles in degrees; a yaw of -90 looks down the -Z axis.
type Camera struct {
	Position types.Vec3
	Forward  types.Vec3
	Right    types.Vec3
	Up       types.Vec3
	Pitch    float32
	Yaw      float32

	ViewMat types.Mat4
	ProjMat types.Mat4

	// Vertical FOV in degrees and clip planes.
	FOV  float32
	Near float32
	Far  float32
}

// Create a camera at the origin looking down the -Z axis.
func NewCamera(fov float32) *Camera {
	c := &Camera{
		ViewMat: types.Ident4(),
		ProjMat: types.Ident4(),
		Yaw:     -90,
		FOV:     fov,
		Near:    defaultNear,
		Far:     defaultFar,
	}
	c.Update()
	return c
}

// Position the camera at eye and orient it towards look.
func (c *Camera) LookAt(eye, look types.Vec3) {
	c.Position = eye
	dir := look.Sub(eye).Normalize()
	if dir.Len() == 0 {
		c.Update()
		return
	}

	c.Pitch = float32(math.Asin(float64(dir[1])) * 180.0 / math.Pi)
	c.Yaw = float32(math.Atan2(float64(dir[2]), float64(dir[0])) * 180.0 / math.Pi)
	c.Update()
}

// Setup camera projection matrix.
func (c *Camera) SetupProjection(aspect float32) {
	c.ProjMat = types.Perspective4(c.FOV, aspect, c.Near, c.Far)
}

// Recalculate the camera basis vectors and view matrix from yaw/pitch.
func (c *Camera) Update() {
	if c.Pitch > maxPitch {
		c.Pitch = maxPitch
	} else if c.Pitch < -maxPitch {
		c.Pitch = -maxPitch
	}

	yaw := float64(c.Yaw) * math.Pi / 180.0
	pitch := float64(c.Pitch) * math.Pi / 180.0
	c.Forward = types.Vec3{
		float32(math.Cos(yaw) * math.Cos(pitch)),
		float32(math.Sin(pitch)),
		float32(math.Sin(yaw) * math.Cos(pitch)),
	}.Normalize()
	c.Right = c.Forward.Cross(worldUp).Normalize()
	c.Up = c.Right.Cross(c.Forward).Normalize()

	c.ViewMat = types.LookAtV(c.Position, c.Position.Add(c.Forward), c.Up)
}

// Move the camera along one of its basis vectors.
func (c *Camera) Move(dir CameraDirection, amount float32) {
	switch dir {
	case Forward:
		c.Position = c.Position.Add(c.Forward.Mul(amount))
	case Backward:
		c.Position = c.Position.Sub(c.Forward.Mul(amount))
	case Left:
		c.Position = c.Position.Sub(c.Right.Mul(amount))
	case Right:
		c.Position = c.Position.Add(c.Right.Mul(amount))
	case Up:
		c.Position = c.Position.Add(worldUp.Mul(amount))
	case Down:
		c.Position = c.Position.Sub(worldUp.Mul(amount))
	}
	c.Update()
}

// Apply a yaw/pitch delta (in degrees).
func (c *Camera) Rotate(deltaYaw, deltaPitch float32) {
	c.Yaw += deltaYaw
	c.Pitch += deltaPitch
	c.Update()
}

// Get the inverse view matrix.
func (c *Camera) InvViewMat() types.Mat4 {
	return c.ViewMat.Inv()
}

// Get the inverse projection matrix.
func (c *Camera) InvProjMat() types.Mat4 {
	return c.ProjMat.Inv()
}

func (c *Camera) String() string {
	return fmt.Sprintf(
		"pos: (%3.3f, %3.3f, %3.3f), yaw: %3.1f, pitch: %3.1f, fov: %3.1f",
		c.Position[0], c.Position[1], c.Position[2], c.Yaw, c.Pitch, c.FOV,
	)
}
