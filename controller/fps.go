// Package controller holds behaviours that drive transforms from input.
package controller

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"forward-engine/core"
	"forward-engine/scene"
)

// FirstPersonController flies its object with WASD (QE for down and up) and
// turns it with the mouse. Mouse movement only contributes its direction, so
// turning speed does not depend on pointer acceleration.
type FirstPersonController struct {
	scene.BaseComponent

	Input core.Input

	// MoveSpeed is in units per second.
	MoveSpeed float32
	// RotateSpeed is in radians per second.
	RotateSpeed float32
	// BoostFactor multiplies MoveSpeed while LeftShift is held.
	BoostFactor float32

	pitch float32
	yaw   float32
}

var _ scene.Behavior = (*FirstPersonController)(nil)

// MaxPitch bounds looking up and down, in radians.
const MaxPitch = 1

func NewFirstPersonController(in core.Input) *FirstPersonController {
	return &FirstPersonController{
		Input:       in,
		MoveSpeed:   1,
		RotateSpeed: math.Pi / 2,
		BoostFactor: 3,
	}
}

// Angles returns the accumulated pitch and yaw.
func (c *FirstPersonController) Angles() (pitch, yaw float32) { return c.pitch, c.yaw }

func (c *FirstPersonController) Update(dt float32) {
	tr := c.Transform()
	if c.Input == nil || !tr.Valid() {
		return
	}
	in := c.Input

	boost := float32(1)
	if in.KeyDown(core.KeyLeftShift) {
		boost = c.BoostFactor
	}

	var move mgl32.Vec3
	if in.KeyDown(core.KeyW) {
		move[2] = 1
	}
	if in.KeyDown(core.KeyS) {
		move[2] = -1
	}
	if in.KeyDown(core.KeyA) {
		move[0] = -1
	}
	if in.KeyDown(core.KeyD) {
		move[0] = 1
	}
	if in.KeyDown(core.KeyQ) {
		move[1] = -1
	}
	if in.KeyDown(core.KeyE) {
		move[1] = 1
	}

	// Walk on the horizontal plane regardless of pitch.
	forward := tr.Forward()
	forward[1] = 0
	if forward.Len() > 1e-6 {
		forward = forward.Normalize()
	}
	right := forward.Cross(mgl32.Vec3{0, 1, 0})
	if right.Len() > 1e-6 {
		right = right.Normalize()
	}

	step := right.Mul(move[0]).
		Add(forward.Mul(move[2])).
		Add(mgl32.Vec3{0, move[1], 0}).
		Mul(c.MoveSpeed * boost * dt)
	tr.SetPosition(tr.Position().Add(step))

	delta := in.MouseDelta()
	c.yaw -= c.RotateSpeed * sign(delta[0]) * dt
	c.pitch -= c.RotateSpeed * sign(delta[1]) * dt
	c.pitch = mgl32.Clamp(c.pitch, -MaxPitch, MaxPitch)

	yaw := mgl32.QuatRotate(c.yaw, mgl32.Vec3{0, 1, 0})
	pitch := mgl32.QuatRotate(c.pitch, mgl32.Vec3{1, 0, 0})
	tr.SetRotation(yaw.Mul(pitch))
}

func sign(f float32) float32 {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	}
	return 0
}
