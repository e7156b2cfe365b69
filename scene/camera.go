package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"forward-engine/core"
	"forward-engine/gpu"
	"forward-engine/render"
)

// Camera renders the scene from its object's transform, looking down -Z.
type Camera struct {
	BaseComponent

	// FieldOfView is the vertical angle in radians.
	FieldOfView float32
	Near        float32
	Far         float32

	Orthographic bool
	// OrthoSize is half the vertical extent of an orthographic view.
	OrthoSize float32

	ClearColor core.Color
	ClearDepth float32
	ClearFlags gpu.ClearFlags

	// Main marks the camera whose depth feeds the environment.
	Main bool

	depth *render.RenderTarget
}

func NewCamera(fov, near, far float32) *Camera {
	return &Camera{
		FieldOfView: fov,
		Near:        near,
		Far:         far,
		OrthoSize:   5,
		ClearColor:  core.ColorBlack,
		ClearDepth:  1,
		ClearFlags:  gpu.ClearColor | gpu.ClearDepth,
	}
}

// Projection returns the projection matrix for the given aspect ratio.
func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	if c.Orthographic {
		h := c.OrthoSize
		w := h * aspect
		return mgl32.Ortho(-w, w, -h, h, c.Near, c.Far)
	}
	return mgl32.Perspective(c.FieldOfView, aspect, c.Near, c.Far)
}

// InitDepthTexture (re)allocates the camera's depth target.
func (c *Camera) InitDepthTexture(ctx *render.Context, width, height int) error {
	rt, err := render.NewDepthTarget(ctx, width, height)
	if err != nil {
		return err
	}
	c.depth.Release(ctx)
	c.depth = rt
	return nil
}

// DepthTarget is nil until InitDepthTexture succeeds.
func (c *Camera) DepthTarget() *render.RenderTarget { return c.depth }

// ZBufferParams packs the terms shaders use to linearize depth:
// (1 - far/near, far/near, x/far, y/far).
func (c *Camera) ZBufferParams() mgl32.Vec4 {
	y := c.Far / c.Near
	x := 1 - y
	return mgl32.Vec4{x, y, x / c.Far, y / c.Far}
}

// CameraParams is (near, far).
func (c *Camera) CameraParams() mgl32.Vec2 {
	return mgl32.Vec2{c.Near, c.Far}
}

func (c *Camera) Release(ctx *render.Context) {
	c.depth.Release(ctx)
	c.depth = nil
}
