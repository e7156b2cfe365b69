package render

import (
	"fmt"

	"forward-engine/gpu"
)

// RenderTarget is a depth-only off-screen framebuffer, used for camera depth
// pre-passes and shadow maps.
type RenderTarget struct {
	fbo   uint32
	depth *Texture
	saved gpu.Viewport
	bound bool
}

func NewDepthTarget(ctx *Context, width, height int) (*RenderTarget, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid render target size %dx%d", width, height)
	}
	depth := NewDepthTexture(ctx, width, height)
	fbo, err := ctx.Device().CreateDepthFramebuffer(depth.Handle)
	if err != nil {
		depth.Release(ctx)
		return nil, err
	}
	return &RenderTarget{fbo: fbo, depth: depth}, nil
}

func (rt *RenderTarget) DepthTexture() *Texture { return rt.depth }
func (rt *RenderTarget) Width() int             { return rt.depth.Width }
func (rt *RenderTarget) Height() int            { return rt.depth.Height }

// Set redirects rendering into the target and sizes the viewport to it. The
// previous viewport is restored by Unset.
func (rt *RenderTarget) Set(ctx *Context) {
	dev := ctx.Device()
	if !rt.bound {
		rt.saved = dev.Viewport()
		rt.bound = true
	}
	dev.BindFramebuffer(rt.fbo)
	dev.SetViewport(gpu.Viewport{Width: int32(rt.depth.Width), Height: int32(rt.depth.Height)})
}

// Unset restores the default framebuffer and the viewport saved by Set.
func (rt *RenderTarget) Unset(ctx *Context) {
	dev := ctx.Device()
	dev.BindFramebuffer(0)
	if rt.bound {
		dev.SetViewport(rt.saved)
		rt.bound = false
	}
}

func (rt *RenderTarget) Release(ctx *Context) {
	if rt == nil {
		return
	}
	if rt.fbo != 0 {
		ctx.Device().DeleteFramebuffer(rt.fbo)
		rt.fbo = 0
	}
	rt.depth.Release(ctx)
}
