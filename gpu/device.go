// Package gpu describes the graphics device the engine renders through.
//
// The engine never calls OpenGL directly: every GPU operation goes through a
// Device, so the shader binding layer and the render pipeline can run against
// the real GL backend (internal/opengl) or the recording fake (gpu/gputest).
package gpu

import (
	"github.com/go-gl/mathgl/mgl32"

	"forward-engine/core"
)

// Device is the set of GPU entry points the core needs.
// A Device is bound to the thread owning the GL context and is not safe for
// concurrent use.
type Device interface {
	// Shader stages and programs.
	CreateShader(stage ShaderStage) uint32
	ShaderSource(shader uint32, source string)
	// CompileShader compiles a stage and returns the driver's info log on failure.
	CompileShader(shader uint32) (ok bool, log string)
	DeleteShader(shader uint32)
	CreateProgram() uint32
	AttachShader(program, shader uint32)
	DetachShader(program, shader uint32)
	// LinkProgram links a program and returns the driver's info log on failure.
	LinkProgram(program uint32) (ok bool, log string)
	DeleteProgram(program uint32)
	// ActiveUniforms introspects the active uniforms of a linked program.
	ActiveUniforms(program uint32) []UniformInfo
	UseProgram(program uint32)

	// Uniform uploads to the program in use.
	Uniform1f(location int32, v float32)
	Uniform1i(location int32, v int32)
	Uniform2f(location int32, v mgl32.Vec2)
	Uniform3f(location int32, v mgl32.Vec3)
	Uniform4f(location int32, v mgl32.Vec4)
	UniformMatrix4f(location int32, m mgl32.Mat4)

	// Textures.
	CreateTexture(desc TextureDesc, layers [][]byte) uint32
	CreateDepthTexture(width, height int) uint32
	BindTexture(unit int, target TextureTarget, texture uint32)
	DeleteTexture(texture uint32)

	// Framebuffers. Framebuffer 0 is the default (window) framebuffer.
	CreateDepthFramebuffer(depthTexture uint32) (uint32, error)
	BindFramebuffer(fbo uint32)
	DeleteFramebuffer(fbo uint32)

	// Fixed-function state.
	SetViewport(vp Viewport)
	Viewport() Viewport
	SetClearColor(c core.Color)
	SetClearDepth(d float32)
	Clear(flags ClearFlags)
	SetCullMode(mode CullMode)
	SetDepthTest(enabled bool)

	// Geometry.
	CreateMesh(buffers MeshBuffers) MeshHandle
	DrawMesh(mesh MeshHandle)
	DeleteMesh(mesh MeshHandle)
}

// Viewport is a window-space rectangle in pixels.
type Viewport struct {
	X, Y          int32
	Width, Height int32
}

// UniformInfo describes one active uniform of a linked program.
type UniformInfo struct {
	Name     string
	Type     UniformType
	Size     int32
	Location int32
	// Raw is the backend's native type enum, kept for diagnostics.
	Raw uint32
}

// TextureDesc describes the storage of a colour texture.
type TextureDesc struct {
	Target TextureTarget
	Width  int
	Height int
	// Repeat selects REPEAT wrapping instead of CLAMP_TO_EDGE.
	Repeat bool
	// Mipmaps generates a mip chain and uses trilinear minification.
	Mipmaps bool
}

// MeshBuffers is interleaved-ready vertex data for CreateMesh.
// Every per-vertex slice is either empty or has one entry per position.
type MeshBuffers struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Tangents  []mgl32.Vec4
	Indices   []uint32
}

// MeshHandle holds the buffer objects of an uploaded mesh.
type MeshHandle struct {
	VAO        uint32
	VBO        uint32
	EBO        uint32
	IndexCount int32
}

// Valid reports whether the handle refers to uploaded buffers.
func (h MeshHandle) Valid() bool {
	return h.VAO != 0
}
