// Package opengl implements gpu.Device on an OpenGL 4.1 core context.
package opengl

import (
	"fmt"
	"strings"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"forward-engine/core"
	"forward-engine/gpu"
)

// Device issues GL calls on the thread owning the current context.
type Device struct {
	log *zap.Logger
}

var _ gpu.Device = (*Device)(nil)

// New loads the GL entry points for the current context and sets the
// default depth state.
func New(log *zap.Logger) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("opengl context",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	return &Device{log: log}, nil
}

// ── Shaders ───────────────────────────────────────────────────────────────────

var stageEnums = map[gpu.ShaderStage]uint32{
	gpu.StageVertex:   gl.VERTEX_SHADER,
	gpu.StageFragment: gl.FRAGMENT_SHADER,
}

func (d *Device) CreateShader(stage gpu.ShaderStage) uint32 {
	return gl.CreateShader(stageEnums[stage])
}

func (d *Device) ShaderSource(shader uint32, source string) {
	csrc, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
}

func (d *Device) CompileShader(shader uint32) (bool, string) {
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.TRUE {
		return true, ""
	}
	var logLen int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
	log := strings.Repeat("\x00", int(logLen+1))
	gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
	return false, strings.TrimRight(log, "\x00")
}

func (d *Device) DeleteShader(shader uint32) { gl.DeleteShader(shader) }

func (d *Device) CreateProgram() uint32 { return gl.CreateProgram() }

func (d *Device) AttachShader(program, shader uint32) { gl.AttachShader(program, shader) }

func (d *Device) DetachShader(program, shader uint32) { gl.DetachShader(program, shader) }

func (d *Device) LinkProgram(program uint32) (bool, string) {
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.TRUE {
		return true, ""
	}
	var logLen int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
	log := strings.Repeat("\x00", int(logLen+1))
	gl.GetProgramInfoLog(program, logLen, nil, gl.Str(log))
	return false, strings.TrimRight(log, "\x00")
}

func (d *Device) DeleteProgram(program uint32) { gl.DeleteProgram(program) }

var uniformTypes = map[uint32]gpu.UniformType{
	gl.FLOAT:             gpu.UniformFloat,
	gl.INT:               gpu.UniformInt,
	gl.BOOL:              gpu.UniformBool,
	gl.FLOAT_VEC2:        gpu.UniformVec2,
	gl.FLOAT_VEC3:        gpu.UniformVec3,
	gl.FLOAT_VEC4:        gpu.UniformVec4,
	gl.FLOAT_MAT4:        gpu.UniformMat4,
	gl.SAMPLER_2D:        gpu.UniformSampler2D,
	gl.SAMPLER_2D_SHADOW: gpu.UniformSampler2DShadow,
	gl.SAMPLER_CUBE:      gpu.UniformSamplerCube,
}

// ActiveUniforms lists every active uniform of a linked program. Plain arrays
// are reported by their base name; struct array members keep their full path
// (e.g. "EnvLights[3].color").
func (d *Device) ActiveUniforms(program uint32) []gpu.UniformInfo {
	var count, maxLen int32
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORMS, &count)
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORM_MAX_LENGTH, &maxLen)
	if maxLen <= 0 {
		maxLen = 256
	}

	out := make([]gpu.UniformInfo, 0, count)
	buf := make([]uint8, maxLen+1)
	for i := uint32(0); i < uint32(count); i++ {
		var length, size int32
		var xtype uint32
		gl.GetActiveUniform(program, i, maxLen, &length, &size, &xtype, &buf[0])
		name := string(buf[:length])
		if size > 1 {
			name = strings.TrimSuffix(name, "[0]")
		}
		loc := gl.GetUniformLocation(program, gl.Str(name+"\x00"))
		out = append(out, gpu.UniformInfo{
			Name:     name,
			Type:     uniformTypes[xtype],
			Size:     size,
			Location: loc,
			Raw:      xtype,
		})
	}
	return out
}

func (d *Device) UseProgram(program uint32) { gl.UseProgram(program) }

// ── Uniforms ─────────────────────────────────────────────────────────────────

func (d *Device) Uniform1f(location int32, v float32) { gl.Uniform1f(location, v) }
func (d *Device) Uniform1i(location int32, v int32)   { gl.Uniform1i(location, v) }
func (d *Device) Uniform2f(location int32, v mgl32.Vec2) {
	gl.Uniform2f(location, v[0], v[1])
}
func (d *Device) Uniform3f(location int32, v mgl32.Vec3) {
	gl.Uniform3f(location, v[0], v[1], v[2])
}
func (d *Device) Uniform4f(location int32, v mgl32.Vec4) {
	gl.Uniform4f(location, v[0], v[1], v[2], v[3])
}

// UniformMatrix4f uploads m as stored: mgl32 matrices are column-major like GL.
func (d *Device) UniformMatrix4f(location int32, m mgl32.Mat4) {
	gl.UniformMatrix4fv(location, 1, false, &m[0])
}

// ── Textures ─────────────────────────────────────────────────────────────────

func glTarget(t gpu.TextureTarget) uint32 {
	if t == gpu.TextureCube {
		return gl.TEXTURE_CUBE_MAP
	}
	return gl.TEXTURE_2D
}

// CreateTexture uploads RGBA8 layers: one for a 2D texture, six faces
// (+X, -X, +Y, -Y, +Z, -Z) for a cube map.
func (d *Device) CreateTexture(desc gpu.TextureDesc, layers [][]byte) uint32 {
	target := glTarget(desc.Target)

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(target, id)

	wrap := int32(gl.CLAMP_TO_EDGE)
	if desc.Repeat {
		wrap = gl.REPEAT
	}
	gl.TexParameteri(target, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(target, gl.TEXTURE_WRAP_T, wrap)
	if target == gl.TEXTURE_CUBE_MAP {
		gl.TexParameteri(target, gl.TEXTURE_WRAP_R, wrap)
	}
	minFilter := int32(gl.LINEAR)
	if desc.Mipmaps {
		minFilter = gl.LINEAR_MIPMAP_LINEAR
	}
	gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	upload := func(face uint32, px []byte) {
		var ptr unsafe.Pointer
		if len(px) > 0 {
			ptr = unsafe.Pointer(&px[0])
		}
		gl.TexImage2D(face, 0, gl.RGBA8, int32(desc.Width), int32(desc.Height), 0,
			gl.RGBA, gl.UNSIGNED_BYTE, ptr)
	}
	if target == gl.TEXTURE_CUBE_MAP {
		for i := 0; i < 6; i++ {
			var px []byte
			if i < len(layers) {
				px = layers[i]
			}
			upload(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(i), px)
		}
	} else {
		var px []byte
		if len(layers) > 0 {
			px = layers[0]
		}
		upload(gl.TEXTURE_2D, px)
	}
	if desc.Mipmaps {
		gl.GenerateMipmap(target)
	}

	gl.BindTexture(target, 0)
	return id
}

// CreateDepthTexture allocates a 32-bit float depth texture. Samples outside
// the texture read as the far plane.
func (d *Device) CreateDepthTexture(width, height int) uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT32F,
		int32(width), int32(height), 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
	border := [4]float32{1, 1, 1, 1}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return id
}

func (d *Device) BindTexture(unit int, target gpu.TextureTarget, texture uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(glTarget(target), texture)
}

func (d *Device) DeleteTexture(texture uint32) {
	if texture != 0 {
		gl.DeleteTextures(1, &texture)
	}
}

// ── Framebuffers ─────────────────────────────────────────────────────────────

// CreateDepthFramebuffer builds a depth-only FBO around depthTexture.
func (d *Device) CreateDepthFramebuffer(depthTexture uint32) (uint32, error) {
	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, depthTexture, 0)
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &fbo)
		return 0, fmt.Errorf("depth FBO incomplete: status=0x%X", status)
	}
	return fbo, nil
}

func (d *Device) BindFramebuffer(fbo uint32) { gl.BindFramebuffer(gl.FRAMEBUFFER, fbo) }

func (d *Device) DeleteFramebuffer(fbo uint32) {
	if fbo != 0 {
		gl.DeleteFramebuffers(1, &fbo)
	}
}

// ── State ────────────────────────────────────────────────────────────────────

func (d *Device) SetViewport(vp gpu.Viewport) {
	gl.Viewport(vp.X, vp.Y, vp.Width, vp.Height)
}

func (d *Device) Viewport() gpu.Viewport {
	var v [4]int32
	gl.GetIntegerv(gl.VIEWPORT, &v[0])
	return gpu.Viewport{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
}

func (d *Device) SetClearColor(c core.Color) { gl.ClearColor(c.R, c.G, c.B, c.A) }

func (d *Device) SetClearDepth(depth float32) { gl.ClearDepth(float64(depth)) }

func (d *Device) Clear(flags gpu.ClearFlags) {
	var mask uint32
	if flags&gpu.ClearColor != 0 {
		mask |= gl.COLOR_BUFFER_BIT
	}
	if flags&gpu.ClearDepth != 0 {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if mask != 0 {
		gl.Clear(mask)
	}
}

func (d *Device) SetCullMode(mode gpu.CullMode) {
	switch mode {
	case gpu.CullNone:
		gl.Disable(gl.CULL_FACE)
	case gpu.CullFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
}

func (d *Device) SetDepthTest(enabled bool) {
	if enabled {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
}

// ── Geometry ─────────────────────────────────────────────────────────────────

// vertex is the interleaved layout bound to attribute locations 0..3.
type vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	Tangent  mgl32.Vec4
}

func interleave(b gpu.MeshBuffers) []vertex {
	verts := make([]vertex, len(b.Positions))
	for i, p := range b.Positions {
		verts[i].Position = p
		if i < len(b.Normals) {
			verts[i].Normal = b.Normals[i]
		}
		if i < len(b.UVs) {
			verts[i].UV = b.UVs[i]
		}
		if i < len(b.Tangents) {
			verts[i].Tangent = b.Tangents[i]
		}
	}
	return verts
}

func (d *Device) CreateMesh(b gpu.MeshBuffers) gpu.MeshHandle {
	if len(b.Positions) == 0 {
		return gpu.MeshHandle{}
	}
	verts := interleave(b)
	stride := int32(unsafe.Sizeof(vertex{}))

	h := gpu.MeshHandle{IndexCount: int32(len(b.Indices))}
	gl.GenVertexArrays(1, &h.VAO)
	gl.GenBuffers(1, &h.VBO)
	gl.BindVertexArray(h.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, h.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*int(stride), gl.Ptr(verts), gl.STATIC_DRAW)

	var v vertex
	attribs := []struct {
		size int32
		off  uintptr
	}{
		{3, unsafe.Offsetof(v.Position)},
		{3, unsafe.Offsetof(v.Normal)},
		{2, unsafe.Offsetof(v.UV)},
		{4, unsafe.Offsetof(v.Tangent)},
	}
	for i, a := range attribs {
		gl.EnableVertexAttribArray(uint32(i))
		gl.VertexAttribPointer(uint32(i), a.size, gl.FLOAT, false, stride, gl.PtrOffset(int(a.off)))
	}

	if len(b.Indices) > 0 {
		gl.GenBuffers(1, &h.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, h.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(b.Indices)*4, gl.Ptr(b.Indices), gl.STATIC_DRAW)
	} else {
		h.IndexCount = int32(len(verts))
	}

	gl.BindVertexArray(0)
	return h
}

func (d *Device) DrawMesh(h gpu.MeshHandle) {
	if !h.Valid() {
		return
	}
	gl.BindVertexArray(h.VAO)
	if h.EBO != 0 {
		gl.DrawElements(gl.TRIANGLES, h.IndexCount, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, h.IndexCount)
	}
	gl.BindVertexArray(0)
}

func (d *Device) DeleteMesh(h gpu.MeshHandle) {
	if h.EBO != 0 {
		gl.DeleteBuffers(1, &h.EBO)
	}
	if h.VBO != 0 {
		gl.DeleteBuffers(1, &h.VBO)
	}
	if h.VAO != 0 {
		gl.DeleteVertexArrays(1, &h.VAO)
	}
}
