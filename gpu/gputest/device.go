// Package gputest provides a recording gpu.Device for tests that run without
// a GL context.
package gputest

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"forward-engine/core"
	"forward-engine/gpu"
)

// FailMarker makes CompileShader fail when it appears in a stage's source.
const FailMarker = "#error"

// LinkFailMarker makes LinkProgram fail when it appears in any attached stage.
const LinkFailMarker = "// link-error"

var glslTypes = map[string]gpu.UniformType{
	"float":           gpu.UniformFloat,
	"int":             gpu.UniformInt,
	"bool":            gpu.UniformBool,
	"vec2":            gpu.UniformVec2,
	"vec3":            gpu.UniformVec3,
	"vec4":            gpu.UniformVec4,
	"mat4":            gpu.UniformMat4,
	"sampler2D":       gpu.UniformSampler2D,
	"sampler2DShadow": gpu.UniformSampler2DShadow,
	"samplerCube":     gpu.UniformSamplerCube,
}

var (
	uniformDecl = regexp.MustCompile(`(?m)^\s*uniform\s+(\w+)\s+(\w+)\s*(?:\[(\w+)\])?\s*;`)
	defineDecl  = regexp.MustCompile(`(?m)^\s*#define\s+(\w+)\s+(\d+)\s*$`)
	structDecl  = regexp.MustCompile(`(?s)struct\s+(\w+)\s*\{(.*?)\}\s*;`)
	memberDecl  = regexp.MustCompile(`(\w+)\s+(\w+)\s*;`)
)

// Draw is one recorded DrawMesh call.
type Draw struct {
	Mesh        gpu.MeshHandle
	Program     uint32
	Framebuffer uint32
	Cull        gpu.CullMode
	Viewport    gpu.Viewport
}

// ClearCall is one recorded Clear call.
type ClearCall struct {
	Flags       gpu.ClearFlags
	Framebuffer uint32
	Color       core.Color
	Depth       float32
}

// TextureBinding is the texture bound to a unit.
type TextureBinding struct {
	Target  gpu.TextureTarget
	Texture uint32
}

type shaderObj struct {
	stage  gpu.ShaderStage
	source string
}

type programObj struct {
	attached map[uint32]bool
	sources  []string
	uniforms []gpu.UniformInfo
	values   map[int32]any
}

// Device records every call. Object handles are allocated from one counter
// starting at 1, so 0 always means "none".
type Device struct {
	next uint32

	shaders  map[uint32]*shaderObj
	programs map[uint32]*programObj

	// CreatedShaders and DeletedShaders record stage handle lifetimes.
	CreatedShaders  []uint32
	DeletedShaders  []uint32
	CreatedPrograms []uint32
	DeletedPrograms []uint32

	Program     uint32
	Framebuffer uint32
	Cull        gpu.CullMode
	DepthTest   bool
	ClearColor  core.Color
	ClearDepth  float32
	VP          gpu.Viewport

	Textures      map[uint32]gpu.TextureDesc
	DepthTextures map[uint32][2]int
	Framebuffers  map[uint32]uint32
	Units         map[int]TextureBinding
	Meshes        map[uint32]gpu.MeshBuffers

	Draws  []Draw
	Clears []ClearCall
	// Viewports records every SetViewport call in order.
	Viewports []gpu.Viewport
	// CullModes records every SetCullMode call in order.
	CullModes []gpu.CullMode
}

var _ gpu.Device = (*Device)(nil)

// New returns a Device with a width×height default viewport.
func New(width, height int32) *Device {
	return &Device{
		shaders:       map[uint32]*shaderObj{},
		programs:      map[uint32]*programObj{},
		Textures:      map[uint32]gpu.TextureDesc{},
		DepthTextures: map[uint32][2]int{},
		Framebuffers:  map[uint32]uint32{},
		Units:         map[int]TextureBinding{},
		Meshes:        map[uint32]gpu.MeshBuffers{},
		VP:            gpu.Viewport{Width: width, Height: height},
		Cull:          gpu.CullBack,
		DepthTest:     true,
		ClearDepth:    1,
	}
}

func (d *Device) alloc() uint32 {
	d.next++
	return d.next
}

// ResetFrame drops the per-frame recordings (draws, clears, viewport and
// cull history) and keeps object state.
func (d *Device) ResetFrame() {
	d.Draws = nil
	d.Clears = nil
	d.Viewports = nil
	d.CullModes = nil
}

func (d *Device) CreateShader(stage gpu.ShaderStage) uint32 {
	id := d.alloc()
	d.shaders[id] = &shaderObj{stage: stage}
	d.CreatedShaders = append(d.CreatedShaders, id)
	return id
}

func (d *Device) ShaderSource(shader uint32, source string) {
	if s, ok := d.shaders[shader]; ok {
		s.source = source
	}
}

func (d *Device) CompileShader(shader uint32) (bool, string) {
	s, ok := d.shaders[shader]
	if !ok {
		return false, "invalid shader object"
	}
	if i := strings.Index(s.source, FailMarker); i >= 0 {
		line := strings.Count(s.source[:i], "\n") + 1
		return false, fmt.Sprintf("0:%d: error: %s shader rejected", line, s.stage)
	}
	return true, ""
}

func (d *Device) DeleteShader(shader uint32) {
	delete(d.shaders, shader)
	d.DeletedShaders = append(d.DeletedShaders, shader)
}

func (d *Device) CreateProgram() uint32 {
	id := d.alloc()
	d.programs[id] = &programObj{attached: map[uint32]bool{}, values: map[int32]any{}}
	d.CreatedPrograms = append(d.CreatedPrograms, id)
	return id
}

func (d *Device) AttachShader(program, shader uint32) {
	p, ok := d.programs[program]
	if !ok {
		return
	}
	p.attached[shader] = true
	if s, ok := d.shaders[shader]; ok {
		p.sources = append(p.sources, s.source)
	}
}

func (d *Device) DetachShader(program, shader uint32) {
	if p, ok := d.programs[program]; ok {
		delete(p.attached, shader)
	}
}

func (d *Device) LinkProgram(program uint32) (bool, string) {
	p, ok := d.programs[program]
	if !ok {
		return false, "invalid program object"
	}
	for _, src := range p.sources {
		if strings.Contains(src, LinkFailMarker) {
			return false, "error: unresolved symbols between stages"
		}
	}
	p.uniforms = parseUniforms(p.sources)
	return true, ""
}

func (d *Device) DeleteProgram(program uint32) {
	delete(d.programs, program)
	d.DeletedPrograms = append(d.DeletedPrograms, program)
	if d.Program == program {
		d.Program = 0
	}
}

func (d *Device) ActiveUniforms(program uint32) []gpu.UniformInfo {
	p, ok := d.programs[program]
	if !ok {
		return nil
	}
	return append([]gpu.UniformInfo(nil), p.uniforms...)
}

func (d *Device) UseProgram(program uint32) { d.Program = program }

// parseUniforms extracts uniform declarations from GLSL sources. Struct
// arrays are expanded to one entry per member per element, the way drivers
// report them. Array sizes may name an integer #define. Locations are
// assigned in name order from 0.
func parseUniforms(sources []string) []gpu.UniformInfo {
	structs := map[string][][2]string{}
	defines := map[string]string{}
	seen := map[string]gpu.UniformInfo{}
	for _, src := range sources {
		for _, m := range defineDecl.FindAllStringSubmatch(src, -1) {
			defines[m[1]] = m[2]
		}
		for _, m := range structDecl.FindAllStringSubmatch(src, -1) {
			var members [][2]string
			for _, mm := range memberDecl.FindAllStringSubmatch(m[2], -1) {
				members = append(members, [2]string{mm[1], mm[2]})
			}
			structs[m[1]] = members
		}
	}
	for _, src := range sources {
		for _, m := range uniformDecl.FindAllStringSubmatch(src, -1) {
			typ, name := m[1], m[2]
			size := int32(1)
			if m[3] != "" {
				count := m[3]
				if v, ok := defines[count]; ok {
					count = v
				}
				n, _ := strconv.Atoi(count)
				size = int32(n)
			}
			if members, ok := structs[typ]; ok {
				for i := int32(0); i < size; i++ {
					for _, mem := range members {
						full := fmt.Sprintf("%s[%d].%s", name, i, mem[1])
						if size == 1 && m[3] == "" {
							full = name + "." + mem[1]
						}
						seen[full] = gpu.UniformInfo{Name: full, Type: glslTypes[mem[0]], Size: 1}
					}
				}
				continue
			}
			seen[name] = gpu.UniformInfo{Name: name, Type: glslTypes[typ], Size: size}
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]gpu.UniformInfo, 0, len(names))
	for i, n := range names {
		u := seen[n]
		u.Location = int32(i)
		out = append(out, u)
	}
	return out
}

// UniformValue returns the last value uploaded to the named uniform of
// program.
func (d *Device) UniformValue(program uint32, name string) (any, bool) {
	p, ok := d.programs[program]
	if !ok {
		return nil, false
	}
	for _, u := range p.uniforms {
		if u.Name == name {
			v, ok := p.values[u.Location]
			return v, ok
		}
	}
	return nil, false
}

// Uniforms returns the introspected uniforms of program.
func (d *Device) Uniforms(program uint32) []gpu.UniformInfo {
	return d.ActiveUniforms(program)
}

func (d *Device) set(location int32, v any) {
	if location < 0 {
		return
	}
	if p, ok := d.programs[d.Program]; ok {
		p.values[location] = v
	}
}

func (d *Device) Uniform1f(location int32, v float32)          { d.set(location, v) }
func (d *Device) Uniform1i(location int32, v int32)            { d.set(location, v) }
func (d *Device) Uniform2f(location int32, v mgl32.Vec2)       { d.set(location, v) }
func (d *Device) Uniform3f(location int32, v mgl32.Vec3)       { d.set(location, v) }
func (d *Device) Uniform4f(location int32, v mgl32.Vec4)       { d.set(location, v) }
func (d *Device) UniformMatrix4f(location int32, m mgl32.Mat4) { d.set(location, m) }

func (d *Device) CreateTexture(desc gpu.TextureDesc, layers [][]byte) uint32 {
	id := d.alloc()
	d.Textures[id] = desc
	return id
}

func (d *Device) CreateDepthTexture(width, height int) uint32 {
	id := d.alloc()
	d.DepthTextures[id] = [2]int{width, height}
	return id
}

func (d *Device) BindTexture(unit int, target gpu.TextureTarget, texture uint32) {
	d.Units[unit] = TextureBinding{Target: target, Texture: texture}
}

func (d *Device) DeleteTexture(texture uint32) {
	delete(d.Textures, texture)
	delete(d.DepthTextures, texture)
}

func (d *Device) CreateDepthFramebuffer(depthTexture uint32) (uint32, error) {
	if _, ok := d.DepthTextures[depthTexture]; !ok {
		return 0, fmt.Errorf("depth FBO incomplete: texture %d is not a depth texture", depthTexture)
	}
	id := d.alloc()
	d.Framebuffers[id] = depthTexture
	return id, nil
}

func (d *Device) BindFramebuffer(fbo uint32) { d.Framebuffer = fbo }

func (d *Device) DeleteFramebuffer(fbo uint32) { delete(d.Framebuffers, fbo) }

func (d *Device) SetViewport(vp gpu.Viewport) {
	d.VP = vp
	d.Viewports = append(d.Viewports, vp)
}

func (d *Device) Viewport() gpu.Viewport { return d.VP }

func (d *Device) SetClearColor(c core.Color) { d.ClearColor = c }

func (d *Device) SetClearDepth(depth float32) { d.ClearDepth = depth }

func (d *Device) Clear(flags gpu.ClearFlags) {
	d.Clears = append(d.Clears, ClearCall{
		Flags:       flags,
		Framebuffer: d.Framebuffer,
		Color:       d.ClearColor,
		Depth:       d.ClearDepth,
	})
}

func (d *Device) SetCullMode(mode gpu.CullMode) {
	d.Cull = mode
	d.CullModes = append(d.CullModes, mode)
}

func (d *Device) SetDepthTest(enabled bool) { d.DepthTest = enabled }

func (d *Device) CreateMesh(b gpu.MeshBuffers) gpu.MeshHandle {
	if len(b.Positions) == 0 {
		return gpu.MeshHandle{}
	}
	h := gpu.MeshHandle{VAO: d.alloc(), VBO: d.alloc(), IndexCount: int32(len(b.Indices))}
	if len(b.Indices) > 0 {
		h.EBO = d.alloc()
	}
	d.Meshes[h.VAO] = b
	return h
}

func (d *Device) DrawMesh(h gpu.MeshHandle) {
	d.Draws = append(d.Draws, Draw{
		Mesh:        h,
		Program:     d.Program,
		Framebuffer: d.Framebuffer,
		Cull:        d.Cull,
		Viewport:    d.VP,
	})
}

func (d *Device) DeleteMesh(h gpu.MeshHandle) { delete(d.Meshes, h.VAO) }

// DrawsTo returns the draws issued while fbo was bound.
func (d *Device) DrawsTo(fbo uint32) []Draw {
	var out []Draw
	for _, dr := range d.Draws {
		if dr.Framebuffer == fbo {
			out = append(out, dr)
		}
	}
	return out
}

// LiveShaders is the number of stage handles not yet deleted.
func (d *Device) LiveShaders() int { return len(d.shaders) }

// LivePrograms is the number of programs not yet deleted.
func (d *Device) LivePrograms() int { return len(d.programs) }
