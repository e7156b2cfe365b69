package render

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"go.uber.org/zap"

	"forward-engine/gpu"
)

var (
	// ErrNoShaderSource is returned when no stage file exists for a name.
	ErrNoShaderSource = errors.New("no shader source found")
	// ErrCompile is returned when a stage fails to compile.
	ErrCompile = errors.New("shader compile failed")
	// ErrLink is returned when the program fails to link.
	ErrLink = errors.New("shader link failed")
)

// Source is where a uniform's value comes from at bind time.
type Source int

const (
	SourceMaterial Source = iota
	SourceMatrix
	SourceEnvironment
)

func (s Source) String() string {
	switch s {
	case SourceMaterial:
		return "material"
	case SourceMatrix:
		return "matrix"
	case SourceEnvironment:
		return "environment"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// Uniform prefixes recognised by the binding layer.
const (
	PrefixMaterial = "Material"
	PrefixMatrix   = "Matrix"
	PrefixEnv      = "Env"
)

// Uniform is a classified program input.
type Uniform struct {
	Source Source
	// Key is the uniform name with its prefix stripped.
	Key      string
	Kind     MatrixKind
	Type     gpu.UniformType
	Size     int32
	Location int32
}

// Shader is a linked GPU program plus its classified uniforms. The zero
// Shader is unbuilt and binds as a no-op.
type Shader struct {
	name     string
	program  uint32
	uniforms []Uniform
}

func (s *Shader) Name() string { return s.name }

// Built reports whether the shader holds a linked program.
func (s *Shader) Built() bool { return s != nil && s.program != 0 }

// Program is the backend program handle, 0 when unbuilt.
func (s *Shader) Program() uint32 { return s.program }

func (s *Shader) Uniforms() []Uniform { return s.uniforms }

// Load compiles <name>.vert and <name>.frag from the context file system,
// links whichever stages exist and classifies the program's uniforms.
func (s *Shader) Load(ctx *Context, name string) error {
	dev := ctx.Device()
	log := ctx.Logger().With(zap.String("shader", name))

	s.Release(ctx)
	s.name = name

	var handles []uint32
	deleteAll := func() {
		for _, h := range handles {
			dev.DeleteShader(h)
		}
	}

	for _, stage := range gpu.Stages {
		file := name + "." + stage.Extension()
		src, err := fs.ReadFile(ctx.fsys, file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			deleteAll()
			return fmt.Errorf("shader %s: read %s: %w", name, file, err)
		}

		h := dev.CreateShader(stage)
		handles = append(handles, h)
		dev.ShaderSource(h, string(src))
		if ok, info := dev.CompileShader(h); !ok {
			log.Error("failed to compile shader stage",
				zap.Stringer("stage", stage), zap.String("log", info))
			deleteAll()
			return fmt.Errorf("shader %s (%s): %w: %s", name, stage, ErrCompile, info)
		}
	}

	if len(handles) == 0 {
		search := path.Join(ctx.root, name) + ".*"
		log.Error("no shader source found", zap.String("path", search))
		return fmt.Errorf("shader %s: %w (searched %s)", name, ErrNoShaderSource, search)
	}

	prog := dev.CreateProgram()
	for _, h := range handles {
		dev.AttachShader(prog, h)
	}
	ok, info := dev.LinkProgram(prog)
	for _, h := range handles {
		dev.DetachShader(prog, h)
		dev.DeleteShader(h)
	}
	if !ok {
		log.Error("failed to link program", zap.String("log", info))
		dev.DeleteProgram(prog)
		return fmt.Errorf("shader %s: %w: %s", name, ErrLink, info)
	}

	s.program = prog
	s.uniforms = classify(dev.ActiveUniforms(prog))
	return nil
}

// classify keeps the uniforms following the Material/Matrix/Env naming
// convention and drops the rest.
func classify(infos []gpu.UniformInfo) []Uniform {
	out := make([]Uniform, 0, len(infos))
	for _, info := range infos {
		u := Uniform{Type: info.Type, Size: info.Size, Location: info.Location}
		switch {
		case strings.HasPrefix(info.Name, PrefixMaterial):
			u.Source = SourceMaterial
			u.Key = strings.TrimPrefix(info.Name, PrefixMaterial)
		case strings.HasPrefix(info.Name, PrefixMatrix):
			u.Source = SourceMatrix
			u.Key = strings.TrimPrefix(info.Name, PrefixMatrix)
			u.Kind = StringToMatrixKind(u.Key)
		case strings.HasPrefix(info.Name, PrefixEnv):
			u.Source = SourceEnvironment
			u.Key = strings.TrimPrefix(info.Name, PrefixEnv)
		default:
			continue
		}
		out = append(out, u)
	}
	return out
}

// Bind makes the program current and uploads every classified uniform.
// Material uniforms are skipped when material is nil, Env uniforms when the
// context has no environment. Bind on an unbuilt shader does nothing.
func (s *Shader) Bind(ctx *Context, material *Material) {
	if !s.Built() {
		return
	}
	dev := ctx.Device()
	dev.UseProgram(s.program)

	env := ctx.Environment()
	unit := 0
	for _, u := range s.uniforms {
		switch u.Source {
		case SourceMaterial:
			if material != nil {
				s.bindValue(ctx, u, material, &unit)
			}
		case SourceEnvironment:
			if env != nil {
				s.bindValue(ctx, u, env, &unit)
			}
		case SourceMatrix:
			if u.Type != gpu.UniformMat4 {
				ctx.Logger().Warn("unsupported matrix uniform type",
					zap.String("shader", s.name),
					zap.String("uniform", PrefixMatrix+u.Key),
					zap.Stringer("type", u.Type))
				continue
			}
			dev.UniformMatrix4f(u.Location, ctx.Matrices().Get(u.Kind))
		}
	}
}

func (s *Shader) bindValue(ctx *Context, u Uniform, m *Material, unit *int) {
	v, ok := m.Get(u.Key)
	if !ok {
		return
	}
	dev := ctx.Device()

	mismatch := func() {
		ctx.Logger().Warn("material value does not match uniform type",
			zap.String("shader", s.name),
			zap.String("uniform", u.Key),
			zap.Stringer("type", u.Type),
			zap.Stringer("value", v.Kind()))
	}

	switch u.Type {
	case gpu.UniformFloat:
		if f, ok := v.AsFloat(); ok {
			dev.Uniform1f(u.Location, f)
			return
		}
	case gpu.UniformInt, gpu.UniformBool:
		if i, ok := v.AsInt(); ok {
			dev.Uniform1i(u.Location, i)
			return
		}
	case gpu.UniformVec2:
		if x, ok := v.AsVec2(); ok {
			dev.Uniform2f(u.Location, x)
			return
		}
	case gpu.UniformVec3:
		if x, ok := v.AsVec3(); ok {
			dev.Uniform3f(u.Location, x)
			return
		}
	case gpu.UniformVec4:
		if x, ok := v.AsVec4(); ok {
			dev.Uniform4f(u.Location, x)
			return
		}
	case gpu.UniformMat4:
		if x, ok := v.AsMat4(); ok {
			dev.UniformMatrix4f(u.Location, x)
			return
		}
	case gpu.UniformSampler2D, gpu.UniformSampler2DShadow, gpu.UniformSamplerCube:
		if t, ok := v.AsTexture(); ok {
			dev.BindTexture(*unit, t.Target, t.Handle)
			dev.Uniform1i(u.Location, int32(*unit))
			*unit++
			return
		}
	default:
		ctx.Logger().Warn("unsupported uniform type",
			zap.String("shader", s.name),
			zap.String("uniform", u.Key),
			zap.Stringer("type", u.Type))
		return
	}
	mismatch()
}

// Release deletes the program. The shader becomes unbuilt.
func (s *Shader) Release(ctx *Context) {
	if s.program != 0 {
		ctx.Device().DeleteProgram(s.program)
	}
	s.program = 0
	s.uniforms = nil
}
