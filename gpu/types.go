package gpu

import "fmt"

// ShaderStage identifies a programmable pipeline stage.
type ShaderStage int

const (
	StageVertex ShaderStage = iota
	StageFragment
	stageCount
)

// Stages lists the stages in compile order.
var Stages = [stageCount]ShaderStage{StageVertex, StageFragment}

// Extension is the source file extension for the stage.
func (s ShaderStage) Extension() string {
	switch s {
	case StageVertex:
		return "vert"
	case StageFragment:
		return "frag"
	}
	return ""
}

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	}
	return fmt.Sprintf("ShaderStage(%d)", int(s))
}

// UniformType is the GPU data type of a uniform.
type UniformType int

const (
	UniformUnknown UniformType = iota
	UniformFloat
	UniformInt
	UniformBool
	UniformVec2
	UniformVec3
	UniformVec4
	UniformMat4
	UniformSampler2D
	UniformSampler2DShadow
	UniformSamplerCube
)

var uniformTypeNames = map[UniformType]string{
	UniformUnknown:         "unknown",
	UniformFloat:           "float",
	UniformInt:             "int",
	UniformBool:            "bool",
	UniformVec2:            "vec2",
	UniformVec3:            "vec3",
	UniformVec4:            "vec4",
	UniformMat4:            "mat4",
	UniformSampler2D:       "sampler2D",
	UniformSampler2DShadow: "sampler2DShadow",
	UniformSamplerCube:     "samplerCube",
}

func (t UniformType) String() string {
	if n, ok := uniformTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("UniformType(%d)", int(t))
}

// IsSampler reports whether the uniform is bound through a texture unit.
func (t UniformType) IsSampler() bool {
	return t == UniformSampler2D || t == UniformSampler2DShadow || t == UniformSamplerCube
}

// TextureTarget is the binding point of a texture.
type TextureTarget int

const (
	Texture2D TextureTarget = iota
	TextureCube
)

func (t TextureTarget) String() string {
	if t == TextureCube {
		return "cube"
	}
	return "2d"
}

// CullMode selects which faces are discarded by rasterization.
type CullMode int

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// ClearFlags selects the buffers cleared by Device.Clear.
type ClearFlags uint8

const (
	ClearColor ClearFlags = 1 << iota
	ClearDepth
)
