package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"forward-engine/core"
)

// ValueKind tags the payload of a Value.
type ValueKind int

const (
	KindNone ValueKind = iota
	KindFloat
	KindInt
	KindBool
	KindVec2
	KindVec3
	KindVec4
	KindColor
	KindMat4
	KindTexture
)

func (k ValueKind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindVec2:
		return "vec2"
	case KindVec3:
		return "vec3"
	case KindVec4:
		return "vec4"
	case KindColor:
		return "color"
	case KindMat4:
		return "mat4"
	case KindTexture:
		return "texture"
	}
	return "none"
}

// Value is a typed material property. Numeric payloads share one 16-float
// store; textures are referenced, not owned.
type Value struct {
	kind ValueKind
	num  [16]float32
	i    int32
	tex  *Texture
}

func FloatValue(f float32) Value { return Value{kind: KindFloat, num: [16]float32{f}} }
func IntValue(i int32) Value     { return Value{kind: KindInt, i: i} }

func BoolValue(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.i = 1
	}
	return v
}

func Vec2Value(v mgl32.Vec2) Value { return Value{kind: KindVec2, num: [16]float32{v[0], v[1]}} }
func Vec3Value(v mgl32.Vec3) Value { return Value{kind: KindVec3, num: [16]float32{v[0], v[1], v[2]}} }
func Vec4Value(v mgl32.Vec4) Value {
	return Value{kind: KindVec4, num: [16]float32{v[0], v[1], v[2], v[3]}}
}
func ColorValue(c core.Color) Value {
	return Value{kind: KindColor, num: [16]float32{c.R, c.G, c.B, c.A}}
}
func Mat4Value(m mgl32.Mat4) Value { return Value{kind: KindMat4, num: m} }
func TextureValue(t *Texture) Value {
	if t == nil {
		return Value{}
	}
	return Value{kind: KindTexture, tex: t}
}

// ValueOf converts a Go value into a Value.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case Value:
		return x, nil
	case float32:
		return FloatValue(x), nil
	case float64:
		return FloatValue(float32(x)), nil
	case int:
		return IntValue(int32(x)), nil
	case int32:
		return IntValue(x), nil
	case bool:
		return BoolValue(x), nil
	case mgl32.Vec2:
		return Vec2Value(x), nil
	case mgl32.Vec3:
		return Vec3Value(x), nil
	case mgl32.Vec4:
		return Vec4Value(x), nil
	case core.Color:
		return ColorValue(x), nil
	case mgl32.Mat4:
		return Mat4Value(x), nil
	case *Texture:
		if x == nil {
			return Value{}, fmt.Errorf("nil texture")
		}
		return TextureValue(x), nil
	}
	return Value{}, fmt.Errorf("unsupported material value type %T", v)
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) AsFloat() (float32, bool) {
	switch v.kind {
	case KindFloat:
		return v.num[0], true
	case KindInt, KindBool:
		return float32(v.i), true
	}
	return 0, false
}

func (v Value) AsInt() (int32, bool) {
	switch v.kind {
	case KindInt, KindBool:
		return v.i, true
	}
	return 0, false
}

func (v Value) AsVec2() (mgl32.Vec2, bool) {
	switch v.kind {
	case KindVec2, KindVec3, KindVec4, KindColor:
		return mgl32.Vec2{v.num[0], v.num[1]}, true
	}
	return mgl32.Vec2{}, false
}

// AsVec3 reads vec3 values, and the xyz (rgb) part of vec4 and color values.
func (v Value) AsVec3() (mgl32.Vec3, bool) {
	switch v.kind {
	case KindVec3, KindVec4, KindColor:
		return mgl32.Vec3{v.num[0], v.num[1], v.num[2]}, true
	}
	return mgl32.Vec3{}, false
}

func (v Value) AsVec4() (mgl32.Vec4, bool) {
	switch v.kind {
	case KindVec4, KindColor:
		return mgl32.Vec4{v.num[0], v.num[1], v.num[2], v.num[3]}, true
	case KindVec3:
		return mgl32.Vec4{v.num[0], v.num[1], v.num[2], 1}, true
	}
	return mgl32.Vec4{}, false
}

func (v Value) AsMat4() (mgl32.Mat4, bool) {
	if v.kind == KindMat4 {
		return v.num, true
	}
	return mgl32.Mat4{}, false
}

func (v Value) AsTexture() (*Texture, bool) {
	if v.kind == KindTexture {
		return v.tex, true
	}
	return nil, false
}
