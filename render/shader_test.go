package render

import (
	"testing"
	"testing/fstest"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"forward-engine/core"
	"forward-engine/gpu"
	"forward-engine/gpu/gputest"
)

const (
	colorVert = `#version 410 core
layout(location = 0) in vec3 inPosition;
uniform mat4 MatrixClip;
uniform mat4 MatrixWorld;
void main() { gl_Position = MatrixClip * vec4(inPosition, 1.0); }
`
	colorFrag = `#version 410 core
uniform vec4 MaterialColor;
uniform float MaterialTiling;
uniform sampler2D MaterialBaseColor;
uniform vec3 EnvFogColor;
uniform int EnvLightCount;
uniform float debugScale;
out vec4 outColor;
void main() { outColor = MaterialColor; }
`
)

func newTestContext(t *testing.T, files fstest.MapFS) (*Context, *gputest.Device, *observer.ObservedLogs) {
	t.Helper()
	obs, logs := observer.New(zapcore.DebugLevel)
	dev := gputest.New(800, 600)
	ctx := NewContext(dev, WithFS(files, "/game"), WithLogger(zap.New(obs)))
	return ctx, dev, logs
}

func src(s string) *fstest.MapFile { return &fstest.MapFile{Data: []byte(s)} }

func TestLoadClassifiesUniforms(t *testing.T) {
	ctx, _, _ := newTestContext(t, fstest.MapFS{
		"shaders/color.vert": src(colorVert),
		"shaders/color.frag": src(colorFrag),
	})

	s, err := ctx.FindShader("shaders/color")
	require.NoError(t, err)
	require.True(t, s.Built())

	byKey := map[string]Uniform{}
	for _, u := range s.Uniforms() {
		byKey[u.Key] = u
	}
	assert.Len(t, byKey, 7)
	assert.NotContains(t, byKey, "debugScale")

	assert.Equal(t, SourceMaterial, byKey["Color"].Source)
	assert.Equal(t, gpu.UniformVec4, byKey["Color"].Type)
	assert.Equal(t, SourceMatrix, byKey["Clip"].Source)
	assert.Equal(t, MatrixClip, byKey["Clip"].Kind)
	assert.Equal(t, MatrixWorld, byKey["World"].Kind)
	assert.Equal(t, SourceEnvironment, byKey["FogColor"].Source)
	assert.Equal(t, SourceEnvironment, byKey["LightCount"].Source)
}

func TestFindShaderCaches(t *testing.T) {
	ctx, dev, _ := newTestContext(t, fstest.MapFS{
		"a.frag": src(colorFrag),
	})
	s1, err := ctx.FindShader("a")
	require.NoError(t, err)
	s2, err := ctx.FindShader("a")
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Len(t, dev.CreatedPrograms, 1)

	ctx.ReleaseShaders()
	assert.False(t, s1.Built())
	assert.Equal(t, 0, dev.LivePrograms())
}

func TestLoadInvalidVertexStage(t *testing.T) {
	ctx, dev, logs := newTestContext(t, fstest.MapFS{
		"broken.vert": src("void main() {\n#error nope\n}\n"),
		"broken.frag": src(colorFrag),
	})

	s, err := ctx.FindShader("broken")
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrCompile)

	assert.Empty(t, dev.CreatedPrograms)
	require.Len(t, dev.CreatedShaders, 1)
	assert.Equal(t, dev.CreatedShaders, dev.DeletedShaders)
	assert.Equal(t, 0, dev.LiveShaders())
	assert.Equal(t, 1, logs.FilterMessage("failed to compile shader stage").Len())
}

func TestLoadInvalidFragmentStageDeletesBoth(t *testing.T) {
	ctx, dev, _ := newTestContext(t, fstest.MapFS{
		"broken.vert": src(colorVert),
		"broken.frag": src("#error nope\n"),
	})
	_, err := ctx.LoadShader("broken")
	assert.ErrorIs(t, err, ErrCompile)
	assert.Empty(t, dev.CreatedPrograms)
	assert.Len(t, dev.DeletedShaders, 2)
	assert.Equal(t, 0, dev.LiveShaders())
}

func TestLoadLinkFailure(t *testing.T) {
	ctx, dev, _ := newTestContext(t, fstest.MapFS{
		"bad.vert": src(colorVert),
		"bad.frag": src(colorFrag + "// link-error\n"),
	})
	_, err := ctx.LoadShader("bad")
	assert.ErrorIs(t, err, ErrLink)
	assert.Len(t, dev.CreatedPrograms, 1)
	assert.Equal(t, dev.CreatedPrograms, dev.DeletedPrograms)
	assert.Equal(t, 0, dev.LiveShaders())
}

func TestLoadMissingSource(t *testing.T) {
	ctx, dev, logs := newTestContext(t, fstest.MapFS{})
	_, err := ctx.FindShader("shaders/nothing")
	assert.ErrorIs(t, err, ErrNoShaderSource)
	assert.Contains(t, err.Error(), "/game/shaders/nothing.*")
	assert.Empty(t, dev.CreatedShaders)

	entries := logs.FilterMessage("no shader source found").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "/game/shaders/nothing.*", entries[0].ContextMap()["path"])
}

func TestFailedLoadIsRetried(t *testing.T) {
	files := fstest.MapFS{
		"s.frag": src("#error first attempt\n"),
	}
	ctx, _, _ := newTestContext(t, files)

	_, err := ctx.FindShader("s")
	require.Error(t, err)

	files["s.frag"] = src(colorFrag)
	s, err := ctx.FindShader("s")
	require.NoError(t, err)
	assert.True(t, s.Built())
}

func TestBindMaterialColor(t *testing.T) {
	ctx, dev, _ := newTestContext(t, fstest.MapFS{
		"c.vert": src(colorVert),
		"c.frag": src(colorFrag),
	})
	s, err := ctx.FindShader("c")
	require.NoError(t, err)

	mat := NewMaterial(s)
	for _, c := range []mgl32.Vec4{{1, 0, 0, 1}, {0.25, 0.5, 0.75, 0.5}} {
		require.NoError(t, mat.Set("Color", c))
		s.Bind(ctx, mat)

		got, ok := dev.UniformValue(s.Program(), "MaterialColor")
		require.True(t, ok)
		want, _ := mat.Get("Color")
		wantVec, _ := want.AsVec4()
		assert.Equal(t, wantVec, got)
	}

	require.NoError(t, mat.Set("Color", core.ColorYellow))
	s.Bind(ctx, mat)
	got, _ := dev.UniformValue(s.Program(), "MaterialColor")
	assert.Equal(t, core.ColorYellow.Vec4(), got)
}

func TestBindSources(t *testing.T) {
	ctx, dev, _ := newTestContext(t, fstest.MapFS{
		"c.vert": src(colorVert),
		"c.frag": src(colorFrag),
	})
	s, err := ctx.FindShader("c")
	require.NoError(t, err)

	world := mgl32.Translate3D(4, 5, 6)
	ctx.Matrices().Set(MatrixWorld, world)

	tex, err := NewTexture2D(ctx, TextureData{Width: 1, Height: 1, Pixels: []byte{1, 2, 3, 4}}, DefaultSampling)
	require.NoError(t, err)

	env := NewMaterial(nil)
	require.NoError(t, env.Set("FogColor", mgl32.Vec3{0.1, 0.2, 0.3}))
	require.NoError(t, env.Set("LightCount", 3))

	// Nil material and nil environment: only matrices are uploaded.
	s.Bind(ctx, nil)
	p := s.Program()
	_, ok := dev.UniformValue(p, "MaterialColor")
	assert.False(t, ok)
	_, ok = dev.UniformValue(p, "EnvFogColor")
	assert.False(t, ok)
	w, ok := dev.UniformValue(p, "MatrixWorld")
	require.True(t, ok)
	assert.Equal(t, world, w)
	clip, _ := dev.UniformValue(p, "MatrixClip")
	assert.Equal(t, world, clip)

	ctx.SetEnvironment(env)
	mat := NewMaterial(s)
	require.NoError(t, mat.Set("Tiling", 4.0))
	require.NoError(t, mat.Set("BaseColor", tex))
	s.Bind(ctx, mat)

	v, _ := dev.UniformValue(p, "EnvFogColor")
	assert.Equal(t, mgl32.Vec3{0.1, 0.2, 0.3}, v)
	v, _ = dev.UniformValue(p, "EnvLightCount")
	assert.Equal(t, int32(3), v)
	v, _ = dev.UniformValue(p, "MaterialTiling")
	assert.Equal(t, float32(4), v)
	v, _ = dev.UniformValue(p, "MaterialBaseColor")
	assert.Equal(t, int32(0), v)
	assert.Equal(t, gputest.TextureBinding{Target: gpu.Texture2D, Texture: tex.Handle}, dev.Units[0])

	// Color is absent from the material and keeps no value.
	_, ok = dev.UniformValue(p, "MaterialColor")
	assert.False(t, ok)
}

func TestBindWarnsOnUnsupportedBindings(t *testing.T) {
	ctx, dev, logs := newTestContext(t, fstest.MapFS{
		"w.frag": src(`uniform vec3 MatrixWorld;
uniform mat4 MatrixClip;
uniform vec4 MaterialColor;
uniform vec2 MaterialOffset;
`),
	})
	s, err := ctx.FindShader("w")
	require.NoError(t, err)

	mat := NewMaterial(s)
	require.NoError(t, mat.Set("Color", mgl32.Vec4{1, 1, 1, 1}))
	require.NoError(t, mat.Set("Offset", 2.5))
	s.Bind(ctx, mat)

	assert.Equal(t, 1, logs.FilterMessage("unsupported matrix uniform type").Len())
	assert.Equal(t, 1, logs.FilterMessage("material value does not match uniform type").Len())
	_, ok := dev.UniformValue(s.Program(), "MaterialColor")
	assert.True(t, ok, "remaining uniforms are still bound")
	_, ok = dev.UniformValue(s.Program(), "MatrixClip")
	assert.True(t, ok)
}

func TestBindUnbuiltShaderIsNoop(t *testing.T) {
	ctx, dev, _ := newTestContext(t, fstest.MapFS{})
	var s Shader
	s.Bind(ctx, NewMaterial(&s))
	assert.Zero(t, dev.Program)

	var nilShader *Shader
	assert.False(t, nilShader.Built())
	nilShader.Bind(ctx, nil)
}
