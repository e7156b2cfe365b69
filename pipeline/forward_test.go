package pipeline

import (
	"math"
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
	"forward-engine/primitives"
	"forward-engine/render"
	"forward-engine/scene"
)

const litFrag = `#version 410 core
struct Light {
	int type;
	vec3 position;
	vec3 direction;
	vec4 color;
	float intensity;
	vec4 spot;
	float range;
	bool shadowmapEnable;
	sampler2D shadowmap;
	mat4 shadowMatrix;
};
uniform Light EnvLights[8];
uniform int EnvLightCount;
uniform sampler2D EnvDepth;
uniform vec4 EnvZBufferParams;
uniform vec4 MaterialColor;
out vec4 outColor;
void main() { outColor = MaterialColor; }
`

var shaderFiles = fstest.MapFS{
	"shaders/std_shadowmap.vert": {Data: []byte("uniform mat4 MatrixClip;\nuniform mat4 MatrixWorld;\nvoid main() {}\n")},
	"shaders/std_shadowmap.frag": {Data: []byte("void main() {}\n")},
	"shaders/lit.vert":           {Data: []byte("uniform mat4 MatrixClip;\nuniform mat4 MatrixWorld;\nvoid main() {}\n")},
	"shaders/lit.frag":           {Data: []byte(litFrag)},
}

type fixture struct {
	ctx   *render.Context
	dev   *gputest.Device
	logs  *observer.ObservedLogs
	scene *scene.Scene
	lit   *render.Shader
	cam   *scene.Camera
}

func newFixture(t *testing.T, withCamera bool) *fixture {
	t.Helper()
	obs, logs := observer.New(zapcore.DebugLevel)
	dev := gputest.New(1024, 768)
	ctx := render.NewContext(dev, render.WithFS(shaderFiles, "/game"), render.WithLogger(zap.New(obs)))
	lit, err := ctx.FindShader("shaders/lit")
	require.NoError(t, err)

	s := scene.New()
	f := &fixture{ctx: ctx, dev: dev, logs: logs, scene: s, lit: lit}

	if withCamera {
		g := s.NewGameObject("camera")
		g.Transform().SetPosition(mgl32.Vec3{0, 0, 5})
		f.cam = scene.NewCamera(mgl32.DegToRad(60), 0.1, 100)
		f.cam.ClearColor = core.ColorDarkCyan
		g.AddComponent(f.cam)
	}

	mat := render.NewMaterial(lit)
	require.NoError(t, mat.Set("Color", core.ColorGreen))
	cube := s.NewGameObject("cube")
	cube.AddComponent(scene.NewMeshFilter(render.NewMesh("cube", primitives.Cube(1))))
	cube.AddComponent(scene.NewMeshRenderer(mat))
	return f
}

func (f *fixture) addLight(typ scene.LightType, shadowSize int) *scene.Light {
	g := f.scene.NewGameObject("light")
	g.Transform().SetPosition(mgl32.Vec3{0, 10, 0})
	g.Transform().LookAt(mgl32.Vec3{0.1, 0, 0}, mgl32.Vec3{0, 1, 0})
	l := scene.NewLight(typ)
	if shadowSize > 0 {
		l.SetShadow(true, shadowSize)
	}
	g.AddComponent(l)
	return l
}

func envValue(t *testing.T, s *scene.Scene, key string) render.Value {
	t.Helper()
	v, ok := s.Environment().Get(key)
	require.True(t, ok, key)
	return v
}

func TestRenderNilScene(t *testing.T) {
	f := newFixture(t, true)
	p := New(f.ctx, Options{Width: 320, Height: 240})
	assert.NoError(t, p.Render(nil))
	assert.Empty(t, f.dev.Draws)
	assert.Empty(t, f.dev.Clears)
}

func TestRenderPasses(t *testing.T) {
	f := newFixture(t, true)
	p := New(f.ctx, Options{Width: 320, Height: 240})
	require.NoError(t, p.Render(f.scene))

	st := p.Stats()
	assert.Equal(t, Stats{Cameras: 1, DepthDraws: 1, ForwardDraws: 1}, st)

	rt := f.cam.DepthTarget()
	require.NotNil(t, rt)
	assert.Equal(t, 320, rt.Width())
	assert.Equal(t, 240, rt.Height())

	require.Len(t, f.dev.Draws, 2)
	depth, forward := f.dev.Draws[0], f.dev.Draws[1]
	assert.NotZero(t, depth.Framebuffer)
	assert.NotEqual(t, f.lit.Program(), depth.Program)
	assert.Equal(t, gpu.Viewport{Width: 320, Height: 240}, depth.Viewport)
	assert.Zero(t, forward.Framebuffer)
	assert.Equal(t, f.lit.Program(), forward.Program)
	assert.Equal(t, gpu.CullBack, forward.Cull)

	assert.Equal(t, gpu.Viewport{Width: 320, Height: 240}, f.dev.Viewport())
	assert.Zero(t, f.dev.Framebuffer)

	require.Len(t, f.dev.Clears, 2)
	assert.Equal(t, gpu.ClearDepth, f.dev.Clears[0].Flags)
	assert.Equal(t, depth.Framebuffer, f.dev.Clears[0].Framebuffer)
	assert.Equal(t, gpu.ClearColor|gpu.ClearDepth, f.dev.Clears[1].Flags)
	assert.Equal(t, core.ColorDarkCyan, f.dev.Clears[1].Color)

	tex, ok := envValue(t, f.scene, "Depth").AsTexture()
	require.True(t, ok)
	assert.Same(t, rt.DepthTexture(), tex)

	zb, _ := f.dev.UniformValue(f.lit.Program(), "EnvZBufferParams")
	assert.Equal(t, f.cam.ZBufferParams(), zb)
	world, _ := f.dev.UniformValue(f.lit.Program(), "MatrixWorld")
	assert.Equal(t, mgl32.Ident4(), world)
}

func TestDefaultShadowmaps(t *testing.T) {
	f := newFixture(t, true)
	p := New(f.ctx, Options{Width: 320, Height: 240})
	require.NoError(t, p.Render(f.scene))

	n, _ := envValue(t, f.scene, "LightCount").AsInt()
	assert.Zero(t, n)

	var def *render.Texture
	for i := 0; i < scene.MaxLights; i++ {
		tex, ok := envValue(t, f.scene, scene.LightKey(i, "shadowmap")).AsTexture()
		require.True(t, ok)
		if def == nil {
			def = tex
		}
		assert.Same(t, def, tex)
	}
	assert.Equal(t, [2]int{1, 1}, f.dev.DepthTextures[def.Handle])

	count, _ := f.dev.UniformValue(f.lit.Program(), "EnvLightCount")
	assert.Equal(t, int32(0), count)

	p.Release()
	_, live := f.dev.DepthTextures[def.Handle]
	assert.False(t, live)
}

func TestSpotShadowPass(t *testing.T) {
	f := newFixture(t, true)
	l := f.addLight(scene.Spot, 512)
	l.Cone = mgl32.Vec2{0, math.Pi / 2}
	l.Range = 20

	p := New(f.ctx, Options{Width: 320, Height: 240})
	require.NoError(t, p.Render(f.scene))

	st := p.Stats()
	assert.Equal(t, 1, st.ShadowMaps)
	assert.Equal(t, 1, st.ShadowDraws)
	assert.Equal(t, 1, st.Lights)

	sm, err := l.Shadowmap(f.ctx)
	require.NoError(t, err)
	var shadowDraws []gputest.Draw
	for _, d := range f.dev.Draws {
		if d.Framebuffer != 0 && d.Viewport.Width == 512 {
			shadowDraws = append(shadowDraws, d)
		}
	}
	require.Len(t, shadowDraws, 1)
	assert.Equal(t, gpu.CullFront, shadowDraws[0].Cull)
	assert.Equal(t, gpu.CullBack, f.dev.Cull)

	want := mgl32.Perspective(math.Pi/2, 1, scene.ShadowNear, 20).Mul4(l.Transform().WorldToLocal())
	got, _ := envValue(t, f.scene, scene.LightKey(0, "shadowMatrix")).AsMat4()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-4)
	}
	uploaded, _ := f.dev.UniformValue(f.lit.Program(), "EnvLights[0].shadowMatrix")
	assert.Equal(t, got, uploaded)

	enabled, _ := envValue(t, f.scene, scene.LightKey(0, "shadowmapEnable")).AsInt()
	assert.Equal(t, int32(1), enabled)
	tex, _ := envValue(t, f.scene, scene.LightKey(0, "shadowmap")).AsTexture()
	assert.Same(t, sm.DepthTexture(), tex)

	dir, _ := envValue(t, f.scene, scene.LightKey(0, "direction")).AsVec3()
	assert.InDelta(t, -1, dir.Normalize().Y(), 0.01)
	pos, _ := envValue(t, f.scene, scene.LightKey(0, "position")).AsVec3()
	assert.InDelta(t, 10, pos.Y(), 1e-4)
}

func TestUnsupportedShadowLightWarnsOnce(t *testing.T) {
	f := newFixture(t, true)
	f.addLight(scene.Point, 256)

	p := New(f.ctx, Options{Width: 320, Height: 240})
	require.NoError(t, p.Render(f.scene))
	require.NoError(t, p.Render(f.scene))

	assert.Equal(t, 1, f.logs.FilterMessage("unsupported light type for shadow map").Len())
	assert.Zero(t, p.Stats().ShadowMaps)
	assert.Equal(t, 1, p.Stats().Lights)
	enabled, _ := envValue(t, f.scene, scene.LightKey(0, "shadowmapEnable")).AsInt()
	assert.Zero(t, enabled)
}

func TestNoCamera(t *testing.T) {
	f := newFixture(t, false)
	f.addLight(scene.Spot, 128)

	p := New(f.ctx, Options{Width: 320, Height: 240})
	require.NoError(t, p.Render(f.scene))

	assert.Equal(t, 1, f.logs.FilterMessage("scene has no camera, environment depth not bound").Len())
	assert.Zero(t, p.Stats().ForwardDraws)
	assert.Equal(t, 1, p.Stats().ShadowDraws)
	_, ok := f.scene.Environment().Get("Depth")
	assert.False(t, ok)
}

func TestLightCountClamped(t *testing.T) {
	f := newFixture(t, true)
	for i := 0; i < scene.MaxLights+2; i++ {
		f.addLight(scene.Point, 0)
	}
	p := New(f.ctx, Options{Width: 320, Height: 240})
	require.NoError(t, p.Render(f.scene))

	n, _ := envValue(t, f.scene, "LightCount").AsInt()
	assert.Equal(t, int32(scene.MaxLights), n)
	assert.Equal(t, scene.MaxLights, p.Stats().Lights)
}

func TestMissingPassShader(t *testing.T) {
	f := newFixture(t, true)
	p := New(f.ctx, Options{Width: 320, Height: 240, DepthShader: "shaders/missing"})
	require.NoError(t, p.Render(f.scene))
	require.NoError(t, p.Render(f.scene))

	assert.Equal(t, 1, f.logs.FilterMessage("pass shader unavailable").Len())
	assert.Zero(t, p.Stats().DepthDraws)
	assert.Equal(t, 1, p.Stats().ForwardDraws)
}

func TestSetResolution(t *testing.T) {
	f := newFixture(t, true)
	p := New(f.ctx, Options{Width: 320, Height: 240})
	require.NoError(t, p.Render(f.scene))
	first := f.cam.DepthTarget()

	require.NoError(t, p.Render(f.scene))
	assert.Same(t, first, f.cam.DepthTarget())

	p.SetResolution(640, 480)
	require.NoError(t, p.Render(f.scene))
	assert.NotSame(t, first, f.cam.DepthTarget())
	assert.Equal(t, 640, f.cam.DepthTarget().Width())
	assert.Equal(t, gpu.Viewport{Width: 640, Height: 480}, f.dev.Viewport())
}

func TestDrawErrorsAreReturned(t *testing.T) {
	f := newFixture(t, true)
	bad := f.scene.NewGameObject("bad")
	bad.AddComponent(scene.NewMeshFilter(render.NewMesh("bad", render.MeshData{
		Positions: []mgl32.Vec3{{0, 0, 0}},
		Indices:   []uint32{0, 1, 2},
	})))
	bad.AddComponent(scene.NewMeshRenderer(render.NewMaterial(f.lit)))

	p := New(f.ctx, Options{Width: 320, Height: 240})
	assert.Error(t, p.Render(f.scene))
	assert.Equal(t, 1, p.Stats().ForwardDraws)
}
