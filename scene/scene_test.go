package scene

import (
	"math"
	"testing"
	"testing/fstest"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"forward-engine/core"
	"forward-engine/gpu/gputest"
	"forward-engine/render"
)

type counter struct {
	BaseComponent
	ticks int
	dt    float32
}

func (c *counter) Update(dt float32) {
	c.ticks++
	c.dt += dt
}

type tag struct{ BaseComponent }

func TestComponentsKeepOrder(t *testing.T) {
	s := New()
	g := s.NewGameObject("player")
	a, b := &tag{}, &counter{}
	g.AddComponent(a)
	g.AddComponent(b)
	g.AddComponent(a)

	assert.Equal(t, []Component{a, b}, g.Components())
	assert.Same(t, g, a.GameObject())

	got, ok := GetComponent[*counter](g)
	require.True(t, ok)
	assert.Same(t, b, got)
	_, ok = GetComponent[*Camera](g)
	assert.False(t, ok)
	assert.Len(t, GetComponents[Component](g), 2)
}

func TestAddComponentMovesBetweenObjects(t *testing.T) {
	s := New()
	from, to := s.NewGameObject("from"), s.NewGameObject("to")
	c := &tag{}
	from.AddComponent(c)
	to.AddComponent(c)

	assert.Empty(t, from.Components())
	assert.Equal(t, []Component{c}, to.Components())
	assert.Same(t, to, c.GameObject())

	assert.True(t, to.RemoveComponent(c))
	assert.False(t, to.RemoveComponent(c))
	assert.Nil(t, c.GameObject())
	assert.False(t, c.Transform().Valid())
}

func TestFindObjectsOfTypeOrder(t *testing.T) {
	s := New()
	a := s.NewGameObject("a")
	b := s.NewGameObject("b")
	l1 := NewLight(Point)
	l2 := NewLight(Spot)
	l3 := NewLight(Directional)
	b.AddComponent(l2)
	a.AddComponent(l1)
	a.AddComponent(&tag{})
	b.AddComponent(l3)

	assert.Equal(t, []*Light{l1, l2, l3}, FindObjectsOfType[*Light](s))
	assert.Empty(t, FindObjectsOfType[*Camera](s))
	assert.Same(t, b, s.Find("b"))
	assert.Nil(t, s.Find("c"))
}

func TestRemoveFreesTransform(t *testing.T) {
	s := New()
	parent := s.NewGameObject("parent")
	child := s.NewGameObject("child")
	require.NoError(t, child.Transform().SetParent(parent.Transform(), false))
	parent.Transform().SetLocalPosition(mgl32.Vec3{0, 3, 0})

	assert.True(t, s.Remove(parent))
	assert.False(t, s.Remove(parent))
	assert.Nil(t, parent.Scene())
	assert.Equal(t, []*GameObject{child}, s.Objects())
	assert.Equal(t, 1, s.Hierarchy().Len())
	assert.InDelta(t, 3, child.Transform().Position().Y(), eps)
	assert.NotEqual(t, parent.ID, child.ID)
}

func TestUpdateRunsBehaviors(t *testing.T) {
	s := New()
	c := &counter{}
	s.NewGameObject("a").AddComponent(c)
	s.NewGameObject("b").AddComponent(&tag{})

	s.Update(0.5)
	s.Update(0.25)
	assert.Equal(t, 2, c.ticks)
	assert.InDelta(t, 0.75, c.dt, eps)
}

func TestMainCamera(t *testing.T) {
	s := New()
	assert.Nil(t, s.MainCamera())

	first := NewCamera(1, 0.1, 100)
	second := NewCamera(1, 0.1, 100)
	s.NewGameObject("first").AddComponent(first)
	s.NewGameObject("second").AddComponent(second)
	assert.Same(t, first, s.MainCamera())

	second.Main = true
	assert.Same(t, second, s.MainCamera())
}

func TestEnvironmentDefaults(t *testing.T) {
	env := New().Environment()
	assert.Nil(t, env.Shader())

	v, ok := env.Get("LightCount")
	require.True(t, ok)
	n, _ := v.AsInt()
	assert.Zero(t, n)

	for i := 0; i < MaxLights; i++ {
		dir, ok := env.Get(LightKey(i, "direction"))
		require.True(t, ok, "slot %d", i)
		d, _ := dir.AsVec3()
		assert.Equal(t, mgl32.Vec3{0, 0, 1}, d)

		m, ok := env.Get(LightKey(i, "shadowMatrix"))
		require.True(t, ok)
		mat, _ := m.AsMat4()
		assert.Equal(t, mgl32.Ident4(), mat)
	}
	_, ok = env.Get(LightKey(MaxLights, "type"))
	assert.False(t, ok)
	assert.Equal(t, "Lights[3].color", LightKey(3, "color"))
}

func TestSpotlightShadowMatrix(t *testing.T) {
	s := New()
	g := s.NewGameObject("spot")
	g.Transform().SetPosition(mgl32.Vec3{0, 10, 0})
	g.Transform().LookAt(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0})
	l := NewLight(Spot)
	l.Cone = mgl32.Vec2{0, math.Pi / 2}
	l.Range = 50
	g.AddComponent(l)

	proj := mgl32.Perspective(math.Pi/2, 1, ShadowNear, 50)
	assertMat4(t, proj, l.SpotlightProjection())
	assertMat4(t, proj.Mul4(g.Transform().WorldToLocal()), l.ShadowMatrix())

	// The aimed-at point lands in the middle of the shadow map.
	clip := l.ShadowMatrix().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 0, clip.X()/clip.W(), eps)
	assert.InDelta(t, 0, clip.Y()/clip.W(), eps)
	assert.Greater(t, clip.W(), float32(0))

	l.Range = 0
	assertMat4(t, mgl32.Perspective(math.Pi/2, 1, ShadowNear, ShadowNear+1), l.SpotlightProjection())

	sp := l.SpotParams()
	assert.InDelta(t, 0, sp[0], eps)
	assert.InDelta(t, math.Pi/4, sp[1], eps)
	assert.InDelta(t, 1, sp[2], eps)
	assert.InDelta(t, math.Sqrt2/2, sp[3], eps)
}

func newContext() (*render.Context, *gputest.Device) {
	dev := gputest.New(640, 480)
	files := fstest.MapFS{
		"shaders/unlit.vert": {Data: []byte("uniform mat4 MatrixClip;\nuniform mat4 MatrixWorld;\nvoid main() {}\n")},
		"shaders/unlit.frag": {Data: []byte("uniform vec4 MaterialColor;\nvoid main() {}\n")},
	}
	return render.NewContext(dev, render.WithFS(files, "/game"), render.WithLogger(zap.NewNop())), dev
}

func TestLightShadowmapAllocation(t *testing.T) {
	ctx, dev := newContext()
	l := NewLight(Spot)
	assert.False(t, l.HasShadowmap())
	_, err := l.Shadowmap(ctx)
	assert.Error(t, err)

	l.SetShadow(true, 256)
	rt, err := l.Shadowmap(ctx)
	require.NoError(t, err)
	again, err := l.Shadowmap(ctx)
	require.NoError(t, err)
	assert.Same(t, rt, again)
	assert.Equal(t, [2]int{256, 256}, dev.DepthTextures[rt.DepthTexture().Handle])

	l.SetShadow(true, 512)
	bigger, err := l.Shadowmap(ctx)
	require.NoError(t, err)
	assert.Equal(t, 512, bigger.Width())
	assert.Len(t, dev.DepthTextures, 1, "the old map is released")

	l.Release(ctx)
	assert.Empty(t, dev.DepthTextures)
}

func TestCameraParams(t *testing.T) {
	ctx, _ := newContext()
	c := NewCamera(mgl32.DegToRad(60), 0.1, 100)
	assert.Equal(t, core.ColorBlack, c.ClearColor)

	z := c.ZBufferParams()
	assert.InDelta(t, -999, z[0], 1e-2)
	assert.InDelta(t, 1000, z[1], 1e-2)
	assert.InDelta(t, -9.99, z[2], 1e-3)
	assert.InDelta(t, 10, z[3], 1e-3)
	assert.Equal(t, mgl32.Vec2{0.1, 100}, c.CameraParams())

	assertMat4(t, mgl32.Perspective(mgl32.DegToRad(60), 2, 0.1, 100), c.Projection(2))
	c.Orthographic = true
	assertMat4(t, mgl32.Ortho(-10, 10, -5, 5, 0.1, 100), c.Projection(2))

	assert.Nil(t, c.DepthTarget())
	assert.Error(t, c.InitDepthTexture(ctx, 0, 10))
	require.NoError(t, c.InitDepthTexture(ctx, 320, 240))
	assert.Equal(t, 320, c.DepthTarget().Width())
	c.Release(ctx)
	assert.Nil(t, c.DepthTarget())
}

func quad() render.MeshData {
	return render.MeshData{
		Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
		Indices:   []uint32{0, 1, 2},
	}
}

func TestMeshRendererSkips(t *testing.T) {
	ctx, dev := newContext()
	shader, err := ctx.FindShader("shaders/unlit")
	require.NoError(t, err)
	mat := render.NewMaterial(shader)

	s := New()
	g := s.NewGameObject("thing")
	r := NewMeshRenderer(mat)

	ok, err := r.Render(ctx, nil, nil)
	assert.NoError(t, err)
	assert.False(t, ok, "detached")

	g.AddComponent(r)
	ok, _ = r.Render(ctx, nil, nil)
	assert.False(t, ok, "no mesh filter")

	g.AddComponent(NewMeshFilter(render.NewMesh("tri", quad())))
	r.Material = nil
	ok, _ = r.Render(ctx, nil, nil)
	assert.False(t, ok, "no material")

	r.Material = render.NewMaterial(&render.Shader{})
	ok, _ = r.Render(ctx, nil, nil)
	assert.False(t, ok, "unbuilt shader")

	assert.Empty(t, dev.Draws)
	assert.Zero(t, r.Draws())
}

func TestMeshRendererDraws(t *testing.T) {
	ctx, dev := newContext()
	shader, err := ctx.FindShader("shaders/unlit")
	require.NoError(t, err)
	own := render.NewMaterial(shader)
	require.NoError(t, own.Set("Color", core.ColorRed))
	override := render.NewMaterial(shader)
	require.NoError(t, override.Set("Color", core.ColorBlue))

	s := New()
	g := s.NewGameObject("thing")
	g.Transform().SetPosition(mgl32.Vec3{4, 5, 6})
	g.AddComponent(NewMeshFilter(render.NewMesh("tri", quad())))
	r := NewMeshRenderer(own)
	g.AddComponent(r)

	ok, err := r.Render(ctx, nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, dev.Draws, 1)
	world, _ := dev.UniformValue(shader.Program(), "MatrixWorld")
	assert.Equal(t, mgl32.Translate3D(4, 5, 6), world)
	color, _ := dev.UniformValue(shader.Program(), "MaterialColor")
	assert.Equal(t, core.ColorRed.Vec4(), color)

	ok, err = r.Render(ctx, nil, override)
	require.NoError(t, err)
	assert.True(t, ok)
	color, _ = dev.UniformValue(shader.Program(), "MaterialColor")
	assert.Equal(t, core.ColorBlue.Vec4(), color)
	assert.Equal(t, 2, r.Draws())

	g.AddComponent(NewMeshFilter(render.NewMesh("bad", render.MeshData{})))
	// The first filter still wins.
	ok, err = r.Render(ctx, nil, nil)
	assert.NoError(t, err)
	assert.True(t, ok)
}
