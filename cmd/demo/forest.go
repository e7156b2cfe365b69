package main

import (
	"math"
	"math/rand"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"forward-engine/assets"
	"forward-engine/controller"
	"forward-engine/core"
	"forward-engine/primitives"
	"forward-engine/render"
	"forward-engine/scene"
)

const (
	phongShader = "shaders/phong_pp_sss"
	skyShader   = "shaders/skysphere_envmap"

	forestSize = 120
	treeCount  = 50
)

type forestOptions struct {
	// Assets is the directory Textures/ and Models/ are read from.
	Assets        string
	Model         string
	ShadowMapSize int
	Width         int
	Height        int
	ClearColor    core.Color
	Input         core.Input
}

// forest owns the scene and the GPU resources created for it.
type forest struct {
	ctx   *render.Context
	opts  forestOptions
	scene *scene.Scene
	sky   *DayNight

	meshes   []*render.Mesh
	textures *assets.TextureCache
}

func buildForest(ctx *render.Context, opts forestOptions) (*forest, error) {
	f := &forest{
		ctx:      ctx,
		opts:     opts,
		scene:    scene.New(),
		textures: assets.NewTextureCache(ctx, opts.Assets),
	}

	f.setupEnvironment()
	f.setupLights()
	if err := f.createGround(); err != nil {
		return nil, err
	}
	if err := f.createSkysphere(forestSize * 4); err != nil {
		return nil, err
	}
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < treeCount; i++ {
		if err := f.createTree(rnd); err != nil {
			return nil, err
		}
	}
	if opts.Model != "" {
		f.createModel(opts.Model)
	}
	if err := f.createCamera(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *forest) log() *zap.Logger { return f.ctx.Logger() }

func (f *forest) asset(name string) string {
	return filepath.Join(f.opts.Assets, filepath.FromSlash(name))
}

// texture loads a 2D texture, returning nil and logging when the file is
// unusable so the scene still builds without it.
func (f *forest) texture(name string) *render.Texture {
	t, err := f.textures.Load(name)
	if err != nil {
		f.log().Warn("texture unavailable", zap.String("path", name), zap.Error(err))
		return nil
	}
	return t
}

func (f *forest) phong(color core.Color) (*render.Material, error) {
	s, err := f.ctx.FindShader(phongShader)
	if err != nil {
		return nil, err
	}
	m := render.NewMaterial(s)
	m.SetValue("Color", render.ColorValue(color))
	m.SetValue("ColorEmissive", render.ColorValue(core.ColorBlack))
	m.SetValue("Specular", render.Vec2Value(mgl32.Vec2{0, 1}))
	return m, nil
}

// setTextures binds base colour and normal maps, flagging each one that
// loaded.
func setTextures(m *render.Material, baseColor, normalMap *render.Texture) {
	if baseColor != nil {
		m.SetValue("BaseColor", render.TextureValue(baseColor))
	}
	m.SetValue("HasBaseColor", render.BoolValue(baseColor != nil))
	if normalMap != nil {
		m.SetValue("NormalMap", render.TextureValue(normalMap))
	}
	m.SetValue("HasNormalMap", render.BoolValue(normalMap != nil))
}

func (f *forest) addMesh(name string, mesh *render.Mesh, mat *render.Material) *scene.GameObject {
	f.meshes = append(f.meshes, mesh)
	g := f.scene.NewGameObject(name)
	g.AddComponent(scene.NewMeshFilter(mesh))
	g.AddComponent(scene.NewMeshRenderer(mat))
	return g
}

func (f *forest) setupEnvironment() {
	env := f.scene.Environment()
	env.SetValue("Color", render.ColorValue(core.Color{R: 0.2, G: 0.2, B: 0.2, A: 1}))
	env.SetValue("ColorTop", render.ColorValue(core.Color{R: 0, G: 1, B: 1, A: 1}))
	env.SetValue("ColorMid", render.ColorValue(core.ColorWhite))
	env.SetValue("ColorBottom", render.ColorValue(core.Color{R: 0, G: 0.25, B: 0, A: 1}))
	env.SetValue("FogDensity", render.FloatValue(0.000001))
	env.SetValue("FogColor", render.ColorValue(core.ColorDarkCyan))

	cube, err := f.textures.LoadCube("Textures/cube_*.jpg")
	if err == nil {
		env.SetValue("CubeMap", render.TextureValue(cube))
	} else {
		f.log().Warn("cube map unavailable, using sky gradient", zap.Error(err))
	}
	env.SetValue("HasCubeMap", render.BoolValue(err == nil))
}

func (f *forest) setupLights() {
	sun := f.scene.NewGameObject("sun")
	light := scene.NewLight(scene.Directional)
	light.Intensity = 2
	sun.AddComponent(light)
	sun.Transform().SetRotation(mgl32.QuatRotate(mgl32.DegToRad(-45), mgl32.Vec3{1, 0, 0}))

	f.sky = NewDayNight()
	sun.AddComponent(f.sky)

	spot := f.scene.NewGameObject("spot")
	spot.Transform().SetPosition(mgl32.Vec3{10, 20, 20})
	spot.Transform().LookAt(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	sl := scene.NewLight(scene.Spot)
	sl.Intensity = 3
	sl.Range = 200
	sl.Cone = mgl32.Vec2{0, math.Pi / 2}
	sl.SetShadow(true, f.opts.ShadowMapSize)
	spot.AddComponent(sl)

	// A glowing bulb marks the spot light. It sits just behind the light so
	// it stays out of the shadow frustum.
	if mat, err := f.phong(core.ColorWhite); err == nil {
		mat.SetValue("ColorEmissive", render.ColorValue(core.ColorWhite))
		bulb := f.addMesh("bulb", render.NewMesh("bulb", primitives.Sphere(0.5, 32, 16)), mat)
		_ = bulb.Transform().SetParent(spot.Transform(), false)
		bulb.Transform().SetLocalPosition(mgl32.Vec3{0, 0, 1})
	}
}

func (f *forest) createGround() error {
	mesh := render.NewMesh("ground", primitives.Plane(forestSize, forestSize, 128))
	if err := mesh.ComputeTangents(); err != nil {
		return err
	}
	mat, err := f.phong(core.ColorWhite)
	if err != nil {
		return err
	}
	mat.SetValue("Specular", render.Vec2Value(mgl32.Vec2{2, 128}))
	mat.SetValue("Tiling", render.Vec2Value(mgl32.Vec2{forestSize / 4, forestSize / 4}))
	grass := f.texture("Textures/grass_basecolor.png")
	if grass == nil {
		board := assets.Checker(256, 16, core.NewColor(0.35, 0.6, 0.25), core.NewColor(0.2, 0.45, 0.15))
		if grass, err = f.textures.Add("ground_checker", board); err != nil {
			return err
		}
	}
	setTextures(mat, grass, f.texture("Textures/grass_normal.png"))
	f.addMesh("ground", mesh, mat)
	return nil
}

func (f *forest) createSkysphere(radius float32) error {
	s, err := f.ctx.FindShader(skyShader)
	if err != nil {
		return err
	}
	mesh := render.NewMesh("skysphere", primitives.Invert(primitives.Sphere(radius, 64, 32)))
	f.addMesh("skysphere", mesh, render.NewMaterial(s))
	return nil
}

func between(rnd *rand.Rand, a, b float32) float32 {
	return rnd.Float32()*(b-a) + a
}

func (f *forest) createTree(rnd *rand.Rand) error {
	s := float32(forestSize) * 0.2

	trunkHeight := between(rnd, 0.5, 1.5)
	trunkWidth := between(rnd, 0.7, 1.25)
	bark, err := f.phong(core.Color{R: between(rnd, 0.6, 0.9), G: between(rnd, 0.4, 0.6), B: between(rnd, 0.15, 0.35), A: 1})
	if err != nil {
		return err
	}
	trunk := f.addMesh("trunk", render.NewMesh("trunk", primitives.Cylinder(trunkWidth, trunkHeight, 8)), bark)
	trunk.Transform().SetPosition(mgl32.Vec3{between(rnd, -s, s), trunkHeight / 2, between(rnd, -s, s)})

	leavesWidth := between(rnd, trunkWidth*1.5, trunkWidth*4)
	leavesHeight := between(rnd, trunkHeight*2, trunkHeight*8)
	foliage, err := f.phong(core.Color{R: between(rnd, 0, 0.2), G: between(rnd, 0.6, 0.8), B: between(rnd, 0, 0.2), A: 1})
	if err != nil {
		return err
	}
	leaves := f.addMesh("leaves", render.NewMesh("leaves", primitives.Cylinder(leavesWidth, leavesHeight, 16)), foliage)
	if err := leaves.Transform().SetParent(trunk.Transform(), false); err != nil {
		return err
	}
	leaves.Transform().SetLocalPosition(mgl32.Vec3{0, trunkHeight/2 + leavesHeight/2, 0})
	return nil
}

// loadModel reads a glTF or OBJ model. OBJ files also yield the diffuse
// colour of their first group's material.
func (f *forest) loadModel(name string) (render.MeshData, core.Color, error) {
	path := f.asset(name)
	if !strings.EqualFold(filepath.Ext(path), ".obj") {
		data, err := assets.LoadMesh(path)
		return data, core.ColorWhite, err
	}
	o, err := assets.LoadOBJ(path)
	if err != nil {
		return render.MeshData{}, core.ColorWhite, err
	}
	color := core.ColorWhite
	if m, ok := o.Materials[o.Groups[0].Material]; ok {
		color = m.Diffuse
		color.A = m.Opacity
	}
	return o.Merged(), color, nil
}

// createModel places a model above the clearing. Its textures are expected
// next to it under textures/.
func (f *forest) createModel(name string) {
	data, color, err := f.loadModel(name)
	if err != nil {
		f.log().Warn("model unavailable", zap.String("path", name), zap.Error(err))
		return
	}
	mesh := render.NewMesh(filepath.Base(filepath.Dir(name)), data)
	if err := mesh.ComputeTangents(); err != nil {
		f.log().Warn("model has no tangent space", zap.String("path", name), zap.Error(err))
	}
	mat, err := f.phong(color)
	if err != nil {
		f.log().Warn("model material unavailable", zap.Error(err))
		return
	}
	dir := filepath.ToSlash(filepath.Dir(name))
	setTextures(mat,
		f.texture(dir+"/textures/material_0_baseColor.png"),
		f.texture(dir+"/textures/material_0_normal.png"))

	g := f.addMesh("model", mesh, mat)
	t := g.Transform()
	t.SetPosition(mgl32.Vec3{0, 18, 1})
	t.SetRotation(mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{1, 0, 0}))
	t.SetLocalScale(mgl32.Vec3{0.1, 0.1, 0.1})
}

func (f *forest) createCamera() error {
	g := f.scene.NewGameObject("camera")
	g.Transform().SetPosition(mgl32.Vec3{1.5, 10, 15})

	cam := scene.NewCamera(mgl32.DegToRad(60), 0.1, forestSize*8)
	cam.Main = true
	cam.ClearColor = f.opts.ClearColor
	if err := cam.InitDepthTexture(f.ctx, f.opts.Width, f.opts.Height); err != nil {
		return err
	}
	g.AddComponent(cam)

	fps := controller.NewFirstPersonController(f.opts.Input)
	fps.MoveSpeed = 5
	g.AddComponent(fps)
	return nil
}

func (f *forest) release(ctx *render.Context) {
	for _, c := range scene.FindObjectsOfType[*scene.Camera](f.scene) {
		c.Release(ctx)
	}
	for _, l := range scene.FindObjectsOfType[*scene.Light](f.scene) {
		l.Release(ctx)
	}
	for _, m := range f.meshes {
		m.Release(ctx)
	}
	f.textures.Release()
}
