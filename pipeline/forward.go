// Package pipeline renders a scene once per frame.
package pipeline

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"forward-engine/gpu"
	"forward-engine/render"
	"forward-engine/scene"
)

// DefaultShadowShader renders depth only; it serves both the camera depth
// pre-pass and spot light shadow maps.
const DefaultShadowShader = "shaders/std_shadowmap"

// Pipeline renders a whole scene.
type Pipeline interface {
	Render(s *scene.Scene) error
}

// Options configures a Forward pipeline.
type Options struct {
	// Width and Height are the default framebuffer resolution, also used for
	// camera depth targets.
	Width  int
	Height int

	DepthShader  string
	ShadowShader string
}

// Stats counts the work of the last frame.
type Stats struct {
	Cameras      int
	Lights       int
	ShadowMaps   int
	DepthDraws   int
	ShadowDraws  int
	ForwardDraws int
}

// Forward is a forward renderer: a depth pre-pass per camera, a shadow map
// per shadowed spot light, then one lit pass per camera.
type Forward struct {
	ctx  *render.Context
	opts Options

	depthMat   *render.Material
	shadowMat  *render.Material
	loadedMats bool

	defaultShadowmap *render.Texture

	warned map[any]bool
	stats  Stats
}

var _ Pipeline = (*Forward)(nil)

func New(ctx *render.Context, opts Options) *Forward {
	if opts.DepthShader == "" {
		opts.DepthShader = DefaultShadowShader
	}
	if opts.ShadowShader == "" {
		opts.ShadowShader = DefaultShadowShader
	}
	return &Forward{ctx: ctx, opts: opts, warned: make(map[any]bool)}
}

// SetResolution follows a resize of the default framebuffer. Camera depth
// targets are reallocated on the next frame.
func (f *Forward) SetResolution(width, height int) {
	f.opts.Width, f.opts.Height = width, height
}

// Stats returns the counters of the last Render.
func (f *Forward) Stats() Stats { return f.stats }

func (f *Forward) warnOnce(key any, msg string, fields ...zap.Field) {
	if f.warned[key] {
		return
	}
	f.warned[key] = true
	f.ctx.Logger().Warn(msg, fields...)
}

// loadMaterials builds the shared override materials on first use. A shader
// that fails to load leaves its material nil and the pass draws nothing.
func (f *Forward) loadMaterials() {
	if f.loadedMats {
		return
	}
	f.loadedMats = true
	load := func(name string) *render.Material {
		s, err := f.ctx.FindShader(name)
		if err != nil {
			f.ctx.Logger().Warn("pass shader unavailable", zap.String("shader", name), zap.Error(err))
			return nil
		}
		return render.NewMaterial(s)
	}
	f.depthMat = load(f.opts.DepthShader)
	f.shadowMat = load(f.opts.ShadowShader)
}

func (f *Forward) defaultShadow() *render.Texture {
	if f.defaultShadowmap == nil {
		f.defaultShadowmap = render.NewDepthTexture(f.ctx, 1, 1)
	}
	return f.defaultShadowmap
}

func (f *Forward) setView(t scene.Transform, proj mgl32.Mat4) {
	m := f.ctx.Matrices()
	m.Set(render.MatrixCamera, t.WorldToLocal())
	m.Set(render.MatrixInvCamera, t.LocalToWorld())
	m.Set(render.MatrixProjection, proj)
}

func (f *Forward) draw(rends []scene.Renderable, cam *scene.Camera, override *render.Material, errs *[]error) int {
	n := 0
	for _, r := range rends {
		ok, err := r.Render(f.ctx, cam, override)
		if err != nil {
			*errs = append(*errs, err)
			continue
		}
		if ok {
			n++
		}
	}
	return n
}

// Render draws one frame of s. A nil scene is a no-op.
func (f *Forward) Render(s *scene.Scene) error {
	if s == nil {
		return nil
	}
	f.loadMaterials()
	f.stats = Stats{}

	ctx := f.ctx
	dev := ctx.Device()
	env := s.Environment()
	ctx.SetEnvironment(env)

	cams := scene.FindObjectsOfType[*scene.Camera](s)
	rends := scene.FindObjectsOfType[scene.Renderable](s)
	lights := scene.FindObjectsOfType[*scene.Light](s)
	f.stats.Cameras = len(cams)

	var errs []error

	// Depth pre-pass.
	for _, cam := range cams {
		rt := cam.DepthTarget()
		if rt == nil || rt.Width() != f.opts.Width || rt.Height() != f.opts.Height {
			if err := cam.InitDepthTexture(ctx, f.opts.Width, f.opts.Height); err != nil {
				return err
			}
			rt = cam.DepthTarget()
		}
		rt.Set(ctx)
		dev.SetClearDepth(cam.ClearDepth)
		dev.Clear(gpu.ClearDepth)
		f.setView(cam.Transform(), cam.Projection(float32(rt.Width())/float32(rt.Height())))
		if f.depthMat != nil {
			f.stats.DepthDraws += f.draw(rends, cam, f.depthMat, &errs)
		}
		rt.Unset(ctx)
	}

	// Scene depth for effects sampling the main camera's view.
	if main := s.MainCamera(); main != nil {
		env.SetValue("Depth", render.TextureValue(main.DepthTarget().DepthTexture()))
	} else {
		f.warnOnce("no-camera", "scene has no camera, environment depth not bound")
	}

	// Shadow maps. Front faces are culled to keep acne off lit surfaces.
	dev.SetCullMode(gpu.CullFront)
	for _, l := range lights {
		if !l.HasShadowmap() {
			continue
		}
		if l.Type != scene.Spot {
			f.warnOnce(l, "unsupported light type for shadow map", zap.Stringer("type", l.Type))
			continue
		}
		rt, err := l.Shadowmap(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rt.Set(ctx)
		dev.SetClearDepth(1)
		dev.Clear(gpu.ClearDepth)
		f.setView(l.Transform(), l.SpotlightProjection())
		if f.shadowMat != nil {
			f.stats.ShadowDraws += f.draw(rends, nil, f.shadowMat, &errs)
		}
		rt.Unset(ctx)
		f.stats.ShadowMaps++
	}
	dev.SetCullMode(gpu.CullBack)

	f.uploadLights(env, lights)

	// Forward pass.
	dev.SetViewport(gpu.Viewport{Width: int32(f.opts.Width), Height: int32(f.opts.Height)})
	aspect := float32(f.opts.Width) / float32(f.opts.Height)
	for _, cam := range cams {
		dev.SetClearColor(cam.ClearColor)
		dev.SetClearDepth(cam.ClearDepth)
		dev.Clear(cam.ClearFlags)

		env.SetValue("ZBufferParams", render.Vec4Value(cam.ZBufferParams()))
		env.SetValue("CameraParams", render.Vec2Value(cam.CameraParams()))
		f.setView(cam.Transform(), cam.Projection(aspect))
		f.stats.ForwardDraws += f.draw(rends, cam, nil, &errs)
	}

	return errors.Join(errs...)
}

// uploadLights writes the light array into the environment. Every slot's
// shadow map is bound, unused ones to a 1×1 default.
func (f *Forward) uploadLights(env *render.Material, lights []*scene.Light) {
	count := min(len(lights), scene.MaxLights)
	f.stats.Lights = count
	env.SetValue("LightCount", render.IntValue(int32(count)))

	for i, l := range lights[:count] {
		t := l.Transform()
		env.SetValue(scene.LightKey(i, "type"), render.IntValue(int32(l.Type)))
		env.SetValue(scene.LightKey(i, "position"), render.Vec3Value(t.Position()))
		env.SetValue(scene.LightKey(i, "direction"), render.Vec3Value(t.Forward()))
		env.SetValue(scene.LightKey(i, "color"), render.ColorValue(l.Color))
		env.SetValue(scene.LightKey(i, "intensity"), render.FloatValue(l.Intensity))
		env.SetValue(scene.LightKey(i, "spot"), render.Vec4Value(l.SpotParams()))
		env.SetValue(scene.LightKey(i, "range"), render.FloatValue(l.Range))

		shadowed := l.HasShadowmap() && l.Type == scene.Spot
		shadowTex := f.defaultShadow()
		if shadowed {
			if rt, err := l.Shadowmap(f.ctx); err == nil {
				shadowTex = rt.DepthTexture()
			} else {
				shadowed = false
			}
		}
		env.SetValue(scene.LightKey(i, "shadowmapEnable"), render.BoolValue(shadowed))
		env.SetValue(scene.LightKey(i, "shadowmap"), render.TextureValue(shadowTex))
		env.SetValue(scene.LightKey(i, "shadowMatrix"), render.Mat4Value(l.ShadowMatrix()))
	}
	for i := count; i < scene.MaxLights; i++ {
		env.SetValue(scene.LightKey(i, "shadowmapEnable"), render.BoolValue(false))
		env.SetValue(scene.LightKey(i, "shadowmap"), render.TextureValue(f.defaultShadow()))
	}
}

// Release frees the resources the pipeline owns. Camera and light targets
// belong to their components.
func (f *Forward) Release() {
	f.defaultShadowmap.Release(f.ctx)
	f.defaultShadowmap = nil
}
