package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"forward-engine/core"
	"forward-engine/render"
)

// LightType is uploaded to shaders as an int.
type LightType int

const (
	Directional LightType = iota
	Point
	Spot
)

func (t LightType) String() string {
	switch t {
	case Directional:
		return "directional"
	case Point:
		return "point"
	case Spot:
		return "spot"
	}
	return fmt.Sprintf("LightType(%d)", int(t))
}

// ShadowNear is the near plane of spot light shadow projections.
const ShadowNear float32 = 0.1

// Light illuminates along its transform's Forward.
type Light struct {
	BaseComponent

	Type      LightType
	Color     core.Color
	Intensity float32
	Range     float32
	// Cone holds the full inner and outer spot angles in radians.
	Cone mgl32.Vec2

	shadow     bool
	shadowSize int
	shadowmap  *render.RenderTarget
}

func NewLight(t LightType) *Light {
	return &Light{
		Type:      t,
		Color:     core.ColorWhite,
		Intensity: 1,
		Range:     100,
		Cone:      mgl32.Vec2{mgl32.DegToRad(30), mgl32.DegToRad(45)},
	}
}

// SetShadow enables or disables the shadow map. A new size takes effect at
// the next Shadowmap call.
func (l *Light) SetShadow(enable bool, size int) {
	l.shadow = enable
	l.shadowSize = size
}

func (l *Light) HasShadowmap() bool { return l.shadow && l.shadowSize > 0 }

// Shadowmap returns the light's depth target, allocating it on first use.
func (l *Light) Shadowmap(ctx *render.Context) (*render.RenderTarget, error) {
	if !l.HasShadowmap() {
		return nil, fmt.Errorf("light has no shadow map")
	}
	if l.shadowmap != nil && l.shadowmap.Width() != l.shadowSize {
		l.shadowmap.Release(ctx)
		l.shadowmap = nil
	}
	if l.shadowmap == nil {
		rt, err := render.NewDepthTarget(ctx, l.shadowSize, l.shadowSize)
		if err != nil {
			return nil, err
		}
		l.shadowmap = rt
	}
	return l.shadowmap, nil
}

// SpotlightProjection is a square perspective covering the outer cone.
func (l *Light) SpotlightProjection() mgl32.Mat4 {
	far := l.Range
	if far <= ShadowNear {
		far = ShadowNear + 1
	}
	return mgl32.Perspective(l.Cone[1], 1, ShadowNear, far)
}

// ShadowMatrix maps world space into the light's clip space, composed like
// a camera: projection after view.
func (l *Light) ShadowMatrix() mgl32.Mat4 {
	return l.SpotlightProjection().Mul4(l.Transform().WorldToLocal())
}

// SpotParams is (inner/2, outer/2, cos(inner/2), cos(outer/2)).
func (l *Light) SpotParams() mgl32.Vec4 {
	in, out := l.Cone[0]*0.5, l.Cone[1]*0.5
	return mgl32.Vec4{in, out, float32(math.Cos(float64(in))), float32(math.Cos(float64(out)))}
}

func (l *Light) Release(ctx *render.Context) {
	l.shadowmap.Release(ctx)
	l.shadowmap = nil
}
