package main

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"forward-engine/core"
	"forward-engine/render"
	"forward-engine/scene"
)

// dayPalette holds the sky and light values for one key time of day.
type dayPalette struct {
	t            float32
	zenith       core.Color
	horizon      core.Color
	ground       core.Color
	fogColor     core.Color
	fogDensity   float32
	sunColor     core.Color
	sunIntensity float32
	ambient      core.Color
}

// palettes are ordered by t and wrap from the last back to the first.
var palettes = []dayPalette{
	{ // noon
		t:            0.00,
		zenith:       core.Color{R: 0.20, G: 0.42, B: 0.90, A: 1},
		horizon:      core.Color{R: 0.58, G: 0.75, B: 0.95, A: 1},
		ground:       core.Color{R: 0.12, G: 0.10, B: 0.08, A: 1},
		fogColor:     core.Color{R: 0.62, G: 0.78, B: 0.95, A: 1},
		fogDensity:   0.00002,
		sunColor:     core.Color{R: 1.00, G: 0.98, B: 0.92, A: 1},
		sunIntensity: 2.0,
		ambient:      core.Color{R: 0.20, G: 0.20, B: 0.24, A: 1},
	},
	{ // golden hour
		t:            0.22,
		zenith:       core.Color{R: 0.14, G: 0.20, B: 0.60, A: 1},
		horizon:      core.Color{R: 0.90, G: 0.52, B: 0.18, A: 1},
		ground:       core.Color{R: 0.08, G: 0.07, B: 0.06, A: 1},
		fogColor:     core.Color{R: 0.85, G: 0.55, B: 0.25, A: 1},
		fogDensity:   0.00004,
		sunColor:     core.Color{R: 1.00, G: 0.65, B: 0.25, A: 1},
		sunIntensity: 1.4,
		ambient:      core.Color{R: 0.12, G: 0.12, B: 0.18, A: 1},
	},
	{ // dusk
		t:            0.30,
		zenith:       core.Color{R: 0.08, G: 0.10, B: 0.28, A: 1},
		horizon:      core.Color{R: 0.50, G: 0.22, B: 0.28, A: 1},
		ground:       core.Color{R: 0.04, G: 0.03, B: 0.04, A: 1},
		fogColor:     core.Color{R: 0.35, G: 0.18, B: 0.22, A: 1},
		fogDensity:   0.00005,
		sunColor:     core.Color{R: 0.70, G: 0.40, B: 0.55, A: 1},
		sunIntensity: 0.4,
		ambient:      core.Color{R: 0.06, G: 0.07, B: 0.14, A: 1},
	},
	{ // midnight, the sun stands in for the moon
		t:            0.50,
		zenith:       core.Color{R: 0.02, G: 0.03, B: 0.10, A: 1},
		horizon:      core.Color{R: 0.04, G: 0.04, B: 0.08, A: 1},
		ground:       core.Color{R: 0.01, G: 0.01, B: 0.02, A: 1},
		fogColor:     core.Color{R: 0.03, G: 0.03, B: 0.06, A: 1},
		fogDensity:   0.00003,
		sunColor:     core.Color{R: 0.40, G: 0.45, B: 0.65, A: 1},
		sunIntensity: 0.15,
		ambient:      core.Color{R: 0.03, G: 0.04, B: 0.09, A: 1},
	},
	{ // pre-dawn
		t:            0.70,
		zenith:       core.Color{R: 0.06, G: 0.08, B: 0.25, A: 1},
		horizon:      core.Color{R: 0.40, G: 0.18, B: 0.24, A: 1},
		ground:       core.Color{R: 0.03, G: 0.03, B: 0.04, A: 1},
		fogColor:     core.Color{R: 0.30, G: 0.15, B: 0.20, A: 1},
		fogDensity:   0.00005,
		sunColor:     core.Color{R: 0.75, G: 0.42, B: 0.60, A: 1},
		sunIntensity: 0.3,
		ambient:      core.Color{R: 0.06, G: 0.07, B: 0.14, A: 1},
	},
	{ // sunrise
		t:            0.78,
		zenith:       core.Color{R: 0.12, G: 0.18, B: 0.55, A: 1},
		horizon:      core.Color{R: 0.88, G: 0.45, B: 0.22, A: 1},
		ground:       core.Color{R: 0.08, G: 0.06, B: 0.05, A: 1},
		fogColor:     core.Color{R: 0.75, G: 0.40, B: 0.20, A: 1},
		fogDensity:   0.00004,
		sunColor:     core.Color{R: 1.00, G: 0.60, B: 0.28, A: 1},
		sunIntensity: 1.1,
		ambient:      core.Color{R: 0.09, G: 0.10, B: 0.17, A: 1},
	},
}

// DayNight turns its object's directional light around the sky and keeps
// the scene environment's sky, fog and ambient colours in step with it.
type DayNight struct {
	scene.BaseComponent

	// Time is the cycle position: 0 noon, 0.25 sunset, 0.5 midnight,
	// 0.75 sunrise.
	Time float32
	// Period is the length of a full cycle in seconds.
	Period float32
	Active bool
}

var _ scene.Behavior = (*DayNight)(nil)

func NewDayNight() *DayNight {
	return &DayNight{Period: 120, Active: true}
}

func (dn *DayNight) Update(dt float32) {
	if dn.Active && dn.Period > 0 {
		dn.Time += dt / dn.Period
		dn.Time -= float32(math.Floor(float64(dn.Time)))
	}
	dn.apply()
}

func lerpColor(a, b core.Color, t float32) core.Color {
	return core.Color{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: 1,
	}
}

// samplePalette interpolates the two keys surrounding t.
func samplePalette(t float32) dayPalette {
	n := len(palettes)
	a, b := palettes[n-1], palettes[0]
	span := 1 - a.t + b.t
	local := t - a.t
	if local < 0 {
		local += 1
	}
	for i := 0; i < n-1; i++ {
		if t >= palettes[i].t && t < palettes[i+1].t {
			a, b = palettes[i], palettes[i+1]
			span = b.t - a.t
			local = t - a.t
			break
		}
	}
	k := local / span

	return dayPalette{
		t:            t,
		zenith:       lerpColor(a.zenith, b.zenith, k),
		horizon:      lerpColor(a.horizon, b.horizon, k),
		ground:       lerpColor(a.ground, b.ground, k),
		fogColor:     lerpColor(a.fogColor, b.fogColor, k),
		fogDensity:   a.fogDensity + (b.fogDensity-a.fogDensity)*k,
		sunColor:     lerpColor(a.sunColor, b.sunColor, k),
		sunIntensity: a.sunIntensity + (b.sunIntensity-a.sunIntensity)*k,
		ambient:      lerpColor(a.ambient, b.ambient, k),
	}
}

// sunRotation points Forward straight down at noon and straight up at
// midnight, swinging through the XY plane with a slight Z tilt.
func sunRotation(t float32) mgl32.Quat {
	angle := float64(t) * 2 * math.Pi
	dir := mgl32.Vec3{float32(math.Sin(angle)), -float32(math.Cos(angle)), 0.35}.Normalize()
	return mgl32.QuatBetweenVectors(mgl32.Vec3{0, 0, -1}, dir)
}

func (dn *DayNight) apply() {
	g := dn.GameObject()
	if g == nil {
		return
	}
	p := samplePalette(dn.Time)

	g.Transform().SetRotation(sunRotation(dn.Time))
	if sun, ok := scene.GetComponent[*scene.Light](g); ok {
		sun.Color = p.sunColor
		sun.Intensity = p.sunIntensity
	}

	s := g.Scene()
	if s == nil {
		return
	}
	env := s.Environment()
	env.SetValue("Color", render.ColorValue(p.ambient))
	env.SetValue("ColorTop", render.ColorValue(p.zenith))
	env.SetValue("ColorMid", render.ColorValue(p.horizon))
	env.SetValue("ColorBottom", render.ColorValue(p.ground))
	env.SetValue("FogColor", render.ColorValue(p.fogColor))
	env.SetValue("FogDensity", render.FloatValue(p.fogDensity))
}

// Clock formats Time as a 12-hour wall clock, noon at Time 0.
func (dn *DayNight) Clock() string {
	hours := math.Mod(float64(dn.Time)*24+12, 24)
	h := int(hours)
	m := int((hours - float64(h)) * 60)
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	display := h % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%02d:%02d %s", display, m, period)
}
