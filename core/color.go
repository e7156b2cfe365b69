package core

import "github.com/go-gl/mathgl/mgl32"

// Color is a linear RGBA colour.
type Color struct {
	R, G, B, A float32
}

var (
	ColorWhite    = Color{1, 1, 1, 1}
	ColorBlack    = Color{0, 0, 0, 1}
	ColorRed      = Color{1, 0, 0, 1}
	ColorGreen    = Color{0, 1, 0, 1}
	ColorBlue     = Color{0, 0, 1, 1}
	ColorYellow   = Color{1, 1, 0, 1}
	ColorDarkCyan = Color{0, 0.545, 0.545, 1}
)

// NewColor returns an opaque colour.
func NewColor(r, g, b float32) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// Vec4 returns the colour as (r, g, b, a).
func (c Color) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{c.R, c.G, c.B, c.A}
}

// Vec3 drops alpha.
func (c Color) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{c.R, c.G, c.B}
}

// RGBA8 clamps the colour to [0, 1] and packs it into bytes.
func (c Color) RGBA8() [4]byte {
	pack := func(v float32) byte {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return byte(v*255 + 0.5)
	}
	return [4]byte{pack(c.R), pack(c.G), pack(c.B), pack(c.A)}
}
