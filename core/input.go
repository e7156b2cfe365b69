package core

import "github.com/go-gl/mathgl/mgl32"

// Input is what the host exposes to per-frame behaviours.
type Input interface {
	// KeyDown reports whether the key is currently held.
	KeyDown(key Key) bool
	// MouseDelta is the cursor movement since the previous frame, in pixels.
	MouseDelta() mgl32.Vec2
	// DeltaTime is the duration of the previous frame, in seconds.
	DeltaTime() float32
}
