package core

// Key is a keyboard key. Values match glfw key codes.
type Key int

const (
	KeySpace       Key = 32
	KeyA           Key = 65
	KeyD           Key = 68
	KeyE           Key = 69
	KeyQ           Key = 81
	KeyS           Key = 83
	KeyW           Key = 87
	KeyEscape      Key = 256
	KeyEnter       Key = 257
	KeyTab         Key = 258
	KeyRight       Key = 262
	KeyLeft        Key = 263
	KeyDown        Key = 264
	KeyUp          Key = 265
	KeyF1          Key = 290
	KeyLeftShift   Key = 340
	KeyLeftControl Key = 341
	KeyLeftAlt     Key = 342
)
