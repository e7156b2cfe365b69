// Package platform is the glfw host: window, GL context, and per-frame input.
package platform

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"forward-engine/core"
)

func init() {
	// GL contexts are bound to the OS thread that created them.
	runtime.LockOSThread()
}

// Window is the glfw host: it owns the GL context and feeds per-frame input.
type Window struct {
	Handle *glfw.Window
	Width  int
	Height int
	Title  string

	lastTime   float64
	deltaTime  float32
	lastCursor mgl32.Vec2
	mouseDelta mgl32.Vec2
	firstFrame bool
}

var _ core.Input = (*Window)(nil)

type WindowConfig struct {
	Width      int
	Height     int
	Title      string
	Resizable  bool
	VSync      bool
	Fullscreen bool
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Width:     1280,
		Height:    720,
		Title:     "Forest",
		Resizable: true,
		VSync:     true,
	}
}

// NewWindow creates a window with a current OpenGL 4.1 core context.
func NewWindow(config WindowConfig) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, boolToInt(config.Resizable))

	monitor := (*glfw.Monitor)(nil)
	if config.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}

	handle, err := glfw.CreateWindow(config.Width, config.Height, config.Title, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	handle.MakeContextCurrent()
	if config.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	window := &Window{
		Handle:     handle,
		Width:      config.Width,
		Height:     config.Height,
		Title:      config.Title,
		lastTime:   glfw.GetTime(),
		firstFrame: true,
	}

	handle.SetSizeCallback(func(w *glfw.Window, width, height int) {
		window.Width = width
		window.Height = height
	})

	return window, nil
}

// LockMouse hides the cursor and keeps it inside the window for mouse look.
func (w *Window) LockMouse(lock bool) {
	mode := glfw.CursorNormal
	if lock {
		mode = glfw.CursorDisabled
	}
	w.Handle.SetInputMode(glfw.CursorMode, mode)
	w.firstFrame = true
}

// BeginFrame polls events and samples frame time and mouse movement.
// Call once per frame before updating the scene.
func (w *Window) BeginFrame() {
	glfw.PollEvents()

	now := glfw.GetTime()
	w.deltaTime = float32(now - w.lastTime)
	w.lastTime = now

	x, y := w.Handle.GetCursorPos()
	cursor := mgl32.Vec2{float32(x), float32(y)}
	if w.firstFrame {
		w.mouseDelta = mgl32.Vec2{}
		w.firstFrame = false
	} else {
		w.mouseDelta = cursor.Sub(w.lastCursor)
	}
	w.lastCursor = cursor
}

func (w *Window) ShouldClose() bool {
	return w.Handle.ShouldClose()
}

func (w *Window) Close() {
	w.Handle.SetShouldClose(true)
}

func (w *Window) SwapBuffers() {
	w.Handle.SwapBuffers()
}

func (w *Window) FramebufferSize() (int, int) {
	return w.Handle.GetFramebufferSize()
}

func (w *Window) Destroy() {
	w.Handle.Destroy()
	glfw.Terminate()
}

func (w *Window) SetTitle(title string) {
	w.Handle.SetTitle(title)
	w.Title = title
}

func (w *Window) KeyDown(key core.Key) bool {
	return w.Handle.GetKey(glfw.Key(key)) == glfw.Press
}

func (w *Window) MouseDelta() mgl32.Vec2 {
	return w.mouseDelta
}

func (w *Window) DeltaTime() float32 {
	return w.deltaTime
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
