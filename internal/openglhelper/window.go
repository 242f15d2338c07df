package openglhelper

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/leterax/flycontrols/pkg/input"
)

// Window handles GLFW window creation and turns GLFW callbacks into input
// events. It implements input.Surface so controls can bind to it directly.
type Window struct {
	input.Dispatcher

	glfwWindow *glfw.Window
	width      int
	height     int
	title      string
	logger     *zap.Logger

	pointerLocked bool

	// last cursor sample, used to turn absolute positions into deltas
	lastX, lastY float64
	hasLast      bool

	onResize func(width, height int)
	onFocus  func(focused bool)
}

var _ input.Surface = (*Window)(nil)

// NewWindow creates a new GLFW window with an OpenGL context
func NewWindow(width, height int, title string, vsync bool, logger *zap.Logger) (*Window, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Initialize GLFW
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	glfwWindow, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create GLFW window: %w", err)
	}

	glfwWindow.MakeContextCurrent()
	if vsync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	if err := gl.Init(); err != nil {
		glfwWindow.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("window created",
		zap.String("title", title),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.String("gl_version", gl.GoStr(gl.GetString(gl.VERSION))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	w := &Window{
		glfwWindow: glfwWindow,
		width:      width,
		height:     height,
		title:      title,
		logger:     logger,
	}

	glfwWindow.SetKeyCallback(w.keyCallback)
	glfwWindow.SetCursorPosCallback(w.cursorPosCallback)
	glfwWindow.SetMouseButtonCallback(w.mouseButtonCallback)
	glfwWindow.SetFramebufferSizeCallback(w.framebufferSizeCallback)
	glfwWindow.SetFocusCallback(w.focusCallback)

	// The framebuffer can be larger than the window on high-DPI displays.
	fbWidth, fbHeight := glfwWindow.GetFramebufferSize()
	w.width, w.height = fbWidth, fbHeight
	gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))

	return w, nil
}

// Clear clears the color and depth buffers
func (w *Window) Clear(color mgl32.Vec4) {
	gl.ClearColor(color.X(), color.Y(), color.Z(), color.W())
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// SwapBuffers swaps the front and back buffers
func (w *Window) SwapBuffers() {
	w.glfwWindow.SwapBuffers()
}

// PollEvents processes pending events, which runs the input callbacks
func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// ShouldClose returns whether the window should close
func (w *Window) ShouldClose() bool {
	return w.glfwWindow.ShouldClose()
}

// SetShouldClose asks the render loop to stop
func (w *Window) SetShouldClose(value bool) {
	w.glfwWindow.SetShouldClose(value)
}

// Close destroys the window and terminates GLFW
func (w *Window) Close() {
	w.glfwWindow.Destroy()
	glfw.Terminate()
}

// Size returns the framebuffer dimensions
func (w *Window) Size() (width, height int) {
	return w.width, w.height
}

// Time returns seconds since GLFW was initialized
func (w *Window) Time() float64 {
	return glfw.GetTime()
}

// SetResizeCallback sets the function called after the framebuffer is resized
func (w *Window) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

// SetFocusCallback sets the function called when the window gains or loses focus
func (w *Window) SetFocusCallback(callback func(focused bool)) {
	w.onFocus = callback
}

// RequestPointerLock hides the cursor and switches to unbounded relative
// motion. Raw motion is enabled when the platform supports it.
func (w *Window) RequestPointerLock() error {
	if w.pointerLocked {
		return nil
	}
	w.glfwWindow.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	if glfw.RawMouseMotionSupported() {
		w.glfwWindow.SetInputMode(glfw.RawMouseMotion, glfw.True)
	}
	w.pointerLocked = true
	w.hasLast = false
	w.logger.Debug("pointer locked")
	return nil
}

// ExitPointerLock restores the normal cursor
func (w *Window) ExitPointerLock() {
	if !w.pointerLocked {
		return
	}
	w.glfwWindow.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	w.pointerLocked = false
	w.hasLast = false
	w.logger.Debug("pointer released")
}

// PointerLocked reports whether the cursor is captured
func (w *Window) PointerLocked() bool {
	return w.pointerLocked
}

func (w *Window) keyCallback(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, _ glfw.ModifierKey) {
	name := KeyName(key, scancode)
	if name == "" {
		return
	}

	switch action {
	case glfw.Press, glfw.Repeat:
		w.Dispatch(input.Event{Type: input.EventKeyDown, Key: name})
	case glfw.Release:
		w.Dispatch(input.Event{Type: input.EventKeyUp, Key: name})
	}
}

func (w *Window) cursorPosCallback(_ *glfw.Window, xpos, ypos float64) {
	dx, dy, ok := w.cursorDelta(xpos, ypos)
	if !ok {
		return
	}
	w.Dispatch(input.Event{
		Type:      input.EventPointerMove,
		MovementX: float32(dx),
		MovementY: float32(dy),
	})
}

// cursorDelta converts an absolute cursor sample to motion since the last
// one. The first sample after a capture change only seeds the position.
func (w *Window) cursorDelta(xpos, ypos float64) (dx, dy float64, ok bool) {
	if !w.hasLast {
		w.lastX, w.lastY, w.hasLast = xpos, ypos, true
		return 0, 0, false
	}
	dx, dy = xpos-w.lastX, ypos-w.lastY
	w.lastX, w.lastY = xpos, ypos
	return dx, dy, true
}

func (w *Window) mouseButtonCallback(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	if button == glfw.MouseButtonLeft && action == glfw.Release {
		w.Dispatch(input.Event{Type: input.EventClick})
	}
}

func (w *Window) framebufferSizeCallback(_ *glfw.Window, width, height int) {
	w.width = width
	w.height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

func (w *Window) focusCallback(_ *glfw.Window, focused bool) {
	if !focused {
		w.ExitPointerLock()
	}
	if w.onFocus != nil {
		w.onFocus(focused)
	}
}
