package driftfield

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// WindowState is the shared GLFW window. Width and Height are the window size
// in screen coordinates (cursor space); the framebuffer size is in pixels.
type WindowState struct {
	windowGlfw *glfw.Window

	WindowWidth       int
	WindowHeight      int
	FramebufferWidth  int
	FramebufferHeight int
	windowTitle       string

	resized   bool
	listeners []func(width, height int)
}

func (s *WindowState) Glfw() *glfw.Window { return s.windowGlfw }

// OnFramebufferResize registers fn to run on the main thread, once per frame,
// after the framebuffer changed size.
func (s *WindowState) OnFramebufferResize(fn func(width, height int)) {
	s.listeners = append(s.listeners, fn)
}

// PlatformWindowModule ensures a single shared GLFW window (WindowState) is created
// and made available as a resource. Install is idempotent.
type PlatformWindowModule struct {
	Width  int
	Height int
	Title  string
}

// NewPlatformWindow creates a module that provides a shared WindowState resource.
// If Width/Height are zero, sensible defaults are used.
func NewPlatformWindow(width, height int, title string) *PlatformWindowModule {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "driftfield"
	}
	return &PlatformWindowModule{
		Width:  width,
		Height: height,
		Title:  title,
	}
}

func (m PlatformWindowModule) Install(app *App, cmd *Commands) {
	if _, ok := Resource[WindowState](app); ok {
		return
	}

	ws, err := createWindowState(m.Width, m.Height, m.Title)
	if err != nil {
		panic(err)
	}
	app.addResources(ws)
	cmd.OnShutdown(func() {
		ws.windowGlfw.Destroy()
		glfw.Terminate()
	})
	cmd.UseSystem(System(windowSystem).InStage(Prelude))
}

func createWindowState(windowWidth int, windowHeight int, windowTitle string) (*WindowState, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(windowWidth, windowHeight, windowTitle, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}

	fbw, fbh := win.GetFramebufferSize()
	s := &WindowState{
		windowGlfw:        win,
		WindowWidth:       windowWidth,
		WindowHeight:      windowHeight,
		FramebufferWidth:  fbw,
		FramebufferHeight: fbh,
		windowTitle:       windowTitle,
	}
	win.SetSizeCallback(func(_ *glfw.Window, width, height int) {
		s.WindowWidth, s.WindowHeight = width, height
	})
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		s.FramebufferWidth, s.FramebufferHeight = width, height
		s.resized = true
	})
	win.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})
	return s, nil
}

// windowSystem pumps the OS event queue and stops the app when the window
// closes.
func windowSystem(s *WindowState, cmd *Commands) {
	glfw.PollEvents()

	if s.resized {
		s.resized = false
		for _, fn := range s.listeners {
			fn(s.FramebufferWidth, s.FramebufferHeight)
		}
	}

	if s.windowGlfw.ShouldClose() {
		cmd.Logger().Infof("window closed")
		cmd.Quit()
	}
}
