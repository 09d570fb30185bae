package driftfield

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

// PointerInput is the cursor position in window coordinates and normalized
// to [-1, 1] on both axes, y up.
type PointerInput struct {
	X, Y     float64
	Location mgl32.Vec2
	// Changed is set for the frame in which Location moved.
	Changed bool
	// Seen reports whether the cursor has been sampled at least once.
	Seen bool
}

// NormalizePointer maps window coordinates to [-1, 1] with y up. A zero-sized
// window maps everything to the centre.
func NormalizePointer(x, y float64, width, height int) mgl32.Vec2 {
	if width <= 0 || height <= 0 {
		return mgl32.Vec2{}
	}
	nx := 2*x/float64(width) - 1
	ny := -(2*y/float64(height) - 1)
	return mgl32.Vec2{clampUnit(nx), clampUnit(ny)}
}

func clampUnit(v float64) float32 {
	switch {
	case v < -1:
		return -1
	case v > 1:
		return 1
	}
	return float32(v)
}

// sample records a cursor reading and reports whether the normalized location
// changed.
func (p *PointerInput) sample(x, y float64, width, height int) bool {
	loc := NormalizePointer(x, y, width, height)
	p.X, p.Y = x, y
	if p.Seen && loc == p.Location {
		return false
	}
	p.Location = loc
	p.Seen = true
	p.Changed = true
	return true
}

type InputModule struct{}

func (mod InputModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&PointerInput{})
	cmd.UseSystem(System(inputSystem).InStage(PreUpdate))
	cmd.UseSystem(System(inputResetSystem).InStage(Finale))
}

// inputSystem samples the cursor only while it hovers the window.
func inputSystem(s *WindowState, pointer *PointerInput) {
	if s.windowGlfw.GetAttrib(glfw.Hovered) != glfw.True {
		return
	}
	mx, my := s.windowGlfw.GetCursorPos()
	pointer.sample(mx, my, s.WindowWidth, s.WindowHeight)
}

func inputResetSystem(pointer *PointerInput) {
	pointer.Changed = false
}
