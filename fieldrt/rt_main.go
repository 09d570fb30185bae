package main

import (
	"flag"
	"log"
	"math/rand"
	"runtime"
	"time"

	"github.com/driftfield/driftfield"
	"github.com/driftfield/driftfield/fieldrt/rt/app"
	"github.com/driftfield/driftfield/fieldrt/rt/core"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	particles := flag.Int("particles", 1000, "particle count")
	birthRate := flag.Float64("birth-rate", 0.5, "particles born per millisecond")
	gravityY := flag.Float64("gravity", 0, "vertical gravity")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	debug := flag.Bool("debug", false, "print profiler stats every second")
	flag.Parse()

	params := core.DefaultEmitterParams()
	params.ParticleCount = *particles
	params.BirthRate = float32(*birthRate)
	params.Gravity[1] = float32(*gravityY)
	if err := params.Validate(); err != nil {
		log.Fatal(err)
	}

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(1280, 720, "FieldRT Go", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	rng := rand.New(rand.NewSource(*seed))
	application := app.NewApp(window)
	defer application.Release()
	if err := application.Init(driftfield.ProceduralForceField(512, 512, *seed), rng); err != nil {
		panic(err)
	}

	system, err := application.NewParticleSystem(params, rng)
	if err != nil {
		panic(err)
	}
	defer system.Release()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})

	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		width, height := w.GetSize()
		system.SetOrigin(driftfield.NormalizePointer(xpos, ypos, width, height))
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	start := time.Now()
	for !window.ShouldClose() {
		glfw.PollEvents()

		frame, err := application.BeginFrame()
		if err != nil {
			log.Printf("frame skipped: %v", err)
			continue
		}
		now := float64(time.Since(start).Nanoseconds()) / 1e6
		if err := system.AdvanceAndDraw(frame, now); err != nil {
			log.Printf("particle system: %v", err)
		}
		application.Profiler.SetCount("born", system.Stats().Born)
		if err := application.EndFrame(frame); err != nil {
			log.Printf("frame submit: %v", err)
		}

		if *debug {
			if stats, ok := application.Profiler.Report(time.Second); ok {
				log.Println(stats)
			}
		}
	}
}
