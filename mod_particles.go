package driftfield

import (
	"fmt"
	"image"
	"math/rand"
	"time"

	rtapp "github.com/driftfield/driftfield/fieldrt/rt/app"
	"github.com/driftfield/driftfield/fieldrt/rt/core"
)

// ParticlesModule opens the GPU renderer on the shared window and creates the
// local participant's particle system. Requires PlatformWindowModule,
// TimeModule and InputModule.
type ParticlesModule struct {
	LocalUID   string
	Params     core.EmitterParams
	ForceField *image.RGBA
	Seed       int64
	// ReportInterval is how often profiler stats are logged at debug level.
	ReportInterval time.Duration
}

// ParticleRenderer is the resource holding the GPU renderer.
type ParticleRenderer struct {
	App            *rtapp.App
	reportInterval time.Duration
	failing        map[string]struct{}
}

func (m ParticlesModule) Install(app *App, cmd *Commands) {
	logger := app.Logger().Named("particles")

	ws, ok := Resource[WindowState](app)
	if !ok {
		panic("ParticlesModule requires PlatformWindowModule")
	}
	if err := m.Params.Validate(); err != nil {
		cmd.Fail(fmt.Errorf("emitter parameters: %w", err))
		return
	}

	forceField := m.ForceField
	if forceField == nil {
		forceField = ProceduralForceField(MaxForceFieldSize, MaxForceFieldSize, m.Seed)
	}

	rng := rand.New(rand.NewSource(m.Seed))
	renderer := rtapp.NewApp(ws.windowGlfw)
	cmd.OnShutdown(renderer.Release)
	if err := renderer.Init(forceField, rng); err != nil {
		cmd.Fail(fmt.Errorf("renderer init: %w", err))
		return
	}
	ws.OnFramebufferResize(renderer.Resize)

	params := m.Params
	registry := NewParticleRegistry(m.LocalUID, func(uid string) (Emitter, error) {
		ps, err := renderer.NewParticleSystem(params, rng)
		if err != nil {
			return nil, err
		}
		return ps, nil
	}, logger)

	// Hooks run last-in first-out: emitters go before the renderer.
	cmd.OnShutdown(registry.Release)

	if _, err := registry.Ensure(m.LocalUID); err != nil {
		cmd.Fail(fmt.Errorf("local particle system: %w", err))
		return
	}
	logger.Infof("local particle system ready: %d particles, uid %s", params.ParticleCount, m.LocalUID)

	interval := m.ReportInterval
	if interval <= 0 {
		interval = time.Second
	}
	cmd.AddResources(registry, &ParticleRenderer{
		App:            renderer,
		reportInterval: interval,
		failing:        make(map[string]struct{}),
	})
	cmd.UseSystem(System(localOriginSystem).InStage(Update))
	cmd.UseSystem(System(particlesRenderSystem).InStage(Render))
}

// localOriginSystem moves the local emitter to the pointer.
func localOriginSystem(pointer *PointerInput, registry *ParticleRegistry) error {
	if !pointer.Changed {
		return nil
	}
	return registry.SetOrigin(registry.LocalUID(), pointer.Location)
}

// particlesRenderSystem encodes one frame: a clear, then update and draw for
// every emitter in registry order. A failing emitter is logged once and the
// others still draw.
func particlesRenderSystem(r *ParticleRenderer, registry *ParticleRegistry, t *Time, logger Logger) {
	frame, err := r.App.BeginFrame()
	if err != nil {
		logger.Warnf("frame skipped: %v", err)
		return
	}

	now := t.Millis()
	born := 0
	r.App.Profiler.BeginScope("encode")
	registry.Each(func(uid string, e Emitter) {
		if err := e.AdvanceAndDraw(frame, now); err != nil {
			if _, seen := r.failing[uid]; !seen {
				r.failing[uid] = struct{}{}
				logger.Errorf("particle system %s: %v", uid, err)
			}
			return
		}
		delete(r.failing, uid)
		born += e.Stats().Born
	})
	r.App.Profiler.EndScope("encode")
	r.App.Profiler.SetCount("systems", registry.Len())
	r.App.Profiler.SetCount("born", born)
	r.App.Profiler.SetCount("implicit_adds", registry.ImplicitAdds())

	if err := r.App.EndFrame(frame); err != nil {
		logger.Warnf("frame submit: %v", err)
	}

	if logger.DebugEnabled() {
		if stats, ok := r.App.Profiler.Report(r.reportInterval); ok {
			logger.Debugf("%s", stats)
		}
	}
}
