package driftfield

import (
	"context"
	"time"

	"github.com/driftfield/driftfield/relay"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// maxRelayEventsPerFrame bounds how much relay traffic one frame applies.
const maxRelayEventsPerFrame = 256

// RelayModule connects the app to a position relay. Remote positions move
// (and create) remote particle systems; the local pointer is sent out.
// Requires ParticlesModule and InputModule. An empty URL installs nothing.
type RelayModule struct {
	URL           string
	PruneDeparted bool
	SendInterval  time.Duration
	Logger        *zap.Logger
}

// RelayLink is the resource connecting systems to the relay client.
type RelayLink struct {
	Client        *relay.Client
	PruneDeparted bool
}

func (m RelayModule) Install(app *App, cmd *Commands) {
	if m.URL == "" {
		return
	}
	registry, ok := Resource[ParticleRegistry](app)
	if !ok {
		app.Logger().Warnf("relay disabled: no particle registry")
		return
	}

	client := relay.NewClient(relay.ClientConfig{
		URL:          m.URL,
		UID:          registry.LocalUID(),
		SendInterval: m.SendInterval,
	}, m.Logger)

	logger := app.Logger().Named("relay")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := client.Run(ctx); err != nil {
			logger.Errorf("relay client stopped: %v", err)
		}
	}()
	logger.Infof("relaying to %s as %s", m.URL, registry.LocalUID())

	cmd.AddResources(&RelayLink{Client: client, PruneDeparted: m.PruneDeparted})
	cmd.OnShutdown(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			logger.Warnf("relay client did not stop in time")
		}
	})
	cmd.UseSystem(System(relayReceiveSystem).InStage(PreUpdate))
	cmd.UseSystem(System(relaySendSystem).InStage(PostUpdate))
}

// relayReceiveSystem applies queued relay events on the main thread.
func relayReceiveSystem(link *RelayLink, registry *ParticleRegistry, logger Logger) {
	for i := 0; i < maxRelayEventsPerFrame; i++ {
		select {
		case ev, ok := <-link.Client.Events():
			if !ok {
				return
			}
			applyRelayEvent(registry, ev, link.PruneDeparted, logger)
		default:
			return
		}
	}
}

func relaySendSystem(link *RelayLink, pointer *PointerInput) {
	if pointer.Changed {
		link.Client.SendPosition(relay.Location{pointer.Location.X(), pointer.Location.Y()})
	}
}

// applyRelayEvent folds one relay message into the registry. Updates about the
// local uid are ignored; unknown uids get a particle system on first sight.
func applyRelayEvent(registry *ParticleRegistry, ev relay.Event, prune bool, logger Logger) {
	local := registry.LocalUID()

	moveRemote := func(p relay.Position) {
		if p.UID == local {
			return
		}
		loc := p.Location.Clamp()
		// Construction failures are logged once by the registry.
		_ = registry.SetOrigin(p.UID, mgl32.Vec2{loc[0], loc[1]})
	}

	switch ev.Type {
	case relay.TypePosition:
		moveRemote(*ev.Position)

	case relay.TypeSnapshot:
		for _, p := range ev.Snapshot.Users {
			moveRemote(p)
		}

	case relay.TypeRoster:
		present := make(map[string]struct{}, len(ev.Roster.Users))
		for _, uid := range ev.Roster.Users {
			present[uid] = struct{}{}
			if uid != local {
				_, _ = registry.Ensure(uid)
			}
		}
		if !prune {
			return
		}
		for _, uid := range registry.UIDs() {
			if _, ok := present[uid]; !ok && uid != local {
				registry.Remove(uid)
				logger.Infof("participant %s left", uid)
			}
		}
	}
}
