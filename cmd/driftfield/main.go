package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"runtime"

	"github.com/driftfield/driftfield"
	"github.com/driftfield/driftfield/relay"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "driftfield:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "YAML config file (watched for emitter tuning changes)")
	relayURL := flag.String("relay", "", "relay websocket url, e.g. ws://localhost:8080/ws")
	identity := flag.String("identity", "", "file holding the participant uid")
	particles := flag.Int("particles", 0, "particles per system")
	birthRate := flag.Float64("birth-rate", 0, "particles born per millisecond")
	forceField := flag.String("force-field", "", "force field image")
	prune := flag.Bool("prune", false, "remove particle systems of participants who left")
	debug := flag.Bool("debug", false, "debug logging and profiler output")
	flag.Parse()

	cfg, err := driftfield.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "relay":
			cfg.Relay.URL = *relayURL
		case "identity":
			cfg.IdentityFile = *identity
		case "particles":
			cfg.Emitter.Particles = *particles
		case "birth-rate":
			cfg.Emitter.BirthRate = float32(*birthRate)
		case "force-field":
			cfg.ForceField = *forceField
		case "prune":
			cfg.Relay.PruneDeparted = *prune
		case "debug":
			cfg.Debug = *debug
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	idFile := cfg.IdentityFile
	if idFile == "" {
		if idFile, err = driftfield.DefaultIdentityFile(); err != nil {
			return err
		}
	}
	uid, err := driftfield.LoadOrCreateParticipantID(idFile)
	if err != nil {
		return err
	}

	var field *image.RGBA
	if cfg.ForceField != "" {
		if field, err = driftfield.LoadForceField(cfg.ForceField); err != nil {
			return err
		}
	}

	level := "info"
	if cfg.Debug {
		level = "debug"
	}
	relayLogger, err := relay.NewLogger(level)
	if err != nil {
		return err
	}
	defer relayLogger.Sync()

	app := driftfield.NewAppBuilder().
		UseModule(
			driftfield.LoggingModule{Prefix: "driftfield", Debug: cfg.Debug},
			driftfield.TimeModule{},
			driftfield.NewPlatformWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title),
			driftfield.InputModule{},
			driftfield.ParticlesModule{
				LocalUID:   uid,
				Params:     cfg.Params(),
				ForceField: field,
				Seed:       cfg.Seed,
			},
			driftfield.ConfigReloadModule{Path: *configPath},
			driftfield.RelayModule{
				URL:           cfg.Relay.URL,
				PruneDeparted: cfg.Relay.PruneDeparted,
				SendInterval:  cfg.Relay.SendInterval,
				Logger:        relayLogger.Named("client"),
			},
		).
		Build()

	return app.Run()
}
