package driftfield

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/driftfield/driftfield/fieldrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Window struct {
		Width  int    `yaml:"width"`
		Height int    `yaml:"height"`
		Title  string `yaml:"title"`
	} `yaml:"window"`

	Emitter EmitterConfig `yaml:"emitter"`

	Relay struct {
		URL           string        `yaml:"url"`
		PruneDeparted bool          `yaml:"prune_departed"`
		SendInterval  time.Duration `yaml:"send_interval"`
	} `yaml:"relay"`

	// IdentityFile stores the participant uid between runs. Empty means the
	// default location under the user config directory.
	IdentityFile string `yaml:"identity_file"`
	// ForceField is an image path; empty selects the procedural field.
	ForceField string `yaml:"force_field"`
	Seed       int64  `yaml:"seed"`
	Debug      bool   `yaml:"debug"`
}

type Range struct {
	Min float32 `yaml:"min"`
	Max float32 `yaml:"max"`
}

type EmitterConfig struct {
	Particles int     `yaml:"particles"`
	BirthRate float32 `yaml:"birth_rate"`
	Life      Range   `yaml:"life"`
	Theta     Range   `yaml:"theta"`
	Speed     Range   `yaml:"speed"`
	Gravity   struct {
		X float32 `yaml:"x"`
		Y float32 `yaml:"y"`
	} `yaml:"gravity"`
}

// DefaultConfig matches core.DefaultEmitterParams and an unconnected 1280x720
// window.
func DefaultConfig() Config {
	var c Config
	c.Window.Width = 1280
	c.Window.Height = 720
	c.Window.Title = "driftfield"
	c.Relay.SendInterval = 16 * time.Millisecond

	p := core.DefaultEmitterParams()
	c.Emitter.Particles = p.ParticleCount
	c.Emitter.BirthRate = p.BirthRate
	c.Emitter.Life = Range{Min: p.MinLife, Max: p.MaxLife}
	c.Emitter.Theta = Range{Min: p.MinTheta, Max: p.MaxTheta}
	c.Emitter.Speed = Range{Min: p.MinSpeed, Max: p.MaxSpeed}
	c.Emitter.Gravity.X, c.Emitter.Gravity.Y = p.Gravity.X(), p.Gravity.Y()
	return c
}

// LoadConfig reads a YAML file over the defaults. Keys missing from the file
// keep their default. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Relay.SendInterval < 0 {
		errs = append(errs, fmt.Errorf("relay send interval %s must not be negative", c.Relay.SendInterval))
	}
	if err := c.Params().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Params is the emitter construction parameters.
func (c Config) Params() core.EmitterParams {
	return core.EmitterParams{
		ParticleCount: c.Emitter.Particles,
		MinLife:       c.Emitter.Life.Min,
		MaxLife:       c.Emitter.Life.Max,
		EmitterTuning: c.Tuning(),
	}
}

// Tuning is the part of the emitter config applied live on reload.
func (c Config) Tuning() core.EmitterTuning {
	return core.EmitterTuning{
		BirthRate: c.Emitter.BirthRate,
		MinTheta:  clampTheta(c.Emitter.Theta.Min),
		MaxTheta:  clampTheta(c.Emitter.Theta.Max),
		MinSpeed:  c.Emitter.Speed.Min,
		MaxSpeed:  c.Emitter.Speed.Max,
		Gravity:   mgl32.Vec2{c.Emitter.Gravity.X, c.Emitter.Gravity.Y},
	}
}

// clampTheta absorbs the rounding of a decimal pi written in YAML, so
// 3.14159265 is accepted. Anything further out stays invalid.
func clampTheta(v float32) float32 {
	const slack = 1e-5
	if v > math.Pi && v < math.Pi+slack {
		return math.Pi
	}
	if v < -math.Pi && v > -math.Pi-slack {
		return -math.Pi
	}
	return v
}
