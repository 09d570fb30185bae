package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrInvalidRange is returned when emitter parameters describe an empty or out of bounds range.
	ErrInvalidRange = errors.New("invalid range")
	// ErrProgramBuildFailure is returned when a shader program cannot be compiled or linked.
	ErrProgramBuildFailure = errors.New("program build failure")
)

// EmitterTuning holds the parameters that may change while an emitter is alive.
type EmitterTuning struct {
	BirthRate float32 // particles per millisecond
	MinTheta  float32 // radians
	MaxTheta  float32
	MinSpeed  float32
	MaxSpeed  float32
	Gravity   mgl32.Vec2
}

// EmitterParams describes one particle system at construction time.
type EmitterParams struct {
	ParticleCount int
	MinLife       float32 // seconds
	MaxLife       float32
	EmitterTuning
}

// DefaultEmitterParams returns the stock emitter: a thousand particles
// sprayed in every direction with no gravity.
func DefaultEmitterParams() EmitterParams {
	return EmitterParams{
		ParticleCount: 1000,
		MinLife:       1.01,
		MaxLife:       1.45,
		EmitterTuning: EmitterTuning{
			BirthRate: 0.5,
			MinTheta:  -math.Pi,
			MaxTheta:  math.Pi,
			MinSpeed:  -0.3,
			MaxSpeed:  0.3,
			Gravity:   mgl32.Vec2{0, 0},
		},
	}
}

// Validate checks the construction parameters. It must run before any GPU allocation.
func (p EmitterParams) Validate() error {
	if p.ParticleCount <= 0 {
		return fmt.Errorf("particle count %d must be positive: %w", p.ParticleCount, ErrInvalidRange)
	}
	if p.MaxLife < p.MinLife {
		return fmt.Errorf("invalid age range [%g, %g]: %w", p.MinLife, p.MaxLife, ErrInvalidRange)
	}
	return p.EmitterTuning.Validate()
}

// Validate checks the runtime tunable parameters.
func (t EmitterTuning) Validate() error {
	if t.MaxTheta < t.MinTheta || t.MinTheta < -math.Pi || t.MaxTheta > math.Pi {
		return fmt.Errorf("invalid theta range [%g, %g]: %w", t.MinTheta, t.MaxTheta, ErrInvalidRange)
	}
	if t.BirthRate < 0 {
		return fmt.Errorf("birth rate %g must not be negative: %w", t.BirthRate, ErrInvalidRange)
	}
	return nil
}
