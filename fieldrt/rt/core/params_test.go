package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEmitterParams_Valid(t *testing.T) {
	p := DefaultEmitterParams()
	require.NoError(t, p.Validate())
	assert.Equal(t, 1000, p.ParticleCount)
	assert.Equal(t, float32(0.5), p.BirthRate)
}

func TestEmitterParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *EmitterParams)
		valid  bool
	}{
		{"defaults", func(p *EmitterParams) {}, true},
		{"equal life bounds", func(p *EmitterParams) { p.MinLife, p.MaxLife = 1, 1 }, true},
		{"inverted life", func(p *EmitterParams) { p.MinLife, p.MaxLife = 2, 1 }, false},
		{"inverted theta", func(p *EmitterParams) { p.MinTheta, p.MaxTheta = 1, 0.5 }, false},
		{"theta below -pi", func(p *EmitterParams) { p.MinTheta = -4 }, false},
		{"theta above pi", func(p *EmitterParams) { p.MaxTheta = 3.5 }, false},
		{"narrow cone", func(p *EmitterParams) { p.MinTheta, p.MaxTheta = math.Pi/2 - 0.5, math.Pi/2 + 0.5 }, true},
		{"zero particles", func(p *EmitterParams) { p.ParticleCount = 0 }, false},
		{"negative birth rate", func(p *EmitterParams) { p.BirthRate = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultEmitterParams()
			tt.modify(&p)
			err := p.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidRange)
			}
		})
	}
}

func TestEmitterTuning_ValidateFullCircle(t *testing.T) {
	tuning := EmitterTuning{MinTheta: -math.Pi, MaxTheta: math.Pi}
	assert.NoError(t, tuning.Validate())
}
