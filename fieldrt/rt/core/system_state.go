package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxFrameDelta is the largest gap between frames, in milliseconds, that still
// advances the simulation. Longer gaps count as zero elapsed time.
const MaxFrameDelta = 500.0

// SystemState is the CPU side of one particle system: timing, birth
// throttling, the emitter origin and which buffer is current.
type SystemState struct {
	ReadIndex     int
	WriteIndex    int
	ParticleCount int
	BornCount     int
	LastTimestamp float64 // ms, 0 means no frame yet
	TotalTime     float64 // ms
	Origin        mgl32.Vec2
	Tuning        EmitterTuning
}

// NewSystemState creates the state for a system of particleCount particles.
// No particle is born yet; buffer 0 is the read buffer.
func NewSystemState(particleCount int, tuning EmitterTuning) *SystemState {
	return &SystemState{
		ReadIndex:     0,
		WriteIndex:    1,
		ParticleCount: particleCount,
		Tuning:        tuning,
	}
}

// FrameStep is a planned frame: the uniforms for its update pass and the
// clock and birth values that become current once the frame is encoded.
type FrameStep struct {
	Uniforms  FrameUniforms
	Born      int
	Timestamp float64
	TotalTime float64
}

// Plan computes the frame at timestamp without changing s.
func (s *SystemState) Plan(timestamp float64) FrameStep {
	dt := 0.0
	if s.LastTimestamp != 0 {
		dt = timestamp - s.LastTimestamp
		if dt > MaxFrameDelta {
			dt = 0
		}
	}

	born := s.BornCount
	if born < s.ParticleCount {
		next := int(math.Floor(float64(born) + float64(s.Tuning.BirthRate)*dt))
		born = min(s.ParticleCount, max(born, next))
	}

	return FrameStep{
		Uniforms: FrameUniforms{
			TimeDelta: float32(dt / 1000),
			Time:      float32(s.TotalTime / 1000),
			TotalTime: float32(s.TotalTime),
			Gravity:   s.Tuning.Gravity,
			Origin:    s.Origin,
			MinTheta:  s.Tuning.MinTheta,
			MaxTheta:  s.Tuning.MaxTheta,
			MinSpeed:  s.Tuning.MinSpeed,
			MaxSpeed:  s.Tuning.MaxSpeed,
		},
		Born:      born,
		Timestamp: timestamp,
		TotalTime: s.TotalTime + dt,
	}
}

// Commit makes step current and swaps the buffers. A frame that fails to
// encode is never committed, so the clock and the buffers stay in step.
func (s *SystemState) Commit(step FrameStep) {
	s.advanceTo(step)
	s.Swap()
}

// Advance moves the clock to timestamp, admits newly born particles and
// returns the uniforms for this frame's update pass. It does not swap.
func (s *SystemState) Advance(timestamp float64) FrameUniforms {
	step := s.Plan(timestamp)
	s.advanceTo(step)
	return step.Uniforms
}

func (s *SystemState) advanceTo(step FrameStep) {
	s.BornCount = step.Born
	s.LastTimestamp = step.Timestamp
	s.TotalTime = step.TotalTime
}

// Swap exchanges the read and write buffers. Called once at the end of every frame.
func (s *SystemState) Swap() {
	s.ReadIndex, s.WriteIndex = s.WriteIndex, s.ReadIndex
}

// UpdateSlot is the binding set the update pass uses this frame.
func (s *SystemState) UpdateSlot() int { return s.ReadIndex }

// RenderSlot is the binding set the render pass uses this frame. It draws the
// read buffer, never the buffer being written.
func (s *SystemState) RenderSlot() int { return s.ReadIndex + 2 }

// SystemStats is a snapshot for diagnostics.
type SystemStats struct {
	Born      int
	Count     int
	TotalTime float64
	ReadIndex int
}

func (s *SystemState) Stats() SystemStats {
	return SystemStats{
		Born:      s.BornCount,
		Count:     s.ParticleCount,
		TotalTime: s.TotalTime,
		ReadIndex: s.ReadIndex,
	}
}
