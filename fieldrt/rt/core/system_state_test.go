package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultState() *SystemState {
	p := DefaultEmitterParams()
	return NewSystemState(p.ParticleCount, p.EmitterTuning)
}

func TestSystemState_BirthSequence(t *testing.T) {
	s := newDefaultState()

	// First frame has no previous timestamp.
	s.Advance(1000)
	require.Equal(t, 0, s.BornCount)

	ts := 1000.0
	for n := 1; n <= 25; n++ {
		ts += 100
		prev := s.BornCount
		s.Advance(ts)
		assert.Equal(t, min(1000, 50*n), s.BornCount, "after %d calls", n)
		assert.GreaterOrEqual(t, s.BornCount, prev)
		assert.LessOrEqual(t, s.BornCount, s.ParticleCount)
		if n == 20 {
			assert.Equal(t, 1000, s.BornCount, "saturated after 20 calls")
		}
	}
}

func TestSystemState_LargeGapIgnored(t *testing.T) {
	s := newDefaultState()
	s.Advance(1000)
	s.Advance(1100)
	s.Advance(1200)

	born, total := s.BornCount, s.TotalTime
	require.Equal(t, 100, born)
	require.Equal(t, 200.0, total)

	u := s.Advance(11200)
	assert.Equal(t, born, s.BornCount)
	assert.Equal(t, total, s.TotalTime)
	assert.Equal(t, float32(0), u.TimeDelta)
	assert.Equal(t, 11200.0, s.LastTimestamp)

	// The clock resumes from the new timestamp.
	s.Advance(11300)
	assert.Equal(t, 150, s.BornCount)
	assert.Equal(t, 300.0, s.TotalTime)
}

func TestSystemState_DeltaAtThreshold(t *testing.T) {
	s := newDefaultState()
	s.Advance(10)
	u := s.Advance(510)
	assert.InDelta(t, 0.5, u.TimeDelta, 1e-6)
	assert.Equal(t, 250, s.BornCount)
}

func TestSystemState_SameTimestampTwice(t *testing.T) {
	s := newDefaultState()
	s.Advance(500)
	s.Advance(600)
	born, total := s.BornCount, s.TotalTime

	u := s.Advance(600)
	assert.Equal(t, float32(0), u.TimeDelta)
	assert.Equal(t, born, s.BornCount)
	assert.Equal(t, total, s.TotalTime)
}

func TestSystemState_SwapAlternates(t *testing.T) {
	s := newDefaultState()
	ts := 16.0
	for k := 1; k <= 9; k++ {
		s.Advance(ts)
		s.Swap()
		ts += 16
		assert.Equal(t, k%2, s.ReadIndex, "after %d frames", k)
		assert.NotEqual(t, s.ReadIndex, s.WriteIndex)
		assert.Equal(t, s.ReadIndex, s.UpdateSlot())
		assert.Equal(t, s.ReadIndex+2, s.RenderSlot())
	}
}

func TestSystemState_Uniforms(t *testing.T) {
	s := newDefaultState()
	s.Origin = mgl32.Vec2{0.3, -0.2}
	s.Tuning.Gravity = mgl32.Vec2{0, -0.5}

	s.Advance(1000)
	s.Advance(1100)
	u := s.Advance(1150)

	// Time values are taken before this frame's delta is accumulated.
	assert.InDelta(t, 0.05, u.TimeDelta, 1e-6)
	assert.InDelta(t, 0.1, u.Time, 1e-6)
	assert.Equal(t, float32(100), u.TotalTime)
	assert.Equal(t, 150.0, s.TotalTime)
	assert.Equal(t, mgl32.Vec2{0.3, -0.2}, u.Origin)
	assert.Equal(t, mgl32.Vec2{0, -0.5}, u.Gravity)
	assert.Equal(t, s.Tuning.MinTheta, u.MinTheta)
	assert.Equal(t, s.Tuning.MaxSpeed, u.MaxSpeed)
}

func TestSystemState_ZeroBirthRate(t *testing.T) {
	s := NewSystemState(10, EmitterTuning{BirthRate: 0})
	s.Advance(1)
	s.Advance(100)
	assert.Equal(t, 0, s.BornCount)
}

func TestSystemState_PlanLeavesStateUntilCommit(t *testing.T) {
	s := newDefaultState()
	s.Commit(s.Plan(1000))
	require.Equal(t, 1, s.ReadIndex)

	step := s.Plan(1100)
	assert.Equal(t, 50, step.Born)
	assert.Equal(t, 0, s.BornCount, "planning does not admit particles")
	assert.Equal(t, 1000.0, s.LastTimestamp)
	assert.Equal(t, 0.0, s.TotalTime)
	assert.Equal(t, 1, s.ReadIndex)

	// A dropped frame is replanned from the same clock.
	again := s.Plan(1100)
	assert.Equal(t, step, again)

	s.Commit(again)
	assert.Equal(t, 50, s.BornCount)
	assert.Equal(t, 1100.0, s.LastTimestamp)
	assert.Equal(t, 100.0, s.TotalTime)
	assert.Equal(t, 0, s.ReadIndex)
	assert.Equal(t, 1, s.WriteIndex)
}
