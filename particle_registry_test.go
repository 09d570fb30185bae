package driftfield

import (
	"errors"
	"testing"

	"github.com/driftfield/driftfield/fieldrt/rt/core"
	"github.com/driftfield/driftfield/fieldrt/rt/gpu"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmitter struct {
	uid      string
	origin   mgl32.Vec2
	tuning   core.EmitterTuning
	draws    int
	released bool
	drawErr  error
}

func (f *fakeEmitter) AdvanceAndDraw(frame *gpu.Frame, timestamp float64) error {
	f.draws++
	return f.drawErr
}
func (f *fakeEmitter) SetOrigin(origin mgl32.Vec2) { f.origin = origin }
func (f *fakeEmitter) Origin() mgl32.Vec2          { return f.origin }
func (f *fakeEmitter) SetTuning(t core.EmitterTuning) error {
	f.tuning = t
	return nil
}
func (f *fakeEmitter) Stats() core.SystemStats { return core.SystemStats{Count: 1000} }
func (f *fakeEmitter) Release()                { f.released = true }

type fakeFactory struct {
	built map[string]*fakeEmitter
	calls map[string]int
	fail  map[string]error
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		built: make(map[string]*fakeEmitter),
		calls: make(map[string]int),
		fail:  make(map[string]error),
	}
}

func (f *fakeFactory) build(uid string) (Emitter, error) {
	f.calls[uid]++
	if err := f.fail[uid]; err != nil {
		return nil, err
	}
	e := &fakeEmitter{uid: uid}
	f.built[uid] = e
	return e, nil
}

func TestParticleRegistry_EnsureIsIdempotentAndOrdered(t *testing.T) {
	ff := newFakeFactory()
	reg := NewParticleRegistry("local", ff.build, nil)

	for _, uid := range []string{"local", "B", "A", "B", "local"} {
		_, err := reg.Ensure(uid)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"local", "B", "A"}, reg.UIDs())
	assert.Equal(t, 3, reg.Len())
	assert.Equal(t, 1, ff.calls["B"])

	var visited []string
	reg.Each(func(uid string, e Emitter) { visited = append(visited, uid) })
	assert.Equal(t, reg.UIDs(), visited)
}

func TestParticleRegistry_SetOriginImplicitlyAdds(t *testing.T) {
	ff := newFakeFactory()
	reg := NewParticleRegistry("local", ff.build, nil)

	require.NoError(t, reg.SetOrigin("A", mgl32.Vec2{0.3, -0.2}))
	e, ok := reg.Get("A")
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec2{0.3, -0.2}, e.Origin())
	assert.Equal(t, 1, reg.ImplicitAdds())

	// Moving a known uid, or adding one from the roster, is not implicit.
	require.NoError(t, reg.SetOrigin("A", mgl32.Vec2{0, 0}))
	_, err := reg.Ensure("B")
	require.NoError(t, err)
	require.NoError(t, reg.SetOrigin("B", mgl32.Vec2{0, 0}))
	assert.Equal(t, 1, reg.ImplicitAdds())
}

func TestParticleRegistry_RemoveReleases(t *testing.T) {
	ff := newFakeFactory()
	reg := NewParticleRegistry("local", ff.build, nil)
	_, _ = reg.Ensure("A")
	_, _ = reg.Ensure("B")

	assert.True(t, reg.Remove("A"))
	assert.True(t, ff.built["A"].released)
	assert.False(t, reg.Remove("A"))
	assert.Equal(t, []string{"B"}, reg.UIDs())

	reg.Release()
	assert.True(t, ff.built["B"].released)
	assert.Zero(t, reg.Len())
}

func TestParticleRegistry_FailureIsCached(t *testing.T) {
	ff := newFakeFactory()
	boom := errors.New("no device")
	ff.fail["A"] = boom
	reg := NewParticleRegistry("local", ff.build, nil)

	_, err := reg.Ensure("A")
	require.ErrorIs(t, err, ErrEmitterFailed)
	require.ErrorIs(t, err, boom)

	_, err = reg.Ensure("A")
	require.ErrorIs(t, err, ErrEmitterFailed)
	assert.Equal(t, 1, ff.calls["A"], "a failed uid is not rebuilt")
	assert.Zero(t, reg.Len())

	// Leaving clears the failure.
	delete(ff.fail, "A")
	reg.Remove("A")
	_, err = reg.Ensure("A")
	require.NoError(t, err)
	assert.Equal(t, 2, ff.calls["A"])
}

func TestParticleRegistry_ApplyTuning(t *testing.T) {
	ff := newFakeFactory()
	reg := NewParticleRegistry("local", ff.build, nil)
	_, _ = reg.Ensure("local")
	_, _ = reg.Ensure("A")

	tuning := core.DefaultEmitterParams().EmitterTuning
	tuning.Gravity = mgl32.Vec2{0, -0.5}
	require.NoError(t, reg.ApplyTuning(tuning))
	assert.Equal(t, tuning, ff.built["local"].tuning)
	assert.Equal(t, tuning, ff.built["A"].tuning)

	bad := tuning
	bad.MinTheta, bad.MaxTheta = 1, -1
	require.ErrorIs(t, reg.ApplyTuning(bad), core.ErrInvalidRange)
	assert.Equal(t, tuning, ff.built["A"].tuning, "invalid tuning is not applied")
}

func TestParticleRegistry_LateEmitterGetsAppliedTuning(t *testing.T) {
	ff := newFakeFactory()
	reg := NewParticleRegistry("local", ff.build, nil)
	_, _ = reg.Ensure("local")

	tuning := core.DefaultEmitterParams().EmitterTuning
	tuning.BirthRate = 2
	tuning.Gravity = mgl32.Vec2{0.1, -0.7}
	require.NoError(t, reg.ApplyTuning(tuning))

	require.NoError(t, reg.SetOrigin("late", mgl32.Vec2{0.5, 0.5}))
	assert.Equal(t, tuning, ff.built["late"].tuning)

	// A rejected reload does not replace what new emitters start from.
	bad := tuning
	bad.MinSpeed, bad.MaxSpeed = 1, 0
	require.Error(t, reg.ApplyTuning(bad))
	_, err := reg.Ensure("later")
	require.NoError(t, err)
	assert.Equal(t, tuning, ff.built["later"].tuning)
}
