package driftfield

import (
	"testing"

	"github.com/driftfield/driftfield/relay"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEvent(t *testing.T, msgType string, payload any) relay.Event {
	t.Helper()
	frame, err := relay.Encode(msgType, payload)
	require.NoError(t, err)
	ev, err := relay.Decode(frame)
	require.NoError(t, err)
	return ev
}

func TestApplyRelayEvent_RemotePosition(t *testing.T) {
	ff := newFakeFactory()
	reg := NewParticleRegistry("B", ff.build, nil)
	_, _ = reg.Ensure("B")
	ff.built["B"].SetOrigin(mgl32.Vec2{0.9, 0.9})

	ev := decodeEvent(t, relay.TypePosition, relay.Position{UID: "A", Location: relay.Location{0.3, -0.2}})
	applyRelayEvent(reg, ev, false, NewNopLogger())

	a, ok := reg.Get("A")
	require.True(t, ok, "unknown uid is added implicitly")
	assert.InDelta(t, 0.3, a.Origin().X(), 1e-6)
	assert.InDelta(t, -0.2, a.Origin().Y(), 1e-6)
	assert.Equal(t, mgl32.Vec2{0.9, 0.9}, ff.built["B"].origin, "local origin untouched")
}

func TestApplyRelayEvent_OwnPositionIgnored(t *testing.T) {
	ff := newFakeFactory()
	reg := NewParticleRegistry("A", ff.build, nil)
	_, _ = reg.Ensure("A")

	ev := decodeEvent(t, relay.TypePosition, relay.Position{UID: "A", Location: relay.Location{0.3, -0.2}})
	applyRelayEvent(reg, ev, false, NewNopLogger())

	assert.Equal(t, mgl32.Vec2{}, ff.built["A"].origin)
	assert.Equal(t, 1, reg.Len())
}

func TestApplyRelayEvent_SnapshotAndRoster(t *testing.T) {
	ff := newFakeFactory()
	reg := NewParticleRegistry("L", ff.build, nil)
	_, _ = reg.Ensure("L")

	applyRelayEvent(reg, decodeEvent(t, relay.TypeRoster, relay.Roster{Users: []string{"A", "L", "C"}}), false, NewNopLogger())
	assert.Equal(t, []string{"L", "A", "C"}, reg.UIDs())

	applyRelayEvent(reg, decodeEvent(t, relay.TypeSnapshot, relay.Snapshot{Users: []relay.Position{
		{UID: "C", Location: relay.Location{1, 1}},
		{UID: "L", Location: relay.Location{-1, -1}},
	}}), false, NewNopLogger())
	assert.Equal(t, mgl32.Vec2{1, 1}, ff.built["C"].origin)
	assert.Equal(t, mgl32.Vec2{}, ff.built["L"].origin)

	// Without pruning departed participants stay.
	applyRelayEvent(reg, decodeEvent(t, relay.TypeRoster, relay.Roster{Users: []string{"L"}}), false, NewNopLogger())
	assert.Equal(t, 3, reg.Len())

	applyRelayEvent(reg, decodeEvent(t, relay.TypeRoster, relay.Roster{Users: []string{"L", "C"}}), true, NewNopLogger())
	assert.Equal(t, []string{"L", "C"}, reg.UIDs())
	assert.True(t, ff.built["A"].released)
}

func TestApplyRelayEvent_FailingRemoteIsSkipped(t *testing.T) {
	ff := newFakeFactory()
	ff.fail["A"] = assert.AnError
	reg := NewParticleRegistry("L", ff.build, nil)
	_, _ = reg.Ensure("L")

	ev := decodeEvent(t, relay.TypePosition, relay.Position{UID: "A", Location: relay.Location{0, 0}})
	applyRelayEvent(reg, ev, false, NewNopLogger())
	applyRelayEvent(reg, ev, false, NewNopLogger())

	assert.Equal(t, []string{"L"}, reg.UIDs())
	assert.Equal(t, 1, ff.calls["A"])
}
