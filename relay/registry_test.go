package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRegistryRoster(t *testing.T) {
	r := NewSessionRegistry()
	assert.True(t, r.Add("c1", "B"))
	assert.True(t, r.Add("c2", "A"))
	assert.False(t, r.Add("c3", "B"), "second connection of B is not a new uid")

	assert.Equal(t, []string{"A", "B"}, r.Roster())
	assert.Equal(t, 3, r.Len())

	uid, departed := r.Remove("c1")
	assert.Equal(t, "B", uid)
	assert.False(t, departed, "B still has c3")

	uid, departed = r.Remove("c3")
	assert.Equal(t, "B", uid)
	assert.True(t, departed)
	assert.Equal(t, []string{"A"}, r.Roster())

	_, departed = r.Remove("missing")
	assert.False(t, departed)
}

func TestSessionRegistrySnapshotOnlyMoved(t *testing.T) {
	r := NewSessionRegistry()
	r.Add("c1", "A")
	r.Add("c2", "B")
	assert.Empty(t, r.Snapshot())

	require.True(t, r.UpdateLocation("c2", Location{0.1, 0.2}))
	require.True(t, r.UpdateLocation("c2", Location{0.3, -0.2}))
	assert.False(t, r.UpdateLocation("nope", Location{}))

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, Position{UID: "B", Location: Location{0.3, -0.2}}, snap[0])

	s, ok := r.Get("c2")
	require.True(t, ok)
	assert.True(t, s.HasMoved)
	_, ok = r.Get("nope")
	assert.False(t, ok)
}
