package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodePosition(t *testing.T) {
	frame, err := Encode(TypePosition, Position{UID: "A", Location: Location{0.3, -0.2}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"position","data":{"uid":"A","location":[0.3,-0.2]}}`, string(frame))

	ev, err := Decode(frame)
	require.NoError(t, err)
	require.NotNil(t, ev.Position)
	assert.Equal(t, TypePosition, ev.Type)
	assert.Equal(t, "A", ev.Position.UID)
	assert.InDelta(t, 0.3, ev.Position.Location[0], 1e-6)
	assert.InDelta(t, -0.2, ev.Position.Location[1], 1e-6)
	assert.Nil(t, ev.Roster)
	assert.Nil(t, ev.Snapshot)
}

func TestDecodeRosterAndSnapshot(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"roster","data":{"users":["A","B"]}}`))
	require.NoError(t, err)
	require.NotNil(t, ev.Roster)
	assert.Equal(t, []string{"A", "B"}, ev.Roster.Users)

	ev, err = Decode([]byte(`{"type":"snapshot","data":{"users":[{"uid":"A","location":[1,0]}]}}`))
	require.NoError(t, err)
	require.NotNil(t, ev.Snapshot)
	require.Len(t, ev.Snapshot.Users, 1)
	assert.Equal(t, Location{1, 0}, ev.Snapshot.Users[0].Location)
}

func TestDecodeRejectsBadFrames(t *testing.T) {
	cases := map[string]string{
		"not json":         `{`,
		"unknown type":     `{"type":"chat","data":{}}`,
		"missing data":     `{"type":"roster"}`,
		"position no uid":  `{"type":"position","data":{"location":[0,0]}}`,
		"wrong data shape": `{"type":"position","data":{"uid":"A","location":"x"}}`,
	}
	for name, frame := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(frame))
			assert.ErrorIs(t, err, ErrBadMessage)
		})
	}
}

func TestLocationClamp(t *testing.T) {
	assert.Equal(t, Location{-1, 1}, Location{-3, 2}.Clamp())
	assert.Equal(t, Location{0.5, -0.5}, Location{0.5, -0.5}.Clamp())
}
