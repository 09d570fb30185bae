package relay

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrBadMessage is returned for frames that are not a known relay message.
var ErrBadMessage = errors.New("bad relay message")

// Message types carried in Envelope.Type.
const (
	TypePosition = "position"
	TypeRoster   = "roster"
	TypeSnapshot = "snapshot"
)

// Location is a normalized pointer position, both axes in [-1, 1].
type Location [2]float32

// Envelope is the frame format on the wire.
type Envelope struct {
	Type string              `json:"type"`
	Data jsoniter.RawMessage `json:"data"`
}

// Position announces a participant's origin.
type Position struct {
	UID      string   `json:"uid"`
	Location Location `json:"location"`
}

// Roster lists every participant currently connected.
type Roster struct {
	Users []string `json:"users"`
}

// Snapshot is sent to a newcomer: the last known origin of every participant
// that has moved at least once.
type Snapshot struct {
	Users []Position `json:"users"`
}

// Event is a decoded inbound message. Exactly one of the pointer fields is set.
type Event struct {
	Type     string
	Position *Position
	Roster   *Roster
	Snapshot *Snapshot
}

// Encode wraps payload in an envelope of the given type.
func Encode(msgType string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msgType, err)
	}
	return json.Marshal(Envelope{Type: msgType, Data: data})
}

// Decode parses one frame.
func Decode(frame []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}

	ev := Event{Type: env.Type}
	var target any
	switch env.Type {
	case TypePosition:
		ev.Position = &Position{}
		target = ev.Position
	case TypeRoster:
		ev.Roster = &Roster{}
		target = ev.Roster
	case TypeSnapshot:
		ev.Snapshot = &Snapshot{}
		target = ev.Snapshot
	default:
		return Event{}, fmt.Errorf("%w: unknown type %q", ErrBadMessage, env.Type)
	}
	if len(env.Data) == 0 {
		return Event{}, fmt.Errorf("%w: %s without data", ErrBadMessage, env.Type)
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return Event{}, fmt.Errorf("%w: %s: %v", ErrBadMessage, env.Type, err)
	}
	if ev.Position != nil && ev.Position.UID == "" {
		return Event{}, fmt.Errorf("%w: position without uid", ErrBadMessage)
	}
	return ev, nil
}

// Clamp limits both axes to [-1, 1].
func (l Location) Clamp() Location {
	for i, v := range l {
		if v < -1 {
			l[i] = -1
		} else if v > 1 {
			l[i] = 1
		}
	}
	return l
}
