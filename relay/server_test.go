package relay

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(DefaultConfig(), zap.NewNop())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func dialUID(t *testing.T, ts *httptest.Server, uid string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?uid=" + uid
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

// readUntil reads frames until one of msgType arrives.
func readUntil(t *testing.T, ws *websocket.Conn, msgType string) Event {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, frame, err := ws.ReadMessage()
		require.NoError(t, err)
		ev, err := Decode(frame)
		require.NoError(t, err)
		if ev.Type == msgType {
			return ev
		}
	}
}

// readRoster reads roster frames until one lists exactly users.
func readRoster(t *testing.T, ws *websocket.Conn, users ...string) {
	t.Helper()
	for {
		ev := readUntil(t, ws, TypeRoster)
		if assert.ObjectsAreEqual(users, ev.Roster.Users) {
			return
		}
	}
}

func sendPosition(t *testing.T, ws *websocket.Conn, uid string, loc Location) {
	t.Helper()
	frame, err := Encode(TypePosition, Position{UID: uid, Location: loc})
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, frame))
}

func TestServerRelaysPositionToOthers(t *testing.T) {
	_, ts := newTestServer(t)

	a := dialUID(t, ts, "A")
	readRoster(t, a, "A")
	b := dialUID(t, ts, "B")
	readRoster(t, b, "A", "B")
	readRoster(t, a, "A", "B")

	sendPosition(t, a, "A", Location{0.3, -0.2})

	ev := readUntil(t, b, TypePosition)
	assert.Equal(t, "A", ev.Position.UID)
	assert.InDelta(t, 0.3, ev.Position.Location[0], 1e-6)
	assert.InDelta(t, -0.2, ev.Position.Location[1], 1e-6)

	// A never hears its own update.
	require.NoError(t, a.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	for {
		_, frame, err := a.ReadMessage()
		if err != nil {
			break
		}
		ev, err := Decode(frame)
		require.NoError(t, err)
		assert.NotEqual(t, TypePosition, ev.Type)
	}
}

func TestServerSnapshotAndLeave(t *testing.T) {
	s, ts := newTestServer(t)

	a := dialUID(t, ts, "A")
	readRoster(t, a, "A")
	b := dialUID(t, ts, "B")
	readRoster(t, b, "A", "B")

	sendPosition(t, a, "A", Location{0.5, 0.5})
	readUntil(t, b, TypePosition)

	c := dialUID(t, ts, "C")
	ev := readUntil(t, c, TypeSnapshot)
	require.Len(t, ev.Snapshot.Users, 1)
	assert.Equal(t, "A", ev.Snapshot.Users[0].UID)
	assert.Equal(t, Location{0.5, 0.5}, ev.Snapshot.Users[0].Location)
	readRoster(t, c, "A", "B", "C")

	require.NoError(t, b.Close())
	readRoster(t, a, "A", "C")
	assert.Eventually(t, func() bool { return s.Registry().Len() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestServerOverridesClaimedUID(t *testing.T) {
	_, ts := newTestServer(t)

	a := dialUID(t, ts, "A")
	readRoster(t, a, "A")
	b := dialUID(t, ts, "B")
	readRoster(t, b, "A", "B")

	sendPosition(t, a, "B", Location{2, 0})
	ev := readUntil(t, b, TypePosition)
	assert.Equal(t, "A", ev.Position.UID)
	assert.Equal(t, Location{1, 0}, ev.Position.Location)
}

func TestServerRejectsMissingUID(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerHealthAndMetrics(t *testing.T) {
	_, ts := newTestServer(t)
	a := dialUID(t, ts, "A")
	readRoster(t, a, "A")

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","connections":1,"participants":1}`, string(body))

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "driftfield_relay_sessions 1")
	assert.Contains(t, string(body), `driftfield_relay_messages_total{direction="out",type="roster"}`)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.PingPeriod = cfg.PongWait
	cfg.SendQueue = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping period")
	assert.Contains(t, err.Error(), "send queue")
}
