package relay

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// conn is one websocket connection and its outbound queue. Only writePump
// writes to ws.
type conn struct {
	id      string
	uid     string
	ws      *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
}

// Hub fans frames out to connections. Sessions live in the registry; the hub
// owns the send queues.
type Hub struct {
	mu       sync.RWMutex
	conns    map[string]*conn
	registry *SessionRegistry
	metrics  *Metrics
	logger   *zap.Logger
}

func NewHub(registry *SessionRegistry, metrics *Metrics, logger *zap.Logger) *Hub {
	return &Hub{
		conns:    make(map[string]*conn),
		registry: registry,
		metrics:  metrics,
		logger:   logger,
	}
}

// join registers c, hands it the snapshot of known origins and tells everyone
// the new roster.
func (h *Hub) join(c *conn) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()

	isNew := h.registry.Add(c.id, c.uid)
	h.metrics.Sessions.Inc()
	h.logger.Info("participant joined",
		zap.String("conn_id", c.id),
		zap.String("uid", c.uid),
		zap.Bool("new_uid", isNew),
	)

	if snap := h.registry.Snapshot(); len(snap) > 0 {
		if frame, err := Encode(TypeSnapshot, Snapshot{Users: snap}); err == nil {
			h.sendTo(c, TypeSnapshot, frame)
		} else {
			h.logger.Error("encode snapshot", zap.Error(err))
		}
	}
	h.broadcastRoster()
}

// leave unregisters c and closes its queue. Safe to call more than once.
func (h *Hub) leave(c *conn) {
	h.mu.Lock()
	if _, ok := h.conns[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, c.id)
	close(c.send)
	h.mu.Unlock()

	uid, departed := h.registry.Remove(c.id)
	h.metrics.Sessions.Dec()
	h.logger.Info("participant left",
		zap.String("conn_id", c.id),
		zap.String("uid", uid),
		zap.Bool("departed", departed),
	)
	h.broadcastRoster()
}

// position records the sender's latest origin and relays it to every other
// connection. The uid is always the one the connection joined with.
func (h *Hub) position(c *conn, pos Position) {
	if pos.UID != c.uid {
		h.logger.Warn("position uid does not match connection",
			zap.String("conn_id", c.id),
			zap.String("uid", c.uid),
			zap.String("claimed", pos.UID),
		)
		pos.UID = c.uid
	}
	pos.Location = pos.Location.Clamp()
	h.registry.UpdateLocation(c.id, pos.Location)

	frame, err := Encode(TypePosition, pos)
	if err != nil {
		h.logger.Error("encode position", zap.Error(err))
		return
	}
	h.broadcast(TypePosition, frame, c.id)
}

func (h *Hub) broadcastRoster() {
	users := h.registry.Roster()
	h.metrics.Participants.Set(float64(len(users)))
	frame, err := Encode(TypeRoster, Roster{Users: users})
	if err != nil {
		h.logger.Error("encode roster", zap.Error(err))
		return
	}
	h.broadcast(TypeRoster, frame, "")
}

// broadcast queues frame on every connection except the one with id except.
func (h *Hub) broadcast(msgType string, frame []byte, except string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.conns {
		if id == except {
			continue
		}
		h.enqueue(c, msgType, frame)
	}
}

func (h *Hub) sendTo(c *conn, msgType string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.conns[c.id]; ok {
		h.enqueue(c, msgType, frame)
	}
}

// enqueue must be called with h.mu held. A full queue drops the frame.
func (h *Hub) enqueue(c *conn, msgType string, frame []byte) {
	select {
	case c.send <- frame:
		h.metrics.Messages.WithLabelValues("out", msgType).Inc()
	default:
		h.metrics.Dropped.Inc()
		h.logger.Warn("send queue full, dropping frame",
			zap.String("conn_id", c.id),
			zap.String("type", msgType),
		)
	}
}

// closeAll closes every websocket so the read pumps unwind.
func (h *Hub) closeAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.conns {
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			deadlineNow())
		_ = c.ws.Close()
	}
}

// Len reports the number of open connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
