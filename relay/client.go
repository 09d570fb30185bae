package relay

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ClientConfig configures a relay Client.
type ClientConfig struct {
	// URL of the relay websocket endpoint, e.g. ws://localhost:8080/ws.
	URL string
	UID string
	// SendInterval bounds how often position updates leave the client.
	SendInterval time.Duration
	EventBuffer  int
	MaxBackoff   time.Duration
	Dialer       *websocket.Dialer
}

// Client keeps a connection to the relay open, reconnecting with backoff.
// Inbound messages are delivered on Events; SendPosition never blocks.
type Client struct {
	cfg    ClientConfig
	logger *zap.Logger
	events chan Event

	mu      sync.Mutex
	pending *Location
	last    *Location
	notify  chan struct{}

	connected atomic.Bool
}

func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SendInterval <= 0 {
		cfg.SendInterval = 16 * time.Millisecond
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 256
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Second
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
		events: make(chan Event, cfg.EventBuffer),
		notify: make(chan struct{}, 1),
	}
}

// Events delivers decoded inbound messages. It is closed when Run returns.
func (c *Client) Events() <-chan Event { return c.events }

// Connected reports whether a relay connection is currently open.
func (c *Client) Connected() bool { return c.connected.Load() }

// SendPosition queues loc for sending. Only the latest queued location is
// sent; earlier ones not yet on the wire are replaced.
func (c *Client) SendPosition(loc Location) {
	loc = loc.Clamp()
	c.mu.Lock()
	c.pending = &loc
	c.last = &loc
	c.mu.Unlock()
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *Client) takePending() (Location, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return Location{}, false
	}
	loc := *c.pending
	c.pending = nil
	return loc, true
}

// requeueLast marks the last known location for resending after a reconnect.
func (c *Client) requeueLast() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil && c.last != nil {
		loc := *c.last
		c.pending = &loc
	}
}

func (c *Client) dialURL() (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("relay url: %w", err)
	}
	q := u.Query()
	q.Set("uid", c.cfg.UID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Run connects and pumps messages until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.events)

	target, err := c.dialURL()
	if err != nil {
		return err
	}
	if c.cfg.UID == "" {
		return ErrMissingUID
	}

	for {
		ws, err := c.dial(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		c.connected.Store(true)
		c.logger.Info("relay connected", zap.String("url", c.cfg.URL))
		c.requeueLast()
		err = c.session(ctx, ws)
		c.connected.Store(false)

		if ctx.Err() != nil {
			return nil
		}
		c.logger.Warn("relay connection lost", zap.Error(err))
	}
}

func (c *Client) dial(ctx context.Context, target string) (*websocket.Conn, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = c.cfg.MaxBackoff
	b.MaxElapsedTime = 0

	var ws *websocket.Conn
	op := func() error {
		conn, _, err := c.cfg.Dialer.DialContext(ctx, target, nil)
		if err != nil {
			return err
		}
		ws = conn
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Debug("relay dial failed, retrying", zap.Error(err), zap.Duration("wait", wait))
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, err
	}
	return ws, nil
}

// session runs the read and write pumps of one connection.
func (c *Client) session(ctx context.Context, ws *websocket.Conn) error {
	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	g.Go(func() error {
		defer close(done)
		for {
			_, frame, err := ws.ReadMessage()
			if err != nil {
				return fmt.Errorf("read: %w", err)
			}
			ev, err := Decode(frame)
			if err != nil {
				c.logger.Debug("dropping bad frame", zap.Error(err))
				continue
			}
			c.deliver(ev)
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(c.cfg.SendInterval)
		defer ticker.Stop()
		defer func() { _ = ws.Close() }()
		flush := func() error {
			loc, ok := c.takePending()
			if !ok {
				return nil
			}
			frame, err := Encode(TypePosition, Position{UID: c.cfg.UID, Location: loc})
			if err != nil {
				return err
			}
			_ = ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.requeueLast()
				return fmt.Errorf("write: %w", err)
			}
			return nil
		}
		for {
			select {
			case <-gctx.Done():
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					deadlineNow())
				_ = ws.Close()
				return gctx.Err()
			case <-done:
				return nil
			case <-c.notify:
				// Coalesce bursts to one frame per tick.
				select {
				case <-ticker.C:
				case <-gctx.Done():
					continue
				case <-done:
					return nil
				}
				if err := flush(); err != nil {
					return err
				}
			}
		}
	})

	err := g.Wait()
	_ = ws.Close()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// deliver hands ev to the consumer, dropping the oldest queued event when the
// buffer is full.
func (c *Client) deliver(ev Event) {
	for {
		select {
		case c.events <- ev:
			return
		default:
		}
		select {
		case old := <-c.events:
			c.logger.Debug("event buffer full, dropping", zap.String("type", old.Type))
		default:
		}
	}
}
