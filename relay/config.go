package relay

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the relay server settings.
type Config struct {
	Addr            string
	LogLevel        string
	AllowedOrigins  []string
	ReadLimit       int64
	PongWait        time.Duration
	PingPeriod      time.Duration
	WriteWait       time.Duration
	SendQueue       int
	RateLimit       float64
	RateBurst       int
	ShutdownTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		LogLevel:        "info",
		ReadLimit:       4096,
		PongWait:        60 * time.Second,
		PingPeriod:      45 * time.Second,
		WriteWait:       10 * time.Second,
		SendQueue:       64,
		RateLimit:       120,
		RateBurst:       30,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Validate rejects settings the pumps cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is empty"))
	}
	if c.ReadLimit <= 0 {
		errs = append(errs, fmt.Errorf("read limit %d must be positive", c.ReadLimit))
	}
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		errs = append(errs, fmt.Errorf("ping period %s must be positive and shorter than pong wait %s", c.PingPeriod, c.PongWait))
	}
	if c.WriteWait <= 0 {
		errs = append(errs, fmt.Errorf("write wait %s must be positive", c.WriteWait))
	}
	if c.SendQueue <= 0 {
		errs = append(errs, fmt.Errorf("send queue %d must be positive", c.SendQueue))
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		errs = append(errs, fmt.Errorf("rate limit %g/%d must be positive", c.RateLimit, c.RateBurst))
	}
	return errors.Join(errs...)
}

// RegisterFlags binds the config to fs. Defaults come from c, overridden by
// DRIFTFIELD_RELAY_* environment variables.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", envString("DRIFTFIELD_RELAY_ADDR", c.Addr), "listen address")
	fs.StringVar(&c.LogLevel, "log-level", envString("DRIFTFIELD_RELAY_LOG_LEVEL", c.LogLevel), "log level (debug, info, warn, error)")
	fs.Func("origins", "comma separated allowed origins (default: any)", func(v string) error {
		c.AllowedOrigins = splitList(v)
		return nil
	})
	if v, ok := os.LookupEnv("DRIFTFIELD_RELAY_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}
	fs.Int64Var(&c.ReadLimit, "read-limit", c.ReadLimit, "max inbound frame size in bytes")
	fs.IntVar(&c.SendQueue, "send-queue", c.SendQueue, "outbound frames buffered per connection")
	fs.Float64Var(&c.RateLimit, "rate", envFloat("DRIFTFIELD_RELAY_RATE", c.RateLimit), "position updates per second per connection")
	fs.IntVar(&c.RateBurst, "burst", c.RateBurst, "position update burst per connection")
	fs.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", c.ShutdownTimeout, "graceful shutdown timeout")
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
