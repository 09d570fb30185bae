package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestProfiler() (*Profiler, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	p := NewProfiler()
	p.now = clock.now
	p.WindowStart = clock.t
	return p, clock
}

func TestProfiler_ScopesAccumulate(t *testing.T) {
	p, clock := newTestProfiler()

	for i := 0; i < 4; i++ {
		p.BeginScope("update")
		clock.advance(2 * time.Millisecond)
		p.EndScope("update")
		p.BeginScope("render")
		clock.advance(3 * time.Millisecond)
		p.EndScope("render")
		p.EndFrame()
	}

	assert.Equal(t, []string{"update", "render"}, p.Order)
	assert.Equal(t, 8*time.Millisecond, p.Scopes["update"])
	assert.Equal(t, 12*time.Millisecond, p.Scopes["render"])
}

func TestProfiler_Report(t *testing.T) {
	p, clock := newTestProfiler()
	p.SetCount("systems", 2)
	p.SetCount("born", 1000)

	p.BeginScope("frame")
	clock.advance(10 * time.Millisecond)
	p.EndScope("frame")
	p.EndFrame()

	_, ok := p.Report(time.Second)
	assert.False(t, ok, "window still open")

	clock.advance(990 * time.Millisecond)
	stats, ok := p.Report(time.Second)
	assert.True(t, ok)
	assert.Equal(t, "fps=1.0 frame=10.00ms born=1000 systems=2", stats)

	assert.Equal(t, 0, p.Frames)
	assert.Equal(t, time.Duration(0), p.Scopes["frame"])
}

func TestProfiler_EndWithoutBegin(t *testing.T) {
	p, _ := newTestProfiler()
	p.EndScope("missing")
	assert.Empty(t, p.Scopes)
}

func TestProfiler_DiscardScope(t *testing.T) {
	p, clock := newTestProfiler()

	p.BeginScope("frame")
	clock.advance(5 * time.Millisecond)
	p.DiscardScope("frame")
	p.EndScope("frame")
	assert.Equal(t, time.Duration(0), p.Scopes["frame"])

	p.BeginScope("frame")
	clock.advance(2 * time.Millisecond)
	p.EndScope("frame")
	assert.Equal(t, 2*time.Millisecond, p.Scopes["frame"], "a skipped frame does not leak into the next")
}
