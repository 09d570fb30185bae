package app

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Profiler accumulates CPU time per named scope over a reporting window and
// keeps the latest value of named counters.
type Profiler struct {
	Scopes      map[string]time.Duration
	StartTimes  map[string]time.Time
	Counts      map[string]int
	Order       []string
	Frames      int
	WindowStart time.Time

	now func() time.Time
}

func NewProfiler() *Profiler {
	return &Profiler{
		Scopes:      make(map[string]time.Duration),
		StartTimes:  make(map[string]time.Time),
		Counts:      make(map[string]int),
		Order:       make([]string, 0),
		WindowStart: time.Now(),
		now:         time.Now,
	}
}

func (p *Profiler) BeginScope(name string) {
	p.StartTimes[name] = p.now()
	if _, seen := p.Scopes[name]; !seen {
		p.Scopes[name] = 0
		p.Order = append(p.Order, name)
	}
}

func (p *Profiler) EndScope(name string) {
	if start, ok := p.StartTimes[name]; ok {
		p.Scopes[name] += p.now().Sub(start)
		delete(p.StartTimes, name)
	}
}

// DiscardScope closes an open scope without counting its time.
func (p *Profiler) DiscardScope(name string) {
	delete(p.StartTimes, name)
}

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

// EndFrame marks the end of one displayed frame.
func (p *Profiler) EndFrame() {
	p.Frames++
}

// Report returns the window's statistics and starts a new window once at
// least interval has elapsed. ok is false while the window is still open.
func (p *Profiler) Report(interval time.Duration) (stats string, ok bool) {
	elapsed := p.now().Sub(p.WindowStart)
	if elapsed < interval || p.Frames == 0 {
		return "", false
	}
	stats = p.GetStatsString(elapsed)
	for k := range p.Scopes {
		p.Scopes[k] = 0
	}
	p.Frames = 0
	p.WindowStart = p.now()
	return stats, true
}

func (p *Profiler) GetStatsString(elapsed time.Duration) string {
	var sb strings.Builder

	fps := float64(p.Frames) / elapsed.Seconds()
	sb.WriteString(fmt.Sprintf("fps=%.1f", fps))

	for _, name := range p.Order {
		avg := p.Scopes[name] / time.Duration(p.Frames)
		sb.WriteString(fmt.Sprintf(" %s=%.2fms", name, float64(avg.Microseconds())/1000.0))
	}

	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf(" %s=%d", k, p.Counts[k]))
	}
	return sb.String()
}
