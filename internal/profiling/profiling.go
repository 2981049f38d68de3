package profiling

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Frame accumulates per-tick durations by name. One Frame belongs to one
// session; it is safe for use from worker goroutines.
type Frame struct {
	mu     sync.Mutex
	totals map[string]time.Duration
	ticks  int
}

func NewFrame() *Frame {
	return &Frame{totals: make(map[string]time.Duration)}
}

// Track returns a stop function that records the elapsed time under name.
// Usage: defer frame.Track("streaming.Step")()
func (f *Frame) Track(name string) func() {
	if f == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		d := time.Since(start)
		f.mu.Lock()
		f.totals[name] += d
		f.mu.Unlock()
	}
}

// Reset clears the totals. Call it at the start of a reporting window.
func (f *Frame) Reset() {
	f.mu.Lock()
	clear(f.totals)
	f.ticks = 0
	f.mu.Unlock()
}

// Tick counts one host-loop iteration in the current window.
func (f *Frame) Tick() {
	f.mu.Lock()
	f.ticks++
	f.mu.Unlock()
}

// Snapshot returns a copy of the current totals and the tick count.
func (f *Frame) Snapshot() (map[string]time.Duration, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]time.Duration, len(f.totals))
	for k, v := range f.totals {
		out[k] = v
	}
	return out, f.ticks
}

// TopN formats the n largest totals, e.g.
// "world.GenerateTerrain:4.2ms, world.GenerateMesh:2.1ms".
func (f *Frame) TopN(n int) string {
	totals, _ := f.Snapshot()
	type pair struct {
		name string
		dur  time.Duration
	}
	list := make([]pair, 0, len(totals))
	for k, v := range totals {
		list = append(list, pair{name: k, dur: v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].dur == list[j].dur {
			return list[i].name < list[j].name
		}
		return list[i].dur > list[j].dur
	})
	n = min(n, len(list))
	parts := make([]string, 0, n)
	for _, p := range list[:n] {
		ms := float64(p.dur.Microseconds()) / 1000.0
		parts = append(parts, p.name+":"+strconv.FormatFloat(ms, 'f', -1, 64)+"ms")
	}
	return strings.Join(parts, ", ")
}
