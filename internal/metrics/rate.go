package metrics

import (
	"sync"
	"time"
)

// Rate measures published grids per second over a sliding window and keeps
// a bounded history of readings for plotting.
type Rate struct {
	name     string
	window   time.Duration
	capacity int

	mu      sync.Mutex
	samples []rateSample
	history []float64
	value   float64
}

type rateSample struct {
	at    time.Time
	count uint64
}

// NewRate keeps capacity readings, each averaged over window.
func NewRate(window time.Duration, capacity int) *Rate {
	if window <= 0 {
		window = time.Second
	}
	if capacity < 1 {
		capacity = 1
	}
	return &Rate{name: "rate", window: window, capacity: capacity}
}

func (r *Rate) Name() string {
	return r.name
}

func (r *Rate) Observe(c Counters, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// a counter that went backwards belongs to a new source
	if n := len(r.samples); n > 0 && c.Published < r.samples[n-1].count {
		r.samples = r.samples[:0]
	}
	r.samples = append(r.samples, rateSample{at: at, count: c.Published})

	cut := 0
	for cut < len(r.samples)-1 && at.Sub(r.samples[cut+1].at) >= r.window {
		cut++
	}
	r.samples = r.samples[cut:]

	first, last := r.samples[0], r.samples[len(r.samples)-1]
	if span := last.at.Sub(first.at); span > 0 {
		r.value = float64(last.count-first.count) / span.Seconds()
	} else {
		r.value = 0
	}

	r.history = append(r.history, r.value)
	if len(r.history) > r.capacity {
		r.history = r.history[len(r.history)-r.capacity:]
	}
}

// Value is the latest rate in grids per second.
func (r *Rate) Value() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

// History returns a copy of the recorded readings, oldest first.
func (r *Rate) History() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := make([]float64, len(r.history))
	copy(h, r.history)
	return h
}

func (r *Rate) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = r.samples[:0]
	r.history = r.history[:0]
	r.value = 0
}
