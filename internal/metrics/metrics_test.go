package metrics

import (
	"math"
	"testing"
	"time"
)

func TestRateSteadyStream(t *testing.T) {
	r := NewRate(time.Second, 100)
	start := time.Unix(0, 0)

	// 20 grids per second, observed every 100ms
	for i := 0; i <= 30; i++ {
		r.Observe(Counters{Published: uint64(i * 2)}, start.Add(time.Duration(i)*100*time.Millisecond))
	}

	if got := r.Value(); math.Abs(got-20) > 1e-9 {
		t.Errorf("Value() = %v, want 20", got)
	}
}

func TestRateFirstObservation(t *testing.T) {
	r := NewRate(time.Second, 10)
	r.Observe(Counters{Published: 50}, time.Unix(0, 0))
	if r.Value() != 0 {
		t.Errorf("rate from a single sample = %v, want 0", r.Value())
	}
}

func TestRateStalledStreamDropsToZero(t *testing.T) {
	r := NewRate(500*time.Millisecond, 100)
	start := time.Unix(0, 0)
	for i := 0; i < 10; i++ {
		r.Observe(Counters{Published: uint64(i)}, start.Add(time.Duration(i)*100*time.Millisecond))
	}
	for i := 10; i < 20; i++ {
		r.Observe(Counters{Published: 9}, start.Add(time.Duration(i)*100*time.Millisecond))
	}
	if r.Value() != 0 {
		t.Errorf("Value() = %v after stall, want 0", r.Value())
	}
}

func TestRateHistoryBounded(t *testing.T) {
	r := NewRate(time.Second, 5)
	start := time.Unix(0, 0)
	for i := 0; i < 50; i++ {
		r.Observe(Counters{Published: uint64(i)}, start.Add(time.Duration(i)*time.Second))
	}

	h := r.History()
	if len(h) != 5 {
		t.Fatalf("history length = %d, want 5", len(h))
	}
	h[0] = -1
	if r.History()[0] == -1 {
		t.Error("History exposes internal storage")
	}
}

func TestRateReset(t *testing.T) {
	r := NewRate(time.Second, 5)
	r.Observe(Counters{Published: 1}, time.Unix(0, 0))
	r.Observe(Counters{Published: 9}, time.Unix(1, 0))
	r.Reset()
	if r.Value() != 0 || len(r.History()) != 0 {
		t.Error("expected empty meter after reset")
	}
}

func TestQuality(t *testing.T) {
	q := NewQuality()
	if q.Value() != 1.0 {
		t.Errorf("empty quality = %v, want 1", q.Value())
	}

	q.Observe(Counters{Lines: 10, Malformed: 1}, time.Now())
	if math.Abs(q.Value()-0.9) > 1e-9 {
		t.Errorf("Value() = %v, want 0.9", q.Value())
	}

	q.Reset()
	if q.Value() != 1.0 {
		t.Error("expected 1 after reset")
	}
}

func TestMetricsImplementInterface(t *testing.T) {
	for _, m := range []Metric{NewRate(time.Second, 1), NewQuality()} {
		if m.Name() == "" {
			t.Errorf("%T has no name", m)
		}
	}
}
