package metrics

import (
	"sync"
	"time"
)

// Quality is the fraction of lines that parsed, 1 when nothing was read.
type Quality struct {
	name string

	mu        sync.Mutex
	lines     uint64
	malformed uint64
}

func NewQuality() *Quality {
	return &Quality{name: "quality"}
}

func (q *Quality) Name() string {
	return q.name
}

func (q *Quality) Observe(c Counters, at time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lines = c.Lines
	q.malformed = c.Malformed
}

func (q *Quality) Value() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.lines == 0 {
		return 1.0
	}
	return 1.0 - float64(q.malformed)/float64(q.lines)
}

func (q *Quality) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lines = 0
	q.malformed = 0
}
