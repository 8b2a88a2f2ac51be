// Package metrics tracks acquisition health for the status line.
package metrics

import "time"

// Metric is sampled once per display tick with the source counters.
type Metric interface {
	Name() string
	Observe(c Counters, at time.Time)
	Value() float64
	Reset()
}

// Counters is a snapshot of cumulative source counters.
type Counters struct {
	Lines     uint64
	Published uint64
	Malformed uint64
}
