// Package framebuf holds the newest published grid.
//
// The buffer is a single slot with last-write-wins semantics: Publish
// replaces whatever was there and a slow reader simply observes the newest
// grid, skipping any it never saw. There is no queue and no back-pressure on
// the publisher. The grid and its sequence number are swapped as one
// immutable entry, so a reader never sees a partially written grid.
package framebuf

import (
	"sync/atomic"

	"github.com/san-kum/serialgrid/internal/grid"
)

type entry struct {
	grid *grid.Grid
	seq  uint64
}

// Buffer is safe for one publisher and any number of readers.
type Buffer struct {
	slot atomic.Pointer[entry]
	seq  atomic.Uint64
}

func New() *Buffer {
	return &Buffer{}
}

// Publish stores g as the latest grid and returns its sequence number.
// Sequence numbers start at 1 and increase by one per publish.
func (b *Buffer) Publish(g *grid.Grid) uint64 {
	seq := b.seq.Add(1)
	b.slot.Store(&entry{grid: g, seq: seq})
	return seq
}

// Latest returns the newest grid and its sequence number, or (nil, 0) if
// nothing has been published yet.
func (b *Buffer) Latest() (*grid.Grid, uint64) {
	e := b.slot.Load()
	if e == nil {
		return nil, 0
	}
	return e.grid, e.seq
}

// Published is the number of grids published so far.
func (b *Buffer) Published() uint64 {
	return b.seq.Load()
}
