// Package display defines where rendered frames go and where key actions
// come from.
package display

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/san-kum/serialgrid/internal/playback"
)

// Surface shows frames and reports user actions. Show is called from the
// render loop and must not block; Run blocks the calling goroutine until the
// surface is closed, by the user or by Close.
type Surface interface {
	Show(img *image.RGBA, st Status)
	Actions() <-chan playback.Action
	Run() error
	Close()
}

type Mode string

const (
	ModeTerminal Mode = "terminal"
	ModeWindow   Mode = "window"
	ModeNone     Mode = "none"
)

func Modes() []Mode {
	return []Mode{ModeTerminal, ModeWindow, ModeNone}
}

func ParseMode(s string) (Mode, error) {
	for _, m := range Modes() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("display: unknown mode %q (want one of %v)", s, Modes())
}

// Status is what the render loop knows at the time of a frame.
type Status struct {
	State      playback.State
	Rows, Cols int
	Seq        uint64
	Lines      uint64
	Published  uint64
	Malformed  uint64
	Clamped    uint64

	Rate        float64
	RateHistory []float64
	Quality     float64
	Elapsed     time.Duration

	Recording  bool
	RecordPath string
	Frames     int
	RecordErr  error

	TransportErr error
}

// Latest holds the newest frame handed to a surface. UI runtimes poll it
// from their own loop.
type Latest struct {
	mu    sync.Mutex
	img   *image.RGBA
	st    Status
	shown uint64
}

func (l *Latest) Set(img *image.RGBA, st Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.img = img
	l.st = st
	l.shown++
}

// Get returns the newest frame, its status and how many frames were set.
func (l *Latest) Get() (*image.RGBA, Status, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.img, l.st, l.shown
}

// Actions is a buffered action channel that stops accepting sends once
// closed, shared by the surfaces.
type Actions struct {
	ch   chan playback.Action
	done chan struct{}
	once sync.Once
}

func NewActions() *Actions {
	return &Actions{ch: make(chan playback.Action, 16), done: make(chan struct{})}
}

func (a *Actions) C() <-chan playback.Action { return a.ch }

// Done is closed by Close.
func (a *Actions) Done() <-chan struct{} { return a.done }

// Send delivers act unless the surface has been closed.
func (a *Actions) Send(act playback.Action) {
	if act == playback.ActionNone {
		return
	}
	select {
	case <-a.done:
		return
	default:
	}
	select {
	case a.ch <- act:
	case <-a.done:
	}
}

func (a *Actions) Close() {
	a.once.Do(func() { close(a.done) })
}
