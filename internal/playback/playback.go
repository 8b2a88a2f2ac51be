// Package playback gates whether newly published grids reach the screen.
//
// The controller starts Playing. A toggle action flips between Playing and
// Paused; quit moves to Stopped, which is terminal. Acquisition is never
// paused: only the render loop consults the state.
package playback

import (
	"log/slog"
	"sync"
)

type State int

const (
	Playing State = iota
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Action is what a key press asks the controller to do.
type Action int

const (
	ActionNone Action = iota
	ActionToggle
	ActionQuit
)

func (a Action) String() string {
	switch a {
	case ActionToggle:
		return "toggle"
	case ActionQuit:
		return "quit"
	}
	return "none"
}

// KeyAction maps a key name to an action. p, c and s are aliases of one
// play/pause toggle; q, Q and escape quit.
func KeyAction(key string) Action {
	switch key {
	case "p", "c", "s":
		return ActionToggle
	case "q", "Q", "esc", "escape":
		return ActionQuit
	}
	return ActionNone
}

// Controller is safe for concurrent use.
type Controller struct {
	mu    sync.Mutex
	state State
	log   *slog.Logger
}

func NewController(logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		state: Playing,
		log:   logger.With("component", "playback"),
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Apply performs a transition and returns the resulting state. Actions on a
// stopped controller are ignored.
func (c *Controller) Apply(a Action) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.state
	switch {
	case prev == Stopped:
		return prev
	case a == ActionQuit:
		c.state = Stopped
	case a == ActionToggle && prev == Playing:
		c.state = Paused
	case a == ActionToggle && prev == Paused:
		c.state = Playing
	}

	if c.state != prev {
		c.log.Info("playback state changed", "from", prev, "to", c.state, "action", a)
	}
	return c.state
}
