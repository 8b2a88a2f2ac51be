package display

import (
	"image"

	"github.com/san-kum/serialgrid/internal/playback"
)

// Headless shows nothing. It is used when only recording is wanted and by
// tests; Send injects actions the way a key press would.
type Headless struct {
	Latest
	actions *Actions
}

func NewHeadless() *Headless {
	return &Headless{actions: NewActions()}
}

func (h *Headless) Show(img *image.RGBA, st Status) {
	h.Set(img, st)
}

func (h *Headless) Actions() <-chan playback.Action {
	return h.actions.C()
}

// Send injects an action.
func (h *Headless) Send(a playback.Action) {
	h.actions.Send(a)
}

// Run blocks until Close.
func (h *Headless) Run() error {
	<-h.actions.Done()
	return nil
}

func (h *Headless) Close() {
	h.actions.Close()
}
