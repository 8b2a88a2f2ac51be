package display

import (
	"image"
	"testing"
	"time"

	"github.com/san-kum/serialgrid/internal/playback"
)

func TestParseMode(t *testing.T) {
	for _, m := range Modes() {
		got, err := ParseMode(string(m))
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %q, %v", m, got, err)
		}
	}
	if _, err := ParseMode("vga"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestHeadlessKeepsLatest(t *testing.T) {
	h := NewHeadless()
	a := image.NewRGBA(image.Rect(0, 0, 1, 1))
	b := image.NewRGBA(image.Rect(0, 0, 2, 2))

	h.Show(a, Status{Seq: 1})
	h.Show(b, Status{Seq: 2})

	img, st, n := h.Get()
	if img != b || st.Seq != 2 || n != 2 {
		t.Errorf("Get() = %p, %+v, %d", img, st, n)
	}
}

func TestHeadlessRunUntilClose(t *testing.T) {
	h := NewHeadless()
	done := make(chan error, 1)
	go func() { done <- h.Run() }()

	h.Send(playback.ActionToggle)
	if got := <-h.Actions(); got != playback.ActionToggle {
		t.Errorf("action = %v", got)
	}

	h.Close()
	h.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestSendAfterCloseDoesNotBlock(t *testing.T) {
	a := NewActions()
	a.Close()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			a.Send(playback.ActionQuit)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked on a closed surface")
	}
}

func TestSendDropsNone(t *testing.T) {
	a := NewActions()
	a.Send(playback.ActionNone)
	select {
	case got := <-a.C():
		t.Errorf("received %v", got)
	default:
	}
}
