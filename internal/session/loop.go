package session

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/san-kum/serialgrid/internal/display"
	"github.com/san-kum/serialgrid/internal/framebuf"
	"github.com/san-kum/serialgrid/internal/metrics"
	"github.com/san-kum/serialgrid/internal/playback"
	"github.com/san-kum/serialgrid/internal/record"
	"github.com/san-kum/serialgrid/internal/render"
	"github.com/san-kum/serialgrid/internal/source"
	"github.com/san-kum/serialgrid/internal/storage"
)

// loop is the render/record loop. Every tick it takes at most one snapshot
// of the frame buffer, renders it to completion, and hands the same image to
// the surface and the recorder.
type loop struct {
	buf      *framebuf.Buffer
	renderer *render.Renderer
	ctl      *playback.Controller
	rec      *record.Recorder
	surface  display.Surface
	stats    func() source.Stats
	rate     *metrics.Rate
	quality  *metrics.Quality
	ticks    <-chan time.Time
	lost     <-chan error
	log      *slog.Logger

	start     time.Time
	shown     *image.RGBA
	shownSeq  uint64
	status    display.Status
	samples   []storage.Sample
	ticked    int
	recordErr error
	lostErr   error
}

type loopResult struct {
	Ticks        int
	Frames       int
	RecordErr    error
	TransportErr error
	Quit         bool
	Samples      []storage.Sample
}

func (l *loop) run(ctx context.Context) (res loopResult) {
	rows, cols := l.renderer.Shape()
	l.status = display.Status{Rows: rows, Cols: cols, Quality: 1}
	if l.rec != nil {
		l.status.Recording = true
		l.status.RecordPath = l.rec.Path()
	}
	if l.recordErr != nil {
		l.status.RecordErr = l.recordErr
	}

	defer func() {
		if l.rec != nil {
			if err := l.rec.Close(); err != nil && l.recordErr == nil {
				l.recordErr = err
			}
			res.Frames = l.rec.Frames()
		}
		res.Ticks = l.ticked
		res.RecordErr = l.recordErr
		res.TransportErr = l.lostErr
		res.Samples = l.samples
	}()

	for {
		select {
		case <-ctx.Done():
			return res
		case a := <-l.surface.Actions():
			if l.ctl.Apply(a) == playback.Stopped {
				res.Quit = true
				return res
			}
			l.refresh()
		case err := <-l.lost:
			l.lost = nil
			l.lostErr = err
			l.status.TransportErr = err
			l.refresh()
		case at := <-l.ticks:
			l.tick(at)
		}
	}
}

func (l *loop) tick(at time.Time) {
	if l.start.IsZero() {
		l.start = at
	}
	l.ticked++

	state := l.ctl.State()
	if state == playback.Playing {
		// one snapshot per tick; Latest is not consulted again until the next
		g, seq := l.buf.Latest()
		if l.shown == nil || seq != l.shownSeq {
			if g == nil {
				l.shown = l.renderer.Blank()
			} else if img, err := l.renderer.Render(g); err != nil {
				l.log.Warn("render failed", "seq", seq, "err", err)
			} else {
				l.shown = img
			}
			l.shownSeq = seq
		}
	}
	if l.shown == nil {
		l.shown = l.renderer.Blank()
	}

	if l.rec != nil && l.recordErr == nil {
		if _, err := l.rec.Append(l.shown, at); err != nil {
			l.recordErr = err
			l.log.Warn("recording failed, display continues", "err", err)
		}
	}

	st := l.stats()
	c := metrics.Counters{Lines: st.Lines, Published: st.Published, Malformed: st.Malformed}
	l.rate.Observe(c, at)
	l.quality.Observe(c, at)

	l.status.Seq = l.shownSeq
	l.status.Lines, l.status.Published, l.status.Malformed = st.Lines, st.Published, st.Malformed
	l.status.Clamped = l.renderer.Clamped()
	l.status.Rate = l.rate.Value()
	l.status.RateHistory = l.rate.History()
	l.status.Quality = l.quality.Value()
	l.status.Elapsed = at.Sub(l.start)
	if l.rec != nil {
		l.status.Frames = l.rec.Frames()
		l.status.Recording = l.rec.Active()
	}
	if l.recordErr != nil {
		l.status.RecordErr = l.recordErr
	}

	l.samples = append(l.samples, storage.Sample{
		Elapsed:   l.status.Elapsed,
		Lines:     st.Lines,
		Published: st.Published,
		Malformed: st.Malformed,
		Rate:      l.status.Rate,
	})
	l.refresh()
}

// refresh re-shows the current image with the latest status, so a state
// change is visible before the next tick.
func (l *loop) refresh() {
	l.status.State = l.ctl.State()
	if l.shown != nil {
		l.surface.Show(l.shown, l.status)
	}
}
