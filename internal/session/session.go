// Package session runs one acquisition session: a source goroutine feeding
// the frame buffer, the render/record loop on a fixed tick, and a surface
// owning the calling goroutine.
//
// The source keeps reading while playback is paused. Quitting ends the loop,
// finalizes the recording, cancels the source and closes the surface.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/serialgrid/internal/config"
	"github.com/san-kum/serialgrid/internal/display"
	"github.com/san-kum/serialgrid/internal/framebuf"
	"github.com/san-kum/serialgrid/internal/grid"
	"github.com/san-kum/serialgrid/internal/metrics"
	"github.com/san-kum/serialgrid/internal/playback"
	"github.com/san-kum/serialgrid/internal/record"
	"github.com/san-kum/serialgrid/internal/render"
	"github.com/san-kum/serialgrid/internal/source"
	"github.com/san-kum/serialgrid/internal/storage"
)

// Exit reasons recorded with the session.
const (
	ReasonQuit          = "quit"
	ReasonTransportLost = "transport lost"
	ReasonInterrupted   = "interrupted"
	ReasonSurfaceClosed = "surface closed"
)

type Options struct {
	Config    *config.Config
	Transport io.Reader
	// TransportName describes the transport in logs and session records.
	TransportName string
	Surface       display.Surface
	Logger        *slog.Logger
	// Capture receives accepted lines; it is not closed by the session.
	Capture io.Writer
	// ExitOnLoss ends the session as soon as the transport is lost.
	// Otherwise the last grid stays on screen until the user quits.
	ExitOnLoss bool
	// Store, when set, receives the session record.
	Store *storage.Store
	// Ticks replaces the frame ticker.
	Ticks <-chan time.Time
	// SourceGrace bounds the wait for the source to stop after the loop
	// ends. Zero means one second.
	SourceGrace time.Duration
}

type Result struct {
	ID           string
	Reason       string
	Stats        source.Stats
	Ticks        int
	Frames       int
	TransportErr error
	RecordErr    error
}

// Err is non-nil when the session should end with a failing exit status.
func (r Result) Err() error {
	return errors.Join(r.TransportErr, r.RecordErr)
}

// Run blocks until the session ends. The returned error covers failures to
// start a session or to run the surface; transport and recording failures
// are reported in Result.
func Run(ctx context.Context, opts Options) (Result, error) {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	res := Result{ID: uuid.NewString()}
	log = log.With("session", res.ID)

	parser, err := grid.NewParser(cfg.Grid.Rows, cfg.Grid.Cols)
	if err != nil {
		return res, fmt.Errorf("%w: %v", config.ErrConfiguration, err)
	}
	renderer, err := render.New(cfg.RenderOptions())
	if err != nil {
		return res, fmt.Errorf("%w: %v", config.ErrConfiguration, err)
	}

	var (
		rec     *record.Recorder
		recErr  error
		started = time.Now()
	)
	if cfg.Record.Output != "" {
		rec, recErr = record.Open(cfg.Record.Output, cfg.Record.FPS, renderer.Bounds(),
			record.WithQuality(cfg.Record.Quality),
			record.WithPalette(renderer.Palette().Colors()),
			record.WithLogger(log),
		)
		if recErr != nil {
			log.Warn("recording disabled, display continues", "err", recErr)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	buf := framebuf.New()
	srcOpts := []source.Option{
		source.WithSkipFirstLine(cfg.Serial.SkipFirstLine),
		source.WithLogger(log),
	}
	if opts.Capture != nil {
		srcOpts = append(srcOpts, source.WithTee(opts.Capture))
	}
	src := source.New(opts.Transport, parser, buf, srcOpts...)

	lost := make(chan error, 1)
	srcDone := make(chan struct{})
	go func() {
		defer close(srcDone)
		if err := src.Run(runCtx); err != nil {
			lost <- err
			if opts.ExitOnLoss {
				cancel()
			}
		}
	}()

	ticks := opts.Ticks
	if ticks == nil {
		ticker := time.NewTicker(cfg.FrameInterval())
		defer ticker.Stop()
		ticks = ticker.C
	}

	l := &loop{
		buf:       buf,
		renderer:  renderer,
		ctl:       playback.NewController(log),
		rec:       rec,
		surface:   opts.Surface,
		stats:     src.Stats,
		rate:      metrics.NewRate(time.Second, 120),
		quality:   metrics.NewQuality(),
		ticks:     ticks,
		lost:      lost,
		log:       log.With("component", "loop"),
		recordErr: recErr,
	}

	log.Info("session started",
		"transport", opts.TransportName,
		"rows", cfg.Grid.Rows, "cols", cfg.Grid.Cols,
		"fps", cfg.Record.FPS, "output", cfg.Record.Output)

	loopDone := make(chan loopResult, 1)
	go func() {
		r := l.run(runCtx)
		cancel()
		opts.Surface.Close()
		loopDone <- r
	}()

	surfaceErr := opts.Surface.Run()
	cancel()
	lr := <-loopDone

	grace := opts.SourceGrace
	if grace <= 0 {
		grace = time.Second
	}
	select {
	case <-srcDone:
	case <-time.After(grace):
		log.Warn("source did not stop in time")
	}

	res.Stats = src.Stats()
	res.Ticks = lr.Ticks
	res.Frames = lr.Frames
	res.RecordErr = lr.RecordErr
	res.TransportErr = lr.TransportErr
	if res.TransportErr == nil {
		select {
		case err := <-lost:
			res.TransportErr = err
		default:
		}
	}
	res.Reason = reason(ctx, lr, res.TransportErr, surfaceErr)

	log.Info("session ended",
		"reason", res.Reason,
		"lines", res.Stats.Lines, "published", res.Stats.Published, "malformed", res.Stats.Malformed,
		"frames", res.Frames)

	if opts.Store != nil {
		meta := storage.SessionMetadata{
			ID:        res.ID,
			Started:   started,
			Ended:     time.Now(),
			Transport: opts.TransportName,
			Rows:      cfg.Grid.Rows,
			Cols:      cfg.Grid.Cols,
			Palette:   renderer.Palette().Name,
			FPS:       cfg.Record.FPS,
			Output:    cfg.Record.Output,
			Capture:   cfg.Capture,
			Lines:     res.Stats.Lines,
			Published: res.Stats.Published,
			Malformed: res.Stats.Malformed,
			Frames:    res.Frames,
			Reason:    res.Reason,
		}
		for _, err := range []error{res.TransportErr, res.RecordErr, surfaceErr} {
			if err != nil {
				meta.Errors = append(meta.Errors, err.Error())
			}
		}
		if err := opts.Store.Save(meta, lr.Samples); err != nil {
			log.Warn("session record not saved", "err", err)
		}
	}

	if surfaceErr != nil {
		return res, fmt.Errorf("session: surface: %w", surfaceErr)
	}
	return res, nil
}

func reason(parent context.Context, lr loopResult, transportErr, surfaceErr error) string {
	switch {
	case lr.Quit:
		return ReasonQuit
	case surfaceErr != nil:
		return ReasonSurfaceClosed
	case parent.Err() != nil:
		return ReasonInterrupted
	case transportErr != nil:
		return ReasonTransportLost
	}
	return ReasonSurfaceClosed
}
