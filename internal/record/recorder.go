// Package record writes rendered frames to a constant-framerate video.
//
// The recorder is fed once per display tick. It derives the frame slot from
// the tick time, so a late tick is caught up by repeating the previous frame
// and the output keeps a uniform frame spacing however irregularly grids
// arrive. Errors disable the recorder without affecting the caller.
package record

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type encoder interface {
	encode(img image.Image) error
	close() error
}

// Formats lists the supported file extensions.
func Formats() []string {
	return []string{".gif", ".avi"}
}

// Supported reports whether path has an extension Open can write.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range Formats() {
		if ext == f {
			return true
		}
	}
	return false
}

type options struct {
	quality int
	palette color.Palette
	log     *slog.Logger
}

type Option func(*options)

// WithQuality sets the JPEG quality (1-100) of AVI frames.
func WithQuality(q int) Option {
	return func(o *options) { o.quality = q }
}

// WithPalette sets the GIF color table. Rendering only ever produces colors
// from its lookup table, so passing that table makes GIF output lossless.
func WithPalette(p color.Palette) Option {
	return func(o *options) { o.palette = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// Recorder is safe for concurrent use.
type Recorder struct {
	path     string
	interval time.Duration
	log      *slog.Logger

	mu     sync.Mutex
	enc    encoder
	first  time.Time
	last   image.Image
	frames int
	err    error
	closed bool
}

// Open creates the container at path. The format follows the extension.
func Open(path string, fps int, bounds image.Rectangle, opts ...Option) (*Recorder, error) {
	o := options{quality: 90, palette: palette.Plan9, log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if fps < 1 {
		return nil, initError(path, fmt.Errorf("frame rate %d must be positive", fps))
	}
	if bounds.Empty() {
		return nil, initError(path, fmt.Errorf("empty frame bounds %v", bounds))
	}
	if len(o.palette) == 0 || len(o.palette) > 256 {
		return nil, initError(path, fmt.Errorf("gif palette has %d colors", len(o.palette)))
	}

	var (
		enc encoder
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".gif":
		enc, err = newGIFEncoder(path, fps, o.palette)
	case ".avi":
		enc, err = newAVIEncoder(path, fps, bounds, o.quality)
	default:
		err = fmt.Errorf("unsupported format %q (want one of %v)", ext, Formats())
	}
	if err != nil {
		return nil, initError(path, err)
	}

	r := &Recorder{
		path:     path,
		interval: time.Second / time.Duration(fps),
		log:      o.log.With("component", "record", "path", path),
		enc:      enc,
	}
	r.log.Info("recording started", "fps", fps, "width", bounds.Dx(), "height", bounds.Dy())
	return r, nil
}

func (r *Recorder) Path() string { return r.path }

// Interval is the time between two frames of the output.
func (r *Recorder) Interval() time.Duration { return r.interval }

// Frames is the number of frames written so far.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Err returns the error that disabled the recorder, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Active reports whether Append still writes frames.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.closed && r.err == nil
}

// Append records img for the tick at time at. After it returns, the output
// holds 1 + round((at-first)/interval) frames, where first is the time of the
// first Append; slots skipped since the previous call are filled with the
// previous image. It returns the number of frames written by this call.
// Once a write has failed, or after Close, Append does nothing.
func (r *Recorder) Append(img image.Image, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.err != nil {
		return 0, nil
	}

	want := 1
	if r.frames == 0 {
		r.first = at
	} else {
		want = 1 + int(math.Round(float64(at.Sub(r.first))/float64(r.interval)))
	}

	written := 0
	for r.frames < want {
		frame := img
		if r.frames < want-1 && r.last != nil {
			frame = r.last
		}
		if err := r.enc.encode(frame); err != nil {
			r.fail(writeError("append", r.path, err))
			return written, r.err
		}
		r.frames++
		written++
	}
	r.last = img
	if written > 1 {
		r.log.Debug("caught up missed ticks", "duplicated", written-1)
	}
	return written, nil
}

// fail disables the recorder and releases the container.
func (r *Recorder) fail(err error) {
	r.err = err
	r.closed = true
	r.log.Warn("recording disabled", "err", err, "frames", r.frames)
	if cerr := r.enc.close(); cerr != nil {
		r.log.Debug("close after failure", "err", cerr)
	}
}

// Close finalizes the container. It is safe to call more than once.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.enc.close(); err != nil {
		r.err = writeError("finalize", r.path, err)
		r.log.Warn("recording not finalized", "err", err)
		return r.err
	}
	r.log.Info("recording finished", "frames", r.frames, "duration", time.Duration(r.frames)*r.interval)
	return nil
}
