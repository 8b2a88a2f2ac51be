// Package source reads sample lines from a transport and publishes the
// grids they parse to.
//
// A Source runs on its own goroutine so that a slow display never blocks
// acquisition and a stalled transport never blocks display of the last good
// grid. Malformed lines are dropped and counted. The source never
// reconnects; a transport failure ends Run with ErrTransportLost and the
// caller decides what happens next.
package source

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/san-kum/serialgrid/internal/framebuf"
	"github.com/san-kum/serialgrid/internal/grid"
)

// Stats counts what the source has seen. Lines includes the skipped first
// line and malformed lines.
type Stats struct {
	Lines     uint64
	Published uint64
	Malformed uint64
}

type Option func(*Source)

// WithSkipFirstLine drops the first line read. A serial device that was
// already streaming usually delivers a partial line on connect.
func WithSkipFirstLine(skip bool) Option {
	return func(s *Source) { s.skipFirst = skip }
}

// WithTee copies every accepted line, verbatim, to w. The first write error
// drops the tee; it never stops acquisition.
func WithTee(w io.Writer) Option {
	return func(s *Source) { s.tee = w }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Source) { s.log = l }
}

// maxFieldBytes bounds the text of one field, separator included. Lines
// longer than the grid could need are dropped without being buffered.
const maxFieldBytes = 64

type Source struct {
	r         io.Reader
	parser    *grid.Parser
	buf       *framebuf.Buffer
	skipFirst bool
	tee       io.Writer
	log       *slog.Logger
	maxLine   int

	lines     atomic.Uint64
	published atomic.Uint64
	malformed atomic.Uint64
}

func New(r io.Reader, p *grid.Parser, buf *framebuf.Buffer, opts ...Option) *Source {
	s := &Source{
		r:       r,
		parser:  p,
		buf:     buf,
		log:     slog.Default(),
		maxLine: (p.Cells() + 1) * maxFieldBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "source")
	return s
}

func (s *Source) Stats() Stats {
	return Stats{
		Lines:     s.lines.Load(),
		Published: s.published.Load(),
		Malformed: s.malformed.Load(),
	}
}

// Run reads until ctx is done or the transport fails. It returns nil when
// ctx ends the run and a *TransportError otherwise, including on EOF.
// If the reader is an io.Closer it is closed when ctx is done, to unblock a
// pending read.
func (s *Source) Run(ctx context.Context) error {
	if c, ok := s.r.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { c.Close() })
		defer stop()
	}

	rd := bufio.NewReader(s.r)
	skip := s.skipFirst

	for {
		line, overlong, err := readLine(rd, s.maxLine)
		if ctx.Err() != nil {
			return nil
		}
		if (len(line) > 0 || overlong) && (err == nil || errors.Is(err, io.EOF)) {
			s.lines.Add(1)
			switch {
			case skip:
				skip = false
				s.log.Debug("skipped first line", "line", string(line))
			case overlong:
				s.malformed.Add(1)
				s.log.Debug("dropped line", "err", "longer than "+strconv.Itoa(s.maxLine)+" bytes")
			default:
				s.handle(string(line))
			}
		}
		if err != nil {
			s.log.Warn("transport lost", "err", err, "lines", s.lines.Load())
			return &TransportError{Lines: s.lines.Load(), Wrapped: err}
		}
	}
}

// readLine returns the next line with its newline. A line longer than limit
// is consumed up to its newline and reported as overlong, with no content.
func readLine(rd *bufio.Reader, limit int) (line []byte, overlong bool, err error) {
	for {
		chunk, rerr := rd.ReadSlice('\n')
		if !overlong {
			if len(line)+len(chunk) > limit {
				overlong, line = true, nil
			} else {
				line = append(line, chunk...)
			}
		}
		if rerr != bufio.ErrBufferFull {
			return line, overlong, rerr
		}
	}
}

func (s *Source) handle(line string) {
	g, err := s.parser.Parse(line)
	if err != nil {
		s.malformed.Add(1)
		s.log.Debug("dropped line", "err", err)
		return
	}
	seq := s.buf.Publish(g)
	s.published.Add(1)

	if s.tee != nil {
		if _, err := io.WriteString(s.tee, line); err != nil {
			s.log.Warn("capture disabled", "err", err)
			s.tee = nil
		}
	}
	if seq == 1 {
		s.log.Info("first grid published", "rows", g.Rows(), "cols", g.Cols())
	}
}
