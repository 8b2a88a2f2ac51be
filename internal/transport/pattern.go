package transport

import (
	"bytes"
	"io"
	"math"
	"os"
	"strconv"
	"sync"
	"time"
)

// Pattern produces sample lines of a warm spot circling a rows x cols grid
// on a flat background, the way a thermal sensor sees a hand moving over it.
type Pattern struct {
	rows, cols int
	lo, hi     float64
	interval   time.Duration
	step       uint64
	pending    []byte
	buf        bytes.Buffer

	done      chan struct{}
	closeOnce sync.Once
}

// NewPattern emits rate lines per second with values between lo and hi.
func NewPattern(rows, cols int, lo, hi, rate float64) *Pattern {
	p := &Pattern{rows: rows, cols: cols, lo: lo, hi: hi, done: make(chan struct{})}
	if rate > 0 {
		p.interval = time.Duration(float64(time.Second) / rate)
	}
	return p
}

func (p *Pattern) Read(b []byte) (int, error) {
	if len(p.pending) == 0 {
		if p.interval > 0 {
			t := time.NewTimer(p.interval)
			select {
			case <-t.C:
			case <-p.done:
				t.Stop()
				return 0, os.ErrClosed
			}
		} else {
			select {
			case <-p.done:
				return 0, os.ErrClosed
			default:
			}
		}
		p.pending = p.line()
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

// line renders the next frame of the pattern.
func (p *Pattern) line() []byte {
	phase := float64(p.step) * 2 * math.Pi / 120
	p.step++

	cy := float64(p.rows-1)/2 + float64(p.rows)/4*math.Sin(phase)
	cx := float64(p.cols-1)/2 + float64(p.cols)/4*math.Cos(phase)
	sigma := math.Max(float64(min(p.rows, p.cols))/5, 0.5)

	p.buf.Reset()
	for r := 0; r < p.rows; r++ {
		for c := 0; c < p.cols; c++ {
			if r > 0 || c > 0 {
				p.buf.WriteByte('\t')
			}
			d2 := (float64(r)-cy)*(float64(r)-cy) + (float64(c)-cx)*(float64(c)-cx)
			v := p.lo + (p.hi-p.lo)*(0.15+0.85*math.Exp(-d2/(2*sigma*sigma)))
			p.buf.WriteString(strconv.FormatFloat(v, 'f', 2, 64))
		}
	}
	p.buf.WriteByte('\n')
	return p.buf.Bytes()
}

func (p *Pattern) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}

var _ io.ReadCloser = (*Pattern)(nil)
