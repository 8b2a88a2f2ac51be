package transport

import (
	"bufio"
	"io"
	"os"
	"sync"
	"time"
)

// Replay plays back a capture file one line at a time at a fixed rate.
type Replay struct {
	f        *os.File
	rd       *bufio.Reader
	interval time.Duration
	loop     bool
	next     time.Time
	pending  []byte

	done      chan struct{}
	closeOnce sync.Once
}

// OpenReplay opens a capture file, or stdin for "-". rate is in lines per
// second; zero or less replays as fast as the reader consumes. With loop set
// the file restarts at EOF.
func OpenReplay(path string, rate float64, loop bool) (*Replay, error) {
	f := os.Stdin
	if path != "-" {
		var err error
		if f, err = os.Open(path); err != nil {
			return nil, err
		}
	}
	r := &Replay{f: f, rd: bufio.NewReader(f), loop: loop, done: make(chan struct{})}
	if rate > 0 {
		r.interval = time.Duration(float64(time.Second) / rate)
	}
	return r, nil
}

func (r *Replay) Read(p []byte) (int, error) {
	if len(r.pending) == 0 {
		if err := r.wait(); err != nil {
			return 0, err
		}
		line, err := r.readLine()
		if len(line) == 0 {
			return 0, err
		}
		r.pending = line
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

func (r *Replay) readLine() ([]byte, error) {
	line, err := r.rd.ReadBytes('\n')
	if len(line) > 0 || err != io.EOF || !r.loop {
		return line, err
	}
	if _, serr := r.f.Seek(0, io.SeekStart); serr != nil {
		return nil, serr
	}
	r.rd.Reset(r.f)
	return r.rd.ReadBytes('\n')
}

// wait blocks until the next line is due.
func (r *Replay) wait() error {
	select {
	case <-r.done:
		return os.ErrClosed
	default:
	}
	if r.interval == 0 {
		return nil
	}

	now := time.Now()
	if r.next.IsZero() || r.next.Before(now) {
		r.next = now
	}
	if d := r.next.Sub(now); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-r.done:
			return os.ErrClosed
		}
	}
	r.next = r.next.Add(r.interval)
	return nil
}

func (r *Replay) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.done)
		err = r.f.Close()
	})
	return err
}
