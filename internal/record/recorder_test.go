package record

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func solid(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

var (
	black = color.RGBA{0, 0, 0, 0xff}
	white = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeEncoder records frames in memory and fails once failAt frames have
// been written.
type fakeEncoder struct {
	frames []image.Image
	failAt int
	closed int
}

func (f *fakeEncoder) encode(img image.Image) error {
	if f.failAt > 0 && len(f.frames) >= f.failAt {
		return errors.New("disk full")
	}
	f.frames = append(f.frames, img)
	return nil
}

func (f *fakeEncoder) close() error {
	f.closed++
	return nil
}

func newFake(fps int, enc *fakeEncoder) *Recorder {
	return &Recorder{
		path:     "fake",
		interval: time.Second / time.Duration(fps),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		enc:      enc,
	}
}

func TestAppendOneFramePerTick(t *testing.T) {
	enc := &fakeEncoder{}
	r := newFake(10, enc)
	start := time.Unix(1000, 0)

	for i := 0; i < 50; i++ {
		n, err := r.Append(solid(black), start.Add(time.Duration(i)*100*time.Millisecond))
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Fatalf("tick %d wrote %d frames", i, n)
		}
	}
	if r.Frames() != 50 {
		t.Errorf("Frames() = %d, want 50", r.Frames())
	}
}

func TestAppendToleratesJitter(t *testing.T) {
	r := newFake(20, &fakeEncoder{})
	start := time.Unix(0, 0)
	jitter := []time.Duration{0, 7, -12, 20, -5, 3, -20, 11}

	for i := 0; i < 200; i++ {
		at := start.Add(time.Duration(i)*50*time.Millisecond + jitter[i%len(jitter)]*time.Millisecond)
		if _, err := r.Append(solid(black), at); err != nil {
			t.Fatal(err)
		}
	}
	if got := r.Frames(); got < 199 || got > 201 {
		t.Errorf("Frames() = %d, want 200 ±1", got)
	}
}

func TestAppendCatchesUpWithPreviousFrame(t *testing.T) {
	enc := &fakeEncoder{}
	r := newFake(10, enc)
	start := time.Unix(0, 0)
	first, second := solid(black), solid(white)

	r.Append(first, start)
	n, err := r.Append(second, start.Add(400*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Fatalf("catch-up wrote %d frames, want 4", n)
	}
	if len(enc.frames) != 5 {
		t.Fatalf("encoder got %d frames, want 5", len(enc.frames))
	}
	for i := 0; i < 4; i++ {
		if enc.frames[i] != image.Image(first) {
			t.Errorf("frame %d should repeat the previous image", i)
		}
	}
	if enc.frames[4] != image.Image(second) {
		t.Error("last frame should be the new image")
	}
}

func TestAppendEarlyTickWritesNothing(t *testing.T) {
	r := newFake(10, &fakeEncoder{})
	start := time.Unix(0, 0)
	r.Append(solid(black), start)
	n, _ := r.Append(solid(black), start.Add(20*time.Millisecond))
	if n != 0 || r.Frames() != 1 {
		t.Errorf("early tick wrote %d frames, total %d", n, r.Frames())
	}
}

func TestWriteFailureDisablesRecorder(t *testing.T) {
	enc := &fakeEncoder{failAt: 2}
	r := newFake(10, enc)
	start := time.Unix(0, 0)

	for i := 0; i < 2; i++ {
		if _, err := r.Append(solid(black), start.Add(time.Duration(i)*100*time.Millisecond)); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	_, err := r.Append(solid(black), start.Add(200*time.Millisecond))
	if !errors.Is(err, ErrRecordingWrite) {
		t.Fatalf("err = %v, want ErrRecordingWrite", err)
	}
	if r.Active() {
		t.Error("recorder still active after a write failure")
	}
	if enc.closed != 1 {
		t.Errorf("encoder closed %d times, want 1", enc.closed)
	}

	n, err := r.Append(solid(black), start.Add(300*time.Millisecond))
	if n != 0 || err != nil {
		t.Errorf("Append after failure = (%d, %v), want no-op", n, err)
	}
	if !errors.Is(r.Err(), ErrRecordingWrite) {
		t.Errorf("Err() = %v", r.Err())
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close after failure: %v", err)
	}
	if enc.closed != 1 {
		t.Errorf("Close reopened a failed encoder")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	enc := &fakeEncoder{}
	r := newFake(10, enc)
	r.Append(solid(black), time.Unix(0, 0))
	for i := 0; i < 3; i++ {
		if err := r.Close(); err != nil {
			t.Fatal(err)
		}
	}
	if enc.closed != 1 {
		t.Errorf("encoder closed %d times", enc.closed)
	}
	if n, _ := r.Append(solid(black), time.Unix(1, 0)); n != 0 {
		t.Error("Append after Close wrote frames")
	}
}

func TestGIFRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gif")
	pal := color.Palette{black, white}
	r, err := Open(path, 20, image.Rect(0, 0, 4, 4), WithPalette(pal), quiet())
	if err != nil {
		t.Fatal(err)
	}

	start := time.Unix(0, 0)
	r.Append(solid(black), start)
	r.Append(solid(white), start.Add(50*time.Millisecond))
	r.Append(solid(white), start.Add(150*time.Millisecond)) // one missed tick
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	anim, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(anim.Image) != 4 {
		t.Fatalf("decoded %d frames, want 4", len(anim.Image))
	}
	for i, d := range anim.Delay {
		if d != 5 {
			t.Errorf("frame %d delay = %d, want 5", i, d)
		}
	}
	if got := color.RGBAModel.Convert(anim.Image[0].At(0, 0)); got != color.Color(black) {
		t.Errorf("first frame = %v, want black", got)
	}
	if got := color.RGBAModel.Convert(anim.Image[3].At(0, 0)); got != color.Color(white) {
		t.Errorf("last frame = %v, want white", got)
	}
}

func TestGIFPlaybackMatchesFrameRate(t *testing.T) {
	for _, fps := range []int{1, 7, 20, 30, 60, 100} {
		path := filepath.Join(t.TempDir(), "out.gif")
		r, err := Open(path, fps, image.Rect(0, 0, 4, 4), WithPalette(color.Palette{black, white}), quiet())
		if err != nil {
			t.Fatal(err)
		}
		start := time.Unix(0, 0)
		frames := fps * 10
		for i := 0; i < frames; i++ {
			r.Append(solid(black), start.Add(time.Duration(i)*r.Interval()))
		}
		if err := r.Close(); err != nil {
			t.Fatal(err)
		}

		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		anim, err := gif.DecodeAll(f)
		f.Close()
		if err != nil {
			t.Fatalf("fps %d: DecodeAll: %v", fps, err)
		}
		if len(anim.Image) != frames {
			t.Errorf("fps %d: decoded %d frames, want %d", fps, len(anim.Image), frames)
		}
		total := 0
		for _, d := range anim.Delay {
			if d < 1 {
				t.Fatalf("fps %d: zero delay frame", fps)
			}
			total += d
		}
		if total != 1000 {
			t.Errorf("fps %d: %d frames play for %d cs, want 1000", fps, frames, total)
		}
	}
}

func TestGIFWithoutFramesLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gif")
	r, err := Open(path, 10, image.Rect(0, 0, 4, 4), quiet())
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no file, stat err = %v", err)
	}
}

func TestAVIWritesRIFF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.avi")
	r, err := Open(path, 10, image.Rect(0, 0, 4, 4), WithQuality(75), quiet())
	if err != nil {
		t.Fatal(err)
	}
	start := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		if _, err := r.Append(solid(white), start.Add(time.Duration(i)*100*time.Millisecond)); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) || !bytes.Contains(data[:16], []byte("AVI ")) {
		t.Errorf("output is not a RIFF AVI: % x", data[:16])
	}
}

func TestOpenInitErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
		fps  int
	}{
		{"unknown extension", filepath.Join(dir, "out.mp4"), 10},
		{"missing directory", filepath.Join(dir, "nope", "out.gif"), 10},
		{"zero fps", filepath.Join(dir, "out.gif"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.path, tt.fps, image.Rect(0, 0, 4, 4), quiet())
			if !errors.Is(err, ErrRecordingInit) {
				t.Fatalf("err = %v, want ErrRecordingInit", err)
			}
			var rerr *RecordingError
			if !errors.As(err, &rerr) || rerr.Op != "open" {
				t.Errorf("err %v is not an open RecordingError", err)
			}
		})
	}
}

func TestSupported(t *testing.T) {
	for path, want := range map[string]bool{
		"a.gif": true, "b.AVI": true, "c.mp4": false, "noext": false,
	} {
		if got := Supported(path); got != want {
			t.Errorf("Supported(%q) = %v", path, got)
		}
	}
}
