package record

import (
	"image"
	"image/color"
	"image/gif"
	"os"

	"golang.org/x/image/draw"
)

// gifEncoder keeps paletted frames in memory and writes the animation when
// closed, since image/gif only encodes a complete GIF.
type gifEncoder struct {
	f       *os.File
	palette color.Palette
	fps     int
	anim    gif.GIF
}

func newGIFEncoder(path string, fps int, pal color.Palette) (*gifEncoder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &gifEncoder{f: f, palette: pal, fps: fps, anim: gif.GIF{LoopCount: 0}}, nil
}

// delay is the display time of frame i in hundredths of a second. Rounding
// is carried from frame to frame so n frames always last n/fps seconds to
// the nearest centisecond.
func (e *gifEncoder) delay(i int) int {
	d := centis(i+1, e.fps) - centis(i, e.fps)
	return max(d, 1)
}

func centis(frames, fps int) int {
	return (100*frames + fps/2) / fps
}

func (e *gifEncoder) encode(img image.Image) error {
	frame := image.NewPaletted(img.Bounds(), e.palette)
	draw.Draw(frame, frame.Bounds(), img, img.Bounds().Min, draw.Src)
	e.anim.Image = append(e.anim.Image, frame)
	e.anim.Delay = append(e.anim.Delay, e.delay(len(e.anim.Delay)))
	return nil
}

// close encodes the animation. A session that ended before its first tick
// leaves no file behind, as an empty GIF is not decodable.
func (e *gifEncoder) close() error {
	if len(e.anim.Image) == 0 {
		e.f.Close()
		return os.Remove(e.f.Name())
	}
	if err := gif.EncodeAll(e.f, &e.anim); err != nil {
		e.f.Close()
		return err
	}
	return e.f.Close()
}
