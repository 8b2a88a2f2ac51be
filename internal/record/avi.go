package record

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/icza/mjpeg"
)

// aviEncoder streams every frame as a JPEG into an MJPEG AVI container.
type aviEncoder struct {
	aw      mjpeg.AviWriter
	quality int
	buf     bytes.Buffer
}

func newAVIEncoder(path string, fps int, bounds image.Rectangle, quality int) (*aviEncoder, error) {
	aw, err := mjpeg.New(path, int32(bounds.Dx()), int32(bounds.Dy()), int32(fps))
	if err != nil {
		return nil, err
	}
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	return &aviEncoder{aw: aw, quality: quality}, nil
}

func (e *aviEncoder) encode(img image.Image) error {
	e.buf.Reset()
	if err := jpeg.Encode(&e.buf, img, &jpeg.Options{Quality: e.quality}); err != nil {
		return err
	}
	return e.aw.AddFrame(e.buf.Bytes())
}

func (e *aviEncoder) close() error {
	return e.aw.Close()
}
