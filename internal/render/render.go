package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync/atomic"

	"golang.org/x/image/draw"

	"github.com/san-kum/serialgrid/internal/grid"
)

// Range is the value interval mapped onto the palette. With Auto set, each
// grid is normalized against its own min and max instead.
type Range struct {
	Min, Max float64
	Auto     bool
}

type Options struct {
	Rows, Cols int
	Range      Range
	Palette    string
	// Stops, when set, replace the named palette. Blend mixes them.
	Stops []Stop
	Blend Blend
	Blur  Blur
	// Scale replicates every field pixel into a Scale x Scale block.
	Scale int
}

// Renderer turns grids into images. Render does not mutate the renderer
// beyond the clamp counter, so one Renderer may be shared by goroutines.
type Renderer struct {
	opts    Options
	pal     *Palette
	interp  draw.Interpolator
	factor  int
	scale   int
	bounds  image.Rectangle
	clamped atomic.Uint64
}

func New(opts Options) (*Renderer, error) {
	if err := grid.ValidateShape(opts.Rows, opts.Cols); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if !opts.Range.Auto && !(opts.Range.Max > opts.Range.Min) {
		return nil, fmt.Errorf("render: range max %g must exceed min %g", opts.Range.Max, opts.Range.Min)
	}
	var (
		pal *Palette
		err error
	)
	switch {
	case len(opts.Stops) > 0:
		pal, err = NewCustomPalette(opts.Stops, opts.Blend)
	case opts.Palette == "":
		pal, err = NewPalette(Grey)
	default:
		pal, err = NewPalette(opts.Palette)
	}
	if err != nil {
		return nil, err
	}

	r := &Renderer{opts: opts, pal: pal, factor: opts.Blur.factor(), scale: opts.Scale}
	if r.scale < 1 {
		r.scale = 1
	}
	if opts.Blur.Enabled {
		if r.interp, err = opts.Blur.Kernel.interpolator(); err != nil {
			return nil, err
		}
	}

	w := opts.Cols * r.factor * r.scale
	h := opts.Rows * r.factor * r.scale
	r.bounds = image.Rect(0, 0, w, h)
	return r, nil
}

// Bounds is the size of every image Render and Blank return.
func (r *Renderer) Bounds() image.Rectangle {
	return r.bounds
}

// Shape is the grid shape the renderer accepts.
func (r *Renderer) Shape() (rows, cols int) {
	return r.opts.Rows, r.opts.Cols
}

// Palette returns the palette in use.
func (r *Renderer) Palette() *Palette {
	return r.pal
}

// Clamped is the number of values that fell outside the range so far.
func (r *Renderer) Clamped() uint64 {
	return r.clamped.Load()
}

// Blank returns a frame filled with the palette's low color, used before the
// first grid arrives.
func (r *Renderer) Blank() *image.RGBA {
	img := image.NewRGBA(r.bounds)
	draw.Draw(img, r.bounds, image.NewUniform(r.pal.Index(0)), image.Point{}, draw.Src)
	return img
}

// Render normalizes g, optionally blurs it, and colorizes it. g must have
// the shape the renderer was built for.
func (r *Renderer) Render(g *grid.Grid) (*image.RGBA, error) {
	if g.Rows() != r.opts.Rows || g.Cols() != r.opts.Cols {
		return nil, fmt.Errorf("render: %w: got %dx%d, want %dx%d",
			grid.ErrShape, g.Rows(), g.Cols(), r.opts.Rows, r.opts.Cols)
	}

	field := r.normalize(g)
	if r.factor > 1 {
		up := image.NewGray16(image.Rect(0, 0, field.Bounds().Dx()*r.factor, field.Bounds().Dy()*r.factor))
		r.interp.Scale(up, up.Bounds(), field, field.Bounds(), draw.Src, nil)
		field = up
	}
	return r.colorize(field), nil
}

func (r *Renderer) normalize(g *grid.Grid) *image.Gray16 {
	lo, hi := r.opts.Range.Min, r.opts.Range.Max
	if r.opts.Range.Auto {
		lo, hi = g.MinMax()
	}
	span := hi - lo

	field := image.NewGray16(image.Rect(0, 0, g.Cols(), g.Rows()))
	var clamped uint64
	for y := 0; y < g.Rows(); y++ {
		for x := 0; x < g.Cols(); x++ {
			t := 0.0
			if span > 0 {
				t = (g.At(y, x) - lo) / span
			}
			if t < 0 {
				t, clamped = 0, clamped+1
			} else if t > 1 {
				t, clamped = 1, clamped+1
			}
			field.SetGray16(x, y, color.Gray16{Y: uint16(math.Round(t * 0xffff))})
		}
	}
	if clamped > 0 {
		r.clamped.Add(clamped)
	}
	return field
}

func (r *Renderer) colorize(field *image.Gray16) *image.RGBA {
	img := image.NewRGBA(r.bounds)
	fb := field.Bounds()
	for fy := 0; fy < fb.Dy(); fy++ {
		for fx := 0; fx < fb.Dx(); fx++ {
			v := uint32(field.Gray16At(fx, fy).Y)
			c := r.pal.Index(uint8((v*255 + 0x7fff) / 0xffff))
			for dy := 0; dy < r.scale; dy++ {
				for dx := 0; dx < r.scale; dx++ {
					img.SetRGBA(fx*r.scale+dx, fy*r.scale+dy, c)
				}
			}
		}
	}
	return img
}
