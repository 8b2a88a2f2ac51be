package render

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// Grey is the identity palette: value t maps to the grey level t*255.
const Grey = "grey"

// paletteStops are evenly spaced color stops from low to high values.
var paletteStops = map[string][]string{
	"inferno": {"#000004", "#420a68", "#932667", "#dd513a", "#fca50a", "#fcffa4"},
	"viridis": {"#440154", "#414487", "#2a788e", "#22a884", "#7ad151", "#fde725"},
	"magma":   {"#000004", "#3b0f70", "#8c2981", "#de4968", "#fe9f6d", "#fcfdbf"},
	"jet":     {"#00007f", "#0000ff", "#00ffff", "#ffff00", "#ff0000", "#7f0000"},
	"hot":     {"#000000", "#ff0000", "#ffff00", "#ffffff"},
}

// Palette is a 256-entry lookup table from normalized value to color.
type Palette struct {
	Name string
	lut  [256]color.RGBA
}

// PaletteNames lists the available palettes, sorted.
func PaletteNames() []string {
	names := make([]string, 0, len(paletteStops)+1)
	names = append(names, Grey)
	for name := range paletteStops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasPalette reports whether name is a known palette.
func HasPalette(name string) bool {
	if name == Grey {
		return true
	}
	_, ok := paletteStops[name]
	return ok
}

func NewPalette(name string) (*Palette, error) {
	if name == Grey {
		p := &Palette{Name: name}
		for i := range p.lut {
			p.lut[i] = color.RGBA{uint8(i), uint8(i), uint8(i), 0xff}
		}
		return p, nil
	}

	hexes, ok := paletteStops[name]
	if !ok {
		return nil, fmt.Errorf("render: unknown palette %q (available: %v)", name, PaletteNames())
	}

	stops := make([]Stop, len(hexes))
	for i, h := range hexes {
		stops[i] = Stop{At: float64(i) / float64(len(hexes)-1), Color: h}
	}
	return blend(name, stops, BlendLuv)
}

// Stop pins a color to a position in [0, 1].
type Stop struct {
	At    float64
	Color string
}

// Custom is the name of palettes built from user stops.
const Custom = "custom"

// Blend is how colors between two stops are mixed.
type Blend string

const (
	// BlendLuv mixes in CIE-L*u*v*, which keeps steps perceptually even.
	BlendLuv Blend = "luv"
	// BlendRGB mixes each sRGB channel linearly, as legacy colour maps do.
	BlendRGB Blend = "rgb"
)

func Blends() []Blend { return []Blend{BlendLuv, BlendRGB} }

// Valid reports whether b is a known blend. Empty means BlendLuv.
func (b Blend) Valid() bool {
	return b == "" || b == BlendLuv || b == BlendRGB
}

// NewCustomPalette builds a palette from at least two stops in ascending
// order. Values below the first stop or above the last take its color.
func NewCustomPalette(stops []Stop, mode Blend) (*Palette, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("render: unknown blend %q (available: %v)", mode, Blends())
	}
	if len(stops) < 2 {
		return nil, fmt.Errorf("render: custom palette needs at least 2 stops, got %d", len(stops))
	}
	for i, s := range stops {
		if s.At < 0 || s.At > 1 {
			return nil, fmt.Errorf("render: stop %d position %g outside [0, 1]", i, s.At)
		}
		if i > 0 && s.At < stops[i-1].At {
			return nil, fmt.Errorf("render: stop %d at %g precedes stop %d at %g", i, s.At, i-1, stops[i-1].At)
		}
	}
	return blend(Custom, stops, mode)
}

func blend(name string, stops []Stop, mode Blend) (*Palette, error) {
	colors := make([]colorful.Color, len(stops))
	for i, s := range stops {
		c, err := colorful.Hex(s.Color)
		if err != nil {
			return nil, fmt.Errorf("render: palette %s stop %d: %w", name, i, err)
		}
		colors[i] = c
	}

	p := &Palette{Name: name}
	k := 0
	for i := range p.lut {
		t := float64(i) / 255
		for k < len(stops)-2 && t > stops[k+1].At {
			k++
		}
		lo, hi := stops[k], stops[k+1]
		var c colorful.Color
		switch {
		case t <= lo.At:
			c = colors[k]
		case t >= hi.At:
			c = colors[k+1]
		default:
			f := (t - lo.At) / (hi.At - lo.At)
			if mode == BlendRGB {
				c = colors[k].BlendRgb(colors[k+1], f)
			} else {
				c = colors[k].BlendLuv(colors[k+1], f)
			}
		}
		r, g, b := c.Clamped().RGB255()
		p.lut[i] = color.RGBA{r, g, b, 0xff}
	}
	return p, nil
}

// At maps t in [0, 1] to a color; t outside the interval is clamped.
func (p *Palette) At(t float64) color.RGBA {
	return p.lut[level(t)]
}

// Colors returns the lookup table as a color.Palette, suitable for GIF
// frames of images this palette produced.
func (p *Palette) Colors() color.Palette {
	cp := make(color.Palette, len(p.lut))
	for i, c := range p.lut {
		cp[i] = c
	}
	return cp
}

// Index returns the color for an 8-bit level.
func (p *Palette) Index(i uint8) color.RGBA {
	return p.lut[i]
}

func level(t float64) uint8 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 255
	}
	return uint8(t*255 + 0.5)
}
