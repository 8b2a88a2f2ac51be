package render

import (
	"image/color"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
)

func TestGreyIsIdentity(t *testing.T) {
	p, err := NewPalette(Grey)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 256; i++ {
		want := color.RGBA{uint8(i), uint8(i), uint8(i), 0xff}
		if got := p.Index(uint8(i)); got != want {
			t.Fatalf("Index(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestPaletteEndpointsMatchStops(t *testing.T) {
	for name, stops := range paletteStops {
		t.Run(name, func(t *testing.T) {
			p, err := NewPalette(name)
			if err != nil {
				t.Fatal(err)
			}
			first, _ := colorful.Hex(stops[0])
			last, _ := colorful.Hex(stops[len(stops)-1])
			if !near(p.At(0), first) {
				t.Errorf("At(0) = %v, want %s", p.At(0), stops[0])
			}
			if !near(p.At(1), last) {
				t.Errorf("At(1) = %v, want %s", p.At(1), stops[len(stops)-1])
			}
		})
	}
}

func TestPaletteAtClamps(t *testing.T) {
	p, _ := NewPalette("hot")
	if p.At(-3) != p.At(0) || p.At(42) != p.At(1) {
		t.Error("At should clamp outside [0, 1]")
	}
}

func TestPaletteNames(t *testing.T) {
	names := PaletteNames()
	if len(names) != len(paletteStops)+1 {
		t.Fatalf("PaletteNames() = %v", names)
	}
	for _, n := range names {
		if !HasPalette(n) {
			t.Errorf("HasPalette(%q) = false", n)
		}
	}
	if HasPalette("nope") {
		t.Error("HasPalette(nope) = true")
	}
}

func near(c color.RGBA, want colorful.Color) bool {
	r, g, b := want.RGB255()
	d := func(a, b uint8) int {
		if a > b {
			return int(a - b)
		}
		return int(b - a)
	}
	return d(c.R, r) <= 1 && d(c.G, g) <= 1 && d(c.B, b) <= 1
}

func TestCustomPalette(t *testing.T) {
	p, err := NewCustomPalette([]Stop{
		{At: 0, Color: "#000000"},
		{At: 128.0 / 255, Color: "#4d4d4d"},
		{At: 1, Color: "#ffffff"},
	}, BlendLuv)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != Custom {
		t.Errorf("Name = %q", p.Name)
	}
	if got := p.Index(128); !near(got, colorful.Color{R: 0x4d / 255.0, G: 0x4d / 255.0, B: 0x4d / 255.0}) {
		t.Errorf("Index(128) = %v, want the middle stop", got)
	}
	prev := -1
	for i := 0; i < 256; i++ {
		v := int(p.Index(uint8(i)).R)
		if v < prev {
			t.Fatalf("grey ramp not monotonic at %d", i)
		}
		prev = v
	}
}

func TestCustomPaletteHoldsEndColors(t *testing.T) {
	p, err := NewCustomPalette([]Stop{{At: 0.25, Color: "#ff0000"}, {At: 0.75, Color: "#0000ff"}}, "")
	if err != nil {
		t.Fatal(err)
	}
	if p.At(0.1) != p.At(0.25) {
		t.Error("values below the first stop should take its color")
	}
	if p.At(0.9) != p.At(0.75) {
		t.Error("values above the last stop should take its color")
	}
}

func TestCustomPaletteErrors(t *testing.T) {
	tests := map[string][]Stop{
		"one stop":   {{At: 0, Color: "#000000"}},
		"descending": {{At: 0.8, Color: "#000000"}, {At: 0.2, Color: "#ffffff"}},
		"outside":    {{At: 0, Color: "#000000"}, {At: 1.5, Color: "#ffffff"}},
		"bad color":  {{At: 0, Color: "black"}, {At: 1, Color: "#ffffff"}},
	}
	for name, stops := range tests {
		if _, err := NewCustomPalette(stops, BlendLuv); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	ok := []Stop{{At: 0, Color: "#000000"}, {At: 1, Color: "#ffffff"}}
	if _, err := NewCustomPalette(ok, "hsv"); err == nil {
		t.Error("unknown blend: expected error")
	}
}

func TestCustomPaletteRGBBlendIsLinear(t *testing.T) {
	p, err := NewCustomPalette([]Stop{{At: 0, Color: "#000000"}, {At: 1, Color: "#ffffff"}}, BlendRGB)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 256; i++ {
		if got := p.Index(uint8(i)); got.R != uint8(i) || got.G != uint8(i) || got.B != uint8(i) {
			t.Fatalf("Index(%d) = %v, want grey %d", i, got, i)
		}
	}

	two, err := NewCustomPalette([]Stop{{At: 0, Color: "#0000ff"}, {At: 1, Color: "#ff0000"}}, BlendRGB)
	if err != nil {
		t.Fatal(err)
	}
	if got := two.At(0.5); got.R != 128 || got.G != 0 || got.B != 128 {
		t.Errorf("At(0.5) = %v, want channel midpoints", got)
	}
}
