package config

import "sort"

// Preset describes a common sensor: its grid shape, expected value range
// and the serial speed its reference firmware uses.
type Preset struct {
	Description string
	Rows, Cols  int
	Min, Max    float64
	Baud        int
	Palette     string
}

var Presets = map[string]Preset{
	"amg8833": {
		Description: "Panasonic Grid-EYE 8x8 thermopile, degrees C",
		Rows:        8, Cols: 8, Min: 0, Max: 80, Baud: 115200, Palette: "inferno",
	},
	"mlx90640": {
		Description: "Melexis 32x24 far-infrared array, degrees C",
		Rows:        24, Cols: 32, Min: 15, Max: 45, Baud: 921600, Palette: "inferno",
	},
	"mlx90621": {
		Description: "Melexis 16x4 far-infrared array, degrees C",
		Rows:        4, Cols: 16, Min: 15, Max: 45, Baud: 115200, Palette: "magma",
	},
	"fsr-4x4": {
		Description: "4x4 force sensitive resistor mat, raw 10-bit ADC",
		Rows:        4, Cols: 4, Min: 0, Max: 1023, Baud: 9600, Palette: "viridis",
	},
	"pressure-16": {
		Description: "16x16 velostat pressure mat, raw 10-bit ADC",
		Rows:        16, Cols: 16, Min: 0, Max: 1023, Baud: 115200, Palette: "jet",
	},
	"light-sensor": {
		Description: "row of 8 photoresistors, raw ADC",
		Rows:        1, Cols: 8, Min: 0, Max: 500, Baud: 9600, Palette: "grey",
	},
}

// GetPreset returns the default config adapted to the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.Apply(cfg)
	return cfg
}

// Apply overwrites the sensor-specific fields of cfg.
func (p Preset) Apply(cfg *Config) {
	cfg.Grid.Rows, cfg.Grid.Cols = p.Rows, p.Cols
	cfg.Range.Min, cfg.Range.Max = p.Min, p.Max
	cfg.Serial.Baud = p.Baud
	cfg.Render.Palette = p.Palette
	cfg.Render.Stops = nil
	cfg.Render.Blend = ""
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
