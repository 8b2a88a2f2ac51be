package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/serialgrid/internal/render"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Grid.Rows != DefaultRows || cfg.Grid.Cols != DefaultCols {
		t.Errorf("expected %dx%d grid, got %dx%d", DefaultRows, DefaultCols, cfg.Grid.Rows, cfg.Grid.Cols)
	}
	if cfg.Serial.Baud != 9600 {
		t.Errorf("expected baud 9600, got %d", cfg.Serial.Baud)
	}
	if !cfg.Serial.SkipFirstLine {
		t.Error("first line should be skipped by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.yaml")

	cfg := DefaultConfig()
	cfg.Grid.Rows, cfg.Grid.Cols = 24, 32
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Serial.Timeout = 1500 * time.Millisecond
	cfg.Range.Auto = true
	cfg.Render.Palette = "inferno"
	cfg.Render.Blur.Enabled = true
	cfg.Record.Output = filepath.Join(dir, "out.gif")

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got.Grid != cfg.Grid || got.Serial != cfg.Serial || got.Range != cfg.Range {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
	if got.Render.Palette != "inferno" || !got.Render.Blur.Enabled || got.Record.Output != cfg.Record.Output {
		t.Errorf("render/record lost in round trip: %+v %+v", got.Render, got.Record)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yml")
	data := "grid:\n  rows: 4\n  cols: 4\nserial:\n  port: COM3\n  timeout: 2s\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Grid.Rows != 4 || cfg.Serial.Port != "COM3" || cfg.Serial.Timeout != 2*time.Second {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Record.FPS != DefaultFPS || cfg.Render.Scale != DefaultScale {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"zero rows", func(c *Config) { c.Grid.Rows = 0 }, "grid"},
		{"huge grid", func(c *Config) { c.Grid.Rows, c.Grid.Cols = 1000, 1000 }, "grid"},
		{"inverted range", func(c *Config) { c.Range.Min, c.Range.Max = 10, 5 }, "range"},
		{"unknown palette", func(c *Config) { c.Render.Palette = "sepia" }, "render.palette"},
		{"bad stops", func(c *Config) { c.Render.Stops = []StopConfig{{At: 0, Color: "#000"}} }, "render.stops"},
		{"zero scale", func(c *Config) { c.Render.Scale = 0 }, "render.scale"},
		{"bad kernel", func(c *Config) { c.Render.Blur.Enabled = true; c.Render.Blur.Kernel = "box" }, "render.blur.kernel"},
		{"blur factor", func(c *Config) { c.Render.Blur.Enabled = true; c.Render.Blur.Factor = 1 }, "render.blur.factor"},
		{"fps", func(c *Config) { c.Record.FPS = 0 }, "record.fps"},
		{"quality", func(c *Config) { c.Record.Quality = 101 }, "record.quality"},
		{"output format", func(c *Config) { c.Record.Output = "out.mp4" }, "record.output"},
		{"output dir", func(c *Config) { c.Record.Output = "/nonexistent/dir/out.gif" }, "record.output"},
		{"display", func(c *Config) { c.Display.Mode = "vga" }, "display.mode"},
		{"baud", func(c *Config) { c.Serial.Baud = 0 }, "serial.baud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestValidateAutoRangeIgnoresBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Range = RangeConfig{Auto: true}
	if err := cfg.Validate(); err != nil {
		t.Errorf("auto range should not need bounds: %v", err)
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grid.Cols = 0
	cfg.Record.FPS = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok || len(joined.Unwrap()) != 2 {
		t.Errorf("expected two joined errors, got %v", err)
	}
}

func TestValidateForSerial(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ValidateForSerial(); !errors.Is(err, ErrConfiguration) {
		t.Errorf("missing port should be a configuration error, got %v", err)
	}
	cfg.Serial.Port = "/dev/ttyACM0"
	if err := cfg.ValidateForSerial(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseLegacy(t *testing.T) {
	cfg, warnings, err := ParseLegacy("/dev/ttyACM0,115200,2.5,3,4,10,300,6\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if cfg.Serial.Port != "/dev/ttyACM0" || cfg.Serial.Baud != 115200 {
		t.Errorf("serial = %+v", cfg.Serial)
	}
	if cfg.Serial.Timeout != 2500*time.Millisecond {
		t.Errorf("timeout = %v", cfg.Serial.Timeout)
	}
	if cfg.Grid.Rows != 3 || cfg.Grid.Cols != 4 {
		t.Errorf("grid = %+v", cfg.Grid)
	}
	if cfg.Range.Min != 10 || cfg.Range.Max != 300 || cfg.Render.Scale != 6 {
		t.Errorf("range/scale = %+v %d", cfg.Range, cfg.Render.Scale)
	}
}

func TestParseLegacyFallbacks(t *testing.T) {
	cfg, warnings, err := ParseLegacy("COM4,fast,soon,2,2,0,1,sharp")
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 3 {
		t.Errorf("expected 3 warnings, got %v", warnings)
	}
	if cfg.Serial.Baud != DefaultBaud || cfg.Serial.Timeout != DefaultTimeout || cfg.Render.Scale != DefaultScale {
		t.Errorf("defaults not applied: %+v %+v", cfg.Serial, cfg.Render)
	}
}

func TestParseLegacyColourMap(t *testing.T) {
	cfg, _, err := ParseLegacy("COM4;9600;5;2;2;0;1;10;[[0,[0,1,1]],[1,[0,0.1,1]]]")
	if err != nil {
		t.Fatal(err)
	}
	want := []StopConfig{{At: 0, Color: "#ffff00"}, {At: 1, Color: "#ff1a00"}}
	if len(cfg.Render.Stops) != len(want) {
		t.Fatalf("stops = %+v", cfg.Render.Stops)
	}
	for i := range want {
		if cfg.Render.Stops[i] != want[i] {
			t.Errorf("stop %d = %+v, want %+v", i, cfg.Render.Stops[i], want[i])
		}
	}

	grey, _, err := ParseLegacy("COM4;9600;5;2;2;0;1;10;[[0,0],[0.5,0.3],[1,1]]")
	if err != nil {
		t.Fatal(err)
	}
	if len(grey.Render.Stops) != 3 || grey.Render.Stops[2].Color != "#ffffff" {
		t.Errorf("grey stops = %+v", grey.Render.Stops)
	}
	if err := grey.Validate(); err != nil {
		t.Errorf("legacy colour map should validate: %v", err)
	}
}

func TestParseLegacyColourMapIsLinear(t *testing.T) {
	cfg, _, err := ParseLegacy("COM4;9600;5;2;2;0;1;10;[[0,0],[1,1]]")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Render.Blend != string(render.BlendRGB) {
		t.Errorf("blend = %q, want rgb", cfg.Render.Blend)
	}
	r, err := render.New(cfg.RenderOptions())
	if err != nil {
		t.Fatal(err)
	}
	for _, tt := range []struct {
		at   float64
		want uint8
	}{{0.25, 64}, {0.5, 128}, {0.75, 191}} {
		if got := r.Palette().At(tt.at); got.R != tt.want || got.G != tt.want || got.B != tt.want {
			t.Errorf("At(%g) = %v, want grey %d", tt.at, got, tt.want)
		}
	}
}

func TestParseLegacyErrors(t *testing.T) {
	for _, line := range []string{
		"",
		"COM4,9600,5,2,2,0,1",
		"COM4,9600,5,two,2,0,1,10",
		"COM4,9600,5,2,2,low,1,10",
		"COM4;9600;5;2;2;0;1;10;[[0]]",
	} {
		if _, _, err := ParseLegacy(line); !errors.Is(err, ErrConfiguration) {
			t.Errorf("ParseLegacy(%q) = %v, want ErrConfiguration", line, err)
		}
	}
}

func TestLoadDispatchesLegacy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.txt")
	if err := os.WriteFile(path, []byte("COM1,9600,5,2,3,0,100,4\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Grid.Rows != 2 || cfg.Grid.Cols != 3 {
		t.Errorf("grid = %+v", cfg.Grid)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("mlx90640")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Grid.Rows != 24 || cfg.Grid.Cols != 32 {
		t.Errorf("expected 24x32, got %dx%d", cfg.Grid.Rows, cfg.Grid.Cols)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("preset invalid: %v", err)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("presets not sorted: %v", names)
		}
	}
	for _, n := range names {
		if err := GetPreset(n).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", n, err)
		}
	}
}
