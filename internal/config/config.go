package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/serialgrid/internal/render"
)

const (
	DefaultRows    = 8
	DefaultCols    = 8
	DefaultBaud    = 9600
	DefaultTimeout = 5 * time.Second
	DefaultMin     = 0.0
	DefaultMax     = 500.0
	DefaultScale   = 10
	DefaultFPS     = 20
	DefaultQuality = 90
	DefaultFactor  = 4
)

type Config struct {
	Grid    GridConfig    `yaml:"grid"`
	Serial  SerialConfig  `yaml:"serial"`
	Range   RangeConfig   `yaml:"range"`
	Render  RenderConfig  `yaml:"render"`
	Record  RecordConfig  `yaml:"record"`
	Display DisplayConfig `yaml:"display"`
	// Capture, when set, receives every accepted line for later replay.
	Capture string `yaml:"capture,omitempty"`
}

type GridConfig struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

type SerialConfig struct {
	Port          string        `yaml:"port"`
	Baud          int           `yaml:"baud"`
	Timeout       time.Duration `yaml:"timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout,omitempty"`
	SkipFirstLine bool          `yaml:"skip_first_line"`
}

type RangeConfig struct {
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Auto bool    `yaml:"auto"`
}

type RenderConfig struct {
	Palette string       `yaml:"palette"`
	Stops   []StopConfig `yaml:"stops,omitempty"`
	Blend   string       `yaml:"blend,omitempty"`
	Scale   int          `yaml:"scale"`
	Blur    BlurConfig   `yaml:"blur"`
}

type StopConfig struct {
	At    float64 `yaml:"at"`
	Color string  `yaml:"color"`
}

type BlurConfig struct {
	Enabled bool   `yaml:"enabled"`
	Kernel  string `yaml:"kernel"`
	Factor  int    `yaml:"factor"`
}

type RecordConfig struct {
	Output  string `yaml:"output"`
	FPS     int    `yaml:"fps"`
	Quality int    `yaml:"quality"`
}

type DisplayConfig struct {
	Mode string `yaml:"mode"`
	// Theme colors the terminal status footer.
	Theme string `yaml:"theme,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{Rows: DefaultRows, Cols: DefaultCols},
		Serial: SerialConfig{
			Baud:          DefaultBaud,
			Timeout:       DefaultTimeout,
			SkipFirstLine: true,
		},
		Range: RangeConfig{Min: DefaultMin, Max: DefaultMax},
		Render: RenderConfig{
			Palette: render.Grey,
			Scale:   DefaultScale,
			Blur: BlurConfig{
				Kernel: string(render.KernelBilinear),
				Factor: DefaultFactor,
			},
		},
		Record:  RecordConfig{FPS: DefaultFPS, Quality: DefaultQuality},
		Display: DisplayConfig{Mode: "terminal"},
	}
}

// Load reads a YAML config over the defaults. Files not ending in .yaml or
// .yml are read as a legacy settings line.
func Load(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	default:
		cfg, _, err := LoadLegacy(path)
		return cfg, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RenderOptions converts the config into renderer options.
func (c *Config) RenderOptions() render.Options {
	opts := render.Options{
		Rows:    c.Grid.Rows,
		Cols:    c.Grid.Cols,
		Range:   render.Range{Min: c.Range.Min, Max: c.Range.Max, Auto: c.Range.Auto},
		Palette: c.Render.Palette,
		Blur: render.Blur{
			Enabled: c.Render.Blur.Enabled,
			Kernel:  render.Kernel(c.Render.Blur.Kernel),
			Factor:  c.Render.Blur.Factor,
		},
		Scale: c.Render.Scale,
		Blend: render.Blend(c.Render.Blend),
	}
	for _, s := range c.Render.Stops {
		opts.Stops = append(opts.Stops, render.Stop{At: s.At, Color: s.Color})
	}
	return opts
}

// FrameInterval is the time between display ticks and recorded frames.
func (c *Config) FrameInterval() time.Duration {
	if c.Record.FPS < 1 {
		return time.Second / DefaultFPS
	}
	return time.Second / time.Duration(c.Record.FPS)
}
