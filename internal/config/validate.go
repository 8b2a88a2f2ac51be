package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/san-kum/serialgrid/internal/display"
	"github.com/san-kum/serialgrid/internal/grid"
	"github.com/san-kum/serialgrid/internal/record"
	"github.com/san-kum/serialgrid/internal/render"
	"github.com/san-kum/serialgrid/internal/viz"
)

// ErrConfiguration indicates a configuration that cannot start a session.
var ErrConfiguration = errors.New("config: invalid configuration")

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrConfiguration
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks everything a session needs except the serial port, so
// replays can be validated too. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if err := grid.ValidateShape(c.Grid.Rows, c.Grid.Cols); err != nil {
		errs = append(errs, invalid("grid", "%dx%d is not a usable shape (at most %d cells)", c.Grid.Rows, c.Grid.Cols, grid.MaxCells))
	}
	if !c.Range.Auto && !(c.Range.Max > c.Range.Min) {
		errs = append(errs, invalid("range", "max %g must exceed min %g", c.Range.Max, c.Range.Min))
	}

	if !render.Blend(c.Render.Blend).Valid() {
		errs = append(errs, invalid("render.blend", "unknown blend %q (available: %v)", c.Render.Blend, render.Blends()))
	} else if len(c.Render.Stops) > 0 {
		if _, err := render.NewCustomPalette(c.RenderOptions().Stops, render.Blend(c.Render.Blend)); err != nil {
			errs = append(errs, invalid("render.stops", "%v", err))
		}
	} else if !render.HasPalette(c.Render.Palette) {
		errs = append(errs, invalid("render.palette", "unknown palette %q (available: %v)", c.Render.Palette, render.PaletteNames()))
	}
	if c.Render.Scale < 1 || c.Render.Scale > 64 {
		errs = append(errs, invalid("render.scale", "%d not in 1..64", c.Render.Scale))
	}
	if c.Render.Blur.Enabled {
		if !render.Kernel(c.Render.Blur.Kernel).Valid() {
			errs = append(errs, invalid("render.blur.kernel", "unknown kernel %q (available: %v)", c.Render.Blur.Kernel, render.Kernels()))
		}
		if c.Render.Blur.Factor < 2 || c.Render.Blur.Factor > 32 {
			errs = append(errs, invalid("render.blur.factor", "%d not in 2..32", c.Render.Blur.Factor))
		}
	}

	if c.Record.FPS < 1 || c.Record.FPS > 100 {
		errs = append(errs, invalid("record.fps", "%d not in 1..100", c.Record.FPS))
	}
	if c.Record.Quality < 1 || c.Record.Quality > 100 {
		errs = append(errs, invalid("record.quality", "%d not in 1..100", c.Record.Quality))
	}
	if out := c.Record.Output; out != "" {
		if !record.Supported(out) {
			errs = append(errs, invalid("record.output", "%s: unsupported format (want one of %v)", out, record.Formats()))
		} else if err := writableDir(filepath.Dir(out)); err != nil {
			errs = append(errs, invalid("record.output", "%v", err))
		}
	}
	if c.Capture != "" {
		if err := writableDir(filepath.Dir(c.Capture)); err != nil {
			errs = append(errs, invalid("capture", "%v", err))
		}
	}

	if _, err := display.ParseMode(c.Display.Mode); err != nil {
		errs = append(errs, invalid("display.mode", "%v", err))
	}
	if c.Display.Theme != "" && !viz.HasTheme(c.Display.Theme) {
		errs = append(errs, invalid("display.theme", "unknown theme %q (have %v)", c.Display.Theme, viz.ThemeNames()))
	}
	if c.Serial.Baud < 1 {
		errs = append(errs, invalid("serial.baud", "%d must be positive", c.Serial.Baud))
	}
	if c.Serial.Timeout < 0 || c.Serial.IdleTimeout < 0 {
		errs = append(errs, invalid("serial.timeout", "timeouts must not be negative"))
	}

	return errors.Join(errs...)
}

// ValidateForSerial is Validate plus the checks needed to open a port.
func (c *Config) ValidateForSerial() error {
	err := c.Validate()
	if c.Serial.Port == "" {
		err = errors.Join(err, invalid("serial.port", "no port given"))
	}
	return err
}

// writableDir reports whether a file can be created in dir.
func writableDir(dir string) error {
	f, err := os.CreateTemp(dir, ".serialgrid-*")
	if err != nil {
		return fmt.Errorf("directory %s is not writable: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
