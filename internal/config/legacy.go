package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/serialgrid/internal/render"
)

// LoadLegacy reads a settings file written by the original tool: one line,
// either
//
//	port,baud,timeout,rows,cols,min,max,clarity
//
// or the same nine fields separated by ';' with a trailing colour map.
// Unusable baud, timeout and clarity values fall back to defaults; each
// fallback is reported as a warning.
func LoadLegacy(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return ParseLegacy(line)
}

func ParseLegacy(line string) (*Config, []string, error) {
	line = strings.TrimSpace(line)
	sep, want := ",", 8
	if strings.Contains(line, ";") {
		sep, want = ";", 9
	}
	fields := strings.Split(line, sep)
	if len(fields) != want {
		return nil, nil, invalid("legacy", "got %d %q-separated fields, want %d", len(fields), sep, want)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	cfg := DefaultConfig()
	var (
		warnings []string
		err      error
	)
	cfg.Serial.Port = fields[0]

	if baud, err := strconv.Atoi(fields[1]); err == nil && baud > 0 {
		cfg.Serial.Baud = baud
	} else {
		warnings = append(warnings, fmt.Sprintf("invalid baudrate %q, using %d", fields[1], DefaultBaud))
	}
	if secs, err := strconv.ParseFloat(fields[2], 64); err == nil && secs >= 0 && !math.IsInf(secs, 0) {
		cfg.Serial.Timeout = time.Duration(secs * float64(time.Second))
	} else {
		warnings = append(warnings, fmt.Sprintf("invalid timeout %q, using %v", fields[2], DefaultTimeout))
	}

	if cfg.Grid.Rows, err = strconv.Atoi(fields[3]); err != nil {
		return nil, warnings, invalid("legacy.rows", "%q is not an integer", fields[3])
	}
	if cfg.Grid.Cols, err = strconv.Atoi(fields[4]); err != nil {
		return nil, warnings, invalid("legacy.cols", "%q is not an integer", fields[4])
	}
	if cfg.Range.Min, err = strconv.ParseFloat(fields[5], 64); err != nil {
		return nil, warnings, invalid("legacy.min", "%q is not a number", fields[5])
	}
	if cfg.Range.Max, err = strconv.ParseFloat(fields[6], 64); err != nil {
		return nil, warnings, invalid("legacy.max", "%q is not a number", fields[6])
	}

	if clarity, err := strconv.Atoi(fields[7]); err == nil && clarity >= 1 {
		cfg.Render.Scale = clarity
	} else {
		warnings = append(warnings, fmt.Sprintf("invalid clarity %q, using %d", fields[7], DefaultScale))
	}

	if want == 9 && fields[8] != "" {
		stops, err := parseColourMap(fields[8])
		if err != nil {
			return nil, warnings, invalid("legacy.colour_map", "%v", err)
		}
		cfg.Render.Stops = stops
		cfg.Render.Blend = string(render.BlendRGB)
	}
	return cfg, warnings, nil
}

// parseColourMap reads the original colour map notation: a list of
// [intensity, level] pairs for greyscale, or [intensity, [b, g, r]] for
// colour, all in [0, 1].
func parseColourMap(s string) ([]StopConfig, error) {
	var points [][]any
	if err := yaml.Unmarshal([]byte(s), &points); err != nil {
		return nil, fmt.Errorf("colour map %q: %w", s, err)
	}

	stops := make([]StopConfig, 0, len(points))
	for i, p := range points {
		if len(p) != 2 {
			return nil, fmt.Errorf("colour map point %d: want [intensity, colour]", i)
		}
		at, ok := number(p[0])
		if !ok {
			return nil, fmt.Errorf("colour map point %d: intensity %v is not a number", i, p[0])
		}

		var c colorful.Color
		switch v := p[1].(type) {
		case []any:
			if len(v) != 3 {
				return nil, fmt.Errorf("colour map point %d: want 3 channels, got %d", i, len(v))
			}
			var bgr [3]float64
			for j := range v {
				if bgr[j], ok = number(v[j]); !ok {
					return nil, fmt.Errorf("colour map point %d: channel %v is not a number", i, v[j])
				}
			}
			c = colorful.Color{R: bgr[2], G: bgr[1], B: bgr[0]}
		default:
			level, ok := number(v)
			if !ok {
				return nil, fmt.Errorf("colour map point %d: level %v is not a number", i, v)
			}
			c = colorful.Color{R: level, G: level, B: level}
		}
		stops = append(stops, StopConfig{At: at, Color: c.Clamped().Hex()})
	}
	return stops, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
