// Package export writes session records in formats other tools read.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/serialgrid/internal/storage"
)

// Series picks one value out of a sample.
type Series func(storage.Sample) float64

func Rate(s storage.Sample) float64      { return s.Rate }
func Malformed(s storage.Sample) float64 { return float64(s.Malformed) }

// SeriesByName maps the names accepted on the command line.
var SeriesByName = map[string]Series{
	"rate":      Rate,
	"malformed": Malformed,
}

// SamplesToSVG draws one series against elapsed time as a polyline. It
// writes nothing for fewer than two samples.
func SamplesToSVG(w io.Writer, samples []storage.Sample, pick Series, width, height int, stroke string) error {
	if len(samples) < 2 {
		return fmt.Errorf("export: need at least two samples, have %d", len(samples))
	}

	minX, maxX := samples[0].Elapsed, samples[len(samples)-1].Elapsed
	minY, maxY := pick(samples[0]), pick(samples[0])
	for _, s := range samples {
		v := pick(s)
		minY = min(minY, v)
		maxY = max(maxY, v)
	}

	rangeX := float64(maxX - minX)
	if rangeX == 0 {
		rangeX = float64(time.Second)
	}
	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	// headroom above and below the line
	minY -= rangeY * 0.1
	rangeY *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, stroke)

	for i, s := range samples {
		x := float64(s.Elapsed-minX) / rangeX * float64(width)
		y := float64(height) - (pick(s)-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>
`)
	_, err := io.WriteString(w, sb.String())
	return err
}
