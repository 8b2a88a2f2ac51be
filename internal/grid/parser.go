package grid

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Separator splits the fields of a sample line.
const Separator = "\t"

// Parser validates sample lines against a fixed grid shape.
type Parser struct {
	rows, cols int
}

func NewParser(rows, cols int) (*Parser, error) {
	if err := ValidateShape(rows, cols); err != nil {
		return nil, err
	}
	return &Parser{rows: rows, cols: cols}, nil
}

// Cells is the number of fields every line must carry.
func (p *Parser) Cells() int { return p.rows * p.cols }

func (p *Parser) Shape() (rows, cols int) { return p.rows, p.cols }

// Parse converts one line into a grid. The line terminator and surrounding
// spaces are ignored; tabs are never trimmed, so a leading or trailing tab
// is an empty field.
func (p *Parser) Parse(line string) (*Grid, error) {
	trimmed := strings.Trim(strings.TrimRight(line, "\r\n"), " ")
	if trimmed == "" {
		return nil, &MalformedSampleError{Line: line, Reason: "empty line"}
	}

	fields := strings.Split(trimmed, Separator)
	if len(fields) != p.Cells() {
		return nil, &MalformedSampleError{
			Line:   line,
			Reason: fmt.Sprintf("got %d fields, want %d (%dx%d)", len(fields), p.Cells(), p.rows, p.cols),
		}
	}

	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, &MalformedSampleError{Line: line, Reason: fmt.Sprintf("field %d %q is not a number", i, f)}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &MalformedSampleError{Line: line, Reason: fmt.Sprintf("field %d %q is not finite", i, f)}
		}
		values[i] = v
	}

	return &Grid{rows: p.rows, cols: p.cols, values: values}, nil
}
