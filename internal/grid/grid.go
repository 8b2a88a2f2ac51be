package grid

import "fmt"

// MaxCells bounds rows*cols so a bad configuration cannot ask for a
// multi-gigabyte frame.
const MaxCells = 1 << 16

// Grid is one sample set reshaped row-major. It is never modified after
// construction, so it can be shared between goroutines without locking.
type Grid struct {
	rows, cols int
	values     []float64
}

// New copies values into a rows x cols grid.
func New(rows, cols int, values []float64) (*Grid, error) {
	if err := ValidateShape(rows, cols); err != nil {
		return nil, err
	}
	if len(values) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for %dx%d", ErrShape, len(values), rows, cols)
	}
	v := make([]float64, len(values))
	copy(v, values)
	return &Grid{rows: rows, cols: cols, values: v}, nil
}

// ValidateShape reports whether rows x cols is a usable grid shape.
func ValidateShape(rows, cols int) error {
	if rows < 1 || cols < 1 {
		return fmt.Errorf("%w: %dx%d", ErrShape, rows, cols)
	}
	if rows*cols > MaxCells {
		return fmt.Errorf("%w: %dx%d exceeds %d cells", ErrShape, rows, cols, MaxCells)
	}
	return nil
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

// At returns the value at row r, column c.
func (g *Grid) At(r, c int) float64 {
	return g.values[r*g.cols+c]
}

// Values returns a copy of the values in row-major order.
func (g *Grid) Values() []float64 {
	v := make([]float64, len(g.values))
	copy(v, g.values)
	return v
}

// Row returns a copy of row r.
func (g *Grid) Row(r int) []float64 {
	row := make([]float64, g.cols)
	copy(row, g.values[r*g.cols:(r+1)*g.cols])
	return row
}

// MinMax returns the smallest and largest value in the grid.
func (g *Grid) MinMax() (lo, hi float64) {
	lo, hi = g.values[0], g.values[0]
	for _, v := range g.values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func (g *Grid) String() string {
	return fmt.Sprintf("grid %dx%d", g.rows, g.cols)
}
