// Package kolam implements the symmetric dot-grid pattern engine: the grid
// model, the motif library, seeded motif placement and the 4-fold symmetry
// expansion. It knows nothing about HTTP, files or pixels.
package kolam

import (
	"errors"
	"fmt"
)

// MinGridSize is the smallest accepted width or height.
const MinGridSize = 3

// ErrInvalidDimensions is returned when a grid dimension is even or too small.
var ErrInvalidDimensions = errors.New("grid dimensions must be odd and at least 3")

// Grid is an odd-by-odd lattice of dots addressed by integer (x, y).
// It is immutable after construction.
type Grid struct {
	width  int
	height int
}

// NewGrid creates a Grid, validating that both dimensions are odd and >= 3.
func NewGrid(width, height int) (Grid, error) {
	if err := validateDimension("width", width); err != nil {
		return Grid{}, err
	}
	if err := validateDimension("height", height); err != nil {
		return Grid{}, err
	}
	return Grid{width: width, height: height}, nil
}

func validateDimension(name string, v int) error {
	if v < MinGridSize {
		return fmt.Errorf("%w: %s %d is less than %d", ErrInvalidDimensions, name, v, MinGridSize)
	}
	if v%2 == 0 {
		return fmt.Errorf("%w: %s %d is even", ErrInvalidDimensions, name, v)
	}
	return nil
}

// Width returns the number of dot columns.
func (g Grid) Width() int { return g.width }

// Height returns the number of dot rows.
func (g Grid) Height() int { return g.height }

// CenterX returns the column index of the center dot.
func (g Grid) CenterX() int { return (g.width - 1) / 2 }

// CenterY returns the row index of the center dot.
func (g Grid) CenterY() int { return (g.height - 1) / 2 }

// Center returns the center dot.
func (g Grid) Center() Point {
	return Pt(float64(g.CenterX()), float64(g.CenterY()))
}

// DotAt returns the dot at (x, y). It does not check bounds.
func (g Grid) DotAt(x, y int) Point {
	return Pt(float64(x), float64(y))
}

// IsInBounds reports whether (x, y) addresses a dot of the grid.
func (g Grid) IsInBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// Dots returns every dot of the grid, row by row.
func (g Grid) Dots() []Point {
	dots := make([]Point, 0, g.width*g.height)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			dots = append(dots, g.DotAt(x, y))
		}
	}
	return dots
}

// String returns the grid size as "WxH".
func (g Grid) String() string {
	return fmt.Sprintf("%dx%d", g.width, g.height)
}
