// Package calib searches the sensitivity/smoothing plane for the tuning
// that lets the user hit targets fastest. Candidates live on a fixed grid;
// a breadth-first walk from the current tuning scores each cell once with
// a human-in-the-loop trial.
package calib

import (
	"math"

	"github.com/ayusman/mudra/internal/cursor"
)

// GridSize is the number of candidate values per axis.
const GridSize = 6

// Coord addresses one grid cell: I indexes sensitivity, J smoothing.
type Coord struct {
	I int `json:"i"`
	J int `json:"j"`
}

// Grid is the candidate tuning space.
type Grid struct {
	Sensitivities []float64 `json:"sensitivities"`
	Smoothings    []float64 `json:"smoothings"`
}

// DefaultGrid spans the full validated tuning ranges with GridSize evenly
// spaced values per axis.
func DefaultGrid() Grid {
	return Grid{
		Sensitivities: span(cursor.MinSensitivity, cursor.MaxSensitivity, GridSize),
		Smoothings:    span(cursor.MinSmoothing, cursor.MaxSmoothing, GridSize),
	}
}

func span(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi // keep the endpoint exact
	return out
}

// Size returns the number of cells.
func (g Grid) Size() int {
	return len(g.Sensitivities) * len(g.Smoothings)
}

// Contains reports whether c is a valid cell.
func (g Grid) Contains(c Coord) bool {
	return c.I >= 0 && c.I < len(g.Sensitivities) && c.J >= 0 && c.J < len(g.Smoothings)
}

// At returns the cell's tuning values.
func (g Grid) At(c Coord) (sensitivity, smoothing float64) {
	return g.Sensitivities[c.I], g.Smoothings[c.J]
}

// Config returns a copy of base with the cell's tuning applied.
func (g Grid) Config(c Coord, base cursor.Config) cursor.Config {
	cfg := base.Clone()
	cfg.Sensitivity, cfg.Smoothing = g.At(c)
	return cfg
}

// Neighbors returns the in-bounds 4-neighborhood of c.
func (g Grid) Neighbors(c Coord) []Coord {
	candidates := [4]Coord{
		{c.I - 1, c.J},
		{c.I + 1, c.J},
		{c.I, c.J - 1},
		{c.I, c.J + 1},
	}
	out := make([]Coord, 0, 4)
	for _, n := range candidates {
		if g.Contains(n) {
			out = append(out, n)
		}
	}
	return out
}

// Locate returns the cell nearest to the given tuning, clamping values
// outside the grid to the closest edge. This is where a search starts:
// the walk radiates out from what the user runs today.
func (g Grid) Locate(sensitivity, smoothing float64) Coord {
	return Coord{
		I: nearest(g.Sensitivities, sensitivity),
		J: nearest(g.Smoothings, smoothing),
	}
}

func nearest(values []float64, v float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, candidate := range values {
		if d := math.Abs(candidate - v); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
