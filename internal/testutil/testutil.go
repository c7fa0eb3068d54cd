// Package testutil provides shared grid fixtures and assertions.
//
// Fixtures build small background and label grids from literal rows so
// fill tests can state their inputs and expected outputs as pictures.
package testutil

import (
	"testing"

	"github.com/banshee-data/labelwand/internal/grid"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Grid2D builds a 2D background from rows. All rows must be the same length.
func Grid2D(t *testing.T, rows [][]float64) *grid.Dense[float64] {
	t.Helper()
	if len(rows) == 0 {
		t.Fatal("Grid2D: no rows")
	}
	shape, err := grid.NewShape(len(rows), len(rows[0]))
	if err != nil {
		t.Fatalf("Grid2D: %v", err)
	}
	d := grid.NewDense[float64](shape)
	for r, row := range rows {
		if len(row) != len(rows[0]) {
			t.Fatalf("Grid2D: row %d has %d columns, want %d", r, len(row), len(rows[0]))
		}
		for c, v := range row {
			d.Set(grid.Coord{r, c, 0}, v)
		}
	}
	return d
}

// Labels2D builds a 2D label grid from rows.
func Labels2D(t *testing.T, rows [][]int) *grid.Dense[int32] {
	t.Helper()
	shape, err := grid.NewShape(len(rows), len(rows[0]))
	if err != nil {
		t.Fatalf("Labels2D: %v", err)
	}
	d := grid.NewDense[int32](shape)
	for r, row := range rows {
		for c, v := range row {
			d.Set(grid.Coord{r, c, 0}, int32(v))
		}
	}
	return d
}

// Uniform builds a background of the given extents filled with v.
func Uniform(v float64, extents ...int) *grid.Dense[float64] {
	d := grid.NewDense[float64](grid.MustShape(extents...))
	d.Fill(v)
	return d
}

// EmptyLabels builds an all-zero label grid.
func EmptyLabels(extents ...int) *grid.Dense[int32] {
	return grid.NewDense[int32](grid.MustShape(extents...))
}

// Rows renders a 2D label grid as rows for comparison with cmp.Diff.
func Rows(l grid.Labels) [][]int {
	s := l.Shape()
	out := make([][]int, s.Extents[0])
	for r := range out {
		out[r] = make([]int, s.Extents[1])
		for c := range out[r] {
			out[r][c] = l.Label(grid.Coord{r, c, 0})
		}
	}
	return out
}

// LabeledCoords lists every coordinate of l holding v, in row-major order.
func LabeledCoords(l grid.Labels, v int) []grid.Coord {
	var out []grid.Coord
	l.Shape().Each(func(c grid.Coord) {
		if l.Label(c) == v {
			out = append(out, c)
		}
	})
	return out
}
