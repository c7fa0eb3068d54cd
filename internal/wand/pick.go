package wand

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/labelwand/internal/grid"
)

// ErrBadTransform is returned when the xy-to-ijk transform is not 4x4.
var ErrBadTransform = errors.New("xy-to-ijk transform must be 4x4")

// indexLimit bounds the rounded index so the float-to-int conversion is
// always defined; anything that large is out of bounds anyway.
const indexLimit = 1 << 30

// MapPick maps a 2D view pick to a grid index. It applies xyToIJK to the
// homogeneous point (x, y, 0, 1), rounds each of i, j, k half away from
// zero and returns them reversed, as (k, j, i).
//
// A component that is NaN or infinite maps to 0 rather than failing, which
// can turn a degenerate transform into a valid-looking seed at index 0.
func MapPick(xy [2]float64, xyToIJK mat.Matrix) (grid.Coord, error) {
	if xyToIJK == nil {
		return grid.Coord{}, fmt.Errorf("%w: got nil", ErrBadTransform)
	}
	if r, c := xyToIJK.Dims(); r != 4 || c != 4 {
		return grid.Coord{}, fmt.Errorf("%w: got %dx%d", ErrBadTransform, r, c)
	}

	in := mat.NewVecDense(4, []float64{xy[0], xy[1], 0, 1})
	var out mat.VecDense
	out.MulVec(xyToIJK, in)

	i := roundIndex(out.AtVec(0))
	j := roundIndex(out.AtVec(1))
	k := roundIndex(out.AtVec(2))
	tracef("pick (%g, %g) -> ijk (%g, %g, %g) -> kji (%d, %d, %d)",
		xy[0], xy[1], out.AtVec(0), out.AtVec(1), out.AtVec(2), k, j, i)
	return grid.Coord{k, j, i}, nil
}

func roundIndex(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	r := math.Round(v)
	switch {
	case r > indexLimit:
		return indexLimit
	case r < -indexLimit:
		return -indexLimit
	}
	return int(r)
}

// PickSeed maps a view pick to a seed index in a grid of the given shape.
func PickSeed(xy [2]float64, xyToIJK mat.Matrix, s grid.Shape) (grid.Coord, error) {
	kji, err := MapPick(xy, xyToIJK)
	if err != nil {
		return grid.Coord{}, err
	}
	return seedFor(kji, s), nil
}

// seedFor places a (k, j, i) pick into a grid of the given shape. A 2D
// grid is indexed (j, i), so k moves to the trailing component where any
// non-zero value makes the seed out of bounds.
func seedFor(kji grid.Coord, s grid.Shape) grid.Coord {
	if s.Dims == 2 {
		return grid.Coord{kji[1], kji[2], kji[0]}
	}
	return kji
}
