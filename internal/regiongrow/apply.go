package regiongrow

import (
	"fmt"
	"math"

	"github.com/banshee-data/labelwand/internal/fillmode"
	"github.com/banshee-data/labelwand/internal/grid"
)

// Apply runs one wand click against the background and label grids.
//
// Preconditions are checked first and reject the call without side effects.
// Then cp.SaveState is called exactly once; if it fails nothing is written.
// Only after that does the search mutate labels. The caller is responsible
// for telling the document layer that the label grid changed.
func Apply(req Request, background grid.Reader, labels grid.Labels, cp Checkpointer) (*Result, error) {
	if err := validate(req.Params, background, labels, cp); err != nil {
		diagf("rejected fill at %v: %v", req.Seed, err)
		return nil, err
	}

	ws, err := fillmode.Narrow(req.Mode, req.Orientation, req.Seed, background, labels)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPrecondition, err)
	}

	if err := cp.SaveState(); err != nil {
		opsf("checkpoint failed before fill at %v: %v", req.Seed, err)
		return nil, fmt.Errorf("%w: %w", ErrCheckpoint, err)
	}

	res := grow(ws, req.Params)
	diagf("fill seed=%v mode=%v conn=%v band=[%g, %g] set=%d visited=%d cutoff=%t",
		req.Seed, req.Mode, res.Connectivity, res.Lo, res.Hi, res.PixelsSet, res.Visited, res.CutoffHit)
	return res, nil
}

func validate(p Params, background grid.Reader, labels grid.Labels, cp Checkpointer) error {
	if cp == nil {
		return ErrMissingCheckpoint
	}
	bs, ls := background.Shape(), labels.Shape()
	if bs != ls {
		return fmt.Errorf("%w: background %s, labels %s", ErrShapeMismatch, bs, ls)
	}
	if !ls.Contains(p.Seed) {
		return fmt.Errorf("%w: %v not in %s", ErrSeedOutOfBounds, p.Seed, ls)
	}
	if math.IsNaN(p.Tolerance) || math.IsInf(p.Tolerance, 0) || p.Tolerance < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidTolerance, p.Tolerance)
	}
	if math.IsNaN(p.MaxPixels) || p.MaxPixels <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidMaxPixels, p.MaxPixels)
	}
	if !grid.HoldsLabel(labels, p.Label) {
		return fmt.Errorf("%w: got %d", ErrInvalidLabel, p.Label)
	}
	return nil
}

// grow is the breadth-first search over ws. It never fails: out-of-range
// neighbours are routine and are skipped when popped.
func grow(ws *fillmode.Workspace, p Params) *Result {
	shape := ws.Labels.Shape()
	seedValue := ws.Background.At(ws.Seed)
	res := &Result{
		SeedValue:    seedValue,
		Lo:           seedValue - p.Tolerance,
		Hi:           seedValue + p.Tolerance,
		Connectivity: ws.Connectivity,
	}

	// Only paint-over can revisit an already converted coordinate, so only
	// paint-over needs to remember which ones it has seen.
	var visited []bool
	if p.PaintOver {
		visited = make([]bool, shape.Len())
	}
	offsets := ws.Connectivity.Offsets()

	queue := []grid.Coord{ws.Seed}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]

		if !shape.Contains(c) {
			continue
		}
		res.Visited++

		l := ws.Labels.Label(c)
		if p.PaintOver {
			if l == p.Label {
				off := shape.Offset(c)
				if visited[off] {
					continue
				}
				visited[off] = true
			}
		} else if l != 0 {
			continue
		}

		// Written as a positive test so NaN samples fall outside the band.
		b := ws.Background.At(c)
		if !(b >= res.Lo && b <= res.Hi) {
			continue
		}

		ws.Labels.SetLabel(c, p.Label)
		if l != p.Label {
			res.PixelsSet++
			res.Changes = append(res.Changes, Change{Coord: ws.Lift(c), Previous: l})
			tracef("set %v %d->%d (%d)", ws.Lift(c), l, p.Label, res.PixelsSet)
		}

		if float64(res.PixelsSet) > p.MaxPixels {
			// Hard stop: the pending frontier is dropped, not drained.
			res.CutoffHit = true
			break
		}

		for _, d := range offsets {
			queue = append(queue, c.Add(d))
		}
	}
	return res
}
