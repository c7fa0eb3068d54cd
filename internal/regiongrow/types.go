package regiongrow

import (
	"github.com/banshee-data/labelwand/internal/fillmode"
	"github.com/banshee-data/labelwand/internal/grid"
)

// Params are the policy scalars of one click.
type Params struct {
	Seed      grid.Coord // in the coordinates of the full grids
	Tolerance float64    // half-width of the inclusive acceptance band
	Label     int        // value written; 0 is reserved for unlabeled
	MaxPixels float64    // compared as a real; never rounded
	PaintOver bool       // overwrite existing non-zero labels
}

// Request is one fill invocation: the parameters plus where to apply them.
type Request struct {
	Params
	Mode        fillmode.Mode
	Orientation fillmode.Orientation // only consulted in Plane mode on 3D grids
}

// Checkpointer captures an undo snapshot of the label grid.
type Checkpointer interface {
	SaveState() error
}

// CheckpointFunc adapts a function to Checkpointer.
type CheckpointFunc func() error

func (f CheckpointFunc) SaveState() error { return f() }

// NoCheckpoint is for hosts without undo.
var NoCheckpoint Checkpointer = CheckpointFunc(func() error { return nil })

// Change records one label write that altered the grid.
type Change struct {
	Coord    grid.Coord // in the coordinates of the full grids
	Previous int
}

// Result summarizes a completed fill.
type Result struct {
	SeedValue float64
	Lo, Hi    float64

	// PixelsSet counts coordinates whose label changed.
	PixelsSet int
	// CutoffHit is true when PixelsSet exceeded MaxPixels and the search stopped.
	CutoffHit bool
	// Visited counts in-bounds coordinates popped from the queue.
	Visited int

	Connectivity grid.Connectivity
	Changes      []Change
}

// Revert restores the previous labels recorded in Changes.
func (r *Result) Revert(labels grid.Labels) {
	for i := len(r.Changes) - 1; i >= 0; i-- {
		labels.SetLabel(r.Changes[i].Coord, r.Changes[i].Previous)
	}
}

// Bounds returns the inclusive bounding box of the changed coordinates.
// ok is false when nothing changed.
func (r *Result) Bounds() (min, max grid.Coord, ok bool) {
	if len(r.Changes) == 0 {
		return min, max, false
	}
	min, max = r.Changes[0].Coord, r.Changes[0].Coord
	for _, ch := range r.Changes[1:] {
		for a := 0; a < grid.MaxDims; a++ {
			if ch.Coord[a] < min[a] {
				min[a] = ch.Coord[a]
			}
			if ch.Coord[a] > max[a] {
				max[a] = ch.Coord[a]
			}
		}
	}
	return min, max, true
}
