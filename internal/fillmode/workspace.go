package fillmode

import (
	"fmt"

	"github.com/banshee-data/labelwand/internal/grid"
)

// Workspace is the addressable space of one fill: the views the engine
// reads and writes, the seed expressed in those views, and the
// connectivity that follows from their dimensionality.
type Workspace struct {
	Background   grid.Reader
	Labels       grid.Labels
	Seed         grid.Coord
	Connectivity grid.Connectivity

	// Plane is set when the workspace is a slice of a 3D grid.
	Plane *grid.Plane
}

// Lift maps a workspace coordinate back to the original grid.
func (w *Workspace) Lift(c grid.Coord) grid.Coord {
	if w.Plane == nil {
		return c
	}
	return w.Plane.Lift(c)
}

// Narrow builds the workspace for mode. 2D grids are used whole in either
// mode. The caller has already checked that seed lies inside the grids.
func Narrow(mode Mode, o Orientation, seed grid.Coord, bg grid.Reader, labels grid.Labels) (*Workspace, error) {
	shape := labels.Shape()
	switch {
	case shape.Dims == 2, mode == Volume:
		conn, err := grid.ConnectivityFor(shape.Dims)
		if err != nil {
			return nil, err
		}
		return &Workspace{Background: bg, Labels: labels, Seed: seed, Connectivity: conn}, nil
	case mode == Plane:
		p, err := SelectPlane(o, seed)
		if err != nil {
			return nil, err
		}
		pr, err := grid.PlaneReader(bg, p)
		if err != nil {
			return nil, fmt.Errorf("background plane: %w", err)
		}
		pl, err := grid.PlaneLabels(labels, p)
		if err != nil {
			return nil, fmt.Errorf("label plane: %w", err)
		}
		return &Workspace{
			Background:   pr,
			Labels:       pl,
			Seed:         p.Project(seed),
			Connectivity: grid.Four,
			Plane:        &p,
		}, nil
	}
	return nil, fmt.Errorf("unsupported fill mode %v", mode)
}
