// Package fillmode decides which part of a volume a wand click operates on.
//
// In Plane mode the search is confined to the slice the user is looking at:
// the axis orthogonal to the view is held at the seed's index and the two
// in-plane axes stay free. In Volume mode the full 3D grid is searched.
package fillmode

import (
	"fmt"
	"strings"

	"github.com/banshee-data/labelwand/internal/grid"
)

// Mode selects between a single-slice and a whole-volume fill.
type Mode int

const (
	Plane Mode = iota
	Volume
)

func (m Mode) String() string {
	switch m {
	case Plane:
		return "plane"
	case Volume:
		return "volume"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "plane" or "volume", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plane", "2d", "slice":
		return Plane, nil
	case "volume", "3d":
		return Volume, nil
	}
	return 0, fmt.Errorf("unknown fill mode %q (want plane or volume)", s)
}

// Orientation is one of the three canonical slice views.
type Orientation int

const (
	Axial Orientation = iota
	Coronal
	Sagittal
)

func (o Orientation) String() string {
	switch o {
	case Axial:
		return "axial"
	case Coronal:
		return "coronal"
	case Sagittal:
		return "sagittal"
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

// ParseOrientation accepts the view names and the conventional slice
// colours: red (axial), green (coronal), yellow (sagittal).
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "axial", "red":
		return Axial, nil
	case "coronal", "green":
		return Coronal, nil
	case "sagittal", "yellow":
		return Sagittal, nil
	}
	return 0, fmt.Errorf("unknown orientation %q", s)
}

// fixedAxis maps an orientation to the (k, j, i) axis it holds constant.
func (o Orientation) fixedAxis() (int, error) {
	switch o {
	case Axial:
		return 0, nil
	case Coronal:
		return 1, nil
	case Sagittal:
		return 2, nil
	}
	return 0, fmt.Errorf("invalid orientation %d", int(o))
}

// SelectPlane returns the plane through seed that is viewed in orientation o.
// It is a pure function of its arguments.
func SelectPlane(o Orientation, seed grid.Coord) (grid.Plane, error) {
	axis, err := o.fixedAxis()
	if err != nil {
		return grid.Plane{}, err
	}
	p := grid.Plane{FixedAxis: axis, FixedIndex: seed[axis]}
	n := 0
	for a := 0; a < grid.MaxDims; a++ {
		if a != axis {
			p.Free[n] = a
			n++
		}
	}
	return p, nil
}
