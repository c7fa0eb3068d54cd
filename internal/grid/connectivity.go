package grid

import "fmt"

// Connectivity is the axis-aligned neighbourhood used when growing a region.
// Diagonal neighbours are never included.
type Connectivity int

const (
	// Four is the 4-neighbour connectivity of a 2D slice.
	Four Connectivity = 4
	// Six is the 6-neighbour connectivity of a 3D volume.
	Six Connectivity = 6
)

var (
	offsets4 = []Coord{
		{-1, 0, 0},
		{1, 0, 0},
		{0, -1, 0},
		{0, 1, 0},
	}
	offsets6 = []Coord{
		{-1, 0, 0},
		{1, 0, 0},
		{0, -1, 0},
		{0, 1, 0},
		{0, 0, -1},
		{0, 0, 1},
	}
)

// ConnectivityFor returns the connectivity of a grid with the given number of axes.
func ConnectivityFor(dims int) (Connectivity, error) {
	switch dims {
	case 2:
		return Four, nil
	case 3:
		return Six, nil
	}
	return 0, fmt.Errorf("no connectivity for %d axes", dims)
}

// Offsets lists the neighbour deltas. The slice is shared; do not modify it.
func (c Connectivity) Offsets() []Coord {
	switch c {
	case Four:
		return offsets4
	case Six:
		return offsets6
	}
	return nil
}

func (c Connectivity) String() string {
	return fmt.Sprintf("%d-neighbour", int(c))
}
