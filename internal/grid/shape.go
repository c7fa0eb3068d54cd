package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxDims is the highest dimensionality a grid can have.
const MaxDims = 3

// Coord addresses one sample. Components past the grid's Dims are zero.
type Coord [MaxDims]int

// String formats the coordinate as "(a, b, c)".
func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c[0], c[1], c[2])
}

// Add returns the component-wise sum of c and d.
func (c Coord) Add(d Coord) Coord {
	return Coord{c[0] + d[0], c[1] + d[1], c[2] + d[2]}
}

// Shape is the per-axis extent of a 2D or 3D grid.
type Shape struct {
	Dims    int
	Extents [MaxDims]int
}

// NewShape builds a Shape from 2 or 3 positive extents.
func NewShape(extents ...int) (Shape, error) {
	if len(extents) < 2 || len(extents) > MaxDims {
		return Shape{}, fmt.Errorf("grid must have 2 or 3 axes, got %d", len(extents))
	}
	s := Shape{Dims: len(extents)}
	for i, e := range extents {
		if e <= 0 {
			return Shape{}, fmt.Errorf("extent of axis %d must be positive, got %d", i, e)
		}
		s.Extents[i] = e
	}
	return s, nil
}

// MustShape is NewShape for fixed shapes in tests and fixtures.
func MustShape(extents ...int) Shape {
	s, err := NewShape(extents...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len is the number of samples in the grid.
func (s Shape) Len() int {
	if s.Dims == 0 {
		return 0
	}
	n := 1
	for i := 0; i < s.Dims; i++ {
		n *= s.Extents[i]
	}
	return n
}

// Contains reports whether c lies inside the grid.
// Trailing components beyond Dims must be zero.
func (s Shape) Contains(c Coord) bool {
	if s.Dims == 0 {
		return false
	}
	for i := 0; i < MaxDims; i++ {
		if i >= s.Dims {
			if c[i] != 0 {
				return false
			}
			continue
		}
		if c[i] < 0 || c[i] >= s.Extents[i] {
			return false
		}
	}
	return true
}

// Offset is the row-major linear index of c. The caller checks Contains.
func (s Shape) Offset(c Coord) int {
	off := 0
	for i := 0; i < s.Dims; i++ {
		off = off*s.Extents[i] + c[i]
	}
	return off
}

// CoordAt is the inverse of Offset.
func (s Shape) CoordAt(off int) Coord {
	var c Coord
	for i := s.Dims - 1; i >= 0; i-- {
		c[i] = off % s.Extents[i]
		off /= s.Extents[i]
	}
	return c
}

// Each calls fn for every coordinate in row-major order.
func (s Shape) Each(fn func(Coord)) {
	n := s.Len()
	for off := 0; off < n; off++ {
		fn(s.CoordAt(off))
	}
}

// Slice returns the extents actually in use.
func (s Shape) Slice() []int {
	out := make([]int, s.Dims)
	copy(out, s.Extents[:s.Dims])
	return out
}

// String formats the shape as "5x5" or "4x8x8".
func (s Shape) String() string {
	parts := make([]string, s.Dims)
	for i := 0; i < s.Dims; i++ {
		parts[i] = strconv.Itoa(s.Extents[i])
	}
	return strings.Join(parts, "x")
}

// ParseCoord parses "k,j,i" or "row,col" into a Coord.
func ParseCoord(s string) (Coord, error) {
	var c Coord
	fields := strings.Split(s, ",")
	if len(fields) < 2 || len(fields) > MaxDims {
		return c, fmt.Errorf("coordinate %q must have 2 or 3 components", s)
	}
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return c, fmt.Errorf("coordinate %q: component %d: %w", s, i, err)
		}
		c[i] = v
	}
	return c, nil
}
