package grid

import "fmt"

// Plane selects a 2D sub-array of a 3D grid: FixedAxis is held at
// FixedIndex and Free lists the two remaining axes in view order.
type Plane struct {
	FixedAxis  int
	FixedIndex int
	Free       [2]int
}

// Validate checks the plane against a 3D parent shape.
func (p Plane) Validate(parent Shape) error {
	if parent.Dims != 3 {
		return fmt.Errorf("plane needs a 3D parent, got %dD shape %s", parent.Dims, parent)
	}
	if p.FixedAxis < 0 || p.FixedAxis >= 3 {
		return fmt.Errorf("fixed axis %d out of range", p.FixedAxis)
	}
	if p.Free[0] == p.Free[1] || p.Free[0] == p.FixedAxis || p.Free[1] == p.FixedAxis ||
		p.Free[0] < 0 || p.Free[0] >= 3 || p.Free[1] < 0 || p.Free[1] >= 3 {
		return fmt.Errorf("free axes %v do not complement fixed axis %d", p.Free, p.FixedAxis)
	}
	if p.FixedIndex < 0 || p.FixedIndex >= parent.Extents[p.FixedAxis] {
		return fmt.Errorf("fixed index %d out of range [0, %d) on axis %d",
			p.FixedIndex, parent.Extents[p.FixedAxis], p.FixedAxis)
	}
	return nil
}

// Shape is the 2D shape of the plane inside parent.
func (p Plane) Shape(parent Shape) Shape {
	return Shape{Dims: 2, Extents: [MaxDims]int{parent.Extents[p.Free[0]], parent.Extents[p.Free[1]]}}
}

// Lift maps a 2D plane coordinate to the parent's 3D coordinate.
func (p Plane) Lift(c Coord) Coord {
	var out Coord
	out[p.FixedAxis] = p.FixedIndex
	out[p.Free[0]] = c[0]
	out[p.Free[1]] = c[1]
	return out
}

// Project maps a 3D parent coordinate into the plane, dropping the fixed axis.
func (p Plane) Project(c Coord) Coord {
	return Coord{c[p.Free[0]], c[p.Free[1]], 0}
}

type planeReader struct {
	parent Reader
	plane  Plane
	shape  Shape
}

// PlaneReader exposes one plane of a 3D reader as a 2D reader.
func PlaneReader(r Reader, p Plane) (Reader, error) {
	if err := p.Validate(r.Shape()); err != nil {
		return nil, err
	}
	return &planeReader{parent: r, plane: p, shape: p.Shape(r.Shape())}, nil
}

func (v *planeReader) Shape() Shape       { return v.shape }
func (v *planeReader) At(c Coord) float64 { return v.parent.At(v.plane.Lift(c)) }

type planeLabels struct {
	parent Labels
	plane  Plane
	shape  Shape
}

// PlaneLabels exposes one plane of a 3D label grid as a 2D label grid.
// Writes go straight through to the parent.
func PlaneLabels(l Labels, p Plane) (Labels, error) {
	if err := p.Validate(l.Shape()); err != nil {
		return nil, err
	}
	return &planeLabels{parent: l, plane: p, shape: p.Shape(l.Shape())}, nil
}

func (v *planeLabels) Shape() Shape              { return v.shape }
func (v *planeLabels) Label(c Coord) int         { return v.parent.Label(v.plane.Lift(c)) }
func (v *planeLabels) SetLabel(c Coord, val int) { v.parent.SetLabel(v.plane.Lift(c), val) }
func (v *planeLabels) HoldsLabel(val int) bool    { return HoldsLabel(v.parent, val) }
