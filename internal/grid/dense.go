package grid

import (
	"fmt"
	"math"
)

// Reader is the read-only view of a scalar grid, used for the background.
type Reader interface {
	Shape() Shape
	// At returns the sample at c as float64. c must be in bounds.
	At(c Coord) float64
}

// Labels is the read/write view of the label grid. 0 means unlabeled.
type Labels interface {
	Shape() Shape
	Label(c Coord) int
	SetLabel(c Coord, v int)
}

// MaxLabel is the largest label value. Label files and undo snapshots store
// labels as int32.
const MaxLabel = math.MaxInt32

// LabelHolder is implemented by label grids whose storage cannot represent
// every int. HoldsLabel reports whether v reads back unchanged after SetLabel.
type LabelHolder interface {
	HoldsLabel(v int) bool
}

// HoldsLabel reports whether v is a usable label for l: in [1, MaxLabel] and
// representable by l's storage.
func HoldsLabel(l Labels, v int) bool {
	if v < 1 || v > MaxLabel {
		return false
	}
	if h, ok := l.(LabelHolder); ok {
		return h.HoldsLabel(v)
	}
	return true
}

// Number is the set of element types a Dense grid can hold.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint |
		~float32 | ~float64
}

// Dense is a row-major grid over a host-owned slice.
// It satisfies both Reader and Labels.
type Dense[T Number] struct {
	shape Shape
	Data  []T
}

// NewDense allocates zeroed storage for shape.
func NewDense[T Number](shape Shape) *Dense[T] {
	return &Dense[T]{shape: shape, Data: make([]T, shape.Len())}
}

// Wrap adopts data as the backing store for shape. No copy is made.
func Wrap[T Number](shape Shape, data []T) (*Dense[T], error) {
	if shape.Len() == 0 {
		return nil, fmt.Errorf("empty shape")
	}
	if len(data) != shape.Len() {
		return nil, fmt.Errorf("data length %d does not match shape %s (%d samples)", len(data), shape, shape.Len())
	}
	return &Dense[T]{shape: shape, Data: data}, nil
}

func (d *Dense[T]) Shape() Shape { return d.shape }

// Value returns the raw element at c.
func (d *Dense[T]) Value(c Coord) T {
	return d.Data[d.shape.Offset(c)]
}

// Set stores v at c.
func (d *Dense[T]) Set(c Coord, v T) {
	d.Data[d.shape.Offset(c)] = v
}

func (d *Dense[T]) At(c Coord) float64 {
	return float64(d.Data[d.shape.Offset(c)])
}

// Label truncates toward zero for floating point storage.
func (d *Dense[T]) Label(c Coord) int {
	v := float64(d.Data[d.shape.Offset(c)])
	if math.IsNaN(v) {
		return 0
	}
	return int(v)
}

func (d *Dense[T]) SetLabel(c Coord, v int) {
	d.Data[d.shape.Offset(c)] = T(v)
}

// HoldsLabel round-trips v through T the same way SetLabel and Label do.
func (d *Dense[T]) HoldsLabel(v int) bool {
	f := float64(T(v))
	return !math.IsNaN(f) && int(f) == v
}

// Fill sets every element to v.
func (d *Dense[T]) Fill(v T) {
	for i := range d.Data {
		d.Data[i] = v
	}
}

// Clone returns a deep copy with its own storage.
func (d *Dense[T]) Clone() *Dense[T] {
	data := make([]T, len(d.Data))
	copy(data, d.Data)
	return &Dense[T]{shape: d.shape, Data: data}
}

// CountLabel returns how many cells of l hold v.
func CountLabel(l Labels, v int) int {
	n := 0
	l.Shape().Each(func(c Coord) {
		if l.Label(c) == v {
			n++
		}
	})
	return n
}
