package grid

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShape(t *testing.T) {
	tests := []struct {
		name    string
		extents []int
		wantErr bool
		wantLen int
	}{
		{"2D", []int{5, 5}, false, 25},
		{"3D", []int{2, 3, 4}, false, 24},
		{"1D rejected", []int{5}, true, 0},
		{"4D rejected", []int{1, 2, 3, 4}, true, 0},
		{"zero extent", []int{3, 0}, true, 0},
		{"negative extent", []int{-1, 3, 3}, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewShape(tt.extents...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, s.Len())
			assert.Equal(t, tt.extents, s.Slice())
		})
	}
}

func TestShape_Contains(t *testing.T) {
	s2 := MustShape(3, 4)
	s3 := MustShape(2, 3, 4)

	assert.True(t, s2.Contains(Coord{0, 0, 0}))
	assert.True(t, s2.Contains(Coord{2, 3, 0}))
	assert.False(t, s2.Contains(Coord{3, 0, 0}))
	assert.False(t, s2.Contains(Coord{0, 4, 0}))
	assert.False(t, s2.Contains(Coord{-1, 0, 0}))
	assert.False(t, s2.Contains(Coord{0, 0, 1}), "trailing component must be zero on a 2D grid")

	assert.True(t, s3.Contains(Coord{1, 2, 3}))
	assert.False(t, s3.Contains(Coord{1, 2, 4}))
	assert.False(t, s3.Contains(Coord{0, 0, -1}))

	assert.False(t, Shape{}.Contains(Coord{}))
}

func TestShape_OffsetRoundTrip(t *testing.T) {
	s := MustShape(2, 3, 4)
	seen := make(map[int]bool)
	s.Each(func(c Coord) {
		off := s.Offset(c)
		if seen[off] {
			t.Fatalf("offset %d produced twice", off)
		}
		seen[off] = true
		if got := s.CoordAt(off); got != c {
			t.Errorf("CoordAt(%d) = %v, want %v", off, got, c)
		}
	})
	assert.Len(t, seen, 24)
	assert.Equal(t, 23, s.Offset(Coord{1, 2, 3}))
	assert.Equal(t, 4, s.Offset(Coord{0, 1, 0}), "row-major: fastest axis is last")
}

func TestShape_String(t *testing.T) {
	assert.Equal(t, "5x5", MustShape(5, 5).String())
	assert.Equal(t, "2x3x4", MustShape(2, 3, 4).String())
}

func TestParseCoord(t *testing.T) {
	c, err := ParseCoord("1, 2,3")
	require.NoError(t, err)
	assert.Equal(t, Coord{1, 2, 3}, c)

	c, err = ParseCoord("4,5")
	require.NoError(t, err)
	assert.Equal(t, Coord{4, 5, 0}, c)

	_, err = ParseCoord("1")
	assert.Error(t, err)
	_, err = ParseCoord("a,b")
	assert.Error(t, err)
}

func TestDense_WrapSharesStorage(t *testing.T) {
	data := []int16{0, 0, 0, 0, 0, 0}
	d, err := Wrap(MustShape(2, 3), data)
	require.NoError(t, err)

	d.SetLabel(Coord{1, 2, 0}, 7)
	assert.Equal(t, int16(7), data[5], "writes must land in host storage")
	assert.Equal(t, 7, d.Label(Coord{1, 2, 0}))
	assert.Equal(t, 7.0, d.At(Coord{1, 2, 0}))

	_, err = Wrap(MustShape(2, 3), []int16{1, 2})
	assert.Error(t, err)
}

func TestDense_FloatLabels(t *testing.T) {
	d := NewDense[float32](MustShape(2, 2))
	d.Set(Coord{0, 1, 0}, 2.9)
	assert.Equal(t, 2, d.Label(Coord{0, 1, 0}))
}

func TestHoldsLabel(t *testing.T) {
	shape := MustShape(2, 2)
	tests := []struct {
		name   string
		labels Labels
		v      int
		want   bool
	}{
		{"int32 max", NewDense[int32](shape), MaxLabel, true},
		{"int32 wraps to zero", NewDense[int32](shape), 1 << 32, false},
		{"int32 wraps to one", NewDense[int32](shape), 1<<32 + 1, false},
		{"int64 above MaxLabel", NewDense[int64](shape), MaxLabel + 1, false},
		{"zero", NewDense[int32](shape), 0, false},
		{"negative", NewDense[int64](shape), -3, false},
		{"uint8 fits", NewDense[uint8](shape), 255, true},
		{"uint8 wraps", NewDense[uint8](shape), 256, false},
		{"int16 sign flip", NewDense[int16](shape), 40000, false},
		{"float32 exact", NewDense[float32](shape), 1 << 24, true},
		{"float32 rounds", NewDense[float32](shape), 1<<24 + 1, false},
		{"float64 int32 range", NewDense[float64](shape), MaxLabel, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HoldsLabel(tt.labels, tt.v))
		})
	}
}

func TestHoldsLabel_PlaneFollowsParent(t *testing.T) {
	d := NewDense[uint8](MustShape(2, 3, 3))
	p, err := PlaneLabels(d, Plane{FixedAxis: 0, FixedIndex: 1, Free: [2]int{1, 2}})
	require.NoError(t, err)
	assert.True(t, HoldsLabel(p, 200))
	assert.False(t, HoldsLabel(p, 300))
}

func TestDense_CloneIsIndependent(t *testing.T) {
	d := NewDense[uint8](MustShape(2, 2))
	d.Fill(3)
	c := d.Clone()
	c.Set(Coord{0, 0, 0}, 9)
	assert.Equal(t, uint8(3), d.Value(Coord{0, 0, 0}))
	assert.Equal(t, 4, CountLabel(d, 3))
	assert.Equal(t, 3, CountLabel(c, 3))
}

func TestConnectivity(t *testing.T) {
	c, err := ConnectivityFor(2)
	require.NoError(t, err)
	assert.Equal(t, Four, c)
	assert.Len(t, c.Offsets(), 4)

	c, err = ConnectivityFor(3)
	require.NoError(t, err)
	assert.Equal(t, Six, c)
	assert.Len(t, c.Offsets(), 6)

	_, err = ConnectivityFor(1)
	assert.Error(t, err)

	// Every offset is a unit step along exactly one axis.
	for _, off := range Six.Offsets() {
		nonzero := 0
		for _, v := range off {
			if v != 0 {
				nonzero++
				assert.True(t, v == 1 || v == -1)
			}
		}
		assert.Equal(t, 1, nonzero, "offset %v is not axis-aligned", off)
	}
	// 4-connectivity never steps along the third axis.
	for _, off := range Four.Offsets() {
		assert.Zero(t, off[2])
	}
}

func TestPlane_LiftProject(t *testing.T) {
	p := Plane{FixedAxis: 1, FixedIndex: 2, Free: [2]int{0, 2}}
	parent := MustShape(3, 4, 5)
	require.NoError(t, p.Validate(parent))

	assert.Equal(t, MustShape(3, 5), p.Shape(parent))
	assert.Equal(t, Coord{1, 2, 4}, p.Lift(Coord{1, 4, 0}))
	assert.Equal(t, Coord{1, 4, 0}, p.Project(Coord{1, 2, 4}))
}

func TestPlane_Validate(t *testing.T) {
	parent := MustShape(3, 4, 5)
	bad := []Plane{
		{FixedAxis: 3, FixedIndex: 0, Free: [2]int{0, 1}},
		{FixedAxis: 0, FixedIndex: 0, Free: [2]int{0, 1}},
		{FixedAxis: 0, FixedIndex: 0, Free: [2]int{1, 1}},
		{FixedAxis: 0, FixedIndex: 3, Free: [2]int{1, 2}},
		{FixedAxis: 0, FixedIndex: -1, Free: [2]int{1, 2}},
	}
	for _, p := range bad {
		assert.Error(t, p.Validate(parent), "plane %+v", p)
	}
	assert.Error(t, Plane{FixedAxis: 0, Free: [2]int{1, 2}}.Validate(MustShape(3, 3)))
}

func TestPlaneViews_WriteThrough(t *testing.T) {
	parent := MustShape(2, 3, 4)
	bg := NewDense[float64](parent)
	parent.Each(func(c Coord) { bg.Set(c, float64(parent.Offset(c))) })
	labels := NewDense[int32](parent)

	p := Plane{FixedAxis: 0, FixedIndex: 1, Free: [2]int{1, 2}}
	r, err := PlaneReader(bg, p)
	require.NoError(t, err)
	l, err := PlaneLabels(labels, p)
	require.NoError(t, err)

	assert.Equal(t, MustShape(3, 4), r.Shape())
	assert.Equal(t, bg.At(Coord{1, 2, 3}), r.At(Coord{2, 3, 0}))

	l.SetLabel(Coord{0, 1, 0}, 5)
	assert.Equal(t, 5, labels.Label(Coord{1, 0, 1}))
	assert.Equal(t, 5, l.Label(Coord{0, 1, 0}))

	want := make([]int32, parent.Len())
	want[parent.Offset(Coord{1, 0, 1})] = 5
	if diff := cmp.Diff(want, labels.Data); diff != "" {
		t.Errorf("plane write touched other cells (-want +got):\n%s", diff)
	}

	_, err = PlaneReader(NewDense[float64](MustShape(3, 3)), p)
	assert.Error(t, err)
}
