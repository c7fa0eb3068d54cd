package volume

import (
	"math/rand"

	"github.com/banshee-data/labelwand/internal/grid"
)

// Phantom describes a synthetic background: a uniform field with a bright
// ellipsoid in the middle, plus optional noise.
type Phantom struct {
	Extents []int
	Inside  float64
	Outside float64
	// Radius of the ellipsoid as a fraction of each half-extent.
	Radius float64
	// Noise is the standard deviation of added Gaussian noise.
	Noise float64
	Seed  int64
}

// Build renders the phantom.
func (p Phantom) Build() (*grid.Dense[float64], error) {
	shape, err := grid.NewShape(p.Extents...)
	if err != nil {
		return nil, err
	}
	radius := p.Radius
	if radius <= 0 {
		radius = 0.5
	}
	rng := rand.New(rand.NewSource(p.Seed))

	d := grid.NewDense[float64](shape)
	shape.Each(func(c grid.Coord) {
		var r2 float64
		for a := 0; a < shape.Dims; a++ {
			half := float64(shape.Extents[a]) / 2
			u := (float64(c[a]) + 0.5 - half) / (half * radius)
			r2 += u * u
		}
		v := p.Outside
		if r2 <= 1 {
			v = p.Inside
		}
		if p.Noise > 0 {
			v += rng.NormFloat64() * p.Noise
		}
		d.Set(c, v)
	})
	return d, nil
}
