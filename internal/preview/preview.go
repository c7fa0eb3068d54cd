// Package preview renders a background plane with its label overlay as a
// PNG heat map.
package preview

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/labelwand/internal/fillmode"
	"github.com/banshee-data/labelwand/internal/grid"
)

// Options controls RenderPlane. The zero value renders a 6x6 inch
// grayscale image with no title and no seed marker.
type Options struct {
	Title  string
	Width  vg.Length
	Height vg.Length
	// Palette for the background. Nil means grayscale.
	Palette palette.Palette
	// LabelAlpha is the overlay opacity, 0..255. 0 means 160.
	LabelAlpha uint8
	// Seed, if set, is marked with a cross. It is in plane coordinates.
	Seed *grid.Coord
}

// RenderPlane writes a PNG of a 2D background with labels drawn on top.
// Row 0 is at the top.
func RenderPlane(w io.Writer, bg grid.Reader, labels grid.Labels, opts Options) error {
	p, err := Plot(bg, labels, opts)
	if err != nil {
		return err
	}
	width, height := opts.Width, opts.Height
	if width == 0 {
		width = 6 * vg.Inch
	}
	if height == 0 {
		height = 6 * vg.Inch
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render preview: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	return nil
}

// RenderSlice renders the slice of a 3D volume that a plane-mode fill at
// seed would search. 2D grids are rendered whole.
func RenderSlice(w io.Writer, bg grid.Reader, labels grid.Labels, o fillmode.Orientation, seed grid.Coord, opts Options) error {
	ws, err := fillmode.Narrow(fillmode.Plane, o, seed, bg, labels)
	if err != nil {
		return err
	}
	local := ws.Seed
	opts.Seed = &local
	if opts.Title == "" {
		opts.Title = fmt.Sprintf("%s slice through %v", o, seed)
		if ws.Plane == nil {
			opts.Title = fmt.Sprintf("seed %v", seed)
		}
	}
	return RenderPlane(w, ws.Background, ws.Labels, opts)
}

// Plot builds the plot without rendering it.
func Plot(bg grid.Reader, labels grid.Labels, opts Options) (*plot.Plot, error) {
	shape := bg.Shape()
	if shape.Dims != 2 {
		return nil, fmt.Errorf("preview needs a 2D plane, got %s", shape)
	}
	if labels != nil && labels.Shape() != shape {
		return nil, fmt.Errorf("labels %s do not match background %s", labels.Shape(), shape)
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "column"
	p.Y.Label.Text = "row"
	p.Y.Scale = plot.InvertedScale{Normalizer: p.Y.Scale}

	bgGrid := planeGrid{shape: shape, at: bg.At}
	lo, hi := bgGrid.finiteRange()
	pal := opts.Palette
	if pal == nil {
		pal = grayPalette(256)
	}
	hm := plotter.NewHeatMap(bgGrid, pal)
	if hi > lo {
		hm.Min, hm.Max = lo, hi
	} else {
		hm.Min, hm.Max = lo-0.5, lo+0.5
	}
	hm.NaN = color.RGBA{R: 255, A: 255}
	p.Add(hm)

	if labels != nil {
		overlay, err := labelOverlay(shape, labels, opts.LabelAlpha)
		if err != nil {
			return nil, err
		}
		if overlay != nil {
			p.Add(overlay)
		}
	}

	if opts.Seed != nil {
		sc, err := plotter.NewScatter(plotter.XYs{{X: float64(opts.Seed[1]), Y: float64(opts.Seed[0])}})
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Shape = draw.CrossGlyph{}
		sc.GlyphStyle.Radius = vg.Points(5)
		sc.GlyphStyle.Color = color.RGBA{G: 200, B: 255, A: 255}
		p.Add(sc)
	}
	return p, nil
}

func labelOverlay(shape grid.Shape, labels grid.Labels, alpha uint8) (*plotter.HeatMap, error) {
	maxLabel := 0
	minLabel := 0
	shape.Each(func(c grid.Coord) {
		v := labels.Label(c)
		if v > maxLabel {
			maxLabel = v
		}
		if v < minLabel {
			minLabel = v
		}
	})
	if minLabel < 0 {
		return nil, errors.New("negative labels cannot be previewed")
	}
	if maxLabel == 0 {
		return nil, nil
	}
	if alpha == 0 {
		alpha = 160
	}

	hm := plotter.NewHeatMap(
		planeGrid{shape: shape, at: func(c grid.Coord) float64 { return float64(labels.Label(c)) }},
		labelPalette(maxLabel, alpha),
	)
	hm.Min, hm.Max = 0, float64(maxLabel)
	return hm, nil
}

// planeGrid adapts a 2D grid to plotter.GridXYZ: column c is x, row r is y.
type planeGrid struct {
	shape grid.Shape
	at    func(grid.Coord) float64
}

func (g planeGrid) Dims() (c, r int) { return g.shape.Extents[1], g.shape.Extents[0] }
func (g planeGrid) Z(c, r int) float64 {
	return g.at(grid.Coord{r, c, 0})
}
func (g planeGrid) X(c int) float64 { return float64(c) }
func (g planeGrid) Y(r int) float64 { return float64(r) }

func (g planeGrid) finiteRange() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	g.shape.Each(func(c grid.Coord) {
		v := g.at(c)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	})
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

type colors []color.Color

func (c colors) Colors() []color.Color { return c }

func grayPalette(n int) palette.Palette {
	out := make(colors, n)
	for i := range out {
		y := uint8(i * 255 / (n - 1))
		out[i] = color.Gray{Y: y}
	}
	return out
}

// labelPalette maps label 0 to transparent and labels 1..n to distinct hues.
func labelPalette(n int, alpha uint8) palette.Palette {
	out := make(colors, n+1)
	out[0] = color.NRGBA{}
	// Rainbow needs at least two colors to space its hues.
	hues := palette.Rainbow(max(n, 2), palette.Red, palette.Magenta, 1, 1, float64(alpha)/255).Colors()
	copy(out[1:], hues[:n])
	return out
}
