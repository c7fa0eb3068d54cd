package preview

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/labelwand/internal/fillmode"
	"github.com/banshee-data/labelwand/internal/grid"
	"github.com/banshee-data/labelwand/internal/testutil"
)

func TestRenderPlane_WritesPNG(t *testing.T) {
	bg := testutil.Grid2D(t, [][]float64{
		{0, 10, 20},
		{30, math.NaN(), 50},
	})
	labels := testutil.Labels2D(t, [][]int{
		{0, 1, 1},
		{2, 0, 0},
	})
	seed := grid.Coord{0, 1, 0}

	var buf bytes.Buffer
	err := RenderPlane(&buf, bg, labels, Options{Title: "test", Width: 2 * vg.Inch, Height: 2 * vg.Inch, Seed: &seed})
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
	assert.Greater(t, img.Bounds().Dy(), 0)
}

func TestPlot_ConstantBackgroundAndNoLabels(t *testing.T) {
	bg := testutil.Uniform(7, 4, 4)
	_, err := Plot(bg, testutil.EmptyLabels(4, 4), Options{Palette: palette.Heat(12, 1)})
	require.NoError(t, err)

	overlay, err := labelOverlay(bg.Shape(), testutil.EmptyLabels(4, 4), 0)
	require.NoError(t, err)
	assert.Nil(t, overlay)

	var buf bytes.Buffer
	require.NoError(t, RenderPlane(&buf, bg, nil, Options{}))
	assert.NotZero(t, buf.Len())
}

func TestPlot_Errors(t *testing.T) {
	_, err := Plot(testutil.Uniform(0, 2, 2, 2), nil, Options{})
	assert.Error(t, err, "3D input")

	_, err = Plot(testutil.Uniform(0, 2, 2), testutil.EmptyLabels(3, 3), Options{})
	assert.Error(t, err, "shape mismatch")

	neg := testutil.Labels2D(t, [][]int{{-1, 0}})
	_, err = Plot(testutil.Uniform(0, 1, 2), neg, Options{})
	assert.Error(t, err, "negative label")
}

func TestRenderSlice(t *testing.T) {
	bg := testutil.Uniform(5, 3, 4, 5)
	labels := testutil.EmptyLabels(3, 4, 5)
	labels.SetLabel(grid.Coord{1, 2, 3}, 4)

	var buf bytes.Buffer
	err := RenderSlice(&buf, bg, labels, fillmode.Sagittal, grid.Coord{1, 2, 3}, Options{Width: vg.Inch, Height: vg.Inch})
	require.NoError(t, err)
	_, err = png.Decode(&buf)
	require.NoError(t, err)

	err = RenderSlice(&buf, bg, labels, fillmode.Axial, grid.Coord{9, 0, 0}, Options{})
	assert.Error(t, err)
}

func TestPalettes(t *testing.T) {
	g := grayPalette(3).Colors()
	require.Len(t, g, 3)
	r, _, _, _ := g[0].RGBA()
	assert.Zero(t, r)
	r, _, _, _ = g[2].RGBA()
	assert.Equal(t, uint32(0xffff), r)

	l := labelPalette(1, 128).Colors()
	require.Len(t, l, 2)
	_, _, _, a := l[0].RGBA()
	assert.Zero(t, a)
	_, _, _, a = l[1].RGBA()
	assert.NotZero(t, a)

	assert.Len(t, labelPalette(5, 0).Colors(), 6)
}

func TestFiniteRange(t *testing.T) {
	bg := testutil.Grid2D(t, [][]float64{{math.Inf(1), -3, math.NaN(), 8}})
	lo, hi := planeGrid{shape: bg.Shape(), at: bg.At}.finiteRange()
	assert.Equal(t, -3.0, lo)
	assert.Equal(t, 8.0, hi)

	nan := testutil.Grid2D(t, [][]float64{{math.NaN()}})
	lo, hi = planeGrid{shape: nan.Shape(), at: nan.At}.finiteRange()
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}
