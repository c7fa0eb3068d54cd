package volume

import (
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/labelwand/internal/fsutil"
	"github.com/banshee-data/labelwand/internal/grid"
	"github.com/banshee-data/labelwand/internal/testutil"
)

func TestBackgroundRoundTrip(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	bg := testutil.Grid2D(t, [][]float64{
		{1.5, 2, 3},
		{4, -5, 6e9},
	})

	require.NoError(t, SaveBackground(fsys, "/vol/bg.gob.gz", bg))
	assert.False(t, fsys.Exists("/vol/bg.gob.gz.tmp"))

	got, err := LoadBackground(fsys, "/vol/bg.gob.gz")
	require.NoError(t, err)
	assert.Equal(t, bg.Shape(), got.Shape())
	assert.Equal(t, bg.Data, got.Data)
}

func TestLabelsRoundTrip3D_OSFileSystem(t *testing.T) {
	fsys := fsutil.OSFileSystem{}
	path := filepath.Join(t.TempDir(), "nested", "labels.gob.gz")
	l := testutil.EmptyLabels(2, 3, 4)
	l.SetLabel(grid.Coord{1, 2, 3}, 7)

	require.NoError(t, SaveLabels(fsys, path, l))
	got, err := LoadLabels(fsys, path)
	require.NoError(t, err)
	assert.Equal(t, grid.MustShape(2, 3, 4), got.Shape())
	assert.Equal(t, 7, got.Label(grid.Coord{1, 2, 3}))
	assert.Equal(t, 1, grid.CountLabel(got, 7))
}

func TestLoad_KindMismatch(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, SaveLabels(fsys, "/l", testutil.EmptyLabels(2, 2)))

	_, err := LoadBackground(fsys, "/l")
	assert.ErrorIs(t, err, ErrKind)
}

func TestLoad_Errors(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	_, err := LoadLabels(fsys, "/missing")
	assert.Error(t, err)

	w, err := fsys.Create("/garbage")
	require.NoError(t, err)
	_, _ = w.Write([]byte("not a volume"))
	require.NoError(t, w.Close())
	_, err = LoadLabels(fsys, "/garbage")
	assert.Error(t, err)
}

func TestLoadOrCreateLabels(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	shape := grid.MustShape(3, 3)

	l, err := LoadOrCreateLabels(fsys, "/labels", shape)
	require.NoError(t, err)
	assert.Equal(t, shape, l.Shape())
	assert.Zero(t, grid.CountLabel(l, 1)+grid.CountLabel(l, 2))

	l.SetLabel(grid.Coord{0, 0, 0}, 2)
	require.NoError(t, SaveLabels(fsys, "/labels", l))
	again, err := LoadOrCreateLabels(fsys, "/labels", shape)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Label(grid.Coord{0, 0, 0}))

	_, err = LoadOrCreateLabels(fsys, "/labels", grid.MustShape(4, 4))
	assert.Error(t, err)
}

func writePNG(t *testing.T, fsys fsutil.FileSystem, path string, rows [][]uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, len(rows[0]), len(rows)))
	for y, row := range rows {
		for x, v := range row {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	w, err := fsys.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(w, img))
	require.NoError(t, w.Close())
}

func TestImportSlices(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	writePNG(t, fsys, "/s0.png", [][]uint8{{0, 10, 20}, {30, 40, 255}})
	writePNG(t, fsys, "/s1.png", [][]uint8{{1, 2, 3}, {4, 5, 6}})

	bg, err := ImportSlices(fsys, []string{"/s0.png"})
	require.NoError(t, err)
	assert.Equal(t, grid.MustShape(2, 3), bg.Shape())
	assert.Equal(t, 10.0, bg.At(grid.Coord{0, 1, 0}))
	assert.Equal(t, 255.0, bg.At(grid.Coord{1, 2, 0}))

	vol, err := ImportSlices(fsys, []string{"/s0.png", "/s1.png"})
	require.NoError(t, err)
	assert.Equal(t, grid.MustShape(2, 2, 3), vol.Shape())
	assert.Equal(t, 6.0, vol.At(grid.Coord{1, 1, 2}))
	assert.Equal(t, 40.0, vol.At(grid.Coord{0, 1, 1}))
}

func TestImportSlices_Errors(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	writePNG(t, fsys, "/a.png", [][]uint8{{1, 2}})
	writePNG(t, fsys, "/b.png", [][]uint8{{1}, {2}})

	_, err := ImportSlices(fsys, nil)
	assert.Error(t, err)
	_, err = ImportSlices(fsys, []string{"/a.png", "/b.png"})
	assert.Error(t, err)
	_, err = ImportSlices(fsys, []string{"/nope.png"})
	assert.Error(t, err)
}

func TestPhantom(t *testing.T) {
	bg, err := Phantom{Extents: []int{9, 9, 9}, Inside: 200, Outside: 50, Radius: 0.5}.Build()
	require.NoError(t, err)
	assert.Equal(t, 200.0, bg.At(grid.Coord{4, 4, 4}))
	assert.Equal(t, 50.0, bg.At(grid.Coord{0, 0, 0}))

	noisy, err := Phantom{Extents: []int{5, 5}, Inside: 1, Outside: 0, Noise: 0.1, Seed: 3}.Build()
	require.NoError(t, err)
	again, err := Phantom{Extents: []int{5, 5}, Inside: 1, Outside: 0, Noise: 0.1, Seed: 3}.Build()
	require.NoError(t, err)
	assert.Equal(t, noisy.Data, again.Data)

	_, err = Phantom{Extents: []int{5}}.Build()
	assert.Error(t, err)
}
