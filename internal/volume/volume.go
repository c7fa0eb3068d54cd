// Package volume reads and writes background and label grids.
//
// The native format is a gob stream of a header and a flat row-major data
// slice, gzipped. Saves go through a temporary file and a rename so a
// failed write never truncates an existing volume.
package volume

import (
	"compress/gzip"
	"encoding/gob"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"

	"github.com/banshee-data/labelwand/internal/fsutil"
	"github.com/banshee-data/labelwand/internal/grid"
)

// Kind tags what a file holds.
type Kind string

const (
	KindBackground Kind = "background"
	KindLabels     Kind = "labels"
)

// ErrKind is returned when a file holds the other kind of grid.
var ErrKind = errors.New("volume kind mismatch")

// FormatVersion is written into every file header.
const FormatVersion = 1

type header struct {
	Version int
	Kind    Kind
	Extents []int
}

// SaveBackground writes a background grid to path.
func SaveBackground(fsys fsutil.FileSystem, path string, d *grid.Dense[float64]) error {
	return save(fsys, path, header{Version: FormatVersion, Kind: KindBackground, Extents: d.Shape().Slice()}, d.Data)
}

// SaveLabels writes a label grid to path.
func SaveLabels(fsys fsutil.FileSystem, path string, d *grid.Dense[int32]) error {
	return save(fsys, path, header{Version: FormatVersion, Kind: KindLabels, Extents: d.Shape().Slice()}, d.Data)
}

// LoadBackground reads a background grid written by SaveBackground.
func LoadBackground(fsys fsutil.FileSystem, path string) (*grid.Dense[float64], error) {
	var data []float64
	shape, err := load(fsys, path, KindBackground, &data)
	if err != nil {
		return nil, err
	}
	return wrap(path, shape, data)
}

// LoadLabels reads a label grid written by SaveLabels.
func LoadLabels(fsys fsutil.FileSystem, path string) (*grid.Dense[int32], error) {
	var data []int32
	shape, err := load(fsys, path, KindLabels, &data)
	if err != nil {
		return nil, err
	}
	return wrap(path, shape, data)
}

// LoadOrCreateLabels loads the labels at path, or returns an empty grid of
// shape if the file does not exist yet.
func LoadOrCreateLabels(fsys fsutil.FileSystem, path string, shape grid.Shape) (*grid.Dense[int32], error) {
	if !fsys.Exists(path) {
		return grid.NewDense[int32](shape), nil
	}
	l, err := LoadLabels(fsys, path)
	if err != nil {
		return nil, err
	}
	if l.Shape() != shape {
		return nil, fmt.Errorf("labels %s are %s, background is %s", path, l.Shape(), shape)
	}
	return l, nil
}

func save(fsys fsutil.FileSystem, path string, h header, data any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	tmp := path + ".tmp"
	w, err := fsys.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	gz := gzip.NewWriter(w)
	enc := gob.NewEncoder(gz)
	encErr := enc.Encode(h)
	if encErr == nil {
		encErr = enc.Encode(data)
	}
	if err := gz.Close(); encErr == nil {
		encErr = err
	}
	if err := w.Close(); encErr == nil {
		encErr = err
	}
	if encErr != nil {
		_ = fsys.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, encErr)
	}
	if err := fsys.Rename(tmp, path); err != nil {
		_ = fsys.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func load(fsys fsutil.FileSystem, path string, want Kind, data any) (grid.Shape, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return grid.Shape{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return grid.Shape{}, fmt.Errorf("read %s: %w", path, err)
	}
	defer gz.Close()

	dec := gob.NewDecoder(gz)
	var h header
	if err := dec.Decode(&h); err != nil {
		return grid.Shape{}, fmt.Errorf("decode %s header: %w", path, err)
	}
	if h.Version != FormatVersion {
		return grid.Shape{}, fmt.Errorf("%s: unsupported format version %d", path, h.Version)
	}
	if h.Kind != want {
		return grid.Shape{}, fmt.Errorf("%w: %s holds %s, want %s", ErrKind, path, h.Kind, want)
	}
	shape, err := grid.NewShape(h.Extents...)
	if err != nil {
		return grid.Shape{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := dec.Decode(data); err != nil {
		return grid.Shape{}, fmt.Errorf("decode %s data: %w", path, err)
	}
	return shape, nil
}

func wrap[T grid.Number](path string, shape grid.Shape, data []T) (*grid.Dense[T], error) {
	d, err := grid.Wrap(shape, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// ImportSlices builds a background from grayscale images, one per slice
// along axis 0. A single image yields a 2D grid. Intensities are scaled to
// 0..255 whatever the source bit depth.
func ImportSlices(fsys fsutil.FileSystem, paths []string) (*grid.Dense[float64], error) {
	if len(paths) == 0 {
		return nil, errors.New("no slice images given")
	}
	var (
		d    *grid.Dense[float64]
		rows int
		cols int
	)
	for k, p := range paths {
		img, err := decodeImage(fsys, p)
		if err != nil {
			return nil, err
		}
		b := img.Bounds()
		if k == 0 {
			rows, cols = b.Dy(), b.Dx()
			extents := []int{rows, cols}
			if len(paths) > 1 {
				extents = []int{len(paths), rows, cols}
			}
			shape, err := grid.NewShape(extents...)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", p, err)
			}
			d = grid.NewDense[float64](shape)
		} else if b.Dy() != rows || b.Dx() != cols {
			return nil, fmt.Errorf("%s is %dx%d, first slice is %dx%d", p, b.Dx(), b.Dy(), cols, rows)
		}
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				c := grid.Coord{y, x, 0}
				if len(paths) > 1 {
					c = grid.Coord{k, y, x}
				}
				d.Set(c, float64(g.Y)/257)
			}
		}
	}
	return d, nil
}

func decodeImage(fsys fsutil.FileSystem, path string) (image.Image, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
