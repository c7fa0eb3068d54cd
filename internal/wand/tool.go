// Package wand binds the region-grow engine to an editing host: a document
// holding the grids, a parameter source, and an undo checkpointer.
package wand

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/labelwand/internal/config"
	"github.com/banshee-data/labelwand/internal/fillmode"
	"github.com/banshee-data/labelwand/internal/grid"
	"github.com/banshee-data/labelwand/internal/regiongrow"
)

// Document is the host's view of the volume being edited.
type Document interface {
	Background() grid.Reader
	Labels() grid.Labels
	// NotifyModified tells the host the label grid changed.
	NotifyModified()
}

var errUnbound = errors.New("wand tool is not bound to a document and parameter source")

// Tool is the wand bound to one view.
type Tool struct {
	Doc         Document
	Params      config.Source
	Undo        regiongrow.Checkpointer
	Mode        fillmode.Mode
	Orientation fillmode.Orientation
}

// Pick maps a click in view coordinates to a seed and applies the wand.
func (t *Tool) Pick(xy [2]float64, xyToIJK mat.Matrix) (*regiongrow.Result, error) {
	if t.Doc == nil {
		return nil, errUnbound
	}
	seed, err := PickSeed(xy, xyToIJK, t.Doc.Labels().Shape())
	if err != nil {
		opsf("pick (%g, %g): %v", xy[0], xy[1], err)
		return nil, err
	}
	return t.ApplyAt(seed)
}

// ApplyAt applies the wand at seed. Parameters are read from t.Params on
// every call. On success the document is notified exactly once.
func (t *Tool) ApplyAt(seed grid.Coord) (*regiongrow.Result, error) {
	if t.Doc == nil || t.Params == nil {
		return nil, errUnbound
	}

	v, err := config.Read(t.Params)
	if err != nil {
		opsf("parameters: %v", err)
		return nil, err
	}

	req := regiongrow.Request{
		Params: regiongrow.Params{
			Seed:      seed,
			Tolerance: v.Tolerance,
			Label:     v.Label,
			MaxPixels: v.MaxPixels,
			PaintOver: v.PaintOver,
		},
		Mode:        t.Mode,
		Orientation: t.Orientation,
	}
	res, err := regiongrow.Apply(req, t.Doc.Background(), t.Doc.Labels(), t.Undo)
	if err != nil {
		opsf("fill at %v: %v", seed, err)
		return nil, fmt.Errorf("wand at %v: %w", seed, err)
	}

	t.Doc.NotifyModified()
	diagf("click %v label=%d tol=%g max=%g paintOver=%t -> set=%d cutoff=%t",
		seed, v.Label, v.Tolerance, v.MaxPixels, v.PaintOver, res.PixelsSet, res.CutoffHit)
	return res, nil
}

// MemoryDocument is a Document over in-memory grids.
type MemoryDocument struct {
	Bg  grid.Reader
	Lbl grid.Labels

	// OnModified, if set, is called from NotifyModified.
	OnModified func()

	modifications int
}

// NewMemoryDocument returns a document over bg and labels.
func NewMemoryDocument(bg grid.Reader, labels grid.Labels) *MemoryDocument {
	return &MemoryDocument{Bg: bg, Lbl: labels}
}

func (d *MemoryDocument) Background() grid.Reader { return d.Bg }
func (d *MemoryDocument) Labels() grid.Labels     { return d.Lbl }

func (d *MemoryDocument) NotifyModified() {
	d.modifications++
	if d.OnModified != nil {
		d.OnModified()
	}
}

// Modifications is the number of NotifyModified calls so far.
func (d *MemoryDocument) Modifications() int { return d.modifications }
