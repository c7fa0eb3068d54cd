package checkpoint

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"

	"github.com/banshee-data/labelwand/internal/grid"
)

// encodeLabels gob-encodes and gzips a row-major label slice.
func encodeLabels(labels []int32) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(labels); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeLabels reverses encodeLabels.
func decodeLabels(blob []byte) ([]int32, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty labels blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var labels []int32
	if err := gob.NewDecoder(gz).Decode(&labels); err != nil {
		return nil, fmt.Errorf("failed to decode labels: %w", err)
	}
	return labels, nil
}

// Snapshot copies l into a row-major slice and counts the non-zero labels.
func Snapshot(l grid.Labels) (labels []int32, labeled int) {
	shape := l.Shape()
	labels = make([]int32, 0, shape.Len())
	shape.Each(func(c grid.Coord) {
		v := l.Label(c)
		if v != 0 {
			labeled++
		}
		labels = append(labels, int32(v))
	})
	return labels, labeled
}

// checkSnapshot reports whether a snapshot can be restored into l.
func checkSnapshot(l grid.Labels, shape grid.Shape, labels []int32) error {
	if l.Shape() != shape {
		return fmt.Errorf("snapshot shape %s does not match label grid %s", shape, l.Shape())
	}
	if len(labels) != shape.Len() {
		return fmt.Errorf("snapshot has %d labels for shape %s", len(labels), shape)
	}
	return nil
}

// Restore writes a row-major snapshot back into l. Nothing is written when
// the snapshot does not fit l.
func Restore(l grid.Labels, shape grid.Shape, labels []int32) error {
	if err := checkSnapshot(l, shape, labels); err != nil {
		return err
	}
	i := 0
	shape.Each(func(c grid.Coord) {
		l.SetLabel(c, int(labels[i]))
		i++
	})
	return nil
}
