package config

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is wrapped by an Error whose value parsed but is not allowed.
var ErrOutOfRange = errors.New("value out of range")

// Error is a configuration error for a single key. It is reported before
// the fill engine runs.
type Error struct {
	Key   string
	Value string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Source supplies validated wand parameters. Implementations read their
// backing store on every call; nothing is cached between clicks.
type Source interface {
	Tolerance() (float64, error)
	MaxPixels() (float64, error)
	PaintOver() (bool, error)
	Label() (int, error)
}

// Values is one consistent read of a Source.
type Values struct {
	Tolerance float64
	MaxPixels float64
	PaintOver bool
	Label     int
}

// Read pulls every parameter from src, stopping at the first error.
func Read(src Source) (Values, error) {
	var v Values
	var err error
	if v.Tolerance, err = src.Tolerance(); err != nil {
		return Values{}, err
	}
	if v.MaxPixels, err = src.MaxPixels(); err != nil {
		return Values{}, err
	}
	if v.PaintOver, err = src.PaintOver(); err != nil {
		return Values{}, err
	}
	if v.Label, err = src.Label(); err != nil {
		return Values{}, err
	}
	return v, nil
}
