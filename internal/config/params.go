package config

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Keys in the host's parameter set. The wand keys are namespaced under
// "Wand,"; label and paint-over are shared with the other label effects.
const (
	KeyTolerance = "Wand,tolerance"
	KeyMaxPixels = "Wand,maxPixels"
	KeyPaintOver = "LabelEffect,paintOver"
	KeyLabel     = "Editor,label"
)

// ParameterSet is a string key-value store owned by the host. An empty
// string means the key is unset.
type ParameterSet interface {
	GetParameter(key string) string
	SetParameter(key, value string)
}

// MapParameterSet is an in-memory ParameterSet. It is safe for concurrent
// use so a GUI goroutine can write while a click reads.
type MapParameterSet struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMapParameterSet returns an empty set.
func NewMapParameterSet() *MapParameterSet {
	return &MapParameterSet{values: make(map[string]string)}
}

func (m *MapParameterSet) GetParameter(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key]
}

func (m *MapParameterSet) SetParameter(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Keys lists the keys that hold a value, sorted.
func (m *MapParameterSet) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.values))
	for k, v := range m.values {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// SetDefaults writes the wand defaults into any key that is still empty.
// Keys the user has already set are left alone.
func SetDefaults(ps ParameterSet) {
	defaults := []struct{ key, value string }{
		{KeyTolerance, "20"},
		{KeyMaxPixels, "200"},
	}
	for _, d := range defaults {
		if ps.GetParameter(d.key) == "" {
			ps.SetParameter(d.key, d.value)
		}
	}
}

// WriteConfig stores the fields of cfg that are set as decimal strings.
func WriteConfig(ps ParameterSet, cfg *WandConfig) {
	if cfg.Tolerance != nil {
		ps.SetParameter(KeyTolerance, formatFloat(*cfg.Tolerance))
	}
	if cfg.MaxPixels != nil {
		ps.SetParameter(KeyMaxPixels, formatFloat(*cfg.MaxPixels))
	}
	if cfg.PaintOver != nil {
		ps.SetParameter(KeyPaintOver, formatBool(*cfg.PaintOver))
	}
	if cfg.Label != nil {
		ps.SetParameter(KeyLabel, strconv.Itoa(*cfg.Label))
	}
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func formatBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// ParameterSetSource reads and parses a ParameterSet on every call.
// Empty keys fall back to the defaults; anything else that does not parse
// is an *Error.
type ParameterSetSource struct {
	Set ParameterSet
}

func (s ParameterSetSource) Tolerance() (float64, error) {
	v, err := s.float(KeyTolerance, DefaultTolerance)
	if err != nil {
		return 0, err
	}
	if err := checkTolerance(v); err != nil {
		return 0, &Error{Key: KeyTolerance, Value: s.Set.GetParameter(KeyTolerance), Err: err}
	}
	return v, nil
}

func (s ParameterSetSource) MaxPixels() (float64, error) {
	v, err := s.float(KeyMaxPixels, DefaultMaxPixels)
	if err != nil {
		return 0, err
	}
	if err := checkMaxPixels(v); err != nil {
		return 0, &Error{Key: KeyMaxPixels, Value: s.Set.GetParameter(KeyMaxPixels), Err: err}
	}
	return v, nil
}

func (s ParameterSetSource) PaintOver() (bool, error) {
	raw := strings.TrimSpace(s.Set.GetParameter(KeyPaintOver))
	if raw == "" {
		return DefaultPaintOver, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &Error{Key: KeyPaintOver, Value: raw, Err: err}
	}
	return v, nil
}

func (s ParameterSetSource) Label() (int, error) {
	raw := strings.TrimSpace(s.Set.GetParameter(KeyLabel))
	if raw == "" {
		return DefaultLabel, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &Error{Key: KeyLabel, Value: raw, Err: err}
	}
	if err := checkLabel(v); err != nil {
		return 0, &Error{Key: KeyLabel, Value: raw, Err: err}
	}
	return v, nil
}

func (s ParameterSetSource) float(key string, def float64) (float64, error) {
	raw := strings.TrimSpace(s.Set.GetParameter(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &Error{Key: key, Value: raw, Err: err}
	}
	return v, nil
}
