// Package config supplies the wand's policy scalars.
//
// Two sources are supported: a JSON file (WandConfig) for tools and tests,
// and a namespaced string key-value set (ParameterSet) matching how an
// editor host persists tool settings. Both are exposed through Source,
// whose getters validate on every read.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/banshee-data/labelwand/internal/fillmode"
	"github.com/banshee-data/labelwand/internal/grid"
)

// DefaultConfigPath is the path to the canonical wand defaults file.
const DefaultConfigPath = "config/wand.defaults.json"

const (
	DefaultTolerance   = 20.0
	DefaultMaxPixels   = 200.0
	DefaultPaintOver   = false
	DefaultLabel       = 1
	DefaultMode        = "plane"
	DefaultOrientation = "axial"
)

// WandConfig is the JSON form of the wand settings. Nil fields fall back to
// the defaults through the Get* accessors, so partial files are safe.
type WandConfig struct {
	Tolerance   *float64 `json:"tolerance,omitempty"`
	MaxPixels   *float64 `json:"max_pixels,omitempty"`
	PaintOver   *bool    `json:"paint_over,omitempty"`
	Label       *int     `json:"label,omitempty"`
	Mode        *string  `json:"mode,omitempty"`
	Orientation *string  `json:"orientation,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyWandConfig returns a WandConfig with all fields set to nil.
func EmptyWandConfig() *WandConfig {
	return &WandConfig{}
}

// DefaultWandConfig returns a WandConfig with every field set to its default.
func DefaultWandConfig() *WandConfig {
	return &WandConfig{
		Tolerance:   ptrFloat64(DefaultTolerance),
		MaxPixels:   ptrFloat64(DefaultMaxPixels),
		PaintOver:   ptrBool(DefaultPaintOver),
		Label:       ptrInt(DefaultLabel),
		Mode:        ptrString(DefaultMode),
		Orientation: ptrString(DefaultOrientation),
	}
}

// LoadWandConfig loads a WandConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadWandConfig(path string) (*WandConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyWandConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for test setup.
func MustLoadDefaultConfig() *WandConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadWandConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the fields that are set.
func (c *WandConfig) Validate() error {
	if c.Tolerance != nil {
		if err := checkTolerance(*c.Tolerance); err != nil {
			return &Error{Key: "tolerance", Value: fmt.Sprint(*c.Tolerance), Err: err}
		}
	}
	if c.MaxPixels != nil {
		if err := checkMaxPixels(*c.MaxPixels); err != nil {
			return &Error{Key: "max_pixels", Value: fmt.Sprint(*c.MaxPixels), Err: err}
		}
	}
	if c.Label != nil {
		if err := checkLabel(*c.Label); err != nil {
			return &Error{Key: "label", Value: fmt.Sprint(*c.Label), Err: err}
		}
	}
	if c.Mode != nil {
		if _, err := fillmode.ParseMode(*c.Mode); err != nil {
			return &Error{Key: "mode", Value: *c.Mode, Err: err}
		}
	}
	if c.Orientation != nil {
		if _, err := fillmode.ParseOrientation(*c.Orientation); err != nil {
			return &Error{Key: "orientation", Value: *c.Orientation, Err: err}
		}
	}
	return nil
}

// GetTolerance returns the tolerance value or the default.
func (c *WandConfig) GetTolerance() float64 {
	if c.Tolerance == nil {
		return DefaultTolerance
	}
	return *c.Tolerance
}

// GetMaxPixels returns the max_pixels value or the default.
func (c *WandConfig) GetMaxPixels() float64 {
	if c.MaxPixels == nil {
		return DefaultMaxPixels
	}
	return *c.MaxPixels
}

// GetPaintOver returns the paint_over value or the default.
func (c *WandConfig) GetPaintOver() bool {
	if c.PaintOver == nil {
		return DefaultPaintOver
	}
	return *c.PaintOver
}

// GetLabel returns the label value or the default.
func (c *WandConfig) GetLabel() int {
	if c.Label == nil {
		return DefaultLabel
	}
	return *c.Label
}

// GetMode returns the parsed fill mode or the default.
// Validate has already rejected unknown names.
func (c *WandConfig) GetMode() fillmode.Mode {
	if c.Mode == nil {
		return fillmode.Plane
	}
	m, err := fillmode.ParseMode(*c.Mode)
	if err != nil {
		return fillmode.Plane
	}
	return m
}

// GetOrientation returns the parsed slice orientation or the default.
func (c *WandConfig) GetOrientation() fillmode.Orientation {
	if c.Orientation == nil {
		return fillmode.Axial
	}
	o, err := fillmode.ParseOrientation(*c.Orientation)
	if err != nil {
		return fillmode.Axial
	}
	return o
}

// Source exposes the config through the typed getters. Each read
// re-validates, so a config edited in place after loading is still checked.
func (c *WandConfig) Source() Source {
	return configSource{c}
}

type configSource struct{ c *WandConfig }

func (s configSource) Tolerance() (float64, error) {
	v := s.c.GetTolerance()
	if err := checkTolerance(v); err != nil {
		return 0, &Error{Key: "tolerance", Value: fmt.Sprint(v), Err: err}
	}
	return v, nil
}

func (s configSource) MaxPixels() (float64, error) {
	v := s.c.GetMaxPixels()
	if err := checkMaxPixels(v); err != nil {
		return 0, &Error{Key: "max_pixels", Value: fmt.Sprint(v), Err: err}
	}
	return v, nil
}

func (s configSource) PaintOver() (bool, error) { return s.c.GetPaintOver(), nil }

func (s configSource) Label() (int, error) {
	v := s.c.GetLabel()
	if err := checkLabel(v); err != nil {
		return 0, &Error{Key: "label", Value: fmt.Sprint(v), Err: err}
	}
	return v, nil
}

func checkTolerance(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: tolerance must be finite and >= 0", ErrOutOfRange)
	}
	return nil
}

func checkMaxPixels(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%w: maxPixels must be finite and > 0", ErrOutOfRange)
	}
	return nil
}

func checkLabel(v int) error {
	if v < 1 || v > grid.MaxLabel {
		return fmt.Errorf("%w: label must be in [1, %d]", ErrOutOfRange, grid.MaxLabel)
	}
	return nil
}
