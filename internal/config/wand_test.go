package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/labelwand/internal/fillmode"
)

func TestLoadWandConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "wand.json")
	configJSON := `{
		"tolerance": 12.5,
		"max_pixels": 5000,
		"paint_over": true,
		"label": 7,
		"mode": "volume",
		"orientation": "coronal"
	}`
	if err := os.WriteFile(configPath, []byte(configJSON), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadWandConfig(configPath)
	if err != nil {
		t.Fatalf("LoadWandConfig failed: %v", err)
	}

	if got := cfg.GetTolerance(); got != 12.5 {
		t.Errorf("GetTolerance() = %v, want 12.5", got)
	}
	if got := cfg.GetMaxPixels(); got != 5000 {
		t.Errorf("GetMaxPixels() = %v, want 5000", got)
	}
	if !cfg.GetPaintOver() {
		t.Error("GetPaintOver() = false, want true")
	}
	if got := cfg.GetLabel(); got != 7 {
		t.Errorf("GetLabel() = %d, want 7", got)
	}
	if got := cfg.GetMode(); got != fillmode.Volume {
		t.Errorf("GetMode() = %v, want volume", got)
	}
	if got := cfg.GetOrientation(); got != fillmode.Coronal {
		t.Errorf("GetOrientation() = %v, want coronal", got)
	}
}

func TestLoadWandConfig_PartialUsesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "partial.json")
	if err := os.WriteFile(configPath, []byte(`{"tolerance": 3}`), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadWandConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.GetTolerance())
	assert.Equal(t, DefaultMaxPixels, cfg.GetMaxPixels())
	assert.Equal(t, DefaultPaintOver, cfg.GetPaintOver())
	assert.Equal(t, DefaultLabel, cfg.GetLabel())
	assert.Equal(t, fillmode.Plane, cfg.GetMode())
	assert.Equal(t, fillmode.Axial, cfg.GetOrientation())
}

func TestLoadWandConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(tmpDir, name)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantSub string
	}{
		{"wrong extension", write("wand.yaml", `{}`), ".json extension"},
		{"missing", filepath.Join(tmpDir, "nope.json"), "failed to stat"},
		{"bad json", write("bad.json", `{"tolerance":`), "failed to parse"},
		{"negative tolerance", write("negtol.json", `{"tolerance": -1}`), "tolerance"},
		{"zero max pixels", write("zeromax.json", `{"max_pixels": 0}`), "max_pixels"},
		{"zero label", write("zerolabel.json", `{"label": 0}`), "label"},
		{"label past int32", write("biglabel.json", `{"label": 4294967296}`), "label"},
		{"unknown mode", write("mode.json", `{"mode": "sphere"}`), "mode"},
		{"unknown orientation", write("orient.json", `{"orientation": "oblique"}`), "orientation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWandConfig(tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoadWandConfig_TooLarge(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "big.json")
	big := `{"tolerance": 1, "pad": "` + strings.Repeat("x", 1024*1024) + `"}`
	require.NoError(t, os.WriteFile(configPath, []byte(big), 0644))

	_, err := LoadWandConfig(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if diff := cmp.Diff(DefaultWandConfig(), cfg); diff != "" {
		t.Errorf("defaults file differs from DefaultWandConfig (-want +got):\n%s", diff)
	}
}

func TestEmptyWandConfig_Getters(t *testing.T) {
	cfg := EmptyWandConfig()
	require.NoError(t, cfg.Validate())
	v, err := Read(cfg.Source())
	require.NoError(t, err)
	assert.Equal(t, Values{Tolerance: 20, MaxPixels: 200, PaintOver: false, Label: 1}, v)
}

func TestWandConfigSource_RevalidatesOnRead(t *testing.T) {
	cfg := DefaultWandConfig()
	src := cfg.Source()

	*cfg.Tolerance = math.NaN()
	_, err := src.Tolerance()
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "tolerance", cerr.Key)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	*cfg.MaxPixels = math.Inf(1)
	_, err = src.MaxPixels()
	assert.ErrorIs(t, err, ErrOutOfRange)

	*cfg.Label = -2
	_, err = src.Label()
	assert.ErrorIs(t, err, ErrOutOfRange)
}
