package wand

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/banshee-data/labelwand/internal/config"
	"github.com/banshee-data/labelwand/internal/regiongrow"
)

// ErrRegistryClosed is returned by Register after Close.
var ErrRegistryClosed = errors.New("effect registry is closed")

// EffectInfo describes an editor effect a host can offer.
type EffectInfo struct {
	Name    string
	ToolTip string
	// New binds a fresh tool for one view.
	New func(doc Document, params config.Source, undo regiongrow.Checkpointer) *Tool
}

// Registry holds the effects available to a host.
type Registry struct {
	mu      sync.RWMutex
	effects map[string]EffectInfo
	closed  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{effects: make(map[string]EffectInfo)}
}

// Register adds an effect. An effect with the same name is replaced.
func (r *Registry) Register(info EffectInfo) error {
	if info.Name == "" {
		return errors.New("effect name is empty")
	}
	if info.New == nil {
		return errors.New("effect " + info.Name + " has no constructor")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRegistryClosed
	}
	r.effects[info.Name] = info
	return nil
}

// MustRegister is like Register but panics if the effect cannot be added.
func (r *Registry) MustRegister(info EffectInfo) {
	if err := r.Register(info); err != nil {
		panic(fmt.Errorf("register effect %s: %w", info.Name, err))
	}
}

// Lookup retrieves an effect by name.
func (r *Registry) Lookup(name string) (EffectInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.effects[name]
	return info, ok
}

// Unregister removes an effect. It reports whether the name was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.effects[name]
	delete(r.effects, name)
	return ok
}

// Names returns the registered effect names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.effects))
	for name := range r.effects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close empties the registry and rejects further registrations.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects = make(map[string]EffectInfo)
	r.closed = true
	return nil
}

// DefaultEffect describes the wand: a plane-mode, axial tool.
func DefaultEffect() EffectInfo {
	return EffectInfo{
		Name:    "Wand",
		ToolTip: "Paint the connected region whose intensity lies within tolerance of the clicked voxel",
		New: func(doc Document, params config.Source, undo regiongrow.Checkpointer) *Tool {
			return &Tool{Doc: doc, Params: params, Undo: undo}
		},
	}
}

// DefaultRegistry returns a registry holding DefaultEffect.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(DefaultEffect())
	return r
}
