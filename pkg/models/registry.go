package models

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/r3d91ll/spectrafit/pkg/dataset"
	ferrors "github.com/r3d91ll/spectrafit/pkg/errors"
	"github.com/r3d91ll/spectrafit/pkg/prior"
	"github.com/r3d91ll/spectrafit/pkg/sampler"
)

// Factory builds a sampler model pivoted at e0 (TeV).
type Factory func(e0 float64) sampler.Model

// Entry describes a registered model.
type Entry struct {
	Name        string
	Description string
	Labels      []string
	P0          []float64
	Prior       prior.Func
	New         Factory
}

// Registry manages available models.
type Registry struct {
	entries map[string]Entry
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// Register adds a model to the registry.
func (r *Registry) Register(e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[e.Name]; exists {
		return fmt.Errorf("model %q already registered", e.Name)
	}
	r.entries[e.Name] = e
	return nil
}

// Get retrieves a model by name.
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Lookup is Get returning a configuration error for unknown names.
func (r *Registry) Lookup(name string) (Entry, error) {
	e, ok := r.Get(name)
	if !ok {
		return Entry{}, ferrors.Configf(ferrors.ErrConfigUnknownModel, "model %q is not registered", name).
			WithContext("model", name)
	}
	return e, nil
}

// List returns all registered model names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0, len(r.entries))
	for name := range r.entries {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Default creates a registry with the reference models:
//
//	pl:   norm, index
//	ecpl: norm, index, log10(cutoff)
func Default() *Registry {
	registry := NewRegistry()
	_ = registry.Register(Entry{
		Name:        "pl",
		Description: "power law",
		Labels:      []string{"norm", "index"},
		P0:          []float64{1e-12, 2.5},
		Prior:       prior.Sum(prior.UniformOn(0, 0, math.Inf(1)), prior.UniformOn(1, -1, 5)),
		New:         powerLawModel,
	})
	_ = registry.Register(Entry{
		Name:        "ecpl",
		Description: "power law with exponential cutoff",
		Labels:      []string{"norm", "index", "log10(cutoff)"},
		P0:          []float64{1.5e-12, 2.4, 1.176},
		Prior:       prior.Sum(prior.UniformOn(0, 0, math.Inf(1)), prior.UniformOn(1, -1, 5)),
		New:         cutoffModel,
	})
	return registry
}

func powerLawModel(e0 float64) sampler.Model {
	return func(p []float64, d *dataset.Dataset) (sampler.ModelOutput, error) {
		pl := PowerLaw{Amplitude: p[0], E0: e0, Alpha: p[1]}
		return withSED(pl.Eval(d.Energy), d)
	}
}

func cutoffModel(e0 float64) sampler.Model {
	return func(p []float64, d *dataset.Dataset) (sampler.ModelOutput, error) {
		ecpl := ExponentialCutoffPowerLaw{
			Amplitude: p[0],
			E0:        e0,
			Alpha:     p[1],
			ECutoff:   math.Pow(10, p[2]),
			Beta:      1,
		}
		return withSED(ecpl.Eval(d.Energy), d)
	}
}

// withSED attaches the energy flux E²·dN/dE (erg/(cm2 s)) as an auxiliary
// array. Data given as energy flux is predicted as energy flux.
func withSED(values []float64, d *dataset.Dataset) (sampler.ModelOutput, error) {
	_, factors, err := dataset.SEDConversion(d.Energy, dataset.TypeDifferentialFlux, dataset.SEDOn)
	if err != nil {
		return sampler.ModelOutput{}, err
	}
	sed := make([]float64, len(values))
	for i, v := range values {
		sed[i] = v * factors[i]
	}
	if d.FluxType == dataset.TypeFlux {
		return sampler.ValuesWithAux(sed, sed).WithType(dataset.TypeFlux), nil
	}
	return sampler.ValuesWithAux(values, sed).WithType(dataset.TypeDifferentialFlux), nil
}
