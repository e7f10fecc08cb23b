package indicator

import (
	"sync"

	"github.com/tradecraft-labs/fxstate/internal/types"
	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

// Registry manages the available indicators.
type Registry struct {
	indicators map[types.IndicatorType]Indicator
	mu         sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		indicators: make(map[types.IndicatorType]Indicator),
	}
}

// NewDefaultRegistry creates a registry with every built-in indicator
// registered.
func NewDefaultRegistry() *Registry {
	registry := NewRegistry()

	for _, ind := range []Indicator{
		NewSMA(),
		NewEMA(),
		NewRSI(),
		NewATR(),
		NewBollingerBands(),
		NewStochastic(),
		NewVWAP(),
		NewOBV(),
		NewWilliamsR(),
		NewMACrossover(),
	} {
		// Built-ins have distinct names; registration cannot conflict.
		_ = registry.Register(ind)
	}

	return registry
}

// Register adds an indicator. Registering a name twice is an error.
func (r *Registry) Register(indicator Indicator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := indicator.Name()
	if _, exists := r.indicators[name]; exists {
		return errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "indicator %s already registered", name)
	}

	r.indicators[name] = indicator

	return nil
}

// Get retrieves an indicator by name.
func (r *Registry) Get(name types.IndicatorType) (Indicator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indicator, exists := r.indicators[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s not found", name)
	}

	return indicator, nil
}

// List returns the registered indicator names.
func (r *Registry) List() []types.IndicatorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.IndicatorType, 0, len(r.indicators))
	for name := range r.indicators {
		names = append(names, name)
	}

	return names
}
