package providers

import (
	"errors"
	"fmt"

	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/core/ports"
)

// Registry is the in-process ProviderGateway. Providers keep their
// registration order.
type Registry struct {
	byName  map[delivery.Provider]ports.ShippingProvider
	ordered []ports.ShippingProvider
}

// NewRegistry creates a registry of the given carriers. A nil carrier, an
// unsupported name or a name registered twice is an error.
func NewRegistry(providers ...ports.ShippingProvider) (*Registry, error) {
	r := &Registry{byName: make(map[delivery.Provider]ports.ShippingProvider, len(providers))}

	for _, p := range providers {
		if p == nil {
			return nil, errors.New("nil provider")
		}
		name := p.Name()
		if err := name.Validate(); err != nil {
			return nil, err
		}
		if _, exists := r.byName[name]; exists {
			return nil, fmt.Errorf("provider %s registered twice", name)
		}
		r.byName[name] = p
		r.ordered = append(r.ordered, p)
	}

	return r, nil
}

func (r *Registry) Provider(name delivery.Provider) (ports.ShippingProvider, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrProviderNotRegistered, name)
	}
	return p, nil
}

func (r *Registry) Providers() []ports.ShippingProvider {
	out := make([]ports.ShippingProvider, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Pollers lists the registered providers that support status polling.
func (r *Registry) Pollers() []ports.ShippingProvider {
	var out []ports.ShippingProvider
	for _, p := range r.ordered {
		if _, ok := p.StatusPoller(); ok {
			out = append(out, p)
		}
	}
	return out
}
