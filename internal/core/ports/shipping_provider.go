package ports

import (
	"context"
	"errors"
	"fmt"

	"shipping/internal/core/domain/model/delivery"
)

// ErrLabelGeneration is the sentinel behind LabelGenerationError.
var ErrLabelGeneration = errors.New("label generation failed")

// ErrProviderNotRegistered is returned by a gateway asked for an unknown carrier.
var ErrProviderNotRegistered = errors.New("provider is not registered")

// Label is a carrier's answer to a label request.
type Label struct {
	URL        string
	TrackingID string
}

// ShippingProvider is an external carrier.
//
// Every carrier issues labels. Status polling is optional; StatusPoller
// reports whether the carrier supports it, so callers branch on the
// capability instead of on an error.
type ShippingProvider interface {
	Name() delivery.Provider
	GenerateLabel(ctx context.Context, orderID string) (Label, error)
	StatusPoller() (StatusPoller, bool)
}

// StatusPoller queries the carrier's current view of a shipment.
// It never changes carrier state.
type StatusPoller interface {
	GetStatus(ctx context.Context, trackingID string) (delivery.Status, error)
}

// ProviderGateway resolves carriers by name.
type ProviderGateway interface {
	Provider(name delivery.Provider) (ShippingProvider, error)
	Providers() []ShippingProvider
}

// LabelGenerationError wraps any carrier failure while issuing a label.
// It is never retried.
type LabelGenerationError struct {
	Provider delivery.Provider
	Cause    error
}

func NewLabelGenerationError(provider delivery.Provider, cause error) *LabelGenerationError {
	return &LabelGenerationError{Provider: provider, Cause: cause}
}

func (e *LabelGenerationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrLabelGeneration, e.Provider, e.Cause)
}

// Unwrap exposes both the sentinel and the carrier cause.
func (e *LabelGenerationError) Unwrap() []error {
	return []error{ErrLabelGeneration, e.Cause}
}
