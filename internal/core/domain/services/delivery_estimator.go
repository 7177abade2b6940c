package services

import (
	"fmt"
	"math/rand/v2"
	"time"

	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/pkg/errs"
)

// DeliveryWindow is the span after creation in which a carrier usually delivers.
type DeliveryWindow struct {
	Min time.Duration
	Max time.Duration
}

// DefaultDeliveryWindows are the carrier service levels: NRW ships within
// 24 to 48 hours, TLS is an express carrier delivering within 4 to 24 hours.
func DefaultDeliveryWindows() map[delivery.Provider]DeliveryWindow {
	return map[delivery.Provider]DeliveryWindow{
		delivery.NRW: {Min: 24 * time.Hour, Max: 48 * time.Hour},
		delivery.TLS: {Min: 4 * time.Hour, Max: 24 * time.Hour},
	}
}

// DeliveryEstimator places the estimate uniformly inside the carrier window.
type DeliveryEstimator struct {
	windows map[delivery.Provider]DeliveryWindow
	random  func() float64
}

// NewDeliveryEstimator validates the windows; every Min must be positive so
// the estimate is always strictly after creation. A nil random source
// falls back to math/rand/v2.
func NewDeliveryEstimator(windows map[delivery.Provider]DeliveryWindow, random func() float64) (DeliveryEstimator, error) {
	for provider, w := range windows {
		if w.Min <= 0 || w.Max < w.Min {
			return DeliveryEstimator{}, errs.NewValueIsInvalidErrorWithCause(
				"deliveryWindow",
				fmt.Errorf("%s window [%s, %s] must satisfy 0 < min <= max", provider, w.Min, w.Max),
			)
		}
	}
	if random == nil {
		random = rand.Float64
	}
	return DeliveryEstimator{windows: windows, random: random}, nil
}

// Estimate returns the expected delivery time for a shipment created at from.
// Carriers without a configured window use the NRW default.
func (e DeliveryEstimator) Estimate(provider delivery.Provider, from time.Time) time.Time {
	w, ok := e.windows[provider]
	if !ok {
		w = DefaultDeliveryWindows()[delivery.NRW]
	}
	spread := time.Duration(e.random() * float64(w.Max-w.Min))
	return from.Add(w.Min + spread)
}
