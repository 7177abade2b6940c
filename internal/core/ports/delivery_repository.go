package ports

import (
	"context"
	"errors"
	"time"

	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/core/domain/model/kernel"
)

// ErrStatusConflict is returned by CompareAndSetStatus when the stored status
// no longer matches the expected one.
var ErrStatusConflict = errors.New("delivery status changed concurrently")

// DeliveryRepository is the persistence contract for delivery aggregates.
// Lookups that match nothing return *errs.ObjectNotFoundError.
type DeliveryRepository interface {
	// Add inserts a new delivery. A collision on id or on
	// (provider, trackingID) returns *errs.DuplicateKeyError.
	Add(ctx context.Context, aggregate *delivery.Delivery) error

	// UpdateStatus overwrites the status unconditionally and stamps updatedAt.
	// Transition rules are not checked here.
	UpdateStatus(ctx context.Context, id kernel.UUID, status delivery.Status, at time.Time) error

	// CompareAndSetStatus writes next only while the stored status still
	// equals expected, returning ErrStatusConflict otherwise.
	CompareAndSetStatus(ctx context.Context, id kernel.UUID, expected, next delivery.Status, at time.Time) error

	Get(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error)

	// FindByProvider returns every delivery of the carrier, oldest first.
	FindByProvider(ctx context.Context, provider delivery.Provider) ([]*delivery.Delivery, error)

	FindByProviderAndTrackingID(ctx context.Context, provider delivery.Provider, trackingID string) (*delivery.Delivery, error)
}
