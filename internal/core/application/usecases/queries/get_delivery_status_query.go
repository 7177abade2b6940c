// Package queries contains the read side of the shipping service. Handlers
// read straight from the database without loading aggregates.
package queries

import (
	"errors"
	"time"

	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/pkg/guard"
)

var ErrGetDeliveryStatusQueryIsNotConstructed = errors.New(
	"GetDeliveryStatusQuery must be created via NewGetDeliveryStatusQuery constructor",
)

// GetDeliveryStatusQuery fetches the current state of one delivery.
//
//	query, err := NewGetDeliveryStatusQuery(id)
//	if err != nil {
//	    return err
//	}
//	status, err := handler.Handle(ctx, query)
type GetDeliveryStatusQuery struct {
	deliveryID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetDeliveryStatusQuery(deliveryID kernel.UUID) (GetDeliveryStatusQuery, error) {
	if err := deliveryID.Validate(); err != nil {
		return GetDeliveryStatusQuery{}, err
	}

	return GetDeliveryStatusQuery{
		deliveryID: deliveryID,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (q GetDeliveryStatusQuery) Validate() error {
	return q.guard.Validate(ErrGetDeliveryStatusQueryIsNotConstructed)
}

func (q GetDeliveryStatusQuery) DeliveryID() kernel.UUID {
	return q.deliveryID
}

// GetDeliveryStatusQueryResponse is the full delivery detail plus the
// human-readable status description.
type GetDeliveryStatusQueryResponse struct {
	ID                kernel.UUID
	OrderID           string
	Provider          delivery.Provider
	TrackingID        string
	LabelURL          string
	Status            delivery.Status
	StatusDescription string
	EstimatedDelivery time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
