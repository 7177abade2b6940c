package commands

import (
	"context"
	"fmt"
	"time"

	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/services"
	"shipping/internal/core/ports"
)

// StatusChange is the outcome of applying a proposed status to a delivery.
// Changed is false when the proposed status equalled the current one; in
// that case nothing was written and Previous == Current.
type StatusChange struct {
	DeliveryID kernel.UUID
	Provider   delivery.Provider
	TrackingID string
	Previous   delivery.Status
	Current    delivery.Status
	Changed    bool
	UpdatedAt  time.Time
}

type deliveryLoader func(ctx context.Context, repo ports.DeliveryRepository) (*delivery.Delivery, error)

func loadByID(id kernel.UUID) deliveryLoader {
	return func(ctx context.Context, repo ports.DeliveryRepository) (*delivery.Delivery, error) {
		return repo.Get(ctx, id)
	}
}

func loadByTrackingID(provider delivery.Provider, trackingID string) deliveryLoader {
	return func(ctx context.Context, repo ports.DeliveryRepository) (*delivery.Delivery, error) {
		return repo.FindByProviderAndTrackingID(ctx, provider, trackingID)
	}
}

// statusApplier is the one path through which client requests, webhooks and
// reconciliation change a delivery status.
type statusApplier struct {
	uowFactory DeliveryUoWFactory
	policy     services.TransitionPolicy
	clock      kernel.Clock
}

func newStatusApplier(uowFactory DeliveryUoWFactory, policy services.TransitionPolicy, clock kernel.Clock) statusApplier {
	if clock == nil {
		clock = kernel.SystemClock
	}
	return statusApplier{
		uowFactory: uowFactory,
		policy:     policy,
		clock:      clock,
	}
}

// apply loads the delivery, returns early without writing when proposed
// equals the current status, rejects illegal transitions with
// *delivery.InvalidTransitionError and otherwise writes with a
// compare-and-set on the status it read.
func (a statusApplier) apply(ctx context.Context, load deliveryLoader, proposed delivery.Status) (StatusChange, error) {
	if err := proposed.Validate(); err != nil {
		return StatusChange{}, err
	}

	uow := a.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return StatusChange{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.DeliveryRepository()
	d, err := load(ctx, repo)
	if err != nil {
		return StatusChange{}, err
	}

	change := StatusChange{
		DeliveryID: d.ID(),
		Provider:   d.Provider(),
		TrackingID: d.TrackingID(),
		Previous:   d.Status(),
		Current:    d.Status(),
		UpdatedAt:  d.UpdatedAt(),
	}

	if proposed == d.Status() {
		return change, nil
	}

	if !a.policy.IsUpdateAllowed(d, proposed) {
		return StatusChange{}, delivery.NewInvalidTransitionError(d.Status(), proposed)
	}

	now := a.clock()
	if err = d.ChangeStatus(proposed, now); err != nil {
		return StatusChange{}, err
	}

	if err = repo.CompareAndSetStatus(ctx, d.ID(), change.Previous, proposed, now); err != nil {
		return StatusChange{}, fmt.Errorf("update status of delivery %s: %w", d.ID(), err)
	}

	if err = uow.Commit(ctx); err != nil {
		return StatusChange{}, err
	}

	change.Current = proposed
	change.Changed = true
	change.UpdatedAt = now
	return change, nil
}
