package commands

import (
	"context"
	"errors"
	"fmt"

	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/services"
	"shipping/internal/core/ports"
)

// ErrDeliveryCreation is the sentinel behind DeliveryCreationError.
var ErrDeliveryCreation = errors.New("delivery creation failed")

// DeliveryCreationError reports that no delivery was stored for the order.
// When the carrier refused the label, errors.Is(err, ports.ErrLabelGeneration)
// holds.
type DeliveryCreationError struct {
	OrderID  string
	Provider delivery.Provider
	Cause    error
}

func (e *DeliveryCreationError) Error() string {
	return fmt.Sprintf("%s: order %s via %s: %v", ErrDeliveryCreation, e.OrderID, e.Provider, e.Cause)
}

func (e *DeliveryCreationError) Unwrap() []error {
	return []error{ErrDeliveryCreation, e.Cause}
}

// CreateDeliveryCommandHandler selects a carrier, obtains a label and stores
// a delivery in Created status. The label is requested before the
// transaction opens so no database transaction spans the carrier call.
type CreateDeliveryCommandHandler struct {
	uowFactory DeliveryUoWFactory
	gateway    ports.ProviderGateway
	selector   services.ProviderSelector
	estimator  services.DeliveryEstimator
	clock      kernel.Clock
	newID      func() kernel.UUID
}

// NewCreateDeliveryCommandHandler creates the handler. A nil clock means
// kernel.SystemClock.
func NewCreateDeliveryCommandHandler(
	uowFactory DeliveryUoWFactory,
	gateway ports.ProviderGateway,
	selector services.ProviderSelector,
	estimator services.DeliveryEstimator,
	clock kernel.Clock,
) CreateDeliveryCommandHandler {
	if clock == nil {
		clock = kernel.SystemClock
	}
	return CreateDeliveryCommandHandler{
		uowFactory: uowFactory,
		gateway:    gateway,
		selector:   selector,
		estimator:  estimator,
		clock:      clock,
		newID:      kernel.NewUUID,
	}
}

// Handle returns the stored delivery. Every failure after validation is a
// *DeliveryCreationError and leaves no record behind.
func (h CreateDeliveryCommandHandler) Handle(ctx context.Context, cmd CreateDeliveryCommand) (*delivery.Delivery, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	provider := h.selector.Select(cmd.OrderID())
	fail := func(err error) (*delivery.Delivery, error) {
		return nil, &DeliveryCreationError{OrderID: cmd.OrderID(), Provider: provider, Cause: err}
	}

	carrier, err := h.gateway.Provider(provider)
	if err != nil {
		return fail(err)
	}

	label, err := carrier.GenerateLabel(ctx, cmd.OrderID())
	if err != nil {
		var labelErr *ports.LabelGenerationError
		if !errors.As(err, &labelErr) {
			err = ports.NewLabelGenerationError(provider, err)
		}
		return fail(err)
	}

	createdAt := h.clock()
	d, err := delivery.NewDelivery(
		h.newID(),
		cmd.OrderID(),
		provider,
		label.TrackingID,
		label.URL,
		createdAt,
		h.estimator.Estimate(provider, createdAt),
	)
	if err != nil {
		return fail(err)
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return fail(err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.DeliveryRepository().Add(ctx, d); err != nil {
		return fail(err)
	}

	if err = uow.Commit(ctx); err != nil {
		return fail(err)
	}

	return d, nil
}
