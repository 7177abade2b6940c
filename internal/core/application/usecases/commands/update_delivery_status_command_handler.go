package commands

import (
	"context"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/services"
)

// UpdateDeliveryStatusCommandHandler applies a status proposed for a known
// delivery id.
type UpdateDeliveryStatusCommandHandler struct {
	applier statusApplier
}

// NewUpdateDeliveryStatusCommandHandler creates the handler for updates by id.
func NewUpdateDeliveryStatusCommandHandler(
	uowFactory DeliveryUoWFactory,
	policy services.TransitionPolicy,
	clock kernel.Clock,
) UpdateDeliveryStatusCommandHandler {
	return UpdateDeliveryStatusCommandHandler{
		applier: newStatusApplier(uowFactory, policy, clock),
	}
}

// Handle returns the previous and new status. A proposal equal to the
// current status succeeds with Changed == false.
func (h UpdateDeliveryStatusCommandHandler) Handle(ctx context.Context, cmd UpdateDeliveryStatusCommand) (StatusChange, error) {
	if err := cmd.Validate(); err != nil {
		return StatusChange{}, err
	}

	return h.applier.apply(ctx, loadByID(cmd.DeliveryID()), cmd.Status())
}
