package commands

import (
	"context"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/services"
)

// ApplyTrackingUpdateCommandHandler is the webhook path: the delivery is
// resolved by (provider, trackingID) and the pushed status goes through the
// same policy as every other update.
type ApplyTrackingUpdateCommandHandler struct {
	applier statusApplier
}

// NewApplyTrackingUpdateCommandHandler creates the handler for carrier pushes.
func NewApplyTrackingUpdateCommandHandler(
	uowFactory DeliveryUoWFactory,
	policy services.TransitionPolicy,
	clock kernel.Clock,
) ApplyTrackingUpdateCommandHandler {
	return ApplyTrackingUpdateCommandHandler{
		applier: newStatusApplier(uowFactory, policy, clock),
	}
}

func (h ApplyTrackingUpdateCommandHandler) Handle(ctx context.Context, cmd ApplyTrackingUpdateCommand) (StatusChange, error) {
	if err := cmd.Validate(); err != nil {
		return StatusChange{}, err
	}

	return h.applier.apply(ctx, loadByTrackingID(cmd.Provider(), cmd.TrackingID()), cmd.Status())
}
