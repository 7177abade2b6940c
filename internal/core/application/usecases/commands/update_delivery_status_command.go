package commands

import (
	"errors"

	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/pkg/guard"
)

var ErrUpdateDeliveryStatusCommandIsNotConstructed = errors.New(
	"UpdateDeliveryStatusCommand must be created via NewUpdateDeliveryStatusCommand constructor",
)

// UpdateDeliveryStatusCommand proposes a new status for a delivery addressed
// by its id.
type UpdateDeliveryStatusCommand struct { //nolint:recvcheck //using for validation
	deliveryID kernel.UUID
	status     delivery.Status

	guard guard.ConstructorGuard
}

func NewUpdateDeliveryStatusCommand(deliveryID kernel.UUID, status delivery.Status) (UpdateDeliveryStatusCommand, error) {
	cmd := UpdateDeliveryStatusCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setDeliveryID(deliveryID),
		cmd.setStatus(status),
	); err != nil {
		return UpdateDeliveryStatusCommand{}, err
	}

	return cmd, nil
}

func (c UpdateDeliveryStatusCommand) Validate() error {
	return c.guard.Validate(ErrUpdateDeliveryStatusCommandIsNotConstructed)
}

func (c UpdateDeliveryStatusCommand) DeliveryID() kernel.UUID {
	return c.deliveryID
}

func (c UpdateDeliveryStatusCommand) Status() delivery.Status {
	return c.status
}

func (c *UpdateDeliveryStatusCommand) setDeliveryID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.deliveryID = id
	return nil
}

func (c *UpdateDeliveryStatusCommand) setStatus(status delivery.Status) error {
	if err := status.Validate(); err != nil {
		return err
	}

	c.status = status
	return nil
}
