package commands

import (
	"errors"
	"strings"

	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/pkg/errs"
	"shipping/internal/pkg/guard"
)

var ErrApplyTrackingUpdateCommandIsNotConstructed = errors.New(
	"ApplyTrackingUpdateCommand must be created via NewApplyTrackingUpdateCommand constructor",
)

// ApplyTrackingUpdateCommand carries a carrier-pushed status for a shipment
// identified by the carrier's tracking id.
type ApplyTrackingUpdateCommand struct { //nolint:recvcheck //using for validation
	provider   delivery.Provider
	trackingID string
	status     delivery.Status

	guard guard.ConstructorGuard
}

func NewApplyTrackingUpdateCommand(
	provider delivery.Provider,
	trackingID string,
	status delivery.Status,
) (ApplyTrackingUpdateCommand, error) {
	cmd := ApplyTrackingUpdateCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setProvider(provider),
		cmd.setTrackingID(trackingID),
		cmd.setStatus(status),
	); err != nil {
		return ApplyTrackingUpdateCommand{}, err
	}

	return cmd, nil
}

func (c ApplyTrackingUpdateCommand) Validate() error {
	return c.guard.Validate(ErrApplyTrackingUpdateCommandIsNotConstructed)
}

func (c ApplyTrackingUpdateCommand) Provider() delivery.Provider {
	return c.provider
}

func (c ApplyTrackingUpdateCommand) TrackingID() string {
	return c.trackingID
}

func (c ApplyTrackingUpdateCommand) Status() delivery.Status {
	return c.status
}

func (c *ApplyTrackingUpdateCommand) setProvider(provider delivery.Provider) error {
	if err := provider.Validate(); err != nil {
		return err
	}

	c.provider = provider
	return nil
}

func (c *ApplyTrackingUpdateCommand) setTrackingID(trackingID string) error {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return errs.NewValueIsRequiredError("trackingID")
	}

	c.trackingID = trackingID
	return nil
}

func (c *ApplyTrackingUpdateCommand) setStatus(status delivery.Status) error {
	if err := status.Validate(); err != nil {
		return err
	}

	c.status = status
	return nil
}
