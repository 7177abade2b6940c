package commands

import (
	"errors"
	"strings"

	"shipping/internal/pkg/errs"
	"shipping/internal/pkg/guard"
)

var ErrCreateDeliveryCommandIsNotConstructed = errors.New(
	"CreateDeliveryCommand must be created via NewCreateDeliveryCommand constructor",
)

// CreateDeliveryCommand requests a shipping label and a tracked delivery for
// an order.
//
//	cmd, err := NewCreateDeliveryCommand("order_1718000000000_42")
//	if err != nil {
//	    return err
//	}
//	d, err := handler.Handle(ctx, cmd)
type CreateDeliveryCommand struct { //nolint:recvcheck //using for validation
	orderID string

	guard guard.ConstructorGuard
}

// NewCreateDeliveryCommand trims the order id and rejects an empty one.
func NewCreateDeliveryCommand(orderID string) (CreateDeliveryCommand, error) {
	cmd := CreateDeliveryCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setOrderID(orderID); err != nil {
		return CreateDeliveryCommand{}, err
	}

	return cmd, nil
}

func (c CreateDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrCreateDeliveryCommandIsNotConstructed)
}

func (c CreateDeliveryCommand) OrderID() string {
	return c.orderID
}

func (c *CreateDeliveryCommand) setOrderID(orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return errs.NewValueIsRequiredError("orderID")
	}

	c.orderID = orderID
	return nil
}
