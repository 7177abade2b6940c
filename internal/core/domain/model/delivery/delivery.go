package delivery

import (
	"errors"
	"fmt"
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/pkg/errs"
)

var (
	// ErrDeliveryIsNotConstructed is returned by Validate for a Delivery that
	// was not built by NewDelivery or RestoreDelivery.
	ErrDeliveryIsNotConstructed = errors.New("Delivery must be created via NewDelivery constructor")
)

// Delivery is the aggregate root for one shipment of one order through one
// provider.
//
// Invariants:
//   - id, orderID, provider, trackingID and labelURL never change after creation
//   - estimatedDelivery is strictly after createdAt for new deliveries
//   - status only moves along the transitions allowed by Status.CanTransitionTo
//   - updatedAt is refreshed on every accepted status change
type Delivery struct {
	id                kernel.UUID
	orderID           string
	provider          Provider
	trackingID        string
	labelURL          string
	status            Status
	estimatedDelivery time.Time
	createdAt         time.Time
	updatedAt         time.Time

	isConstructed bool
}

// NewDelivery assembles a freshly labelled delivery in Created status.
//
//	d, err := delivery.NewDelivery(kernel.NewUUID(), "order-1", delivery.NRW,
//	    label.TrackingID, label.URL, now, now.Add(36*time.Hour))
func NewDelivery(
	id kernel.UUID,
	orderID string,
	provider Provider,
	trackingID string,
	labelURL string,
	createdAt time.Time,
	estimatedDelivery time.Time,
) (*Delivery, error) {
	d := &Delivery{
		status:        Created,
		isConstructed: true,
	}

	if err := errors.Join(
		d.setIdentity(id, orderID, provider, trackingID, labelURL),
		d.setSchedule(createdAt, estimatedDelivery),
	); err != nil {
		return nil, err
	}

	d.updatedAt = createdAt
	return d, nil
}

// RestoreDelivery rebuilds a delivery from storage. The schedule is not
// re-checked so historical rows always load.
func RestoreDelivery(
	id kernel.UUID,
	orderID string,
	provider Provider,
	trackingID string,
	labelURL string,
	status Status,
	estimatedDelivery time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) (*Delivery, error) {
	d := &Delivery{isConstructed: true}

	if err := errors.Join(
		d.setIdentity(id, orderID, provider, trackingID, labelURL),
		status.Validate(),
	); err != nil {
		return nil, err
	}

	d.status = status
	d.estimatedDelivery = estimatedDelivery
	d.createdAt = createdAt
	d.updatedAt = updatedAt
	return d, nil
}

func (d *Delivery) Validate() error {
	if d == nil || !d.isConstructed {
		return ErrDeliveryIsNotConstructed
	}
	return nil
}

func (d *Delivery) ID() kernel.UUID {
	return d.id
}

func (d *Delivery) OrderID() string {
	return d.orderID
}

func (d *Delivery) Provider() Provider {
	return d.provider
}

func (d *Delivery) TrackingID() string {
	return d.trackingID
}

func (d *Delivery) LabelURL() string {
	return d.labelURL
}

func (d *Delivery) Status() Status {
	return d.status
}

func (d *Delivery) EstimatedDelivery() time.Time {
	return d.estimatedDelivery
}

func (d *Delivery) CreatedAt() time.Time {
	return d.createdAt
}

func (d *Delivery) UpdatedAt() time.Time {
	return d.updatedAt
}

// ChangeStatus moves the delivery to next and stamps updatedAt with at.
// It returns an *InvalidTransitionError when next is not a legal successor;
// callers are expected to short-circuit next == Status() before calling.
func (d *Delivery) ChangeStatus(next Status, at time.Time) error {
	if err := next.Validate(); err != nil {
		return err
	}

	if !d.status.CanTransitionTo(next) {
		return NewInvalidTransitionError(d.status, next)
	}

	d.status = next
	d.updatedAt = at
	return nil
}

func (d *Delivery) setIdentity(id kernel.UUID, orderID string, provider Provider, trackingID, labelURL string) error {
	var errList []error

	if err := id.Validate(); err != nil {
		errList = append(errList, err)
	}
	if orderID == "" {
		errList = append(errList, errs.NewValueIsRequiredError("orderID"))
	}
	if err := provider.Validate(); err != nil {
		errList = append(errList, err)
	}
	if trackingID == "" {
		errList = append(errList, errs.NewValueIsRequiredError("trackingID"))
	}
	if labelURL == "" {
		errList = append(errList, errs.NewValueIsRequiredError("labelURL"))
	}
	if len(errList) > 0 {
		return errors.Join(errList...)
	}

	d.id = id
	d.orderID = orderID
	d.provider = provider
	d.trackingID = trackingID
	d.labelURL = labelURL
	return nil
}

func (d *Delivery) setSchedule(createdAt, estimatedDelivery time.Time) error {
	if createdAt.IsZero() {
		return errs.NewValueIsRequiredError("createdAt")
	}
	if !estimatedDelivery.After(createdAt) {
		return errs.NewValueIsInvalidErrorWithCause(
			"estimatedDelivery",
			fmt.Errorf("%s is not after creation time %s",
				estimatedDelivery.Format(time.RFC3339), createdAt.Format(time.RFC3339)),
		)
	}

	d.createdAt = createdAt
	d.estimatedDelivery = estimatedDelivery
	return nil
}
