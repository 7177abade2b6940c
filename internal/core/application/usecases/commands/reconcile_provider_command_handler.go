package commands

import (
	"context"
	"fmt"

	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/services"
	"shipping/internal/core/ports"
)

// ReconcileFailure records one delivery the pass could not bring up to date.
type ReconcileFailure struct {
	DeliveryID kernel.UUID
	TrackingID string
	Err        error
}

// ReconcileReport summarizes one polling pass over a carrier.
type ReconcileReport struct {
	Provider         delivery.Provider
	PollingSupported bool
	Checked          int
	SkippedTerminal  int
	Unchanged        int
	Updated          []StatusChange
	Failures         []ReconcileFailure
}

// ReconcileProviderCommandHandler polls the carrier for every non-terminal
// delivery and routes differing statuses through the shared status path.
// A failure on one delivery never stops the pass.
type ReconcileProviderCommandHandler struct {
	uowFactory DeliveryUoWFactory
	gateway    ports.ProviderGateway
	applier    statusApplier
}

// NewReconcileProviderCommandHandler creates a handler that polls carriers
// resolved through gateway.
func NewReconcileProviderCommandHandler(
	uowFactory DeliveryUoWFactory,
	gateway ports.ProviderGateway,
	policy services.TransitionPolicy,
	clock kernel.Clock,
) ReconcileProviderCommandHandler {
	return ReconcileProviderCommandHandler{
		uowFactory: uowFactory,
		gateway:    gateway,
		applier:    newStatusApplier(uowFactory, policy, clock),
	}
}

// Handle returns an error only when the pass cannot start: unknown carrier,
// failed listing or a cancelled context. A carrier without polling support
// yields a report with PollingSupported == false.
func (h ReconcileProviderCommandHandler) Handle(ctx context.Context, cmd ReconcileProviderCommand) (ReconcileReport, error) {
	if err := cmd.Validate(); err != nil {
		return ReconcileReport{}, err
	}

	report := ReconcileReport{Provider: cmd.Provider()}

	carrier, err := h.gateway.Provider(cmd.Provider())
	if err != nil {
		return report, err
	}

	poller, ok := carrier.StatusPoller()
	if !ok {
		return report, nil
	}
	report.PollingSupported = true

	deliveries, err := h.uowFactory.Create().DeliveryRepository().FindByProvider(ctx, cmd.Provider())
	if err != nil {
		return report, fmt.Errorf("list %s deliveries: %w", cmd.Provider(), err)
	}

	for _, d := range deliveries {
		if err = ctx.Err(); err != nil {
			return report, err
		}

		report.Checked++
		if d.Status().IsTerminal() {
			report.SkippedTerminal++
			continue
		}

		polled, pollErr := poller.GetStatus(ctx, d.TrackingID())
		if pollErr != nil {
			report.Failures = append(report.Failures, ReconcileFailure{
				DeliveryID: d.ID(),
				TrackingID: d.TrackingID(),
				Err:        fmt.Errorf("poll status: %w", pollErr),
			})
			continue
		}

		if polled == d.Status() {
			report.Unchanged++
			continue
		}

		change, applyErr := h.applier.apply(ctx, loadByID(d.ID()), polled)
		if applyErr != nil {
			report.Failures = append(report.Failures, ReconcileFailure{
				DeliveryID: d.ID(),
				TrackingID: d.TrackingID(),
				Err:        applyErr,
			})
			continue
		}

		if change.Changed {
			report.Updated = append(report.Updated, change)
		} else {
			report.Unchanged++
		}
	}

	return report, nil
}
