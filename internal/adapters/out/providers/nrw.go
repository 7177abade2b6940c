package providers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/core/ports"
	"shipping/internal/pkg/errs"
)

const (
	nrwLabelBaseURL     = "https://api.nrw-logistics.com/v2/labels/"
	nrwMinLatency       = 100 * time.Millisecond
	nrwMaxLatency       = 300 * time.Millisecond
	nrwFailureRate      = 0.02
	defaultTransitDelay = 2 * time.Minute
)

// ErrNRWUnavailable is the simulated NRW outage.
var ErrNRWUnavailable = errors.New("NRW API: service temporarily unavailable")

// nrwTimestampDigits is the width of the unix-ms part of an NRW tracking id.
const nrwTimestampDigits = 13

// NRW is the simulated polling carrier.
//
// Its status answer is derived from the tracking id alone, so repeated polls
// agree and answers survive a restart. A shipment bound for DELIVERED reports
// IN_TRANSIT until transitDelay has passed since the label time encoded in
// its tracking id. A delivery still CREATED when that window closes would be
// asked to jump to DELIVERED, which reconciliation rejects per item.
type NRW struct {
	simulator
	transitDelay time.Duration
}

// NewNRW creates the NRW carrier with its default failure rate and latency.
func NewNRW(opts ...Option) *NRW {
	return &NRW{
		simulator:    newSimulator(nrwFailureRate, nrwMinLatency, nrwMaxLatency, opts),
		transitDelay: defaultTransitDelay,
	}
}

// WithTransitDelay changes how long an NRW-issued shipment stays in transit.
func (p *NRW) WithTransitDelay(d time.Duration) *NRW {
	p.transitDelay = d
	return p
}

func (p *NRW) Name() delivery.Provider {
	return delivery.NRW
}

func (p *NRW) GenerateLabel(ctx context.Context, orderID string) (ports.Label, error) {
	if orderID == "" {
		return ports.Label{}, ports.NewLabelGenerationError(delivery.NRW, errs.NewValueIsRequiredError("orderID"))
	}

	if err := p.roundTrip(ctx); err != nil {
		return ports.Label{}, ports.NewLabelGenerationError(delivery.NRW, err)
	}

	now := p.clock()
	trackingID := p.trackingID("NRW", now)

	if p.fails() {
		return ports.Label{}, ports.NewLabelGenerationError(delivery.NRW, ErrNRWUnavailable)
	}

	return ports.Label{
		URL:        fmt.Sprintf("%slbl_%s_%d.pdf", nrwLabelBaseURL, strings.ToLower(trackingID), now.UnixMilli()),
		TrackingID: trackingID,
	}, nil
}

func (p *NRW) StatusPoller() (ports.StatusPoller, bool) {
	return p, true
}

func (p *NRW) GetStatus(ctx context.Context, trackingID string) (delivery.Status, error) {
	if trackingID == "" {
		return delivery.Unknown, errs.NewValueIsRequiredError("trackingID")
	}
	if err := p.roundTrip(ctx); err != nil {
		return delivery.Unknown, err
	}

	status := statusForTracking(trackingID)
	if status != delivery.Delivered {
		return status, nil
	}

	if labelledAt, ok := labelTime(trackingID); ok && p.clock().Sub(labelledAt) < p.transitDelay {
		return delivery.InTransit, nil
	}
	return status, nil
}

// labelTime reads the unix-ms timestamp NRW embeds after its prefix. Ids in
// any other format have none.
func labelTime(trackingID string) (time.Time, bool) {
	digits, ok := strings.CutPrefix(trackingID, "NRW")
	if !ok || len(digits) < nrwTimestampDigits {
		return time.Time{}, false
	}

	ms, err := strconv.ParseInt(digits[:nrwTimestampDigits], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

// statusForTracking buckets the sum of the id's characters:
// 2% CREATED, 8% FAILED, 30% DELIVERED, the rest IN_TRANSIT.
func statusForTracking(trackingID string) delivery.Status {
	var sum int
	for _, r := range trackingID {
		sum += int(r)
	}

	switch bucket := sum % 100; {
	case bucket < 2:
		return delivery.Created
	case bucket < 10:
		return delivery.Failed
	case bucket < 40:
		return delivery.Delivered
	default:
		return delivery.InTransit
	}
}
