package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/core/ports"
	"shipping/internal/pkg/errs"
)

const (
	tlsLabelBaseURL = "https://shipping.tls-express.com/api/v1/documents/labels/"
	tlsMinLatency   = 150 * time.Millisecond
	tlsMaxLatency   = 450 * time.Millisecond
	tlsFailureRate  = 0.015
)

// ErrTLSAddressRejected is the simulated TLS label rejection.
var ErrTLSAddressRejected = errors.New("TLS API: invalid shipping address")

// TLS is the simulated webhook carrier. It cannot be polled.
type TLS struct {
	simulator
}

// NewTLS creates the TLS carrier with its default failure rate and latency.
func NewTLS(opts ...Option) *TLS {
	return &TLS{simulator: newSimulator(tlsFailureRate, tlsMinLatency, tlsMaxLatency, opts)}
}

func (p *TLS) Name() delivery.Provider {
	return delivery.TLS
}

func (p *TLS) GenerateLabel(ctx context.Context, orderID string) (ports.Label, error) {
	if orderID == "" {
		return ports.Label{}, ports.NewLabelGenerationError(delivery.TLS, errs.NewValueIsRequiredError("orderID"))
	}

	if err := p.roundTrip(ctx); err != nil {
		return ports.Label{}, ports.NewLabelGenerationError(delivery.TLS, err)
	}

	now := p.clock()
	trackingID := p.trackingID("TLS", now)

	if p.fails() {
		return ports.Label{}, ports.NewLabelGenerationError(delivery.TLS, ErrTLSAddressRejected)
	}

	return ports.Label{
		URL: fmt.Sprintf("%stls_%s_%s_%d.pdf",
			tlsLabelBaseURL, strings.ToLower(trackingID), orderID, now.UnixMilli()),
		TrackingID: trackingID,
	}, nil
}

func (p *TLS) StatusPoller() (ports.StatusPoller, bool) {
	return nil, false
}
