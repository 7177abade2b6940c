package commands_test

import (
	"context"
	"testing"
	"time"

	"shipping/internal/core/application/usecases/commands"
	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDeliveryRepository struct{ mock.Mock }

func (m *MockDeliveryRepository) Add(ctx context.Context, d *delivery.Delivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDeliveryRepository) UpdateStatus(ctx context.Context, id kernel.UUID, status delivery.Status, at time.Time) error {
	args := m.Called(ctx, id, status, at)
	return args.Error(0)
}

func (m *MockDeliveryRepository) CompareAndSetStatus(
	ctx context.Context, id kernel.UUID, expected, next delivery.Status, at time.Time,
) error {
	args := m.Called(ctx, id, expected, next, at)
	return args.Error(0)
}

func (m *MockDeliveryRepository) Get(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*delivery.Delivery)
	return d, args.Error(1)
}

func (m *MockDeliveryRepository) FindByProvider(ctx context.Context, p delivery.Provider) ([]*delivery.Delivery, error) {
	args := m.Called(ctx, p)
	ds, _ := args.Get(0).([]*delivery.Delivery)
	return ds, args.Error(1)
}

func (m *MockDeliveryRepository) FindByProviderAndTrackingID(
	ctx context.Context, p delivery.Provider, trackingID string,
) (*delivery.Delivery, error) {
	args := m.Called(ctx, p, trackingID)
	d, _ := args.Get(0).(*delivery.Delivery)
	return d, args.Error(1)
}

type MockDeliveryUoW struct{ mock.Mock }

func (m *MockDeliveryUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDeliveryUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDeliveryUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDeliveryUoW) DeliveryRepository() ports.DeliveryRepository {
	args := m.Called()
	return args.Get(0).(ports.DeliveryRepository)
}

type MockDeliveryUoWFactory struct{ mock.Mock }

func (m *MockDeliveryUoWFactory) Create() commands.DeliveryUoW {
	args := m.Called()
	return args.Get(0).(commands.DeliveryUoW)
}

type MockProviderGateway struct{ mock.Mock }

func (m *MockProviderGateway) Provider(name delivery.Provider) (ports.ShippingProvider, error) {
	args := m.Called(name)
	p, _ := args.Get(0).(ports.ShippingProvider)
	return p, args.Error(1)
}

func (m *MockProviderGateway) Providers() []ports.ShippingProvider {
	args := m.Called()
	return args.Get(0).([]ports.ShippingProvider)
}

type MockShippingProvider struct {
	mock.Mock
	name   delivery.Provider
	poller ports.StatusPoller
}

func (m *MockShippingProvider) Name() delivery.Provider {
	return m.name
}

func (m *MockShippingProvider) GenerateLabel(ctx context.Context, orderID string) (ports.Label, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(ports.Label), args.Error(1)
}

func (m *MockShippingProvider) StatusPoller() (ports.StatusPoller, bool) {
	return m.poller, m.poller != nil
}

type MockStatusPoller struct{ mock.Mock }

func (m *MockStatusPoller) GetStatus(ctx context.Context, trackingID string) (delivery.Status, error) {
	args := m.Called(ctx, trackingID)
	return args.Get(0).(delivery.Status), args.Error(1)
}

var (
	baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tickTime = baseTime.Add(3 * time.Hour)
)

func restoreDelivery(t *testing.T, provider delivery.Provider, trackingID string, status delivery.Status) *delivery.Delivery {
	t.Helper()

	d, err := delivery.RestoreDelivery(kernel.NewUUID(), "order-"+trackingID, provider, trackingID,
		"https://labels.example/"+trackingID+".pdf", status, baseTime.Add(24*time.Hour), baseTime, baseTime)
	require.NoError(t, err)
	return d
}
