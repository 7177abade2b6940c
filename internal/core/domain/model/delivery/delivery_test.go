package delivery_test

import (
	"testing"
	"time"

	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var createdAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestDelivery(t *testing.T) *delivery.Delivery {
	t.Helper()

	d, err := delivery.NewDelivery(
		kernel.NewUUID(),
		"order-1",
		delivery.NRW,
		"NRW1748779200000123",
		"https://api.nrw-logistics.com/v2/labels/lbl_nrw1748779200000123_1748779200000.pdf",
		createdAt,
		createdAt.Add(36*time.Hour),
	)
	require.NoError(t, err)
	return d
}

func TestNewDelivery(t *testing.T) {
	t.Run("starts in created status", func(t *testing.T) {
		d := newTestDelivery(t)

		require.NoError(t, d.Validate())
		assert.Equal(t, delivery.Created, d.Status())
		assert.Equal(t, "order-1", d.OrderID())
		assert.Equal(t, delivery.NRW, d.Provider())
		assert.Equal(t, createdAt, d.CreatedAt())
		assert.Equal(t, createdAt, d.UpdatedAt())
		assert.True(t, d.EstimatedDelivery().After(d.CreatedAt()))
	})

	t.Run("rejects missing identity fields", func(t *testing.T) {
		_, err := delivery.NewDelivery(kernel.UUID{}, "", delivery.Provider("UPS"), "", "", createdAt, createdAt.Add(time.Hour))

		require.Error(t, err)
		assert.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Contains(t, err.Error(), "orderID")
		assert.Contains(t, err.Error(), "trackingID")
		assert.Contains(t, err.Error(), "labelURL")
	})

	t.Run("rejects an estimate not after creation", func(t *testing.T) {
		for _, estimate := range []time.Time{createdAt, createdAt.Add(-time.Minute)} {
			_, err := delivery.NewDelivery(kernel.NewUUID(), "o", delivery.TLS, "TLS1", "https://l", createdAt, estimate)

			require.ErrorIs(t, err, errs.ErrValueIsInvalid)
			assert.Contains(t, err.Error(), "estimatedDelivery")
		}
	})
}

func TestRestoreDelivery(t *testing.T) {
	id := kernel.NewUUID()
	updatedAt := createdAt.Add(2 * time.Hour)

	d, err := delivery.RestoreDelivery(id, "order-9", delivery.TLS, "TLS9", "https://l/9.pdf",
		delivery.InTransit, createdAt.Add(10*time.Hour), createdAt, updatedAt)

	require.NoError(t, err)
	assert.True(t, id.IsEqual(d.ID()))
	assert.Equal(t, delivery.InTransit, d.Status())
	assert.Equal(t, updatedAt, d.UpdatedAt())

	_, err = delivery.RestoreDelivery(id, "order-9", delivery.TLS, "TLS9", "https://l/9.pdf",
		delivery.Unknown, createdAt, createdAt, updatedAt)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestDelivery_Validate(t *testing.T) {
	var zero delivery.Delivery
	var nilDelivery *delivery.Delivery

	assert.Equal(t, delivery.ErrDeliveryIsNotConstructed, zero.Validate())
	assert.Equal(t, delivery.ErrDeliveryIsNotConstructed, nilDelivery.Validate())
}

func TestDelivery_ChangeStatus(t *testing.T) {
	t.Run("accepts a legal transition and refreshes updatedAt", func(t *testing.T) {
		d := newTestDelivery(t)
		at := createdAt.Add(time.Hour)

		require.NoError(t, d.ChangeStatus(delivery.InTransit, at))

		assert.Equal(t, delivery.InTransit, d.Status())
		assert.Equal(t, at, d.UpdatedAt())
	})

	t.Run("rejects skipping a stage", func(t *testing.T) {
		d := newTestDelivery(t)

		err := d.ChangeStatus(delivery.Delivered, createdAt.Add(time.Hour))

		var transitionErr *delivery.InvalidTransitionError
		require.ErrorAs(t, err, &transitionErr)
		assert.Equal(t, delivery.Created, transitionErr.Current)
		assert.Equal(t, delivery.Delivered, transitionErr.Attempted)
		assert.Equal(t, "invalid status transition: CREATED -> DELIVERED", err.Error())
		assert.Equal(t, delivery.Created, d.Status())
		assert.Equal(t, createdAt, d.UpdatedAt())
	})

	t.Run("terminal statuses are absorbing", func(t *testing.T) {
		d := newTestDelivery(t)
		require.NoError(t, d.ChangeStatus(delivery.Failed, createdAt.Add(time.Hour)))

		for _, next := range delivery.Statuses() {
			require.ErrorIs(t, d.ChangeStatus(next, createdAt.Add(2*time.Hour)), delivery.ErrInvalidTransition)
		}
		assert.Equal(t, delivery.Failed, d.Status())
	})

	t.Run("rejects invalid target status", func(t *testing.T) {
		d := newTestDelivery(t)

		require.ErrorIs(t, d.ChangeStatus(delivery.Unknown, createdAt), errs.ErrValueIsInvalid)
	})
}
