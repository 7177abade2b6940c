package queries

import (
	"context"
	"time"

	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetDeliveryStatusQueryHandler reads a single delivery row.
type GetDeliveryStatusQueryHandler struct {
	db *gorm.DB
}

func NewGetDeliveryStatusQueryHandler(db *gorm.DB) GetDeliveryStatusQueryHandler {
	return GetDeliveryStatusQueryHandler{db: db}
}

type deliveryStatusRow struct {
	ID                uuid.UUID
	OrderID           string
	Provider          string
	TrackingID        string
	LabelURL          string
	Status            string
	EstimatedDelivery time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Handle returns *errs.ObjectNotFoundError when no delivery has the id.
func (h GetDeliveryStatusQueryHandler) Handle(
	ctx context.Context,
	query GetDeliveryStatusQuery,
) (GetDeliveryStatusQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetDeliveryStatusQueryResponse{}, err
	}

	var row deliveryStatusRow
	result := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			order_id,
			provider,
			tracking_id,
			label_url,
			status,
			estimated_delivery,
			created_at,
			updated_at
		FROM deliveries
		WHERE id = ?
	`, query.DeliveryID().Bytes()).Scan(&row)
	if result.Error != nil {
		return GetDeliveryStatusQueryResponse{}, result.Error
	}

	if result.RowsAffected == 0 {
		return GetDeliveryStatusQueryResponse{}, errs.NewObjectNotFoundError("delivery", query.DeliveryID().String())
	}

	id, err := kernel.UUIDFromBytes(row.ID[:])
	if err != nil {
		return GetDeliveryStatusQueryResponse{}, err
	}

	status, err := delivery.ParseStatus(row.Status)
	if err != nil {
		return GetDeliveryStatusQueryResponse{}, err
	}

	return GetDeliveryStatusQueryResponse{
		ID:                id,
		OrderID:           row.OrderID,
		Provider:          delivery.Provider(row.Provider),
		TrackingID:        row.TrackingID,
		LabelURL:          row.LabelURL,
		Status:            status,
		StatusDescription: status.Description(),
		EstimatedDelivery: row.EstimatedDelivery.UTC(),
		CreatedAt:         row.CreatedAt.UTC(),
		UpdatedAt:         row.UpdatedAt.UTC(),
	}, nil
}
