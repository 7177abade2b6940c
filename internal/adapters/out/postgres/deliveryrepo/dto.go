// Package deliveryrepo persists Delivery aggregates with GORM.
package deliveryrepo

import (
	"time"

	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// DeliveryDTO maps a delivery onto the deliveries table. (provider,
// tracking_id) is unique; provider and status are indexed for the polling
// scan.
type DeliveryDTO struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID           string    `gorm:"type:varchar(128);not null;index"`
	Provider          string    `gorm:"type:varchar(16);not null;index;uniqueIndex:idx_deliveries_provider_tracking,priority:1"`
	TrackingID        string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_deliveries_provider_tracking,priority:2"`
	LabelURL          string    `gorm:"type:text;not null"`
	Status            string    `gorm:"type:varchar(16);not null;index"`
	EstimatedDelivery time.Time `gorm:"not null"`
	CreatedAt         time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt         time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (DeliveryDTO) TableName() string {
	return "deliveries"
}

func fromDomain(d *delivery.Delivery) DeliveryDTO {
	return DeliveryDTO{
		ID:                d.ID().Bytes(),
		OrderID:           d.OrderID(),
		Provider:          d.Provider().String(),
		TrackingID:        d.TrackingID(),
		LabelURL:          d.LabelURL(),
		Status:            d.Status().String(),
		EstimatedDelivery: d.EstimatedDelivery().UTC(),
		CreatedAt:         d.CreatedAt().UTC(),
		UpdatedAt:         d.UpdatedAt().UTC(),
	}
}

func toDomain(dto DeliveryDTO) (*delivery.Delivery, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	status, err := delivery.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	return delivery.RestoreDelivery(
		id,
		dto.OrderID,
		delivery.Provider(dto.Provider),
		dto.TrackingID,
		dto.LabelURL,
		status,
		dto.EstimatedDelivery.UTC(),
		dto.CreatedAt.UTC(),
		dto.UpdatedAt.UTC(),
	)
}
