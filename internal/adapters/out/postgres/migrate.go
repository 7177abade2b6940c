package postgres

import (
	"shipping/internal/adapters/out/postgres/deliveryrepo"

	"gorm.io/gorm"
)

// Migrate creates or updates the deliveries table and its indexes.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&deliveryrepo.DeliveryDTO{})
}
