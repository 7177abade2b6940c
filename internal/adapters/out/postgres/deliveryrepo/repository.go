package deliveryrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/ports"
	"shipping/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormDeliveryRepository implements ports.DeliveryRepository. Unique
// violations are recognized through gorm.ErrDuplicatedKey, so the *gorm.DB
// must be opened with TranslateError enabled.
type GormDeliveryRepository struct {
	db *gorm.DB
}

// NewGormDeliveryRepository creates a repository over db, which may be a
// transaction.
func NewGormDeliveryRepository(db *gorm.DB) *GormDeliveryRepository {
	return &GormDeliveryRepository{db: db}
}

func (r *GormDeliveryRepository) Add(ctx context.Context, aggregate *delivery.Delivery) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewDuplicateKeyErrorWithCause("delivery", naturalKey(aggregate.Provider(), aggregate.TrackingID()), err)
		}
		return err
	}

	return nil
}

func (r *GormDeliveryRepository) UpdateStatus(ctx context.Context, id kernel.UUID, status delivery.Status, at time.Time) error {
	if err := errors.Join(id.Validate(), status.Validate()); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&DeliveryDTO{}).
		Where("id = ?", id.Bytes()).
		Updates(map[string]any{
			"status":     status.String(),
			"updated_at": at.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("delivery", id.String())
	}

	return nil
}

func (r *GormDeliveryRepository) CompareAndSetStatus(
	ctx context.Context,
	id kernel.UUID,
	expected delivery.Status,
	next delivery.Status,
	at time.Time,
) error {
	if err := errors.Join(id.Validate(), expected.Validate(), next.Validate()); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&DeliveryDTO{}).
		Where("id = ? AND status = ?", id.Bytes(), expected.String()).
		Updates(map[string]any{
			"status":     next.String(),
			"updated_at": at.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&DeliveryDTO{}).Where("id = ?", id.Bytes()).Count(&count).Error; err != nil {
		return err
	}

	if count == 0 {
		return errs.NewObjectNotFoundError("delivery", id.String())
	}

	return fmt.Errorf("%w: expected %s", ports.ErrStatusConflict, expected)
}

func (r *GormDeliveryRepository) Get(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto DeliveryDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("delivery", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormDeliveryRepository) FindByProvider(ctx context.Context, provider delivery.Provider) ([]*delivery.Delivery, error) {
	var dtos []DeliveryDTO
	if err := r.db.WithContext(ctx).
		Where("provider = ?", provider.String()).
		Order("created_at, id").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	deliveries := make([]*delivery.Delivery, 0, len(dtos))
	for _, dto := range dtos {
		d, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}

	return deliveries, nil
}

func (r *GormDeliveryRepository) FindByProviderAndTrackingID(
	ctx context.Context,
	provider delivery.Provider,
	trackingID string,
) (*delivery.Delivery, error) {
	var dto DeliveryDTO
	if err := r.db.WithContext(ctx).
		First(&dto, "provider = ? AND tracking_id = ?", provider.String(), trackingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("delivery", naturalKey(provider, trackingID))
		}
		return nil, err
	}

	return toDomain(dto)
}

func naturalKey(provider delivery.Provider, trackingID string) string {
	return provider.String() + "/" + trackingID
}
