// Package postgres implements the persistence side of the shipping service
// on GORM: the explicitly managed Connection, schema migration and the unit
// of work handed to command handlers.
//
// The dialector is chosen by the caller, so the same code runs against
// PostgreSQL in production and SQLite for local runs:
//
//	conn := postgres.NewConnection(dialector)
//	db, err := conn.Open(ctx)
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
//	factory := postgres.NewGormUnitOfWorkFactory(db)
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer uow.Rollback(ctx)
//
//	if err := uow.DeliveryRepository().Add(ctx, d); err != nil {
//	    return err
//	}
//	return uow.Commit(ctx)
package postgres

import (
	"context"

	"shipping/internal/adapters/out/postgres/deliveryrepo"
	"shipping/internal/core/ports"

	"gorm.io/gorm"
)

// GormUnitOfWorkFactory hands every command a fresh GormUnitOfWork.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{db: f.db}
}

// GormUnitOfWork wraps one GORM transaction. It is not safe for concurrent
// use; each goroutine creates its own.
type GormUnitOfWork struct {
	db *gorm.DB
	tx *gorm.DB
}

// Begin is a no-op when a transaction is already active.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	tx := uow.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	uow.tx = tx
	return nil
}

// Commit returns gorm.ErrInvalidTransaction when no transaction is active.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	return err
}

// Rollback returns gorm.ErrInvalidTransaction when no transaction is active,
// which makes a deferred Rollback after Commit harmless.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	return err
}

// DeliveryRepository runs inside the active transaction, or directly on the
// connection when none is active.
func (uow *GormUnitOfWork) DeliveryRepository() ports.DeliveryRepository {
	db := uow.db
	if uow.tx != nil {
		db = uow.tx
	}
	return deliveryrepo.NewGormDeliveryRepository(db)
}
