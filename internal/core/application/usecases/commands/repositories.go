// Package commands contains the write operations of the shipping service.
// Every handler follows the same shape: validate the command, open a unit
// of work, mutate through the repository, commit.
package commands

import (
	"context"

	"shipping/internal/core/ports"
)

type (
	// TxManager handles the transaction lifecycle of a unit of work.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// DeliveryRepoFactory exposes the delivery repository bound to the
	// current transaction.
	DeliveryRepoFactory interface {
		DeliveryRepository() ports.DeliveryRepository
	}

	// DeliveryUoW manages transactions for delivery operations.
	//
	//   uow := factory.Create()
	//   if err := uow.Begin(ctx); err != nil { ... }
	//   defer uow.Rollback(ctx)
	//
	//   repo := uow.DeliveryRepository()
	//   // ... perform operations
	//
	//   err = uow.Commit(ctx)
	DeliveryUoW interface {
		TxManager
		DeliveryRepoFactory
	}

	// DeliveryUoWFactory creates a unit of work per command.
	DeliveryUoWFactory interface {
		Create() DeliveryUoW
	}
)
