package ports

import (
	"context"
)

// UnitOfWorkFactory creates a fresh UnitOfWork per command.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is a business transaction boundary. Client code drives the
// transaction explicitly.
type UnitOfWork interface {
	Begin(ctx context.Context) error

	// Commit returns an error when no transaction is active.
	Commit(ctx context.Context) error

	// Rollback returns an error when no transaction is active, so it is safe
	// to defer after a successful Commit.
	Rollback(ctx context.Context) error

	// DeliveryRepository is bound to the transaction started by Begin, or to
	// the plain connection before it.
	DeliveryRepository() DeliveryRepository
}
