package commands

import (
	"errors"

	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/pkg/guard"
)

var ErrReconcileProviderCommandIsNotConstructed = errors.New(
	"ReconcileProviderCommand must be created via NewReconcileProviderCommand constructor",
)

// ReconcileProviderCommand triggers one polling pass over every delivery of
// a carrier.
type ReconcileProviderCommand struct { //nolint:recvcheck //using for validation
	provider delivery.Provider

	guard guard.ConstructorGuard
}

func NewReconcileProviderCommand(provider delivery.Provider) (ReconcileProviderCommand, error) {
	if err := provider.Validate(); err != nil {
		return ReconcileProviderCommand{}, err
	}

	return ReconcileProviderCommand{
		provider: provider,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c ReconcileProviderCommand) Validate() error {
	return c.guard.Validate(ErrReconcileProviderCommandIsNotConstructed)
}

func (c ReconcileProviderCommand) Provider() delivery.Provider {
	return c.provider
}
