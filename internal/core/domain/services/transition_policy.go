package services

import "shipping/internal/core/domain/model/delivery"

// TransitionPolicy is the single authority on status changes. Every update
// path (client request, provider webhook, scheduled poll) consults it before
// writing.
type TransitionPolicy struct{}

// NewTransitionPolicy creates the policy backed by the status transition table.
func NewTransitionPolicy() TransitionPolicy {
	return TransitionPolicy{}
}

// IsTransitionAllowed is a total function over the status matrix.
// Self-transitions and transitions out of terminal statuses are rejected.
func (TransitionPolicy) IsTransitionAllowed(current, proposed delivery.Status) bool {
	return current.CanTransitionTo(proposed)
}

// IsUpdateAllowed rejects any change to a terminal delivery before
// consulting the matrix.
func (p TransitionPolicy) IsUpdateAllowed(d *delivery.Delivery, proposed delivery.Status) bool {
	if d == nil || d.Status().IsTerminal() {
		return false
	}
	return p.IsTransitionAllowed(d.Status(), proposed)
}

// Describe returns the human-readable description of a status.
func (TransitionPolicy) Describe(s delivery.Status) string {
	return s.Description()
}
