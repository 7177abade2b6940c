package delivery

import (
	"fmt"
	"strings"

	"shipping/internal/pkg/errs"
)

// Status is the lifecycle state of a delivery.
//
//	Created ──> InTransit ──> Delivered
//	   │            │
//	   └────────────┴──────> Failed
//
// Delivered and Failed are terminal. A status never transitions to itself.
type Status int

const (
	// Unknown (0) catches uninitialized values.
	Unknown Status = iota
	Created
	InTransit
	Delivered
	Failed
)

var statusNames = map[Status]string{
	Created:   "CREATED",
	InTransit: "IN_TRANSIT",
	Delivered: "DELIVERED",
	Failed:    "FAILED",
}

var statusDescriptions = map[Status]string{
	Created:   "Package has been created and is awaiting pickup",
	InTransit: "Package is in transit to destination",
	Delivered: "Package has been successfully delivered",
	Failed:    "Delivery attempt failed",
}

var allowedTransitions = map[Status][]Status{
	Created:   {InTransit, Failed},
	InTransit: {Delivered, Failed},
}

// Statuses lists the valid statuses in lifecycle order.
func Statuses() []Status {
	return []Status{Created, InTransit, Delivered, Failed}
}

// StatusNames lists the wire names of the valid statuses in lifecycle order.
func StatusNames() []string {
	names := make([]string, 0, len(statusNames))
	for _, s := range Statuses() {
		names = append(names, s.String())
	}
	return names
}

// ParseStatus maps a wire name such as "IN_TRANSIT" to a Status.
// Matching is case-insensitive; surrounding whitespace is ignored.
func ParseStatus(s string) (Status, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	for status, name := range statusNames {
		if name == normalized {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

// Validate rejects Unknown and any value outside the lifecycle.
func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the wire name, or "UNKNOWN" for invalid values.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Description returns human-readable text for the status.
func (s Status) Description() string {
	if d, ok := statusDescriptions[s]; ok {
		return d
	}
	return "Unknown status"
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Failed
}

// CanTransitionTo reports whether next is a legal successor of s.
// It is false for self-transitions, for terminal s and for invalid values.
func (s Status) CanTransitionTo(next Status) bool {
	for _, candidate := range allowedTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}
