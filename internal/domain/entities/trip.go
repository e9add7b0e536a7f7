package entities

import (
	"fmt"
	"time"
)

// TripStatus represents the current lifecycle state of a trip.
//
// Go Learning Note — State Machines in Go:
// This file implements a finite state machine (FSM) using a map of valid
// transitions. The trip lifecycle is:
//
//	PENDING → ONGOING → COMPLETED
//	   ↘         ↘
//	    CANCELLED ← (from PENDING or ONGOING)
//
// PENDING is only ever set by the dispatcher when the trip is created.
type TripStatus string

const (
	TripStatusPending   TripStatus = "PENDING"
	TripStatusOngoing   TripStatus = "ONGOING"
	TripStatusCompleted TripStatus = "COMPLETED"
	TripStatusCancelled TripStatus = "CANCELLED"
)

// ActiveTripStatuses is the set counted as a driver's current load. Fare and
// dispatch both read it from here so the two can never disagree.
var ActiveTripStatuses = []TripStatus{TripStatusPending, TripStatusOngoing}

// validTransitions defines which status changes are allowed from each state.
// Terminal states (Completed, Cancelled) have empty slices.
var validTransitions = map[TripStatus][]TripStatus{
	TripStatusPending:   {TripStatusOngoing, TripStatusCancelled},
	TripStatusOngoing:   {TripStatusCompleted, TripStatusCancelled},
	TripStatusCompleted: {},
	TripStatusCancelled: {},
}

// ParseTripStatus maps an API string to a known TripStatus.
func ParseTripStatus(s string) (TripStatus, bool) {
	st := TripStatus(s)
	_, ok := validTransitions[st]
	return st, ok
}

// IsActive reports whether the status counts toward a driver's load.
func (s TripStatus) IsActive() bool {
	for _, a := range ActiveTripStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves this status.
func (s TripStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// Trip is the central domain entity. A trip is always created with its driver
// already assigned; both PassengerID and DriverID are immutable afterwards.
type Trip struct {
	ID          string     `json:"id"`
	PassengerID string     `json:"passenger_id"`
	DriverID    string     `json:"driver_id,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Status      TripStatus `json:"status"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTrip creates a Trip in the PENDING state bound to driverID.
func NewTrip(id, passengerID, driverID string, requestedAt time.Time) *Trip {
	return &Trip{
		ID:          id,
		PassengerID: passengerID,
		DriverID:    driverID,
		RequestedAt: requestedAt,
		Status:      TripStatusPending,
		UpdatedAt:   requestedAt,
	}
}

// InvalidTransitionError describes a rejected status change.
type InvalidTransitionError struct {
	From TripStatus
	To   TripStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// CanTransitionTo checks if moving to newStatus is a valid state change.
func (t *Trip) CanTransitionTo(newStatus TripStatus) bool {
	allowed, exists := validTransitions[t.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == newStatus {
			return true
		}
	}
	return false
}

// TransitionTo moves the trip to newStatus at the given instant. It returns an
// *InvalidTransitionError and leaves the trip untouched when the change is not
// allowed.
func (t *Trip) TransitionTo(newStatus TripStatus, at time.Time) error {
	if !t.CanTransitionTo(newStatus) {
		return &InvalidTransitionError{From: t.Status, To: newStatus}
	}
	t.Status = newStatus
	t.UpdatedAt = at

	switch newStatus {
	case TripStatusOngoing:
		t.StartTime = &at
	case TripStatusCompleted:
		t.EndTime = &at
	}
	return nil
}

// Clone returns a deep copy of the trip, including its timestamp pointers.
func (t *Trip) Clone() *Trip {
	cp := *t
	if t.StartTime != nil {
		st := *t.StartTime
		cp.StartTime = &st
	}
	if t.EndTime != nil {
		et := *t.EndTime
		cp.EndTime = &et
	}
	return &cp
}
