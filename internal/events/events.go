// Package events carries trip lifecycle notifications out of the service.
// Publishing is best effort: a failed publish is logged and counted but never
// undoes the state change that produced it.
package events

import (
	"context"
	"time"

	"rides/internal/domain/entities"
)

// Event types.
const (
	TypeTripRequested = "trip.requested"
	TypeTripOngoing   = "trip.ongoing"
	TypeTripCompleted = "trip.completed"
	TypeTripCancelled = "trip.cancelled"
)

// TripEvent is the wire form written to the event stream.
type TripEvent struct {
	Type        string              `json:"type"`
	TripID      string              `json:"trip_id"`
	PassengerID string              `json:"passenger_id"`
	DriverID    string              `json:"driver_id"`
	From        entities.TripStatus `json:"from,omitempty"`
	To          entities.TripStatus `json:"to"`
	OccurredAt  time.Time           `json:"occurred_at"`
}

// Publisher delivers trip events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event TripEvent) error
	Close() error
}

// Requested builds the event for a freshly dispatched trip.
func Requested(trip *entities.Trip) TripEvent {
	return TripEvent{
		Type:        TypeTripRequested,
		TripID:      trip.ID,
		PassengerID: trip.PassengerID,
		DriverID:    trip.DriverID,
		To:          trip.Status,
		OccurredAt:  trip.RequestedAt,
	}
}

// Transitioned builds the event for a committed status change.
func Transitioned(trip *entities.Trip, from entities.TripStatus) TripEvent {
	return TripEvent{
		Type:        typeFor(trip.Status),
		TripID:      trip.ID,
		PassengerID: trip.PassengerID,
		DriverID:    trip.DriverID,
		From:        from,
		To:          trip.Status,
		OccurredAt:  trip.UpdatedAt,
	}
}

func typeFor(status entities.TripStatus) string {
	switch status {
	case entities.TripStatusOngoing:
		return TypeTripOngoing
	case entities.TripStatusCompleted:
		return TypeTripCompleted
	case entities.TripStatusCancelled:
		return TypeTripCancelled
	default:
		return TypeTripRequested
	}
}
