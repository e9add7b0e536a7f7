// Package entities defines the core domain models for the dispatch service.
// These structs represent the business concepts (User, Vehicle, Trip, Rating)
// and live in the innermost layer of the architecture. They have no
// dependencies on databases, HTTP, or external services.
//
// Go Learning Note — "internal/" directory:
// Packages under internal/ cannot be imported by code outside this module. Go
// enforces this at the compiler level, which keeps the domain model private to
// this service.
package entities

import "time"

// User is an account that can act as a passenger, a driver, or both. The role
// flags are not mutually exclusive.
//
// IsAvailable only means something for drivers. It is flipped by the explicit
// availability toggle and never as a side effect of dispatch: availability and
// current load are independent signals.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	IsDriver    bool      `json:"is_driver"`
	IsPassenger bool      `json:"is_passenger"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewUser creates a User with the given roles. Drivers start unavailable and
// must toggle themselves on before they can be dispatched.
//
// Go Learning Note — Pointer vs Value Receivers:
// NewUser returns *User (a pointer). Repositories hand out copies of the
// stored value, so callers may mutate what they get back without touching the
// store until they call Update.
func NewUser(id, username, email string, isDriver, isPassenger bool) *User {
	now := time.Now()
	return &User{
		ID:          id,
		Username:    username,
		Email:       email,
		IsDriver:    isDriver,
		IsPassenger: isPassenger,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsEligibleDriver reports whether the user may be picked by the dispatcher.
func (u *User) IsEligibleDriver() bool {
	return u.IsDriver && u.IsAvailable
}

// SetAvailability updates the availability flag and records the change timestamp.
func (u *User) SetAvailability(available bool) {
	u.IsAvailable = available
	u.UpdatedAt = time.Now()
}

// Clone returns a copy that shares no state with u.
func (u *User) Clone() *User {
	cp := *u
	return &cp
}
