package services

import (
	"errors"
	"fmt"

	"rides/internal/repository"
)

// Error kinds. Every error a service returns matches exactly one of these
// through errors.Is.
var (
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrNoDriversAvailable = errors.New("no drivers available")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrTransient          = errors.New("temporarily unavailable")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("conflict")
)

// Error carries the kind together with the entity and identifier it concerns.
// Err is the underlying cause (a store error, a context error) and is kept for
// logging only; callers branch on Kind.
//
// Go Learning Note — Multi-error Unwrap:
// Since Go 1.20 an error may implement Unwrap() []error. errors.Is and
// errors.As walk every branch, so errors.Is(err, ErrTransient) and
// errors.Is(err, context.DeadlineExceeded) can both hold for the same value.
type Error struct {
	Kind   error
	Entity string
	ID     string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Entity != "" {
		msg = e.Entity + " " + msg
		if e.ID != "" {
			msg = fmt.Sprintf("%s (%s)", msg, e.ID)
		}
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, entity, id string, cause error) *Error {
	return &Error{Kind: kind, Entity: entity, ID: id, Err: cause}
}

// KindOf returns the kind sentinel of err, or ErrTransient when err did not
// come from a service.
func KindOf(err error) error {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ErrTransient
}

// storeError translates a repository error. notFound is the repository's
// sentinel for the entity in question; ErrDuplicate becomes Conflict and
// anything else (I/O, cancellation, deadline) is Transient.
func storeError(entity, id string, err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case notFound != nil && errors.Is(err, notFound):
		return newError(ErrNotFound, entity, id, nil)
	case errors.Is(err, repository.ErrDuplicate):
		return newError(ErrConflict, entity, id, err)
	default:
		return newError(ErrTransient, entity, id, err)
	}
}
