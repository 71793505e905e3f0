package library

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches every NotFoundError
	ErrNotFound = errors.New("not found")
	// ErrInvariant marks document corruption, such as a missing root or a
	// cyclic folder graph
	ErrInvariant = errors.New("library invariant violated")
	// ErrPrecondition marks a rejected user operation. Nothing was changed.
	ErrPrecondition = errors.New("operation not allowed")
	// ErrSchema marks a library file that cannot be parsed
	ErrSchema = errors.New("invalid library file")
	// ErrIDExhausted is returned when no unused ID could be generated
	ErrIDExhausted = fmt.Errorf("%w: generated IDs already exist", ErrInvariant)
)

// NotFoundError reports a missing track, tracklist or item
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Kind, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) true for every NotFoundError
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func trackNotFound(id string) error {
	return &NotFoundError{Kind: "track", ID: id}
}

func trackListNotFound(id string) error {
	return &NotFoundError{Kind: "tracklist", ID: id}
}

func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

func preconditionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}

// Preconditionf builds an ErrPrecondition error for callers outside the
// package
func Preconditionf(format string, args ...any) error {
	return preconditionf(format, args...)
}
