package ticketeta

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrBackendUnavailable marks a retrieval backend that could not answer.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrQuery marks a query the backend rejected.
	ErrQuery = errors.New("query rejected")
	// ErrSystem marks a cache or ID allocation failure.
	ErrSystem = errors.New("system error")
	// ErrNotification marks a notification composer failure.
	ErrNotification = errors.New("notification failed")
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationKind classifies a rejected submission.
type ValidationKind string

const (
	ValidationEmpty    ValidationKind = "empty"
	ValidationTooShort ValidationKind = "too_short"
)

// ValidationError is returned when a submission is malformed. It is the only
// error Estimate surfaces besides context cancellation.
type ValidationError struct {
	Kind    ValidationKind
	Length  int
	Minimum int
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ValidationEmpty:
		return "description is empty"
	case ValidationTooShort:
		return fmt.Sprintf("description too short: %d characters, need at least %d", e.Length, e.Minimum)
	default:
		return "invalid description"
	}
}

// BackendError reports a failed search on a named backend. Kind is one of
// ErrBackendUnavailable or ErrQuery.
type BackendError struct {
	Backend string
	Kind    error
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Backend, e.Kind, e.Err)
}

func (e *BackendError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// unavailable wraps err as an ErrBackendUnavailable for backend.
func unavailable(backend string, err error) error {
	return &BackendError{Backend: backend, Kind: ErrBackendUnavailable, Err: err}
}

// classify maps a raw backend error onto the taxonomy. Anything not already
// classified, timeouts included, counts as unavailability.
func classify(backend string, err error) error {
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	return unavailable(backend, err)
}

// timedOut reports whether err came from an expired per-call deadline.
func timedOut(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
