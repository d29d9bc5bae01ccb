package custom_errors

import (
	"context"
	"errors"
)

var (
	// ErrConfiguration marks a missing or contradictory setting. Always fatal.
	ErrConfiguration = errors.New("configuration error")

	// ErrNoIdentity is returned when a mode that must produce an identity cannot.
	ErrNoIdentity = errors.New("no identity available")

	ErrNotFound = errors.New("not found")

	// ErrDuplicateRecord is returned by a conditional create when the (identity, event time) key exists.
	ErrDuplicateRecord = errors.New("job record already exists")

	ErrMalformedInput = errors.New("malformed input")

	// ErrExternal wraps network, timeout and permission failures of collaborators.
	ErrExternal = errors.New("external service failure")

	// ErrNotWaiting is returned when the workflow engine rejects a resume signal
	// because the instance is no longer waiting for it.
	ErrNotWaiting = errors.New("workflow instance is not waiting")

	ErrMissingToken = errors.New("job record has no continuation token")

	// ErrInvalidTransition is returned when a status update does not follow the job lifecycle.
	ErrInvalidTransition = errors.New("invalid job status transition")
)

// IsRetryable reports whether redelivering the same input may succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrConfiguration),
		errors.Is(err, ErrMalformedInput),
		errors.Is(err, ErrNotWaiting),
		errors.Is(err, ErrMissingToken),
		errors.Is(err, ErrDuplicateRecord),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrNoIdentity):
		return false
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrExternal):
		return true
	}
	return true
}
