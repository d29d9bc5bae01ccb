package custom_errors

import (
	"errors"
	"fmt"
	"strings"
)

// RecordError is the failure of a single record inside a delivered batch.
type RecordError struct {
	Index int
	Key   string
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d (%s): %v", e.Index, e.Key, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// BatchError aggregates the per-record failures of one batch.
type BatchError struct {
	Failures []*RecordError
}

func (b *BatchError) Add(index int, key string, err error) {
	b.Failures = append(b.Failures, &RecordError{Index: index, Key: key, Err: err})
}

func (b *BatchError) HasError() bool {
	return len(b.Failures) > 0
}

// ErrorOrNil returns nil when no record failed so callers can return it directly.
func (b *BatchError) ErrorOrNil() error {
	if b == nil || !b.HasError() {
		return nil
	}
	return b
}

func (b *BatchError) Error() string {
	parts := make([]string, 0, len(b.Failures))
	for _, f := range b.Failures {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("%d record(s) failed: %s", len(b.Failures), strings.Join(parts, "; "))
}

func (b *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(b.Failures))
	for _, f := range b.Failures {
		errs = append(errs, f)
	}
	return errs
}

// Retryable reports whether any failed record could succeed on redelivery.
func (b *BatchError) Retryable() bool {
	for _, f := range b.Failures {
		if IsRetryable(f.Err) {
			return true
		}
	}
	return false
}

// IsBatchRetryable classifies the error returned by a batch handler.
func IsBatchRetryable(err error) bool {
	var batch *BatchError
	if errors.As(err, &batch) {
		return batch.Retryable()
	}
	return IsRetryable(err)
}
