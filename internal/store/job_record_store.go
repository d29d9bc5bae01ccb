package store

import (
	"context"
	"time"

	"github.com/RezaEskandarii/scribeflow/internal/state"
	"github.com/RezaEskandarii/scribeflow/types"
)

// JobRecordStore is the typed access layer over the job record table. Every
// read is scoped to one identity's partition except ListOrphaned, which is an
// operator report.
type JobRecordStore interface {
	// Create writes a new record under identity. It never overwrites: an existing
	// (identity, event time) pair yields custom_errors.ErrDuplicateRecord.
	Create(ctx context.Context, identity string, record types.JobRecord) error

	// FindByJobID returns the newest record of identity whose job id matches,
	// or custom_errors.ErrNotFound.
	FindByJobID(ctx context.Context, identity, jobID string) (*types.JobRecord, error)

	// Get reads the record stored under the exact (identity, event time) key.
	Get(ctx context.Context, identity, eventTime string) (*types.JobRecord, error)

	// ListRecent returns up to limit records of identity, newest first.
	ListRecent(ctx context.Context, identity string, limit int) ([]types.JobRecord, error)

	// AttachContinuationToken stores the base64 continuation token emitted by the
	// workflow's wait state. Only the wait-state callback calls it.
	AttachContinuationToken(ctx context.Context, identity, eventTime, token string) error

	// UpdateStatus moves the record to status when its current status may
	// precede it. A disallowed move yields custom_errors.ErrInvalidTransition.
	UpdateStatus(ctx context.Context, identity, eventTime string, status state.JobStatus) error

	// ListOrphaned returns SUBMITTED records without a continuation token created before olderThan.
	ListOrphaned(ctx context.Context, olderThan time.Time, limit int) ([]types.JobRecord, error)

	// Close closes the database
	Close() error
}
