package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/RezaEskandarii/scribeflow/internal/state"
	"github.com/RezaEskandarii/scribeflow/internal/store"
	"go.uber.org/zap"
)

// StatusRequest is sent by the workflow's task states as the job moves
// through transcription.
type StatusRequest struct {
	User      string          `json:"user"`
	EventTime string          `json:"event_time"`
	Status    state.JobStatus `json:"status"`
}

// StatusRecorder writes IN_PROGRESS, COMPLETE and FAILED. Intake writes SUBMITTED.
type StatusRecorder struct {
	store   store.JobRecordStore
	timeout time.Duration
	logger  *zap.Logger
}

func NewStatusRecorder(s store.JobRecordStore, timeout time.Duration, logger *zap.Logger) *StatusRecorder {
	return &StatusRecorder{store: s, timeout: timeout, logger: logger}
}

func (r *StatusRecorder) Record(ctx context.Context, req StatusRequest) error {
	if req.User == "" || req.EventTime == "" {
		return fmt.Errorf("status request needs user and event_time: %w", custom_errors.ErrMalformedInput)
	}
	if !req.Status.IsValid() || req.Status == state.StatusSubmitted {
		return fmt.Errorf("status request: unsupported status %q: %w", req.Status, custom_errors.ErrMalformedInput)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.store.UpdateStatus(ctx, req.User, req.EventTime, req.Status); err != nil {
		return fmt.Errorf("record job status: %w", err)
	}
	r.logger.Info("job status recorded",
		zap.String("user", req.User),
		zap.String("event_time", req.EventTime),
		zap.Stringer("status", req.Status),
	)
	return nil
}
