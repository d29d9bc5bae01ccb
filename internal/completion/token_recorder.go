package completion

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/RezaEskandarii/scribeflow/internal/store"
	"go.uber.org/zap"
)

// WaitRequest is the input of the workflow's wait state: it passes the raw
// task token issued for the job record identified by (User, EventTime).
type WaitRequest struct {
	User      string `json:"user"`
	EventTime string `json:"event_time"`
	TaskToken string `json:"task_token"`
}

// TokenRecorder stores the continuation token of a job that entered its wait
// state. It is the only writer of continuation tokens.
type TokenRecorder struct {
	store   store.JobRecordStore
	timeout time.Duration
	logger  *zap.Logger
}

func NewTokenRecorder(s store.JobRecordStore, timeout time.Duration, logger *zap.Logger) *TokenRecorder {
	return &TokenRecorder{store: s, timeout: timeout, logger: logger}
}

func (r *TokenRecorder) Record(ctx context.Context, req WaitRequest) error {
	if req.User == "" || req.EventTime == "" || req.TaskToken == "" {
		return fmt.Errorf("wait request needs user, event_time and task_token: %w", custom_errors.ErrMalformedInput)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	encoded := base64.StdEncoding.EncodeToString([]byte(req.TaskToken))
	if err := r.store.AttachContinuationToken(ctx, req.User, req.EventTime, encoded); err != nil {
		return fmt.Errorf("record continuation token: %w", err)
	}
	r.logger.Info("continuation token recorded", zap.String("user", req.User), zap.String("event_time", req.EventTime))
	return nil
}
