package completion

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/RezaEskandarii/scribeflow/internal/constants"
	"github.com/RezaEskandarii/scribeflow/internal/event"
	"github.com/RezaEskandarii/scribeflow/internal/store"
	"github.com/RezaEskandarii/scribeflow/internal/workflow"
	"github.com/RezaEskandarii/scribeflow/types"
	"go.uber.org/zap"
)

// Summary counts what happened to the records of one batch.
type Summary struct {
	Resumed  int `json:"resumed"`
	NotFound int `json:"not_found"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Handler resumes the workflow instance waiting for each newly written result.
type Handler struct {
	store  store.JobRecordStore
	engine workflow.Engine

	resultPrefix string
	timeout      time.Duration
	logger       *zap.Logger
}

type Option func(*Handler)

func WithResultPrefix(prefix string) Option {
	return func(h *Handler) { h.resultPrefix = prefix }
}

func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

func NewHandler(s store.JobRecordStore, engine workflow.Engine, opts ...Option) *Handler {
	h := &Handler{
		store:        s,
		engine:       engine,
		resultPrefix: constants.DefaultResultPrefix,
		timeout:      10 * time.Second,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes every record of the batch. A failing record does not stop
// the others; all failures are returned together as a custom_errors.BatchError.
// A result with no matching job record is logged and counted, not failed.
func (h *Handler) Handle(ctx context.Context, events []event.ObjectCreated) (Summary, error) {
	var summary Summary
	batchErr := &custom_errors.BatchError{}

	for i, ev := range events {
		if ev.Err == nil && !ev.IsCompletedUpload() {
			summary.Skipped++
			continue
		}
		err := h.handleEvent(ctx, ev)
		switch {
		case err == nil:
			summary.Resumed++
		case errors.Is(err, custom_errors.ErrNotFound):
			summary.NotFound++
			h.logger.Warn("no job record for result", zap.String("bucket", ev.Bucket), zap.String("key", ev.Key), zap.Error(err))
		default:
			summary.Failed++
			h.logger.Error("failed to resume workflow", zap.String("bucket", ev.Bucket), zap.String("key", ev.Key), zap.Error(err))
			batchErr.Add(i, ev.Key, err)
		}
	}
	return summary, batchErr.ErrorOrNil()
}

func (h *Handler) handleEvent(ctx context.Context, ev event.ObjectCreated) error {
	if ev.Err != nil {
		return ev.Err
	}
	user, jobID, err := ParseResultKey(h.resultPrefix, ev.Key)
	if err != nil {
		return err
	}
	h.logger.Info("handling new file",
		zap.String("bucket", ev.Bucket),
		zap.String("key", ev.Key),
		zap.String("user", user),
		zap.String("job_id", jobID))

	record, err := h.findRecord(ctx, user, jobID)
	if err != nil {
		return err
	}
	h.logger.Debug("task record details", zap.String("user", record.Identity), zap.String("event_time", record.EventTime))

	if !record.HasContinuationToken() {
		return fmt.Errorf("job %s of %s: %w", jobID, user, custom_errors.ErrMissingToken)
	}
	token, err := base64.StdEncoding.DecodeString(*record.TaskToken)
	if err != nil {
		return fmt.Errorf("decode continuation token of job %s: %w: %w", jobID, custom_errors.ErrMalformedInput, err)
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	output := types.ResumeOutput{User: record.Identity, EventTime: record.EventTime}
	if err := h.engine.Resume(ctx, string(token), output); err != nil {
		return fmt.Errorf("resume job %s of %s: %w", jobID, user, err)
	}
	return nil
}

func (h *Handler) findRecord(ctx context.Context, user, jobID string) (*types.JobRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.store.FindByJobID(ctx, user, jobID)
}
