package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/RezaEskandarii/scribeflow/internal/constants"
	"github.com/RezaEskandarii/scribeflow/internal/event"
	"github.com/RezaEskandarii/scribeflow/internal/identity"
	"github.com/RezaEskandarii/scribeflow/internal/objectstore"
	"github.com/RezaEskandarii/scribeflow/internal/store"
	"github.com/RezaEskandarii/scribeflow/internal/workflow"
	"github.com/RezaEskandarii/scribeflow/types"
	"go.uber.org/zap"
)

// Handler turns completed uploads into job records and workflow instances.
type Handler struct {
	store    store.JobRecordStore
	engine   workflow.Engine
	objects  objectstore.ObjectStore
	resolver identity.Resolver

	resultPrefix string
	timeout      time.Duration
	newJobID     func() string
	logger       *zap.Logger
}

type Option func(*Handler)

func WithResultPrefix(prefix string) Option {
	return func(h *Handler) { h.resultPrefix = prefix }
}

// WithRequestTimeout bounds each call to the store, object storage and workflow engine.
func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

func WithJobIDGenerator(fn func() string) Option {
	return func(h *Handler) { h.newJobID = fn }
}

func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

func NewHandler(s store.JobRecordStore, engine workflow.Engine, objects objectstore.ObjectStore, resolver identity.Resolver, opts ...Option) *Handler {
	h := &Handler{
		store:        s,
		engine:       engine,
		objects:      objects,
		resolver:     resolver,
		resultPrefix: constants.DefaultResultPrefix,
		timeout:      10 * time.Second,
		newJobID:     NewJobID,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes one notification batch in delivery order. Events other
// than completed uploads are skipped without side effects. The first failing
// event stops the batch and is returned as a custom_errors.BatchError so the
// platform redelivers it; records already written stay in place.
func (h *Handler) Handle(ctx context.Context, events []event.ObjectCreated) ([]types.StartedJob, error) {
	started := make([]types.StartedJob, 0, len(events))
	for i, ev := range events {
		if ev.Err == nil && !ev.IsCompletedUpload() {
			h.logger.Debug("skipping event", zap.String("event_name", ev.Name), zap.String("key", ev.Key))
			continue
		}
		job, err := h.handleEvent(ctx, ev)
		if err != nil {
			h.logger.Error("failed to handle upload", zap.String("bucket", ev.Bucket), zap.String("key", ev.Key), zap.Error(err))
			batchErr := &custom_errors.BatchError{}
			batchErr.Add(i, ev.Key, err)
			return started, batchErr
		}
		started = append(started, job)
	}
	return started, nil
}

func (h *Handler) handleEvent(ctx context.Context, ev event.ObjectCreated) (types.StartedJob, error) {
	if ev.Err != nil {
		return types.StartedJob{}, ev.Err
	}
	user, err := h.resolveIdentity(ctx, ev)
	if err != nil {
		return types.StartedJob{}, err
	}

	jobID := h.newJobID()
	payload := types.JobPayload{
		User:         user,
		JobID:        jobID,
		EventTime:    ev.EventTime,
		MediaFileURI: ev.URI(),
		OutputKey:    OutputKey(h.resultPrefix, user, jobID),
		Size:         ev.Size,
	}

	h.logger.Info("Handling Object Event",
		zap.String("user", user),
		zap.String("job_id", jobID),
		zap.String("media_file_uri", payload.MediaFileURI))
	h.logger.Debug("job payload", zap.Any("payload", payload))

	payload, err = h.persist(ctx, payload)
	if err != nil {
		return types.StartedJob{}, err
	}

	var arn string
	err = h.call(ctx, func(ctx context.Context) error {
		var err error
		arn, err = h.engine.Start(ctx, workflow.ExecutionName(payload.User, payload.EventTime, payload.JobID), payload)
		return err
	})
	if err != nil {
		// The record stays without a continuation token and is reported by the orphan sweep.
		return types.StartedJob{}, fmt.Errorf("start workflow for job %s: %w", payload.JobID, err)
	}

	h.logger.Info("workflow started", zap.String("job_id", payload.JobID), zap.String("execution_arn", arn))
	return types.StartedJob{ExecutionARN: arn, JobPayload: payload}, nil
}

func (h *Handler) resolveIdentity(ctx context.Context, ev event.ObjectCreated) (string, error) {
	var src identity.Source
	if h.resolver.NeedsMetadata() {
		err := h.call(ctx, func(ctx context.Context) error {
			var err error
			src.Metadata, err = h.objects.Metadata(ctx, ev.Bucket, ev.Key)
			return err
		})
		if err != nil {
			return "", fmt.Errorf("read metadata of %s: %w", ev.URI(), err)
		}
		h.logger.Debug("object metadata", zap.String("bucket", ev.Bucket), zap.String("key", ev.Key), zap.Any("metadata", src.Metadata))
	}

	var user string
	err := h.call(ctx, func(ctx context.Context) error {
		var err error
		user, err = h.resolver.Resolve(ctx, src)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("resolve identity of %s: %w", ev.URI(), err)
	}
	if err := ValidateIdentity(user); err != nil {
		return "", fmt.Errorf("resolve identity of %s: %w", ev.URI(), err)
	}
	return user, nil
}

// ValidateIdentity rejects identities that cannot be recovered from the
// output key, which holds the identity as a single path segment.
func ValidateIdentity(user string) error {
	if user == "" || strings.Contains(user, "/") {
		return fmt.Errorf("identity %q is not a single key segment: %w", user, custom_errors.ErrMalformedInput)
	}
	return nil
}

// persist writes the SUBMITTED record. A redelivered event finds its own
// record already stored and continues with that record's payload.
func (h *Handler) persist(ctx context.Context, payload types.JobPayload) (types.JobPayload, error) {
	err := h.call(ctx, func(ctx context.Context) error {
		return h.store.Create(ctx, payload.User, payload.Record())
	})
	if err == nil {
		return payload, nil
	}
	if !errors.Is(err, custom_errors.ErrDuplicateRecord) {
		return payload, fmt.Errorf("create job record: %w", err)
	}

	var existing *types.JobRecord
	err = h.call(ctx, func(ctx context.Context) error {
		var err error
		existing, err = h.store.Get(ctx, payload.User, payload.EventTime)
		return err
	})
	if err != nil {
		return payload, fmt.Errorf("read existing job record: %w", err)
	}
	if existing.MediaFileURI != payload.MediaFileURI {
		return payload, fmt.Errorf("event time %s already used by %s: %w",
			payload.EventTime, existing.MediaFileURI, custom_errors.ErrDuplicateRecord)
	}

	h.logger.Info("redelivered upload event, reusing job",
		zap.String("user", existing.Identity), zap.String("job_id", existing.JobID))
	return existing.Payload(), nil
}

func (h *Handler) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return fn(ctx)
}

// OutputKey is the deterministic locator the workflow writes the result to.
func OutputKey(prefix, user, jobID string) string {
	return fmt.Sprintf("%s/%s/%s.json", prefix, user, jobID)
}
