package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/RezaEskandarii/scribeflow/internal/constants"
	"github.com/RezaEskandarii/scribeflow/internal/lock"
	"github.com/RezaEskandarii/scribeflow/internal/store"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const defaultBatchSize = 100

// OrphanReporter logs job records whose workflow never reached its wait
// state: still SUBMITTED, no continuation token, older than age. It never
// modifies records.
type OrphanReporter struct {
	store     store.JobRecordStore
	lock      lock.DistributedLockManager
	age       time.Duration
	batchSize int
	now       func() time.Time
	logger    *zap.Logger
}

func NewOrphanReporter(s store.JobRecordStore, lockMgr lock.DistributedLockManager, age time.Duration, logger *zap.Logger) *OrphanReporter {
	return &OrphanReporter{
		store:     s,
		lock:      lockMgr,
		age:       age,
		batchSize: defaultBatchSize,
		now:       time.Now,
		logger:    logger,
	}
}

// Run performs one sweep and returns how many orphans it reported. Only one
// process sweeps at a time; the others return immediately.
func (r *OrphanReporter) Run(ctx context.Context) (int, error) {
	const sweepLock = constants.OrphanSweepLock
	acquired, err := r.lock.TryAcquire(ctx, sweepLock)
	if err != nil {
		return 0, fmt.Errorf("orphan sweep: %w", err)
	}
	if !acquired {
		r.logger.Debug("orphan sweep already running elsewhere")
		return 0, nil
	}
	defer func() {
		if err := r.lock.Release(context.Background(), sweepLock); err != nil {
			r.logger.Warn("failed to release orphan sweep lock", zap.Error(err))
		}
	}()

	now := r.now()
	orphans, err := r.store.ListOrphaned(ctx, now.Add(-r.age), r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("orphan sweep: %w", err)
	}
	for _, o := range orphans {
		r.logger.Warn("orphaned job record",
			zap.String("user", o.Identity),
			zap.String("job_id", o.JobID),
			zap.String("event_time", o.EventTime),
			zap.String("media_file_uri", o.MediaFileURI),
			zap.Duration("age", now.Sub(o.CreatedAt)))
	}
	r.logger.Info("orphan sweep finished", zap.Int("orphans", len(orphans)))
	return len(orphans), nil
}

// Schedule runs a sweep on every tick of the standard cron expression expr
// until ctx is done.
func (r *OrphanReporter) Schedule(ctx context.Context, expr string) error {
	c := cron.New()
	_, err := c.AddFunc(expr, func() {
		if _, err := r.Run(ctx); err != nil {
			r.logger.Error("orphan sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", expr, err)
	}

	c.Start()
	r.logger.Info("orphan sweep scheduled", zap.String("schedule", expr), zap.Duration("age", r.age))
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
