package lock

import "context"

// DistributedLockManager serialises work across every process sharing a database.
type DistributedLockManager interface {
	Acquire(ctx context.Context, lockID int) error
	// TryAcquire takes the lock only if it is free and reports whether it did.
	TryAcquire(ctx context.Context, lockID int) (bool, error)
	Release(ctx context.Context, lockID int) error
}
