package mocks

import (
	"context"
	"time"

	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/RezaEskandarii/scribeflow/internal/state"
	"github.com/RezaEskandarii/scribeflow/types"
)

// MockJobRecordStore is a mock implementation of store.JobRecordStore for testing.
type MockJobRecordStore struct {
	CreateFunc                  func(ctx context.Context, identity string, record types.JobRecord) error
	FindByJobIDFunc             func(ctx context.Context, identity, jobID string) (*types.JobRecord, error)
	GetFunc                     func(ctx context.Context, identity, eventTime string) (*types.JobRecord, error)
	ListRecentFunc              func(ctx context.Context, identity string, limit int) ([]types.JobRecord, error)
	AttachContinuationTokenFunc func(ctx context.Context, identity, eventTime, token string) error
	UpdateStatusFunc            func(ctx context.Context, identity, eventTime string, status state.JobStatus) error
	ListOrphanedFunc            func(ctx context.Context, olderThan time.Time, limit int) ([]types.JobRecord, error)
	CloseFunc                   func() error
}

func (m *MockJobRecordStore) Create(ctx context.Context, identity string, record types.JobRecord) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, identity, record)
	}
	return nil
}

func (m *MockJobRecordStore) FindByJobID(ctx context.Context, identity, jobID string) (*types.JobRecord, error) {
	if m.FindByJobIDFunc != nil {
		return m.FindByJobIDFunc(ctx, identity, jobID)
	}
	return nil, custom_errors.ErrNotFound
}

func (m *MockJobRecordStore) Get(ctx context.Context, identity, eventTime string) (*types.JobRecord, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, identity, eventTime)
	}
	return nil, custom_errors.ErrNotFound
}

func (m *MockJobRecordStore) ListRecent(ctx context.Context, identity string, limit int) ([]types.JobRecord, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, identity, limit)
	}
	return []types.JobRecord{}, nil
}

func (m *MockJobRecordStore) AttachContinuationToken(ctx context.Context, identity, eventTime, token string) error {
	if m.AttachContinuationTokenFunc != nil {
		return m.AttachContinuationTokenFunc(ctx, identity, eventTime, token)
	}
	return nil
}

func (m *MockJobRecordStore) UpdateStatus(ctx context.Context, identity, eventTime string, status state.JobStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, identity, eventTime, status)
	}
	return nil
}

func (m *MockJobRecordStore) ListOrphaned(ctx context.Context, olderThan time.Time, limit int) ([]types.JobRecord, error) {
	if m.ListOrphanedFunc != nil {
		return m.ListOrphanedFunc(ctx, olderThan, limit)
	}
	return []types.JobRecord{}, nil
}

func (m *MockJobRecordStore) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
