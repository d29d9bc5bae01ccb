package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/RezaEskandarii/scribeflow/internal/store"
	"github.com/RezaEskandarii/scribeflow/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ store.JobRecordStore = (*FakeJobRecordStore)(nil)
var _ store.JobRecordStore = (*MockJobRecordStore)(nil)

func TestFakeJobRecordStore_FindByJobID_IsolatesIdentities(t *testing.T) {
	s := NewFakeJobRecordStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "alice", types.JobRecord{EventTime: "2024-01-01T00:00:00.000Z", JobID: "abc1234567", MediaFileURI: "s3://m/alice"}))
	require.NoError(t, s.Create(ctx, "bob", types.JobRecord{EventTime: "2024-01-02T00:00:00.000Z", JobID: "abc1234567", MediaFileURI: "s3://m/bob"}))

	r, err := s.FindByJobID(ctx, "alice", "abc1234567")
	require.NoError(t, err)
	assert.Equal(t, "alice", r.Identity)
	assert.Equal(t, "s3://m/alice", r.MediaFileURI)

	_, err = s.FindByJobID(ctx, "carol", "abc1234567")
	assert.ErrorIs(t, err, custom_errors.ErrNotFound)
}

func TestFakeJobRecordStore_FindByJobID_NewestWins(t *testing.T) {
	s := NewFakeJobRecordStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "alice", types.JobRecord{EventTime: "2024-01-01T00:00:00.000Z", JobID: "abc1234567", MediaFileURI: "old"}))
	require.NoError(t, s.Create(ctx, "alice", types.JobRecord{EventTime: "2024-02-01T00:00:00.000Z", JobID: "abc1234567", MediaFileURI: "new"}))

	r, err := s.FindByJobID(ctx, "alice", "abc1234567")
	require.NoError(t, err)
	assert.Equal(t, "new", r.MediaFileURI)
}

func TestFakeJobRecordStore_CreateRejectsDuplicates(t *testing.T) {
	s := NewFakeJobRecordStore()
	ctx := context.Background()
	r := types.JobRecord{EventTime: "2024-01-01T00:00:00.000Z", JobID: "abc1234567"}

	require.NoError(t, s.Create(ctx, "alice", r))
	assert.ErrorIs(t, s.Create(ctx, "alice", r), custom_errors.ErrDuplicateRecord)
	assert.Equal(t, 1, s.Len())
}

func TestFakeJobRecordStore_ListOrphaned(t *testing.T) {
	s := NewFakeJobRecordStore()
	ctx := context.Background()
	s.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, s.Create(ctx, "alice", types.JobRecord{EventTime: "a", JobID: "1111111111"}))
	require.NoError(t, s.Create(ctx, "alice", types.JobRecord{EventTime: "b", JobID: "2222222222"}))
	require.NoError(t, s.AttachContinuationToken(ctx, "alice", "b", "dA=="))

	orphans, err := s.ListOrphaned(ctx, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 10)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "1111111111", orphans[0].JobID)
}
