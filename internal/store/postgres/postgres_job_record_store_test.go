package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/RezaEskandarii/scribeflow/internal/state"
	"github.com/RezaEskandarii/scribeflow/internal/store"
	"github.com/RezaEskandarii/scribeflow/types"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"identity", "event_time", "job_id", "job_status", "media_file_uri", "output_key", "size", "task_token", "created_at"}

func newRecord() types.JobRecord {
	return types.JobRecord{
		Identity:     "bob",
		EventTime:    "2024-01-01T00:00:00.000Z",
		JobID:        "abc1234567",
		Status:       state.StatusSubmitted,
		MediaFileURI: "s3://media/raw/bob/clip.mp4",
		OutputKey:    "transcriptions/bob/abc1234567.json",
		Size:         1000,
	}
}

func TestNewPostgresJobRecordStore(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresJobRecordStore(db, "job_records")
	require.NotNil(t, s)
	var _ store.JobRecordStore = s
}

func TestPostgresJobRecordStore_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresJobRecordStore(db, "job_records")
	r := newRecord()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scribeflow_schema.job_records")).
		WithArgs("bob", r.EventTime, r.JobID, state.StatusSubmitted, r.MediaFileURI, r.OutputKey, int64(1000)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Create(context.Background(), "bob", r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresJobRecordStore_Create_UsesConditionalInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresJobRecordStore(db, "job_records")

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (identity, event_time) DO NOTHING")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = s.Create(context.Background(), "bob", newRecord())
	require.Error(t, err)
	assert.ErrorIs(t, err, custom_errors.ErrDuplicateRecord)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresJobRecordStore_Create_DatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresJobRecordStore(db, "job_records")

	mock.ExpectExec("INSERT INTO").WillReturnError(sql.ErrConnDone)

	err = s.Create(context.Background(), "bob", newRecord())
	require.Error(t, err)
	assert.ErrorIs(t, err, custom_errors.ErrExternal)
	assert.True(t, custom_errors.IsRetryable(err))
}

func TestPostgresJobRecordStore_Create_RequiresKey(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresJobRecordStore(db, "job_records")
	r := newRecord()
	r.EventTime = ""

	err = s.Create(context.Background(), "bob", r)
	assert.ErrorIs(t, err, custom_errors.ErrMalformedInput)
}

func TestPostgresJobRecordStore_FindByJobID_ScopedToIdentity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresJobRecordStore(db, "job_records")
	token := "dG9rZW4="
	created := time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE identity = $1 AND job_id = $2")).
		WithArgs("alice", "abc1234567").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"alice", "2024-01-01T00:00:00.000Z", "abc1234567", "IN_PROGRESS",
			"s3://media/raw/a.mp4", "transcriptions/alice/abc1234567.json", int64(10), token, created,
		))

	record, err := s.FindByJobID(context.Background(), "alice", "abc1234567")
	require.NoError(t, err)
	assert.Equal(t, "alice", record.Identity)
	assert.Equal(t, state.StatusInProgress, record.Status)
	require.True(t, record.HasContinuationToken())
	assert.Equal(t, token, *record.TaskToken)
	assert.Equal(t, created, record.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresJobRecordStore_FindByJobID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresJobRecordStore(db, "job_records")

	mock.ExpectQuery("SELECT").
		WithArgs("alice", "ffffffffff").
		WillReturnRows(sqlmock.NewRows(columns))

	record, err := s.FindByJobID(context.Background(), "alice", "ffffffffff")
	assert.Nil(t, record)
	assert.ErrorIs(t, err, custom_errors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresJobRecordStore_Get_WithoutToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresJobRecordStore(db, "uploads")

	mock.ExpectQuery(regexp.QuoteMeta("FROM scribeflow_schema.uploads WHERE identity = $1 AND event_time = $2")).
		WithArgs("bob", "2024-01-01T00:00:00.000Z").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"bob", "2024-01-01T00:00:00.000Z", "abc1234567", "SUBMITTED",
			"s3://media/raw/bob/clip.mp4", "transcriptions/bob/abc1234567.json", int64(1000), nil, time.Now(),
		))

	record, err := s.Get(context.Background(), "bob", "2024-01-01T00:00:00.000Z")
	require.NoError(t, err)
	assert.False(t, record.HasContinuationToken())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresJobRecordStore_ListRecent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresJobRecordStore(db, "job_records")

	mock.ExpectQuery("ORDER BY event_time DESC").
		WithArgs("bob", 5).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("bob", "2024-01-02T00:00:00.000Z", "bbbbbbbbbb", "COMPLETE", "s3://m/2", "transcriptions/bob/bbbbbbbbbb.json", int64(2), "dA==", time.Now()).
			AddRow("bob", "2024-01-01T00:00:00.000Z", "aaaaaaaaaa", "SUBMITTED", "s3://m/1", "transcriptions/bob/aaaaaaaaaa.json", int64(1), nil, time.Now()))

	records, err := s.ListRecent(context.Background(), "bob", 5)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "bbbbbbbbbb", records[0].JobID)
	assert.Equal(t, "aaaaaaaaaa", records[1].JobID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresJobRecordStore_ListRecent_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresJobRecordStore(db, "job_records")

	mock.ExpectQuery("SELECT").WithArgs("nobody", 5).WillReturnRows(sqlmock.NewRows(columns))

	records, err := s.ListRecent(context.Background(), "nobody", 5)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestPostgresJobRecordStore_AttachContinuationToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresJobRecordStore(db, "job_records")
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("SET task_token = $3")).
		WithArgs("bob", "2024-01-01T00:00:00.000Z", "dG9rZW4=").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.AttachContinuationToken(ctx, "bob", "2024-01-01T00:00:00.000Z", "dG9rZW4="))

	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 0))
	err = s.AttachContinuationToken(ctx, "bob", "2099-01-01T00:00:00.000Z", "dG9rZW4=")
	assert.ErrorIs(t, err, custom_errors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresJobRecordStore_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresJobRecordStore(db, "job_records")

	mock.ExpectExec(regexp.QuoteMeta("SET job_status = $3, updated_at = now()")).
		WithArgs("bob", "2024-01-01T00:00:00.000Z", state.StatusFailed, pq.Array([]string{"SUBMITTED", "IN_PROGRESS"})).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.UpdateStatus(context.Background(), "bob", "2024-01-01T00:00:00.000Z", state.StatusFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresJobRecordStore_UpdateStatus_GuardsTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresJobRecordStore(db, "job_records")
	ctx := context.Background()
	at := "2024-01-01T00:00:00.000Z"

	mock.ExpectExec(regexp.QuoteMeta("job_status = ANY($4)")).
		WithArgs("bob", at, state.StatusComplete, pq.Array([]string{"IN_PROGRESS"})).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT").WithArgs("bob", at).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("bob", at, "abc1234567", "SUBMITTED", "s3://m/1", "transcriptions/bob/abc1234567.json", int64(1), nil, time.Now()))

	err = s.UpdateStatus(ctx, "bob", at, state.StatusComplete)
	assert.ErrorIs(t, err, custom_errors.ErrInvalidTransition)
	assert.False(t, custom_errors.IsRetryable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresJobRecordStore_UpdateStatus_RedeliveryIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresJobRecordStore(db, "job_records")
	at := "2024-01-01T00:00:00.000Z"

	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT").WithArgs("bob", at).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("bob", at, "abc1234567", "IN_PROGRESS", "s3://m/1", "transcriptions/bob/abc1234567.json", int64(1), nil, time.Now()))

	require.NoError(t, s.UpdateStatus(context.Background(), "bob", at, state.StatusInProgress))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresJobRecordStore_UpdateStatus_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresJobRecordStore(db, "job_records")

	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows(columns))

	err = s.UpdateStatus(context.Background(), "bob", "2099-01-01T00:00:00.000Z", state.StatusInProgress)
	assert.ErrorIs(t, err, custom_errors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresJobRecordStore_UpdateStatus_NoPredecessor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresJobRecordStore(db, "job_records")

	err = s.UpdateStatus(context.Background(), "bob", "2024-01-01T00:00:00.000Z", state.StatusSubmitted)
	assert.ErrorIs(t, err, custom_errors.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresJobRecordStore_ListOrphaned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresJobRecordStore(db, "job_records")
	cutoff := time.Now().Add(-time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("task_token IS NULL AND created_at < $2")).
		WithArgs(state.StatusSubmitted, cutoff, 100).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("bob", "2024-01-01T00:00:00.000Z", "abc1234567", "SUBMITTED", "s3://m/1", "transcriptions/bob/abc1234567.json", int64(1), nil, cutoff.Add(-time.Minute)))

	records, err := s.ListOrphaned(context.Background(), cutoff, 100)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "abc1234567", records[0].JobID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresJobRecordStore_ListOrphaned_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresJobRecordStore(db, "job_records")

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("boom"))

	_, err = s.ListOrphaned(context.Background(), time.Now(), 10)
	assert.ErrorIs(t, err, custom_errors.ErrExternal)
}

func TestPostgresJobRecordStore_Close(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectClose()

	s := NewPostgresJobRecordStore(db, "job_records")
	require.NoError(t, s.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
