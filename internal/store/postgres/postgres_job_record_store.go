package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/RezaEskandarii/scribeflow/internal/state"
	"github.com/RezaEskandarii/scribeflow/internal/store"
	"github.com/RezaEskandarii/scribeflow/types"
	"github.com/lib/pq"
)

const Schema = "scribeflow_schema"

const recordColumns = `identity, event_time, job_id, job_status, media_file_uri, output_key, size, task_token, created_at`

type postgresJobRecordStore struct {
	db    *sql.DB
	table string
}

// NewPostgresJobRecordStore creates a JobRecordStore over table. The table name
// must already be validated as an identifier.
func NewPostgresJobRecordStore(db *sql.DB, table string) store.JobRecordStore {
	return &postgresJobRecordStore{db: db, table: fmt.Sprintf("%s.%s", Schema, table)}
}

func (r *postgresJobRecordStore) Create(ctx context.Context, identity string, record types.JobRecord) error {
	if identity == "" || record.EventTime == "" || record.JobID == "" {
		return fmt.Errorf("create job record: identity, event time and job id are required: %w", custom_errors.ErrMalformedInput)
	}
	if record.Status == "" {
		record.Status = state.StatusSubmitted
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (identity, event_time, job_id, job_status, media_file_uri, output_key, size, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (identity, event_time) DO NOTHING
	`, r.table)

	res, err := r.db.ExecContext(ctx, query,
		identity, record.EventTime, record.JobID, record.Status,
		record.MediaFileURI, record.OutputKey, record.Size,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job record: %w: %w", custom_errors.ErrExternal, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to insert job record: %w: %w", custom_errors.ErrExternal, err)
	}
	if affected == 0 {
		return fmt.Errorf("identity=%s event_time=%s: %w", identity, record.EventTime, custom_errors.ErrDuplicateRecord)
	}
	return nil
}

func (r *postgresJobRecordStore) FindByJobID(ctx context.Context, identity, jobID string) (*types.JobRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE identity = $1 AND job_id = $2
		ORDER BY event_time DESC
		LIMIT 1
	`, recordColumns, r.table)

	record, err := scanRecord(r.db.QueryRowContext(ctx, query, identity, jobID))
	if err != nil {
		return nil, fmt.Errorf("find job record identity=%s job_id=%s: %w", identity, jobID, err)
	}
	return record, nil
}

func (r *postgresJobRecordStore) Get(ctx context.Context, identity, eventTime string) (*types.JobRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE identity = $1 AND event_time = $2`, recordColumns, r.table)

	record, err := scanRecord(r.db.QueryRowContext(ctx, query, identity, eventTime))
	if err != nil {
		return nil, fmt.Errorf("get job record identity=%s event_time=%s: %w", identity, eventTime, err)
	}
	return record, nil
}

func (r *postgresJobRecordStore) ListRecent(ctx context.Context, identity string, limit int) ([]types.JobRecord, error) {
	if limit < 1 {
		limit = 1
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE identity = $1
		ORDER BY event_time DESC
		LIMIT $2
	`, recordColumns, r.table)

	rows, err := r.db.QueryContext(ctx, query, identity, limit)
	if err != nil {
		return nil, fmt.Errorf("list job records: %w: %w", custom_errors.ErrExternal, err)
	}
	return collectRecords(rows)
}

func (r *postgresJobRecordStore) AttachContinuationToken(ctx context.Context, identity, eventTime, token string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET task_token = $3, updated_at = now()
		WHERE identity = $1 AND event_time = $2
	`, r.table)

	res, err := r.db.ExecContext(ctx, query, identity, eventTime, token)
	if err != nil {
		return fmt.Errorf("attach continuation token: %w: %w", custom_errors.ErrExternal, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("attach continuation token: %w: %w", custom_errors.ErrExternal, err)
	}
	if affected == 0 {
		return fmt.Errorf("attach continuation token identity=%s event_time=%s: %w", identity, eventTime, custom_errors.ErrNotFound)
	}
	return nil
}

func (r *postgresJobRecordStore) UpdateStatus(ctx context.Context, identity, eventTime string, status state.JobStatus) error {
	from := state.Predecessors(status)
	if len(from) == 0 {
		return fmt.Errorf("update job status to %s: %w", status, custom_errors.ErrInvalidTransition)
	}
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = s.String()
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET job_status = $3, updated_at = now()
		WHERE identity = $1 AND event_time = $2 AND job_status = ANY($4)
	`, r.table)

	res, err := r.db.ExecContext(ctx, query, identity, eventTime, status, pq.Array(allowed))
	if err != nil {
		return fmt.Errorf("update job status: %w: %w", custom_errors.ErrExternal, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job status: %w: %w", custom_errors.ErrExternal, err)
	}
	if affected > 0 {
		return nil
	}

	current, err := r.Get(ctx, identity, eventTime)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if current.Status == status {
		return nil
	}
	return fmt.Errorf("job %s: %s -> %s: %w", current.JobID, current.Status, status, custom_errors.ErrInvalidTransition)
}

func (r *postgresJobRecordStore) ListOrphaned(ctx context.Context, olderThan time.Time, limit int) ([]types.JobRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE job_status = $1 AND task_token IS NULL AND created_at < $2
		ORDER BY created_at ASC
		LIMIT $3
	`, recordColumns, r.table)

	rows, err := r.db.QueryContext(ctx, query, state.StatusSubmitted, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("list orphaned job records: %w: %w", custom_errors.ErrExternal, err)
	}
	return collectRecords(rows)
}

func (r *postgresJobRecordStore) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*types.JobRecord, error) {
	var (
		record types.JobRecord
		token  sql.NullString
	)
	err := row.Scan(
		&record.Identity, &record.EventTime, &record.JobID, &record.Status,
		&record.MediaFileURI, &record.OutputKey, &record.Size, &token, &record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, custom_errors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", custom_errors.ErrExternal, err)
	}
	if token.Valid {
		record.TaskToken = &token.String
	}
	return &record, nil
}

func collectRecords(rows *sql.Rows) ([]types.JobRecord, error) {
	defer rows.Close()

	records := []types.JobRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", custom_errors.ErrExternal, err)
	}
	return records, nil
}
