package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/RezaEskandarii/scribeflow/internal/state"
	"github.com/RezaEskandarii/scribeflow/types"
)

// FakeJobRecordStore keeps records in memory with the same key and ordering
// rules as the postgres store.
type FakeJobRecordStore struct {
	mu      sync.Mutex
	records map[string]map[string]types.JobRecord
	now     func() time.Time
}

func NewFakeJobRecordStore() *FakeJobRecordStore {
	return &FakeJobRecordStore{
		records: make(map[string]map[string]types.JobRecord),
		now:     time.Now,
	}
}

func (s *FakeJobRecordStore) Create(_ context.Context, identity string, record types.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition, ok := s.records[identity]
	if !ok {
		partition = make(map[string]types.JobRecord)
		s.records[identity] = partition
	}
	if _, exists := partition[record.EventTime]; exists {
		return fmt.Errorf("identity=%s event_time=%s: %w", identity, record.EventTime, custom_errors.ErrDuplicateRecord)
	}
	record.Identity = identity
	if record.Status == "" {
		record.Status = state.StatusSubmitted
	}
	record.CreatedAt = s.now()
	partition[record.EventTime] = record
	return nil
}

func (s *FakeJobRecordStore) FindByJobID(_ context.Context, identity, jobID string) (*types.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.sorted(identity) {
		if r.JobID == jobID {
			return &r, nil
		}
	}
	return nil, custom_errors.ErrNotFound
}

func (s *FakeJobRecordStore) Get(_ context.Context, identity, eventTime string) (*types.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[identity][eventTime]
	if !ok {
		return nil, custom_errors.ErrNotFound
	}
	return &r, nil
}

func (s *FakeJobRecordStore) ListRecent(_ context.Context, identity string, limit int) ([]types.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.sorted(identity)
	if limit < len(records) {
		records = records[:limit]
	}
	return records, nil
}

func (s *FakeJobRecordStore) AttachContinuationToken(_ context.Context, identity, eventTime, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[identity][eventTime]
	if !ok {
		return custom_errors.ErrNotFound
	}
	r.TaskToken = &token
	s.records[identity][eventTime] = r
	return nil
}

func (s *FakeJobRecordStore) UpdateStatus(_ context.Context, identity, eventTime string, status state.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[identity][eventTime]
	if !ok {
		return custom_errors.ErrNotFound
	}
	if r.Status == status && len(state.Predecessors(status)) > 0 {
		return nil
	}
	if !state.IsValidTransition(r.Status, status) {
		return fmt.Errorf("job %s: %s -> %s: %w", r.JobID, r.Status, status, custom_errors.ErrInvalidTransition)
	}
	r.Status = status
	s.records[identity][eventTime] = r
	return nil
}

func (s *FakeJobRecordStore) ListOrphaned(_ context.Context, olderThan time.Time, limit int) ([]types.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.JobRecord
	for _, partition := range s.records {
		for _, r := range partition {
			if r.Status == state.StatusSubmitted && !r.HasContinuationToken() && r.CreatedAt.Before(olderThan) {
				out = append(out, r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *FakeJobRecordStore) Close() error { return nil }

// Len counts the records of every identity.
func (s *FakeJobRecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, partition := range s.records {
		n += len(partition)
	}
	return n
}

func (s *FakeJobRecordStore) sorted(identity string) []types.JobRecord {
	records := make([]types.JobRecord, 0, len(s.records[identity]))
	for _, r := range s.records[identity] {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].EventTime > records[j].EventTime })
	return records
}
