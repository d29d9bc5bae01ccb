package query

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RezaEskandarii/scribeflow/internal/constants"
	"github.com/RezaEskandarii/scribeflow/internal/intake"
	"github.com/RezaEskandarii/scribeflow/internal/objectstore"
	"github.com/RezaEskandarii/scribeflow/internal/store"
	"github.com/RezaEskandarii/scribeflow/types"
)

// Service reads job records and results on behalf of one resolved identity.
type Service struct {
	store         store.JobRecordStore
	objects       objectstore.ObjectStore
	resultsBucket string
	resultPrefix  string
	listLimit     int
	timeout       time.Duration
}

func NewService(s store.JobRecordStore, objects objectstore.ObjectStore, resultsBucket, resultPrefix string, timeout time.Duration) *Service {
	return &Service{
		store:         s,
		objects:       objects,
		resultsBucket: resultsBucket,
		resultPrefix:  resultPrefix,
		listLimit:     constants.DefaultListLimit,
		timeout:       timeout,
	}
}

// ListJobs returns the newest jobs of user.
func (s *Service) ListJobs(ctx context.Context, user string) ([]types.JobSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	records, err := s.store.ListRecent(ctx, user, s.listLimit)
	if err != nil {
		return nil, err
	}
	jobs := make([]types.JobSummary, 0, len(records))
	for _, r := range records {
		jobs = append(jobs, r.Summary())
	}
	return jobs, nil
}

func (s *Service) GetJob(ctx context.Context, user, jobID string) (types.JobSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	record, err := s.store.FindByJobID(ctx, user, jobID)
	if err != nil {
		return types.JobSummary{}, err
	}
	return record.Summary(), nil
}

// GetResult returns the results field of the transcription written for the job.
func (s *Service) GetResult(ctx context.Context, user, jobID string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := intake.OutputKey(s.resultPrefix, user, jobID)
	body, err := s.objects.Get(ctx, s.resultsBucket, key)
	if err != nil {
		return nil, err
	}

	var output struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("decode result s3://%s/%s: %w", s.resultsBucket, key, err)
	}
	if len(output.Results) == 0 {
		return nil, fmt.Errorf("result s3://%s/%s has no results field", s.resultsBucket, key)
	}
	return output.Results, nil
}
