package types

import (
	"time"

	"github.com/RezaEskandarii/scribeflow/internal/state"
)

// JobRecord is one row of the job record table. (Identity, EventTime) is the
// primary key; JobID only disambiguates within one identity.
type JobRecord struct {
	Identity     string          `json:"user"`
	EventTime    string          `json:"event_time"`
	JobID        string          `json:"job_id"`
	Status       state.JobStatus `json:"job_status"`
	MediaFileURI string          `json:"media_file_uri"`
	OutputKey    string          `json:"output_key"`
	Size         int64           `json:"size"`
	// TaskToken is the base64 continuation token written by the workflow's wait
	// state. Nil until the workflow reaches that state.
	TaskToken *string   `json:"-"`
	CreatedAt time.Time `json:"-"`
}

// HasContinuationToken reports whether the workflow has parked itself on this record.
func (r JobRecord) HasContinuationToken() bool {
	return r.TaskToken != nil && *r.TaskToken != ""
}

// Payload returns the workflow input equivalent to this record.
func (r JobRecord) Payload() JobPayload {
	return JobPayload{
		User:         r.Identity,
		JobID:        r.JobID,
		EventTime:    r.EventTime,
		MediaFileURI: r.MediaFileURI,
		OutputKey:    r.OutputKey,
		Size:         r.Size,
	}
}

// JobPayload is the input of a workflow instance. Its field names are part of
// the workflow definition contract.
type JobPayload struct {
	User         string `json:"user"`
	JobID        string `json:"job_id"`
	EventTime    string `json:"event_time"`
	MediaFileURI string `json:"media_file_uri"`
	OutputKey    string `json:"output_key"`
	Size         int64  `json:"size"`
}

// Record builds the SUBMITTED job record persisted for this payload.
func (p JobPayload) Record() JobRecord {
	return JobRecord{
		Identity:     p.User,
		EventTime:    p.EventTime,
		JobID:        p.JobID,
		Status:       state.StatusSubmitted,
		MediaFileURI: p.MediaFileURI,
		OutputKey:    p.OutputKey,
		Size:         p.Size,
	}
}

// StartedJob is emitted by the intake handler for each workflow instance it started.
type StartedJob struct {
	ExecutionARN string `json:"execution_arn"`
	JobPayload
}

// ResumeOutput is sent with the success signal that resumes a waiting workflow.
type ResumeOutput struct {
	User      string `json:"user"`
	EventTime string `json:"event_time"`
}

// JobSummary is the projection returned by the query surface.
type JobSummary struct {
	JobID     string          `json:"job_id"`
	EventTime string          `json:"event_time"`
	Status    state.JobStatus `json:"job_status"`
}

func (r JobRecord) Summary() JobSummary {
	return JobSummary{JobID: r.JobID, EventTime: r.EventTime, Status: r.Status}
}
