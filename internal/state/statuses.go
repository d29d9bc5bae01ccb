package state

// JobStatus is the job_status column of a job record. The intake handler only
// ever writes StatusSubmitted; the other states are written by the workflow.
type JobStatus string

const (
	StatusSubmitted  JobStatus = "SUBMITTED"
	StatusInProgress JobStatus = "IN_PROGRESS"
	StatusComplete   JobStatus = "COMPLETE"
	StatusFailed     JobStatus = "FAILED"
)

func (s JobStatus) String() string {
	return string(s)
}

func (s JobStatus) IsValid() bool {
	for _, status := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

var AllStatuses = []JobStatus{
	StatusSubmitted,
	StatusInProgress,
	StatusComplete,
	StatusFailed,
}

type Transition struct {
	From JobStatus
	To   JobStatus
}

var ValidTransitions = []Transition{
	{From: StatusSubmitted, To: StatusInProgress},
	{From: StatusInProgress, To: StatusComplete},
	{From: StatusSubmitted, To: StatusFailed},
	{From: StatusInProgress, To: StatusFailed},
}

// Predecessors lists the statuses a job may be in when it moves to to.
func Predecessors(to JobStatus) []JobStatus {
	var from []JobStatus
	for _, t := range ValidTransitions {
		if t.To == to {
			from = append(from, t.From)
		}
	}
	return from
}

func IsValidTransition(from, to JobStatus) bool {
	for _, t := range ValidTransitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}
