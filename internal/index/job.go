package index

import (
	"time"

	"github.com/google/uuid"
)

// Status is the state of an indexing job.
type Status string

// Job states. Idle is initial; Completed and Failed are terminal.
const (
	StatusIdle       Status = "idle"
	StatusScanning   Status = "scanning"
	StatusProcessing Status = "processing"
	StatusBuilding   Status = "building"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Active reports whether a job in this state is still running.
func (s Status) Active() bool {
	return s == StatusScanning || s == StatusProcessing || s == StatusBuilding
}

// Terminal reports whether the job has finished.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is a snapshot of the indexing job record. Counters only grow
// within one job.
type Job struct {
	ID        uuid.UUID `json:"job_id"`
	Status    Status    `json:"status"`
	Current   int       `json:"current"`
	Total     int       `json:"total"`
	Message   string    `json:"message"`
	Directory string    `json:"directory,omitempty"`

	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	Chunks  int `json:"chunks"`

	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// Elapsed is how long the job has been running, or ran.
func (j Job) Elapsed() time.Duration {
	if j.StartedAt.IsZero() {
		return 0
	}
	if j.FinishedAt.IsZero() {
		return time.Since(j.StartedAt)
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

// Percent returns progress through the processing phase in [0,100].
func (j Job) Percent() float64 {
	if j.Total <= 0 {
		if j.Status == StatusCompleted {
			return 100
		}
		return 0
	}
	return min(100, float64(j.Current)*100/float64(j.Total))
}
