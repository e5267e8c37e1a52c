// Package registry tracks report jobs in Redis: one Running record per
// trigger, transitioned once to Complete with the result attached, readable
// by any number of pollers.
package registry

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nadmax/storepulse/internal/store"
)

type JobStatus string

const (
	StatusRunning  JobStatus = "Running"
	StatusComplete JobStatus = "Complete"
)

// Job is one asynchronous report-generation run. Rows is empty until the
// job completes. FailedStores counts stores whose computation faulted and
// were omitted from the result.
type Job struct {
	ID           string            `json:"id"`
	Status       JobStatus         `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	StoreCount   int               `json:"store_count,omitempty"`
	FailedStores int               `json:"failed_stores,omitempty"`
	Rows         []store.ReportRow `json:"rows,omitempty"`
}

func NewJob() *Job {
	return &Job{
		ID:        uuid.New().String(),
		Status:    StatusRunning,
		CreatedAt: time.Now(),
	}
}

func (j *Job) ToJSON() (string, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func JobFromJSON(data string) (*Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, err
	}

	return &job, nil
}
