// Package dashboard exposes operational summaries of report jobs.
package dashboard

import (
	"net/http"
	"time"

	"github.com/nadmax/storepulse/internal/httputil"
	"github.com/nadmax/storepulse/internal/registry"
)

type Dashboard struct {
	registry *registry.Registry
}

type Stats struct {
	TotalJobs       int       `json:"total_jobs"`
	RunningJobs     int       `json:"running_jobs"`
	CompletedJobs   int       `json:"completed_jobs"`
	StoresReported  int       `json:"stores_reported"`
	FailedStores    int       `json:"failed_stores"`
	AverageDuration string    `json:"average_duration"`
	LastUpdated     time.Time `json:"last_updated"`
}

type JobSummary struct {
	JobID        string             `json:"job_id"`
	Status       registry.JobStatus `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
	StoreCount   int                `json:"store_count"`
	FailedStores int                `json:"failed_stores"`
	Duration     string             `json:"duration,omitempty"`
}

func NewDashboard(reg *registry.Registry) *Dashboard {
	return &Dashboard{registry: reg}
}

func (d *Dashboard) GetStats(w http.ResponseWriter, r *http.Request) {
	jobs, err := d.registry.All(r.Context())
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	stats := Stats{
		TotalJobs:   len(jobs),
		LastUpdated: time.Now(),
	}

	var totalDuration time.Duration
	completed := 0

	for _, job := range jobs {
		switch job.Status {
		case registry.StatusRunning:
			stats.RunningJobs++
		case registry.StatusComplete:
			stats.CompletedJobs++
			stats.StoresReported += job.StoreCount
			stats.FailedStores += job.FailedStores

			if job.CompletedAt != nil {
				totalDuration += job.CompletedAt.Sub(job.CreatedAt)
				completed++
			}
		}
	}

	if completed > 0 {
		avg := totalDuration / time.Duration(completed)
		stats.AverageDuration = avg.Round(time.Millisecond).String()
	} else {
		stats.AverageDuration = "N/A"
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (d *Dashboard) GetRecentJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := d.registry.All(r.Context())
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	recent := []JobSummary{}

	for _, job := range jobs {
		if job.CreatedAt.Before(cutoff) {
			continue
		}

		summary := JobSummary{
			JobID:        job.ID,
			Status:       job.Status,
			CreatedAt:    job.CreatedAt,
			CompletedAt:  job.CompletedAt,
			StoreCount:   job.StoreCount,
			FailedStores: job.FailedStores,
		}
		if job.CompletedAt != nil {
			summary.Duration = job.CompletedAt.Sub(job.CreatedAt).Round(time.Millisecond).String()
		}

		recent = append(recent, summary)
	}

	httputil.WriteJSON(w, http.StatusOK, recent)
}
