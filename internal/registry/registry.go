package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nadmax/storepulse/internal/store"
	"github.com/redis/go-redis/v9"
)

const jobsKey = "report_jobs"

// ErrUnknownJob is returned when polling a job identifier that was never
// issued.
var ErrUnknownJob = errors.New("unknown report job")

type Registry struct {
	client *redis.Client
}

func New(redisAddr string) (*Registry, error) {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Registry{client: client}, nil
}

func (r *Registry) Create(ctx context.Context, job *Job) error {
	jobJSON, err := job.ToJSON()
	if err != nil {
		return err
	}

	return r.client.HSet(ctx, jobsKey, job.ID, jobJSON).Err()
}

func (r *Registry) Get(ctx context.Context, jobID string) (*Job, error) {
	jobJSON, err := r.client.HGet(ctx, jobsKey, jobID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrUnknownJob
	}
	if err != nil {
		return nil, err
	}

	return JobFromJSON(jobJSON)
}

// Complete performs the job's single forward transition, attaching the
// result. The controller is the only writer for a given id.
func (r *Registry) Complete(ctx context.Context, jobID string, rows []store.ReportRow, failedStores int) error {
	job, err := r.Get(ctx, jobID)
	if err != nil {
		return err
	}

	now := time.Now()
	job.Status = StatusComplete
	job.CompletedAt = &now
	job.StoreCount = len(rows)
	job.FailedStores = failedStores
	job.Rows = rows

	jobJSON, err := job.ToJSON()
	if err != nil {
		return err
	}

	return r.client.HSet(ctx, jobsKey, jobID, jobJSON).Err()
}

func (r *Registry) All(ctx context.Context) ([]*Job, error) {
	jobMap, err := r.client.HGetAll(ctx, jobsKey).Result()
	if err != nil {
		return nil, err
	}

	jobs := make([]*Job, 0, len(jobMap))
	for _, jobJSON := range jobMap {
		job, err := JobFromJSON(jobJSON)
		if err != nil {
			continue
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

func (r *Registry) Close() error {
	return r.client.Close()
}
