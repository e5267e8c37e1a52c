package report

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/nadmax/storepulse/internal/metrics"
	"github.com/nadmax/storepulse/internal/registry"
	"github.com/nadmax/storepulse/internal/schedule"
	"github.com/nadmax/storepulse/internal/store"
	"github.com/nadmax/storepulse/internal/timeline"
)

// SnapshotLoader supplies the immutable dataset a report job computes
// against. Each job loads its own snapshot at start.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (*store.Snapshot, error)
}

// Notifier is told when a report finishes. Delivery failures are logged,
// never propagated.
type Notifier interface {
	ReportCompleted(reportID string, stores int, took time.Duration) error
}

// Controller owns the trigger/poll lifecycle of report jobs. Triggering
// registers a Running job and returns its id immediately; the per-store
// pipeline runs in the background and transitions the job to Complete.
// There is no cancellation or retry; a crash mid-run leaves the job Running.
type Controller struct {
	loader   SnapshotLoader
	registry *registry.Registry
	notifier Notifier
	workers  int
}

func NewController(loader SnapshotLoader, reg *registry.Registry) *Controller {
	return &Controller{
		loader:   loader,
		registry: reg,
		workers:  runtime.GOMAXPROCS(0),
	}
}

func (c *Controller) SetNotifier(n Notifier) {
	c.notifier = n
}

func (c *Controller) SetWorkers(n int) {
	if n > 0 {
		c.workers = n
	}
}

// TriggerReport allocates a job id, records it Running, and starts the
// computation asynchronously.
func (c *Controller) TriggerReport(ctx context.Context) (string, error) {
	job := registry.NewJob()
	if err := c.registry.Create(ctx, job); err != nil {
		return "", fmt.Errorf("failed to register report job: %w", err)
	}

	metrics.RecordReportTriggered()
	go c.run(job.ID)

	return job.ID, nil
}

// GetReport returns the job's current state, registry.ErrUnknownJob for an
// identifier that was never issued.
func (c *Controller) GetReport(ctx context.Context, jobID string) (*registry.Job, error) {
	return c.registry.Get(ctx, jobID)
}

func (c *Controller) run(jobID string) {
	ctx := context.Background()
	start := time.Now()

	snap, err := c.loader.LoadSnapshot(ctx)
	if err != nil {
		// The job stays Running; there is no failure state to transition to.
		log.Printf("Report %s: failed to load snapshot: %v", jobID, err)
		return
	}

	dropped := snap.Dropped()
	metrics.RecordMalformedRows("store_status", dropped.Observations)
	metrics.RecordMalformedRows("business_hours", dropped.BusinessHours)
	metrics.RecordMalformedRows("timezones", dropped.Timezones)
	if dropped.Total() > 0 {
		log.Printf("Report %s: dropped %d malformed input rows", jobID, dropped.Total())
	}

	rows, failed := c.computeAll(snap)

	if err := c.registry.Complete(ctx, jobID, rows, failed); err != nil {
		log.Printf("Report %s: failed to mark complete: %v", jobID, err)
		return
	}

	took := time.Since(start)
	metrics.RecordReportCompleted(took)
	log.Printf("Report %s completed: %d stores, %d failed, took %s", jobID, len(rows), failed, took.Round(time.Millisecond))

	if c.notifier != nil {
		if err := c.notifier.ReportCompleted(jobID, len(rows), took); err != nil {
			log.Printf("Report %s: notification failed: %v", jobID, err)
		}
	}
}

// computeAll fans the per-store pipeline out across a bounded worker pool.
// Stores are independent; the snapshot is read-only and shared without
// locking. A store whose computation faults is omitted from the result and
// counted, leaving its siblings untouched.
func (c *Controller) computeAll(snap *store.Snapshot) ([]store.ReportRow, int) {
	ids := snap.StoreIDs()
	if len(ids) == 0 {
		return []store.ReportRow{}, 0
	}

	workers := c.workers
	if workers > len(ids) {
		workers = len(ids)
	}

	jobs := make(chan string)
	var (
		mu     sync.Mutex
		rows   []store.ReportRow
		failed int
	)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				row, err := c.computeStore(snap, id)

				mu.Lock()
				if err != nil {
					failed++
					metrics.RecordStoreFailure()
					log.Printf("Store %s omitted from report: %v", id, err)
				} else {
					rows = append(rows, row)
				}
				mu.Unlock()
			}
		}()
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)
	wg.Wait()

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].StoreID < rows[j].StoreID
	})

	return rows, failed
}

func (c *Controller) computeStore(snap *store.Snapshot, storeID string) (row store.ReportRow, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("store computation panicked: %v", r)
		}
		metrics.RecordStoreComputed(time.Since(start))
	}()

	now := snap.Now()
	sched := schedule.Resolve(snap, storeID)
	intervals := timeline.Reconstruct(snap.Observations(storeID), now.Add(-WindowWeek), now)

	return Aggregate(storeID, intervals, sched, now), nil
}
