package repository

import (
	"context"

	"github.com/nadmax/storepulse/internal/store"
)

// StoreRepository is the persistence boundary for the monitoring input
// tables. The report pipeline only ever reads through LoadSnapshot; the
// write methods serve the CSV importer.
type StoreRepository interface {
	LoadSnapshot(ctx context.Context) (*store.Snapshot, error)
	TruncateAll(ctx context.Context) error
	InsertObservations(ctx context.Context, observations []store.Observation) error
	InsertBusinessHours(ctx context.Context, hours []store.BusinessHoursRow) error
	InsertTimezones(ctx context.Context, zones []store.Timezone) error
	Close() error
}
