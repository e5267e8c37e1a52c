// Package ingest loads the three monitoring CSV datasets into PostgreSQL.
// Malformed rows are dropped and counted, never fatal to the import.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nadmax/storepulse/internal/metrics"
	"github.com/nadmax/storepulse/internal/repository"
	"github.com/nadmax/storepulse/internal/store"
)

const (
	StoreStatusFile   = "store_status.csv"
	BusinessHoursFile = "menu_hours.csv"
	TimezonesFile     = "timezones.csv"
)

// timestampLayouts covers the formats seen in the status feed, e.g.
// "2023-01-25 10:05:00.142582 UTC" and RFC 3339.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999 UTC",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
}

// Stats summarizes one import run.
type Stats struct {
	Observations  int
	BusinessHours int
	Timezones     int
	Dropped       store.DroppedCounts
}

type Loader struct {
	repo repository.StoreRepository
	dir  string
}

func NewLoader(repo repository.StoreRepository, dir string) *Loader {
	return &Loader{repo: repo, dir: dir}
}

// Run truncates the input tables and reimports the three CSV files from the
// loader's data directory.
func (l *Loader) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	if err := l.repo.TruncateAll(ctx); err != nil {
		return stats, fmt.Errorf("failed to truncate input tables: %w", err)
	}

	err := l.withFile(StoreStatusFile, func(r *csv.Reader) error {
		observations, dropped, err := ParseObservations(r)
		if err != nil {
			return err
		}
		stats.Observations = len(observations)
		stats.Dropped.Observations = dropped
		metrics.RecordMalformedRows("store_status", dropped)

		return l.repo.InsertObservations(ctx, observations)
	})
	if err != nil {
		return stats, fmt.Errorf("failed to import %s: %w", StoreStatusFile, err)
	}

	err = l.withFile(BusinessHoursFile, func(r *csv.Reader) error {
		hours, dropped, err := ParseBusinessHours(r)
		if err != nil {
			return err
		}
		stats.BusinessHours = len(hours)
		stats.Dropped.BusinessHours = dropped
		metrics.RecordMalformedRows("business_hours", dropped)

		return l.repo.InsertBusinessHours(ctx, hours)
	})
	if err != nil {
		return stats, fmt.Errorf("failed to import %s: %w", BusinessHoursFile, err)
	}

	err = l.withFile(TimezonesFile, func(r *csv.Reader) error {
		zones, dropped, err := ParseTimezones(r)
		if err != nil {
			return err
		}
		stats.Timezones = len(zones)
		stats.Dropped.Timezones = dropped
		metrics.RecordMalformedRows("timezones", dropped)

		return l.repo.InsertTimezones(ctx, zones)
	})
	if err != nil {
		return stats, fmt.Errorf("failed to import %s: %w", TimezonesFile, err)
	}

	log.Printf("Import completed: %d observations, %d business hours, %d timezones (%d rows dropped)",
		stats.Observations, stats.BusinessHours, stats.Timezones, stats.Dropped.Total())

	return stats, nil
}

func (l *Loader) withFile(name string, fn func(r *csv.Reader) error) error {
	file, err := os.Open(filepath.Join(l.dir, name))
	if err != nil {
		return err
	}

	defer func() {
		if err := file.Close(); err != nil {
			log.Printf("failed to close %s: %v", name, err)
		}
	}()

	return fn(csv.NewReader(file))
}

// ParseObservations reads store_status rows, mapping columns by header name.
// Rows with an unknown status or unparsable timestamp are dropped and
// counted.
func ParseObservations(r *csv.Reader) ([]store.Observation, int, error) {
	cols, err := headerIndex(r, "store_id", "status", "timestamp_utc")
	if err != nil {
		return nil, 0, err
	}

	var observations []store.Observation
	dropped := 0

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			dropped++
			continue
		}

		o := store.Observation{
			StoreID: strings.TrimSpace(field(record, cols["store_id"])),
			Status:  store.Status(strings.TrimSpace(field(record, cols["status"]))),
		}

		ts, err := parseTimestamp(field(record, cols["timestamp_utc"]))
		if err != nil || o.StoreID == "" ||
			(o.Status != store.StatusActive && o.Status != store.StatusInactive) {
			dropped++
			continue
		}
		o.Timestamp = ts

		observations = append(observations, o)
	}

	return observations, dropped, nil
}

// ParseBusinessHours reads menu_hours rows. Local times are kept as strings;
// range validation happens at snapshot construction.
func ParseBusinessHours(r *csv.Reader) ([]store.BusinessHoursRow, int, error) {
	cols, err := headerIndex(r, "store_id", "dayOfWeek", "start_time_local", "end_time_local")
	if err != nil {
		return nil, 0, err
	}

	var hours []store.BusinessHoursRow
	dropped := 0

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			dropped++
			continue
		}

		day, err := strconv.Atoi(strings.TrimSpace(field(record, cols["dayOfWeek"])))
		h := store.BusinessHoursRow{
			StoreID:    strings.TrimSpace(field(record, cols["store_id"])),
			DayOfWeek:  day,
			StartLocal: strings.TrimSpace(field(record, cols["start_time_local"])),
			EndLocal:   strings.TrimSpace(field(record, cols["end_time_local"])),
		}
		if err != nil || h.StoreID == "" || day < 0 || day > 6 {
			dropped++
			continue
		}

		hours = append(hours, h)
	}

	return hours, dropped, nil
}

// ParseTimezones reads timezone rows.
func ParseTimezones(r *csv.Reader) ([]store.Timezone, int, error) {
	cols, err := headerIndex(r, "store_id", "timezone_str")
	if err != nil {
		return nil, 0, err
	}

	var zones []store.Timezone
	dropped := 0

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			dropped++
			continue
		}

		z := store.Timezone{
			StoreID: strings.TrimSpace(field(record, cols["store_id"])),
			Name:    strings.TrimSpace(field(record, cols["timezone_str"])),
		}
		if z.StoreID == "" || z.Name == "" {
			dropped++
			continue
		}

		zones = append(zones, z)
	}

	return zones, dropped, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unparsable timestamp %q", s)
}

func headerIndex(r *csv.Reader, required ...string) (map[string]int, error) {
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	return cols, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}
