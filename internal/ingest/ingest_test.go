package ingest

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nadmax/storepulse/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	truncated    bool
	observations []store.Observation
	hours        []store.BusinessHoursRow
	zones        []store.Timezone
}

func (f *fakeRepo) LoadSnapshot(ctx context.Context) (*store.Snapshot, error) {
	return store.NewSnapshot(f.observations, f.hours, f.zones), nil
}

func (f *fakeRepo) TruncateAll(ctx context.Context) error {
	f.truncated = true
	return nil
}

func (f *fakeRepo) InsertObservations(ctx context.Context, observations []store.Observation) error {
	f.observations = append(f.observations, observations...)
	return nil
}

func (f *fakeRepo) InsertBusinessHours(ctx context.Context, hours []store.BusinessHoursRow) error {
	f.hours = append(f.hours, hours...)
	return nil
}

func (f *fakeRepo) InsertTimezones(ctx context.Context, zones []store.Timezone) error {
	f.zones = append(f.zones, zones...)
	return nil
}

func (f *fakeRepo) Close() error { return nil }

func reader(s string) *csv.Reader {
	return csv.NewReader(strings.NewReader(s))
}

func TestParseObservations(t *testing.T) {
	input := `store_id,status,timestamp_utc
s1,active,2023-01-25 10:05:00.142582 UTC
s2,inactive,2023-01-25T11:00:00Z
`
	observations, dropped, err := ParseObservations(reader(input))
	require.NoError(t, err)

	assert.Equal(t, 0, dropped)
	require.Len(t, observations, 2)
	assert.Equal(t, "s1", observations[0].StoreID)
	assert.Equal(t, store.StatusActive, observations[0].Status)
	assert.Equal(t, time.Date(2023, 1, 25, 10, 5, 0, 142582000, time.UTC), observations[0].Timestamp)
	assert.Equal(t, store.StatusInactive, observations[1].Status)
}

func TestParseObservations_DropsMalformedRows(t *testing.T) {
	input := `store_id,status,timestamp_utc
s1,active,2023-01-25 10:05:00 UTC
s2,rebooting,2023-01-25 10:05:00 UTC
s3,active,not-a-timestamp
,active,2023-01-25 10:05:00 UTC
`
	observations, dropped, err := ParseObservations(reader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, dropped)
	require.Len(t, observations, 1)
	assert.Equal(t, "s1", observations[0].StoreID)
}

func TestParseObservations_ColumnsMappedByHeader(t *testing.T) {
	input := `timestamp_utc,store_id,status
2023-01-25 10:05:00 UTC,s1,active
`
	observations, dropped, err := ParseObservations(reader(input))
	require.NoError(t, err)

	assert.Equal(t, 0, dropped)
	require.Len(t, observations, 1)
	assert.Equal(t, "s1", observations[0].StoreID)
}

func TestParseObservations_MissingColumn(t *testing.T) {
	input := `store_id,status
s1,active
`
	_, _, err := ParseObservations(reader(input))
	assert.Error(t, err)
}

func TestParseBusinessHours(t *testing.T) {
	input := `store_id,dayOfWeek,start_time_local,end_time_local
s1,0,09:00:00,17:00:00
s1,9,09:00:00,17:00:00
s2,two,09:00:00,17:00:00
`
	hours, dropped, err := ParseBusinessHours(reader(input))
	require.NoError(t, err)

	assert.Equal(t, 2, dropped)
	require.Len(t, hours, 1)
	assert.Equal(t, store.BusinessHoursRow{
		StoreID:    "s1",
		DayOfWeek:  0,
		StartLocal: "09:00:00",
		EndLocal:   "17:00:00",
	}, hours[0])
}

func TestParseTimezones(t *testing.T) {
	input := `store_id,timezone_str
s1,America/Chicago
s2,
`
	zones, dropped, err := ParseTimezones(reader(input))
	require.NoError(t, err)

	assert.Equal(t, 1, dropped)
	require.Len(t, zones, 1)
	assert.Equal(t, store.Timezone{StoreID: "s1", Name: "America/Chicago"}, zones[0])
}

func TestLoaderRun(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, StoreStatusFile, `store_id,status,timestamp_utc
s1,active,2023-01-25 10:05:00 UTC
s1,garbage,2023-01-25 10:06:00 UTC
`)
	writeFile(t, dir, BusinessHoursFile, `store_id,dayOfWeek,start_time_local,end_time_local
s1,0,09:00:00,17:00:00
`)
	writeFile(t, dir, TimezonesFile, `store_id,timezone_str
s1,America/Chicago
`)

	repo := &fakeRepo{}
	loader := NewLoader(repo, dir)

	stats, err := loader.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, repo.truncated)
	assert.Equal(t, 1, stats.Observations)
	assert.Equal(t, 1, stats.BusinessHours)
	assert.Equal(t, 1, stats.Timezones)
	assert.Equal(t, 1, stats.Dropped.Observations)
	assert.Len(t, repo.observations, 1)
}

func TestLoaderRun_MissingFile(t *testing.T) {
	repo := &fakeRepo{}
	loader := NewLoader(repo, t.TempDir())

	_, err := loader.Run(context.Background())
	assert.Error(t, err)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}
