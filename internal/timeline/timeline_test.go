package timeline

import (
	"testing"
	"time"

	"github.com/nadmax/storepulse/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func obs(storeID, at string, status store.Status) store.Observation {
	return store.Observation{StoreID: storeID, Timestamp: ts(at), Status: status}
}

// requirePartition checks that intervals exactly tile [start, end)
// with no gaps or overlaps.
func requirePartition(t *testing.T, intervals []Interval, start, end time.Time) {
	t.Helper()
	require.NotEmpty(t, intervals)
	assert.Equal(t, start, intervals[0].Start)
	assert.Equal(t, end, intervals[len(intervals)-1].End)

	var total time.Duration
	for i, iv := range intervals {
		assert.True(t, iv.Start.Before(iv.End), "interval %d is empty or inverted", i)
		if i > 0 {
			assert.Equal(t, intervals[i-1].End, iv.Start, "gap or overlap before interval %d", i)
		}
		total += iv.Duration()
	}
	assert.Equal(t, end.Sub(start), total)
}

func TestReconstruct_NoObservationsAtAll(t *testing.T) {
	start, end := ts("2023-01-18T12:00:00Z"), ts("2023-01-25T12:00:00Z")

	intervals := Reconstruct(nil, start, end)

	require.Len(t, intervals, 1)
	assert.Equal(t, DefaultStatus, intervals[0].Status)
	requirePartition(t, intervals, start, end)
}

func TestReconstruct_ForwardFill(t *testing.T) {
	start, end := ts("2023-01-25T00:00:00Z"), ts("2023-01-25T12:00:00Z")
	observations := []store.Observation{
		obs("s1", "2023-01-25T02:00:00Z", store.StatusActive),
		obs("s1", "2023-01-25T05:00:00Z", store.StatusInactive),
		obs("s1", "2023-01-25T08:00:00Z", store.StatusActive),
	}

	intervals := Reconstruct(observations, start, end)

	requirePartition(t, intervals, start, end)
	require.Len(t, intervals, 3)

	// Leading gap is default-optimistic and coalesces with the first
	// active observation.
	assert.Equal(t, Interval{Start: start, End: ts("2023-01-25T05:00:00Z"), Status: store.StatusActive}, intervals[0])
	assert.Equal(t, Interval{Start: ts("2023-01-25T05:00:00Z"), End: ts("2023-01-25T08:00:00Z"), Status: store.StatusInactive}, intervals[1])
	assert.Equal(t, Interval{Start: ts("2023-01-25T08:00:00Z"), End: end, Status: store.StatusActive}, intervals[2])
}

func TestReconstruct_CarryInExtendsToFirstObservation(t *testing.T) {
	start, end := ts("2023-01-25T06:00:00Z"), ts("2023-01-25T12:00:00Z")
	observations := []store.Observation{
		obs("s1", "2023-01-25T01:00:00Z", store.StatusInactive),
		obs("s1", "2023-01-25T09:00:00Z", store.StatusActive),
	}

	intervals := Reconstruct(observations, start, end)

	requirePartition(t, intervals, start, end)
	require.Len(t, intervals, 2)
	assert.Equal(t, store.StatusInactive, intervals[0].Status)
	assert.Equal(t, ts("2023-01-25T09:00:00Z"), intervals[0].End)
	assert.Equal(t, store.StatusActive, intervals[1].Status)
}

func TestReconstruct_OnlyLatestCarryInCounts(t *testing.T) {
	start, end := ts("2023-01-25T06:00:00Z"), ts("2023-01-25T12:00:00Z")
	observations := []store.Observation{
		obs("s1", "2023-01-24T01:00:00Z", store.StatusActive),
		obs("s1", "2023-01-25T01:00:00Z", store.StatusInactive),
	}

	intervals := Reconstruct(observations, start, end)

	require.Len(t, intervals, 1)
	assert.Equal(t, store.StatusInactive, intervals[0].Status)
	requirePartition(t, intervals, start, end)
}

func TestReconstruct_TrailingStatusHoldsToHorizonEnd(t *testing.T) {
	start, end := ts("2023-01-25T00:00:00Z"), ts("2023-01-25T12:00:00Z")
	observations := []store.Observation{
		obs("s1", "2023-01-25T03:00:00Z", store.StatusInactive),
	}

	intervals := Reconstruct(observations, start, end)

	requirePartition(t, intervals, start, end)
	require.Len(t, intervals, 2)
	assert.Equal(t, store.StatusActive, intervals[0].Status)
	assert.Equal(t, Interval{Start: ts("2023-01-25T03:00:00Z"), End: end, Status: store.StatusInactive}, intervals[1])
}

func TestReconstruct_CoalescesEqualStatus(t *testing.T) {
	start, end := ts("2023-01-25T00:00:00Z"), ts("2023-01-25T12:00:00Z")
	observations := []store.Observation{
		obs("s1", "2023-01-25T02:00:00Z", store.StatusActive),
		obs("s1", "2023-01-25T04:00:00Z", store.StatusActive),
		obs("s1", "2023-01-25T06:00:00Z", store.StatusActive),
	}

	intervals := Reconstruct(observations, start, end)

	require.Len(t, intervals, 1)
	assert.Equal(t, store.StatusActive, intervals[0].Status)
	requirePartition(t, intervals, start, end)
}

func TestReconstruct_DuplicateTimestampFirstWins(t *testing.T) {
	start, end := ts("2023-01-25T00:00:00Z"), ts("2023-01-25T12:00:00Z")
	at := "2023-01-25T06:00:00Z"
	observations := []store.Observation{
		obs("s1", at, store.StatusInactive),
		obs("s1", at, store.StatusActive),
	}

	intervals := Reconstruct(observations, start, end)

	requirePartition(t, intervals, start, end)
	// The outcome must be deterministic: first row in input order wins.
	assert.Equal(t, store.StatusInactive, intervals[len(intervals)-1].Status)
}

func TestReconstruct_IgnoresObservationsPastHorizonEnd(t *testing.T) {
	start, end := ts("2023-01-25T00:00:00Z"), ts("2023-01-25T12:00:00Z")
	observations := []store.Observation{
		obs("s1", "2023-01-25T06:00:00Z", store.StatusInactive),
		obs("s1", "2023-01-25T13:00:00Z", store.StatusActive),
	}

	intervals := Reconstruct(observations, start, end)

	requirePartition(t, intervals, start, end)
	assert.Equal(t, store.StatusInactive, intervals[len(intervals)-1].Status)
}

func TestReconstruct_ObservationAtHorizonStart(t *testing.T) {
	start, end := ts("2023-01-25T00:00:00Z"), ts("2023-01-25T12:00:00Z")
	observations := []store.Observation{
		obs("s1", "2023-01-25T00:00:00Z", store.StatusInactive),
	}

	intervals := Reconstruct(observations, start, end)

	require.Len(t, intervals, 1)
	assert.Equal(t, store.StatusInactive, intervals[0].Status)
	requirePartition(t, intervals, start, end)
}

func TestReconstruct_EmptyHorizon(t *testing.T) {
	at := ts("2023-01-25T00:00:00Z")
	assert.Nil(t, Reconstruct(nil, at, at))
	assert.Nil(t, Reconstruct(nil, at.Add(time.Hour), at))
}
