// Package schedule resolves each store's weekly business hours and timezone,
// substituting named default policies when rows are missing. It performs no
// timezone math itself; it only hands local wall-clock rules downstream.
package schedule

import (
	"sort"
	"time"

	"github.com/nadmax/storepulse/internal/store"
)

// DefaultTimezone is assumed for stores with no timezone row. Business hours
// are defined in local time, so raw UTC is never used as a local zone.
const DefaultTimezone = "America/Chicago"

// DefaultPolicy names a fallback rule applied when input data is missing,
// so tests can target each branch independently.
type DefaultPolicy string

const (
	// PolicyAlwaysOpen fires when a store has no business-hours rows:
	// it is treated as open 24/7.
	PolicyAlwaysOpen DefaultPolicy = "always_open"
	// PolicyDefaultTimezone fires when a store has no timezone row, or its
	// timezone name cannot be loaded.
	PolicyDefaultTimezone DefaultPolicy = "default_timezone"
)

// Shift is one open span within a local day, in seconds since local
// midnight, Start < End.
type Shift struct {
	Start int
	End   int
}

// Resolved is a store's normalized weekly schedule. Shifts is indexed by
// day of week with 0 = Monday, each day sorted by start with overlapping
// entries merged.
type Resolved struct {
	StoreID    string
	Location   *time.Location
	Shifts     [7][]Shift
	AlwaysOpen bool
	Applied    []DefaultPolicy
}

// DayIndex converts a time.Weekday to the Monday-based 0..6 index used by
// the business-hours data.
func DayIndex(w time.Weekday) int {
	return (int(w) + 6) % 7
}

// Resolve builds the store's schedule from the snapshot, applying default
// policies for missing rows. It is a pure function of the snapshot.
func Resolve(snap *store.Snapshot, storeID string) Resolved {
	r := Resolved{StoreID: storeID}

	name, ok := snap.TimezoneName(storeID)
	if !ok {
		name = DefaultTimezone
		r.Applied = append(r.Applied, PolicyDefaultTimezone)
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		loc, _ = time.LoadLocation(DefaultTimezone)
		if !appliedPolicy(r.Applied, PolicyDefaultTimezone) {
			r.Applied = append(r.Applied, PolicyDefaultTimezone)
		}
	}
	r.Location = loc

	hours := snap.Hours(storeID)
	if len(hours) == 0 {
		r.AlwaysOpen = true
		r.Applied = append(r.Applied, PolicyAlwaysOpen)
		for day := range r.Shifts {
			r.Shifts[day] = []Shift{{Start: 0, End: store.EndOfDay.Seconds()}}
		}
		return r
	}

	for _, h := range hours {
		r.Shifts[h.DayOfWeek] = append(r.Shifts[h.DayOfWeek], Shift{
			Start: h.Start.Seconds(),
			End:   h.End.Seconds(),
		})
	}
	for day := range r.Shifts {
		r.Shifts[day] = mergeShifts(r.Shifts[day])
	}

	return r
}

// mergeShifts sorts a day's shifts and merges overlapping or touching spans
// so downstream intersection never double counts.
func mergeShifts(shifts []Shift) []Shift {
	if len(shifts) < 2 {
		return shifts
	}

	sort.Slice(shifts, func(i, j int) bool {
		if shifts[i].Start != shifts[j].Start {
			return shifts[i].Start < shifts[j].Start
		}
		return shifts[i].End < shifts[j].End
	})

	merged := shifts[:1]
	for _, s := range shifts[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}

	return merged
}

func appliedPolicy(applied []DefaultPolicy, p DefaultPolicy) bool {
	for _, a := range applied {
		if a == p {
			return true
		}
	}
	return false
}
