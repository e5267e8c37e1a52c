// Package timeline reconstructs a gap-free up/down timeline for a store
// from its sparse point-in-time observations.
package timeline

import (
	"time"

	"github.com/nadmax/storepulse/internal/store"
)

// DefaultStatus is assumed for any span preceding the store's first
// observation in history. With no evidence of downtime the store is
// presumed up.
const DefaultStatus = store.StatusActive

// Interval is a maximal half-open span [Start, End) of constant status in
// absolute time.
type Interval struct {
	Start  time.Time
	End    time.Time
	Status store.Status
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Reconstruct converts a store's full observation history, sorted ascending
// by timestamp, into a sequence of intervals that partitions
// [horizonStart, horizonEnd) with no gaps or overlaps.
//
// Each observation's status holds until the next observation (forward fill).
// The last observation strictly before the horizon carries its status in up
// to the first in-window observation; with no prior observation anywhere the
// leading gap gets DefaultStatus. The final status is forward-filled to the
// horizon end. A store with no observations at all yields a single
// DefaultStatus interval covering the whole horizon.
//
// Observations sharing a timestamp are resolved deterministically: the input
// is stably sorted, so the first row at that instant wins.
func Reconstruct(observations []store.Observation, horizonStart, horizonEnd time.Time) []Interval {
	if !horizonStart.Before(horizonEnd) {
		return nil
	}

	status := DefaultStatus
	cursor := horizonStart
	var out []Interval
	var lastApplied time.Time

	for _, o := range observations {
		if !lastApplied.IsZero() && o.Timestamp.Equal(lastApplied) {
			continue
		}
		if o.Timestamp.Before(horizonStart) {
			status = o.Status
			lastApplied = o.Timestamp
			continue
		}
		if !o.Timestamp.Before(horizonEnd) {
			break
		}

		if o.Timestamp.After(cursor) {
			out = appendInterval(out, Interval{Start: cursor, End: o.Timestamp, Status: status})
			cursor = o.Timestamp
		}
		status = o.Status
		lastApplied = o.Timestamp
	}

	if cursor.Before(horizonEnd) {
		out = appendInterval(out, Interval{Start: cursor, End: horizonEnd, Status: status})
	}

	return out
}

// appendInterval coalesces adjacent intervals of identical status.
func appendInterval(out []Interval, iv Interval) []Interval {
	if n := len(out); n > 0 && out[n-1].Status == iv.Status {
		out[n-1].End = iv.End
		return out
	}
	return append(out, iv)
}
