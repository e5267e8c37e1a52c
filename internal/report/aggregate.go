// Package report implements the uptime/downtime aggregation engine and the
// job controller that runs it per store.
package report

import (
	"math"
	"time"

	"github.com/nadmax/storepulse/internal/schedule"
	"github.com/nadmax/storepulse/internal/store"
	"github.com/nadmax/storepulse/internal/timeline"
)

// Trailing window lengths, all ending at the analysis clock.
const (
	WindowHour = time.Hour
	WindowDay  = 24 * time.Hour
	WindowWeek = 7 * 24 * time.Hour
)

type span struct {
	start time.Time
	end   time.Time
}

// Aggregate clips the store's reconstructed timeline against its business
// hours and each trailing window, summing uptime and downtime. Durations
// stay in integer nanoseconds throughout; conversion to output units and
// rounding to two decimals happen only at the end.
func Aggregate(storeID string, intervals []timeline.Interval, sched schedule.Resolved, now time.Time) store.ReportRow {
	hourUp, hourDown := aggregateWindow(intervals, sched, now.Add(-WindowHour), now)
	dayUp, dayDown := aggregateWindow(intervals, sched, now.Add(-WindowDay), now)
	weekUp, weekDown := aggregateWindow(intervals, sched, now.Add(-WindowWeek), now)

	return store.ReportRow{
		StoreID:          storeID,
		UptimeLastHour:   round2(hourUp.Minutes()),
		UptimeLastDay:    round2(dayUp.Hours()),
		UptimeLastWeek:   round2(weekUp.Hours()),
		DowntimeLastHour: round2(hourDown.Minutes()),
		DowntimeLastDay:  round2(dayDown.Hours()),
		DowntimeLastWeek: round2(weekDown.Hours()),
	}
}

func aggregateWindow(intervals []timeline.Interval, sched schedule.Resolved, start, end time.Time) (up, down time.Duration) {
	spans := businessSpans(sched, start, end)

	i := 0
	for _, sp := range spans {
		for ; i < len(intervals) && !intervals[i].End.After(sp.start); i++ {
		}
		for j := i; j < len(intervals); j++ {
			iv := intervals[j]
			if !iv.Start.Before(sp.end) {
				break
			}

			d := overlap(iv.Start, iv.End, sp.start, sp.end)
			if d <= 0 {
				continue
			}
			if iv.Status == store.StatusActive {
				up += d
			} else {
				down += d
			}
		}
	}

	return up, down
}

// businessSpans materializes the store's open hours as absolute, clipped,
// ordered spans covering the window. It walks local calendar days in the
// store's timezone; shift boundaries are built from local wall-clock seconds
// via time.Date normalization, which keeps them correct across DST changes.
func businessSpans(sched schedule.Resolved, start, end time.Time) []span {
	if !start.Before(end) {
		return nil
	}

	var spans []span
	local := start.In(sched.Location)
	year, month, day := local.Date()

	for offset := 0; ; offset++ {
		dayStart := time.Date(year, month, day+offset, 0, 0, 0, 0, sched.Location)
		if !dayStart.Before(end) {
			break
		}

		for _, sh := range sched.Shifts[schedule.DayIndex(dayStart.Weekday())] {
			s := time.Date(year, month, day+offset, 0, 0, sh.Start, 0, sched.Location)
			e := time.Date(year, month, day+offset, 0, 0, sh.End, 0, sched.Location)

			if s.Before(start) {
				s = start
			}
			if e.After(end) {
				e = end
			}
			if s.Before(e) {
				spans = append(spans, span{start: s, end: e})
			}
		}
	}

	return spans
}

// businessDuration is the total open time within the window; uptime plus
// downtime for the same window always sums to it.
func businessDuration(sched schedule.Resolved, start, end time.Time) time.Duration {
	var total time.Duration
	for _, sp := range businessSpans(sched, start, end) {
		total += sp.end.Sub(sp.start)
	}
	return total
}

func overlap(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	s := aStart
	if bStart.After(s) {
		s = bStart
	}
	e := aEnd
	if bEnd.Before(e) {
		e = bEnd
	}
	return e.Sub(s)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
