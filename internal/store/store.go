// Package store defines the monitoring domain model: status observations,
// business hours, timezones, report rows, and the immutable per-job Snapshot
// the report pipeline computes against.
package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var errInvalidRow = errors.New("invalid row")

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Observation is a single timestamped up/down reading for one store.
type Observation struct {
	StoreID   string    `json:"store_id"`
	Timestamp time.Time `json:"timestamp_utc"`
	Status    Status    `json:"status"`
}

// BusinessHoursRow is a raw business-hours entry as loaded from the input
// table, local times still unparsed. DayOfWeek is 0..6 with 0 = Monday,
// matching the source data.
type BusinessHoursRow struct {
	StoreID    string `json:"store_id"`
	DayOfWeek  int    `json:"day_of_week"`
	StartLocal string `json:"start_time_local"`
	EndLocal   string `json:"end_time_local"`
}

// BusinessHours is a validated business-hours entry with local times parsed
// to seconds since local midnight.
type BusinessHours struct {
	DayOfWeek int
	Start     LocalTime
	End       LocalTime
}

// Timezone maps a store to its IANA timezone name.
type Timezone struct {
	StoreID string `json:"store_id"`
	Name    string `json:"timezone_str"`
}

// ReportRow is one store's line in the final report. The hour window is
// reported in minutes, the day and week windows in hours.
type ReportRow struct {
	StoreID          string  `json:"store_id"`
	UptimeLastHour   float64 `json:"uptime_last_hour"`
	UptimeLastDay    float64 `json:"uptime_last_day"`
	UptimeLastWeek   float64 `json:"uptime_last_week"`
	DowntimeLastHour float64 `json:"downtime_last_hour"`
	DowntimeLastDay  float64 `json:"downtime_last_day"`
	DowntimeLastWeek float64 `json:"downtime_last_week"`
}

// LocalTime is a local wall-clock time of day in seconds since midnight.
// The value 86400 denotes end of day.
type LocalTime int

const EndOfDay LocalTime = 24 * 60 * 60

// ParseLocalTime parses "HH:MM:SS" (or "HH:MM") into seconds since midnight.
func ParseLocalTime(s string) (LocalTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid local time %q", s)
	}

	var fields [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid local time %q", s)
		}
		fields[i] = v
	}

	if fields[0] > 24 || fields[1] > 59 || fields[2] > 59 {
		return 0, fmt.Errorf("invalid local time %q", s)
	}

	lt := LocalTime(fields[0]*3600 + fields[1]*60 + fields[2])
	if lt > EndOfDay {
		return 0, fmt.Errorf("invalid local time %q", s)
	}

	return lt, nil
}

func (lt LocalTime) Seconds() int { return int(lt) }

func (lt LocalTime) String() string {
	s := int(lt)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s/60)%60, s%60)
}
