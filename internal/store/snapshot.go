package store

import (
	"sort"
	"time"
)

// DroppedCounts records how many malformed rows were rejected per input
// table while building a snapshot. Rejection is local: the row is excluded
// and the job proceeds.
type DroppedCounts struct {
	Observations  int
	BusinessHours int
	Timezones     int
}

func (d DroppedCounts) Total() int {
	return d.Observations + d.BusinessHours + d.Timezones
}

// Snapshot is the immutable dataset a single report job computes against.
// Observations are sorted stably by timestamp per store, so rows sharing a
// timestamp keep their input order and the first one wins downstream.
// Now is the latest observation timestamp across all stores; every trailing
// window is computed backward from it, never from the wall clock.
type Snapshot struct {
	now          time.Time
	observations map[string][]Observation
	hours        map[string][]BusinessHours
	timezones    map[string]string
	storeIDs     []string
	dropped      DroppedCounts
}

// NewSnapshot validates and indexes the three input tables. Malformed rows
// (unknown status, zero timestamp, day out of range, unparsable or inverted
// local times, empty ids) are dropped and counted.
func NewSnapshot(observations []Observation, hours []BusinessHoursRow, zones []Timezone) *Snapshot {
	s := &Snapshot{
		observations: make(map[string][]Observation),
		hours:        make(map[string][]BusinessHours),
		timezones:    make(map[string]string),
	}

	for _, o := range observations {
		if o.StoreID == "" || o.Timestamp.IsZero() ||
			(o.Status != StatusActive && o.Status != StatusInactive) {
			s.dropped.Observations++
			continue
		}

		s.observations[o.StoreID] = append(s.observations[o.StoreID], o)
		if o.Timestamp.After(s.now) {
			s.now = o.Timestamp
		}
	}

	for _, h := range hours {
		bh, err := validateHours(h)
		if err != nil {
			s.dropped.BusinessHours++
			continue
		}
		s.hours[h.StoreID] = append(s.hours[h.StoreID], bh)
	}

	for _, z := range zones {
		if z.StoreID == "" || z.Name == "" {
			s.dropped.Timezones++
			continue
		}
		s.timezones[z.StoreID] = z.Name
	}

	for id, obs := range s.observations {
		sort.SliceStable(obs, func(i, j int) bool {
			return obs[i].Timestamp.Before(obs[j].Timestamp)
		})
		s.storeIDs = append(s.storeIDs, id)
	}
	sort.Strings(s.storeIDs)

	return s
}

func validateHours(h BusinessHoursRow) (BusinessHours, error) {
	if h.StoreID == "" || h.DayOfWeek < 0 || h.DayOfWeek > 6 {
		return BusinessHours{}, errInvalidRow
	}

	start, err := ParseLocalTime(h.StartLocal)
	if err != nil {
		return BusinessHours{}, err
	}

	end, err := ParseLocalTime(h.EndLocal)
	if err != nil {
		return BusinessHours{}, err
	}

	if start >= end {
		return BusinessHours{}, errInvalidRow
	}

	return BusinessHours{DayOfWeek: h.DayOfWeek, Start: start, End: end}, nil
}

// Now returns the analysis clock: the latest observation timestamp in the
// dataset. It is the zero time when the snapshot holds no observations.
func (s *Snapshot) Now() time.Time { return s.now }

// StoreIDs returns every store id with at least one valid observation,
// sorted for deterministic iteration.
func (s *Snapshot) StoreIDs() []string { return s.storeIDs }

// Observations returns the store's full observation history, sorted
// ascending by timestamp.
func (s *Snapshot) Observations(storeID string) []Observation {
	return s.observations[storeID]
}

// Hours returns the store's validated business-hours entries, or nil when
// the store has none.
func (s *Snapshot) Hours(storeID string) []BusinessHours {
	return s.hours[storeID]
}

// TimezoneName returns the store's configured timezone name, if any.
func (s *Snapshot) TimezoneName(storeID string) (string, bool) {
	name, ok := s.timezones[storeID]
	return name, ok
}

// Dropped reports how many malformed rows were rejected during construction.
func (s *Snapshot) Dropped() DroppedCounts { return s.dropped }
