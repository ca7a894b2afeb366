// Package availability merges a band's own calendar with its bandmates'
// unavailability into the final per-date view.
package availability

import (
	"sort"

	"github.com/jakechorley/bandcal/pkg/core/calendar"
)

// Map maps canonical dates to a boolean flag. For band calendars the flag means
// "available"; for bandmates it means "unavailable".
type Map map[string]bool

// Get returns the value for date or def when the date is absent
func (m Map) Get(date string, def bool) bool {
	if v, ok := m[date]; ok {
		return v
	}
	return def
}

// Clone returns an independent copy of m
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Dates returns the keys of m in chronological order
func (m Map) Dates() []string {
	dates := make([]string, 0, len(m))
	for d := range m {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Equal reports whether both maps hold exactly the same entries
func (m Map) Equal(other Map) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		ov, ok := other[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Row is a single (date, flag) pair as returned by the record store or the
// aggregation function. Date may be any representation the normalizer accepts.
type Row struct {
	Date  any
	Value bool
}

// FromRows builds a Map from rows, normalizing every date
func FromRows(n calendar.Normalizer, rows []Row) Map {
	m := make(Map, len(rows))
	for _, r := range rows {
		m[n.Normalize(r.Date)] = r.Value
	}
	return m
}

// DefaultPolicy decides what an absent band entry means
type DefaultPolicy bool

const (
	// AssumeAvailable is used where the band leader edits their own calendar:
	// a date never marked is open.
	AssumeAvailable DefaultPolicy = true
	// AssumeUnavailable is the conservative default for read-only and public views.
	AssumeUnavailable DefaultPolicy = false
)

// Source records how a FinalAvailability was produced
type Source int

const (
	// SourceAggregated means the server-side merge succeeded
	SourceAggregated Source = iota
	// SourceBandOnly means the aggregation failed and only raw band rows were used.
	// Bandmate unavailability is missing from the result.
	SourceBandOnly
)

func (s Source) String() string {
	switch s {
	case SourceAggregated:
		return "aggregated"
	case SourceBandOnly:
		return "band-only"
	default:
		return "unknown"
	}
}

// FinalAvailability is the authoritative per-date availability of a band
type FinalAvailability struct {
	BandID string
	Dates  Map
	Source Source
	Policy DefaultPolicy
}

// Degraded reports whether bandmate input is missing from the result
func (f FinalAvailability) Degraded() bool {
	return f.Source == SourceBandOnly
}

// IsAvailable looks a date up, applying the policy the result was built with
func (f FinalAvailability) IsAvailable(date string) bool {
	return f.Dates.Get(date, bool(f.Policy))
}
