package editor

import (
	"context"

	"github.com/jakechorley/bandcal/pkg/core/availability"
)

// Store is the slice of the record store one calendar edits: the band's own
// calendar or a single bandmate's unavailability.
type Store interface {
	// Persist upserts the value for one canonical date
	Persist(ctx context.Context, date string, value bool) error
	// Fetch returns the authoritative state. Keys may be in any date representation.
	Fetch(ctx context.Context) (availability.Map, error)
}

// Outcome is the result of an edit or a submission
type Outcome int

const (
	// OutcomePending means the edit is owned by a request still in flight
	OutcomePending Outcome = iota
	// OutcomeConfirmed means the edit is durably stored and verified
	OutcomeConfirmed
	// OutcomeFailed means a write failed; the edit is still unsaved
	OutcomeFailed
	// OutcomeUnconfirmed means writes succeeded but the stored state could not be
	// verified; the edit is still unsaved and may or may not have landed
	OutcomeUnconfirmed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeFailed:
		return "failed"
	case OutcomeUnconfirmed:
		return "unconfirmed"
	default:
		return "unknown"
	}
}

// Change is one unsaved date edit
type Change struct {
	Date  string
	Value bool
}

// Result reports what happened to a batch of changes
type Result struct {
	Outcome Outcome
	Changes []Change
	// Attempts is the number of verification fetches performed
	Attempts int
	Err      error
}

// EditState is the per-date state of the controller
type EditState int

const (
	StateSaved EditState = iota
	StatePending
)
