package db

import "time"

// Band represents a database band record
type Band struct {
	ID                string
	Name              string
	LeaderID          string
	CalendarSubmitted bool
	ShareToken        string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// BandCalendar represents a band's self-reported availability for one date
type BandCalendar struct {
	ID          string
	BandID      string
	Date        string
	IsAvailable bool
}

// Bandmate represents a delegate addressed only by an opaque token
type Bandmate struct {
	ID     string
	BandID string
	Name   string
	Token  string
}

// BandmateAvailability represents a bandmate's unavailability for one date
type BandmateAvailability struct {
	ID            string
	BandmateID    string
	Date          string
	IsUnavailable bool
}

// FinalAvailabilityRow is one row returned by the server-side merge function.
// Date is passed through in whatever representation the driver produced.
type FinalAvailabilityRow struct {
	Date        any
	IsAvailable bool
}
