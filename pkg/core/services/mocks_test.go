package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jakechorley/bandcal/pkg/db"
)

// mockDB is an in-memory db.Database used across the service tests
type mockDB struct {
	mu sync.Mutex

	bands        map[string]*db.Band
	calendars    map[string]map[string]bool // band_id -> date -> is_available
	bandmates    []db.Bandmate
	unavailable  map[string]map[string]bool // bandmate_id -> date -> is_unavailable
	finalRows    map[string][]db.FinalAvailabilityRow
	aggErr       error
	calendarErr  error
	insertErr    error
	submittedIDs []string
}

func newMockDB() *mockDB {
	return &mockDB{
		bands:       map[string]*db.Band{},
		calendars:   map[string]map[string]bool{},
		unavailable: map[string]map[string]bool{},
		finalRows:   map[string][]db.FinalAvailabilityRow{},
	}
}

func (m *mockDB) GetBand(ctx context.Context, id string) (*db.Band, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bands[id]
	if !ok {
		return nil, fmt.Errorf("band %s: %w", id, db.ErrNotFound)
	}
	cp := *b
	return &cp, nil
}

func (m *mockDB) GetSubmittedBands(ctx context.Context) ([]db.Band, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Band
	for _, id := range m.submittedIDs {
		out = append(out, *m.bands[id])
	}
	return out, nil
}

func (m *mockDB) InsertBand(ctx context.Context, band *db.Band) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *band
	m.bands[band.ID] = &cp
	return nil
}

func (m *mockDB) SetCalendarSubmitted(ctx context.Context, bandID string, submitted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bands[bandID]
	if !ok {
		return fmt.Errorf("band %s: %w", bandID, db.ErrNotFound)
	}
	b.CalendarSubmitted = submitted
	if submitted {
		m.submittedIDs = append(m.submittedIDs, bandID)
	}
	return nil
}

func (m *mockDB) UpsertBandCalendar(ctx context.Context, bandID, date string, isAvailable bool) (*db.BandCalendar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calendars[bandID] == nil {
		m.calendars[bandID] = map[string]bool{}
	}
	m.calendars[bandID][date] = isAvailable
	return &db.BandCalendar{BandID: bandID, Date: date, IsAvailable: isAvailable}, nil
}

func (m *mockDB) GetBandCalendar(ctx context.Context, bandID string) ([]db.BandCalendar, error) {
	if m.calendarErr != nil {
		return nil, m.calendarErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.BandCalendar
	for date, v := range m.calendars[bandID] {
		out = append(out, db.BandCalendar{BandID: bandID, Date: date, IsAvailable: v})
	}
	return out, nil
}

func (m *mockDB) InsertBandmate(ctx context.Context, bandmate *db.Bandmate) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bandmates = append(m.bandmates, *bandmate)
	return nil
}

func (m *mockDB) GetBandmates(ctx context.Context, bandID string) ([]db.Bandmate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Bandmate
	for _, bm := range m.bandmates {
		if bm.BandID == bandID {
			out = append(out, bm)
		}
	}
	return out, nil
}

func (m *mockDB) GetBandmateByToken(ctx context.Context, token string) (*db.Bandmate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, bm := range m.bandmates {
		if bm.Token == token {
			cp := bm
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("invalid token: %w", db.ErrNotFound)
}

func (m *mockDB) UpsertBandmateAvailability(ctx context.Context, bandmateID, date string, isUnavailable bool) (*db.BandmateAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable[bandmateID] == nil {
		m.unavailable[bandmateID] = map[string]bool{}
	}
	m.unavailable[bandmateID][date] = isUnavailable
	return &db.BandmateAvailability{BandmateID: bandmateID, Date: date, IsUnavailable: isUnavailable}, nil
}

func (m *mockDB) GetBandmateAvailability(ctx context.Context, bandmateID string) ([]db.BandmateAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.BandmateAvailability
	for date, v := range m.unavailable[bandmateID] {
		out = append(out, db.BandmateAvailability{BandmateID: bandmateID, Date: date, IsUnavailable: v})
	}
	return out, nil
}

func (m *mockDB) GetFinalAvailability(ctx context.Context, bandID string) ([]db.FinalAvailabilityRow, error) {
	if m.aggErr != nil {
		return nil, m.aggErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finalRows[bandID], nil
}

var _ db.Database = (*mockDB)(nil)

type mockInvalidator struct {
	mu    sync.Mutex
	bands []string
	err   error
}

func (m *mockInvalidator) Invalidate(ctx context.Context, bandID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bands = append(m.bands, bandID)
	return m.err
}

var errAggregationDown = errors.New("function get_band_availability_with_bandmates does not exist")
