package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/bandcal/pkg/core/availability"
	"github.com/jakechorley/bandcal/pkg/core/editor"
	"github.com/jakechorley/bandcal/pkg/db"
)

var testSettings = EditorSettings{VerifyRetries: 3, VerifyBaseDelay: time.Millisecond}

func seededBandmateDB() *mockDB {
	database := newMockDB()
	database.bands["band-1"] = &db.Band{ID: "band-1", Name: "The Mods"}
	database.calendars["band-1"] = map[string]bool{"2024-03-02": false}
	database.bandmates = []db.Bandmate{{ID: "bm-1", BandID: "band-1", Token: "token-1"}}
	database.unavailable["bm-1"] = map[string]bool{"2024-03-03": true}
	return database
}

func TestOpenBandEditor_SubmitPersistsAndInvalidates(t *testing.T) {
	database := newMockDB()
	database.calendars["band-1"] = map[string]bool{"2024-03-01": false}
	inv := &mockInvalidator{}

	ctrl, err := OpenBandEditor(context.Background(), database, inv, zap.NewNop(), testSettings, "band-1")
	require.NoError(t, err)

	assert.False(t, ctrl.Value("2024-03-01"))
	assert.True(t, ctrl.Value("2024-03-05"), "unmarked dates are available to the band")

	_, err = ctrl.Toggle("2024-03-05")
	require.NoError(t, err)
	res := ctrl.Submit(context.Background())

	assert.Equal(t, editor.OutcomeConfirmed, res.Outcome)
	assert.False(t, database.calendars["band-1"]["2024-03-05"])
	assert.Equal(t, []string{"band-1"}, inv.bands)
	assert.Empty(t, ctrl.Unsaved())
}

func TestOpenBandmateEditor_Status(t *testing.T) {
	database := seededBandmateDB()

	session, err := OpenBandmateEditor(context.Background(), database, nil, zap.NewNop(), testSettings, "token-1")
	require.NoError(t, err)

	assert.Equal(t, "bm-1", session.Bandmate.ID)
	assert.Equal(t, "band-1", session.Band.ID)
	assert.Equal(t, availability.StatusBandUnavailable, session.Status("2024-03-02"))
	assert.Equal(t, availability.StatusUnavailable, session.Status("2024-03-03"))
	assert.Equal(t, availability.StatusAvailable, session.Status("2024-03-04"))
}

func TestOpenBandmateEditor_RejectsBandUnavailableDate(t *testing.T) {
	database := seededBandmateDB()

	session, err := OpenBandmateEditor(context.Background(), database, nil, zap.NewNop(), testSettings, "token-1")
	require.NoError(t, err)

	_, err = session.Controller.Toggle("2024-03-02")
	assert.ErrorIs(t, err, availability.ErrDateNotEditable)

	res := session.Controller.ToggleNow(context.Background(), "2024-03-02")
	assert.Equal(t, editor.OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, availability.ErrDateNotEditable)
	assert.NotContains(t, database.unavailable["bm-1"], "2024-03-02")
}

func TestOpenBandmateEditor_ToggleNowInvalidatesBand(t *testing.T) {
	database := seededBandmateDB()
	inv := &mockInvalidator{}

	session, err := OpenBandmateEditor(context.Background(), database, inv, zap.NewNop(), testSettings, "token-1")
	require.NoError(t, err)

	res := session.Controller.ToggleNow(context.Background(), "2024-03-04")
	require.Equal(t, editor.OutcomeConfirmed, res.Outcome)

	assert.True(t, database.unavailable["bm-1"]["2024-03-04"])
	assert.Equal(t, []string{"band-1"}, inv.bands)
	assert.Equal(t, availability.StatusUnavailable, session.Status("2024-03-04"))
}

func TestOpenBandmateEditor_BadToken(t *testing.T) {
	database := seededBandmateDB()

	_, err := OpenBandmateEditor(context.Background(), database, nil, zap.NewNop(), testSettings, "unknown")
	assert.ErrorIs(t, err, db.ErrNotFound)
}
