package repositories

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"example.com/campushub/services/events/internal/models"
)

// newTestDB opens a throwaway SQLite database with migrations applied.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "events_test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.SetupModels(db))

	return db
}

func seedEvent(t *testing.T, db *gorm.DB, event *models.Event) *models.Event {
	t.Helper()

	if event.ClubID == 0 {
		club := models.Club{Name: "Robotics Club"}
		require.NoError(t, db.Create(&club).Error)
		event.ClubID = club.ID
	}
	require.NoError(t, db.Create(event).Error)
	return event
}

func seedUser(t *testing.T, db *gorm.DB, id, name, email string) {
	t.Helper()
	require.NoError(t, db.Create(&models.User{ID: id, Name: name, Email: email}).Error)
}

func intPtr(v int) *int          { return &v }
func strPtr(v string) *string    { return &v }
func timePtr(v time.Time) *time.Time { return &v }

func TestGetByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewEventRepository(db, db)

	_, err := repo.GetByID(context.Background(), 404)
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestClaimSeatEnforcesCapacity(t *testing.T) {
	db := newTestDB(t)
	repo := NewEventRepository(db, db)
	ctx := context.Background()

	event := seedEvent(t, db, &models.Event{
		Title:               "Soldering Workshop",
		IsRegistrationOpen:  true,
		MaxParticipants:     intPtr(2),
		CurrentParticipants: 0,
	})

	require.NoError(t, repo.ClaimSeat(ctx, db, event.ID))
	require.NoError(t, repo.ClaimSeat(ctx, db, event.ID))

	// The conditional update refuses the third claim
	err := repo.ClaimSeat(ctx, db, event.ID)
	require.ErrorIs(t, err, ErrEventFull)

	var reloaded models.Event
	require.NoError(t, db.First(&reloaded, event.ID).Error)
	require.Equal(t, 2, reloaded.CurrentParticipants)
}

func TestClaimSeatUnlimitedCapacity(t *testing.T) {
	db := newTestDB(t)
	repo := NewEventRepository(db, db)
	ctx := context.Background()

	event := seedEvent(t, db, &models.Event{
		Title:              "Open Mic Night",
		IsRegistrationOpen: true,
		MaxParticipants:    nil,
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.ClaimSeat(ctx, db, event.ID))
	}

	var reloaded models.Event
	require.NoError(t, db.First(&reloaded, event.ID).Error)
	require.Equal(t, 5, reloaded.CurrentParticipants)
}

func TestReleaseSeatFloorsAtZero(t *testing.T) {
	db := newTestDB(t)
	repo := NewEventRepository(db, db)
	ctx := context.Background()

	event := seedEvent(t, db, &models.Event{
		Title:               "Chess Tournament",
		IsRegistrationOpen:  true,
		CurrentParticipants: 1,
	})

	require.NoError(t, repo.ReleaseSeat(ctx, db, event.ID))
	require.NoError(t, repo.ReleaseSeat(ctx, db, event.ID))

	var reloaded models.Event
	require.NoError(t, db.First(&reloaded, event.ID).Error)
	require.Equal(t, 0, reloaded.CurrentParticipants)
}

func TestFindClosingBetween(t *testing.T) {
	db := newTestDB(t)
	repo := NewEventRepository(db, db)
	ctx := context.Background()

	from := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	to := from.Add(2 * time.Hour)

	inWindow := seedEvent(t, db, &models.Event{
		Title:                "In Window",
		IsRegistrationOpen:   true,
		RegistrationDeadline: timePtr(from.Add(time.Hour)),
	})
	// Deadline at the exclusive upper bound must not match
	seedEvent(t, db, &models.Event{
		Title:                "At Upper Bound",
		ClubID:               inWindow.ClubID,
		IsRegistrationOpen:   true,
		RegistrationDeadline: timePtr(to),
	})
	seedEvent(t, db, &models.Event{
		Title:                "Registration Closed",
		ClubID:               inWindow.ClubID,
		IsRegistrationOpen:   false,
		RegistrationDeadline: timePtr(from.Add(time.Hour)),
	})
	seedEvent(t, db, &models.Event{
		Title:                "Already Finished",
		ClubID:               inWindow.ClubID,
		Status:               strPtr("finished"),
		IsRegistrationOpen:   true,
		RegistrationDeadline: timePtr(from.Add(time.Hour)),
	})
	seedEvent(t, db, &models.Event{
		Title:              "No Deadline",
		ClubID:             inWindow.ClubID,
		IsRegistrationOpen: true,
	})

	events, err := repo.FindClosingBetween(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, inWindow.ID, events[0].ID)

	// The lower bound is inclusive
	events, err = repo.FindClosingBetween(ctx, from.Add(time.Hour), to)
	require.NoError(t, err)
	require.Len(t, events, 1)
}
