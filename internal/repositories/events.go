package repositories

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/campushub/services/events/internal/models"
)

// EventRepository provides access to event data
type EventRepository struct {
	db         *gorm.DB // Write database
	readOnlyDB *gorm.DB // Read-only database
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB, readOnlyDB *gorm.DB) *EventRepository {
	return &EventRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// GetByID gets an event by ID. Returns ErrEventNotFound when no row
// exists.
func (r *EventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	var event models.Event
	err := r.readOnlyDB.WithContext(ctx).First(&event, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, errors.Wrap(err, "failed to get event by ID")
	}
	return &event, nil
}

// ClaimSeat increments the participant counter as a single conditional
// update. The WHERE clause re-checks capacity against the committed
// row, so two racing registrations for the last slot cannot both
// succeed. Returns ErrEventFull when the guard rejects the increment.
func (r *EventRepository) ClaimSeat(ctx context.Context, tx *gorm.DB, eventID int) error {
	result := tx.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ? AND (max_participants IS NULL OR current_participants < max_participants)", eventID).
		Update("current_participants", gorm.Expr("current_participants + 1"))

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to claim event seat")
	}
	if result.RowsAffected == 0 {
		return ErrEventFull
	}
	return nil
}

// ReleaseSeat decrements the participant counter, floored at zero. The
// guard makes redundant releases a no-op rather than driving the
// counter negative.
func (r *EventRepository) ReleaseSeat(ctx context.Context, tx *gorm.DB, eventID int) error {
	result := tx.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ? AND current_participants > 0", eventID).
		Update("current_participants", gorm.Expr("current_participants - 1"))

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to release event seat")
	}
	return nil
}

// FindClosingBetween returns open events whose registration deadline
// falls inside [from, to). Only events without a lifecycle status are
// candidates for deadline reminders.
func (r *EventRepository) FindClosingBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	var events []models.Event
	err := r.readOnlyDB.WithContext(ctx).
		Where("status IS NULL AND is_registration_open = ?", true).
		Where("registration_deadline >= ? AND registration_deadline < ?", from, to).
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find events closing in window")
	}
	return events, nil
}
