package repositories

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/campushub/services/events/internal/models"
)

// RegistrationRepository provides access to event registration data
type RegistrationRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewRegistrationRepository creates a new registration repository
func NewRegistrationRepository(db *gorm.DB, readOnlyDB *gorm.DB) *RegistrationRepository {
	return &RegistrationRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// FindByEventAndUser returns the registration row for (event, user)
// regardless of status, or nil when the student never registered.
func (r *RegistrationRepository) FindByEventAndUser(ctx context.Context, tx *gorm.DB, eventID int, userID string) (*models.EventRegistration, error) {
	var reg models.EventRegistration
	err := tx.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to look up registration")
	}
	return &reg, nil
}

// Create inserts a fresh registered row for a first-time registration.
func (r *RegistrationRepository) Create(ctx context.Context, tx *gorm.DB, eventID int, userID string) (*models.EventRegistration, error) {
	reg := &models.EventRegistration{
		EventID:      eventID,
		UserID:       userID,
		Status:       models.RegistrationStatusRegistered,
		RegisteredAt: time.Now(),
	}
	if err := tx.WithContext(ctx).Create(reg).Error; err != nil {
		return nil, errors.Wrap(err, "failed to create registration")
	}
	return reg, nil
}

// Reactivate flips a cancelled row back to registered. The historical
// row is reused; a student re-registering keeps the same id.
func (r *RegistrationRepository) Reactivate(ctx context.Context, tx *gorm.DB, reg *models.EventRegistration) error {
	now := time.Now()
	reg.Status = models.RegistrationStatusRegistered
	reg.RegisteredAt = now
	reg.CancelledAt = nil

	err := tx.WithContext(ctx).
		Model(reg).
		Updates(map[string]interface{}{
			"status":        models.RegistrationStatusRegistered,
			"registered_at": now,
			"cancelled_at":  nil,
		}).Error
	if err != nil {
		return errors.Wrap(err, "failed to reactivate registration")
	}
	return nil
}

// CancelActive marks the active registration for (event, user) as
// cancelled and reports how many rows matched. Zero rows means there
// was no active registration to cancel.
func (r *RegistrationRepository) CancelActive(ctx context.Context, tx *gorm.DB, eventID int, userID string) (int64, error) {
	now := time.Now()
	result := tx.WithContext(ctx).
		Model(&models.EventRegistration{}).
		Where("event_id = ? AND user_id = ? AND status = ?", eventID, userID, models.RegistrationStatusRegistered).
		Updates(map[string]interface{}{
			"status":       models.RegistrationStatusCancelled,
			"cancelled_at": now,
		})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to cancel registration")
	}
	return result.RowsAffected, nil
}

// ListByEvent returns all registrations for an event with the
// student's identity, newest first. An empty slice is a valid result.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID int) ([]models.EventRegistration, error) {
	var regs []models.EventRegistration
	err := r.readOnlyDB.WithContext(ctx).
		Preload("User").
		Where("event_id = ?", eventID).
		Order("registered_at DESC").
		Find(&regs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list registrations for event")
	}
	return regs, nil
}

// FindActiveByUser returns the student's single active registration
// with its event and owning club, or nil when none exists.
func (r *RegistrationRepository) FindActiveByUser(ctx context.Context, userID string) (*models.EventRegistration, error) {
	var reg models.EventRegistration
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Event").
		Preload("Event.Club").
		Where("user_id = ? AND status = ?", userID, models.RegistrationStatusRegistered).
		First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find active registration")
	}
	return &reg, nil
}
