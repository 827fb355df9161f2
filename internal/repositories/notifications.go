package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/campushub/services/events/internal/models"
)

// NotificationRepository provides access to in-app notification data
type NotificationRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB, readOnlyDB *gorm.DB) *NotificationRepository {
	return &NotificationRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create persists a notification row.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return errors.Wrap(err, "failed to create notification")
	}
	return nil
}

// ExistsByReminderKey reports whether a reminder with the given type
// and key was already recorded. Broadcast checks pass a nil userID;
// per-user checks scope the lookup to that user.
func (r *NotificationRepository) ExistsByReminderKey(ctx context.Context, notificationType string, userID *string, reminderKey string) (bool, error) {
	query := r.readOnlyDB.WithContext(ctx).
		Model(&models.Notification{}).
		Where("type = ? AND reminder_key = ?", notificationType, reminderKey)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed to check notification by reminder key")
	}
	return count > 0, nil
}

// ListForUser returns the user's inbox, newest first: direct
// notifications plus audience broadcasts.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.readOnlyDB.WithContext(ctx).
		Where("user_id = ? OR audience = ?", userID, models.AudienceAll).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}
	return notifications, nil
}

// UnreadCount counts the user's unread direct notifications.
func (r *NotificationRepository) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.readOnlyDB.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count unread notifications")
	}
	return count, nil
}

// MarkRead marks one of the user's notifications as read and reports
// whether a row matched.
func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).
		Update("read_at", gorm.Expr("CURRENT_TIMESTAMP"))
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to mark notification read")
	}
	return result.RowsAffected, nil
}

// MarkAllRead marks all of the user's unread notifications as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
	if err != nil {
		return errors.Wrap(err, "failed to mark all notifications read")
	}
	return nil
}
