package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"example.com/campushub/services/events/internal/models"
)

func newNotification(userID *string, notificationType, reminderKey string) *models.Notification {
	n := &models.Notification{
		ID:     uuid.New(),
		UserID: userID,
		Type:   notificationType,
		Title:  "title",
		Body:   "body",
	}
	if reminderKey != "" {
		n.ReminderKey = &reminderKey
	}
	return n
}

func TestExistsByReminderKeyBroadcastScope(t *testing.T) {
	db := newTestDB(t)
	repo := NewNotificationRepository(db, db)
	ctx := context.Background()

	key := "event-registration-deadline:7:24h"

	exists, err := repo.ExistsByReminderKey(ctx, models.NotificationTypeEventRegistrationDeadline, nil, key)
	require.NoError(t, err)
	require.False(t, exists)

	broadcast := newNotification(nil, models.NotificationTypeEventRegistrationDeadline, key)
	broadcast.Audience = strPtr(models.AudienceAll)
	require.NoError(t, repo.Create(ctx, broadcast))

	exists, err = repo.ExistsByReminderKey(ctx, models.NotificationTypeEventRegistrationDeadline, nil, key)
	require.NoError(t, err)
	require.True(t, exists)

	// A different key for the same type is still unsent
	exists, err = repo.ExistsByReminderKey(ctx, models.NotificationTypeEventRegistrationDeadline, nil, "event-registration-deadline:8:24h")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestExistsByReminderKeyPerUserScope(t *testing.T) {
	db := newTestDB(t)
	repo := NewNotificationRepository(db, db)
	ctx := context.Background()

	key := "assignment-deadline:3:student-1:24h"
	require.NoError(t, repo.Create(ctx, newNotification(strPtr("student-1"), models.NotificationTypeAssignmentDeadline, key)))

	exists, err := repo.ExistsByReminderKey(ctx, models.NotificationTypeAssignmentDeadline, strPtr("student-1"), key)
	require.NoError(t, err)
	require.True(t, exists)

	// Another student's check does not see student-1's reminder
	exists, err = repo.ExistsByReminderKey(ctx, models.NotificationTypeAssignmentDeadline, strPtr("student-2"), "assignment-deadline:3:student-2:24h")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestListForUserIncludesBroadcasts(t *testing.T) {
	db := newTestDB(t)
	repo := NewNotificationRepository(db, db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newNotification(strPtr("student-1"), models.NotificationTypeAssignmentDeadline, "")))
	require.NoError(t, repo.Create(ctx, newNotification(strPtr("student-2"), models.NotificationTypeAssignmentDeadline, "")))

	broadcast := newNotification(nil, models.NotificationTypeEventRegistrationDeadline, "")
	broadcast.Audience = strPtr(models.AudienceAll)
	require.NoError(t, repo.Create(ctx, broadcast))

	inbox, err := repo.ListForUser(ctx, "student-1", 50)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
}

func TestMarkReadFlow(t *testing.T) {
	db := newTestDB(t)
	repo := NewNotificationRepository(db, db)
	ctx := context.Background()

	first := newNotification(strPtr("student-1"), models.NotificationTypeAssignmentDeadline, "")
	second := newNotification(strPtr("student-1"), models.NotificationTypeAssignmentDeadline, "")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	count, err := repo.UnreadCount(ctx, "student-1")
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	rows, err := repo.MarkRead(ctx, first.ID, "student-1")
	require.NoError(t, err)
	require.EqualValues(t, 1, rows)

	// Already read, and not readable by another user
	rows, err = repo.MarkRead(ctx, first.ID, "student-1")
	require.NoError(t, err)
	require.EqualValues(t, 0, rows)
	rows, err = repo.MarkRead(ctx, second.ID, "student-2")
	require.NoError(t, err)
	require.EqualValues(t, 0, rows)

	count, err = repo.UnreadCount(ctx, "student-1")
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	require.NoError(t, repo.MarkAllRead(ctx, "student-1"))

	count, err = repo.UnreadCount(ctx, "student-1")
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
}
