package notifier

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/campushub/services/events/internal/cache"
	"example.com/campushub/services/events/internal/messaging"
	"example.com/campushub/services/events/internal/models"
	"example.com/campushub/services/events/internal/repositories"
	"example.com/campushub/services/events/internal/search"
)

// Message is one notification to deliver. ReminderKey is set for
// scheduled reminders and empty for ad-hoc sends.
type Message struct {
	Type        string
	Title       string
	Body        string
	ReminderKey string
	Data        map[string]string
}

// Service is the notification delivery gateway. The in-app row is the
// source of truth; push fan-out and search indexing are best effort.
type Service struct {
	repo   *repositories.NotificationRepository
	cache  *cache.RedisCache
	push   messaging.PushSender
	search *search.ElasticClient
}

// New creates the delivery gateway. push and searchClient may be nil
// when those backends are unavailable.
func New(repo *repositories.NotificationRepository, redisCache *cache.RedisCache, push messaging.PushSender, searchClient *search.ElasticClient) *Service {
	return &Service{
		repo:   repo,
		cache:  redisCache,
		push:   push,
		search: searchClient,
	}
}

// SendToUser delivers a direct notification to one user: an in-app
// inbox row plus a push to the relay queue.
func (s *Service) SendToUser(ctx context.Context, userID string, msg Message) error {
	n, err := s.buildRow(msg)
	if err != nil {
		return err
	}
	n.UserID = &userID

	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	if s.push != nil {
		err := s.push.SendPush(ctx, messaging.PushPayload{
			UserID: userID,
			Title:  msg.Title,
			Body:   msg.Body,
			Data:   msg.Data,
		})
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("push delivery failed")
		}
	}

	s.afterDelivery(ctx, n, msg)
	return nil
}

// CreateForAudience delivers an audience-wide broadcast as a single
// in-app row fanned out at read time, plus a broadcast push.
func (s *Service) CreateForAudience(ctx context.Context, audience string, msg Message) error {
	n, err := s.buildRow(msg)
	if err != nil {
		return err
	}
	n.Audience = &audience

	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	if s.push != nil {
		err := s.push.SendPush(ctx, messaging.PushPayload{
			Audience: audience,
			Title:    msg.Title,
			Body:     msg.Body,
			Data:     msg.Data,
		})
		if err != nil {
			log.Warn().Err(err).Str("audience", audience).Msg("broadcast push delivery failed")
		}
	}

	s.afterDelivery(ctx, n, msg)
	return nil
}

// HasNotificationByReminderKey reports whether a reminder was already
// sent. Redis answers the hot path; the notification store is
// authoritative on a cache miss.
func (s *Service) HasNotificationByReminderKey(ctx context.Context, notificationType string, userID *string, reminderKey string) (bool, error) {
	if s.cache != nil && s.cache.HasReminderKey(ctx, reminderKey) {
		return true, nil
	}
	return s.repo.ExistsByReminderKey(ctx, notificationType, userID, reminderKey)
}

func (s *Service) buildRow(msg Message) (*models.Notification, error) {
	n := &models.Notification{
		ID:    uuid.New(),
		Type:  msg.Type,
		Title: msg.Title,
		Body:  msg.Body,
	}

	if msg.ReminderKey != "" {
		key := msg.ReminderKey
		n.ReminderKey = &key
	}

	if len(msg.Data) > 0 {
		data, err := json.Marshal(msg.Data)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal notification data")
		}
		n.Data = data
	}

	return n, nil
}

// afterDelivery marks the dedup key and indexes the delivered row.
// Neither failure can undo a delivery that already happened.
func (s *Service) afterDelivery(ctx context.Context, n *models.Notification, msg Message) {
	if s.cache != nil && msg.ReminderKey != "" {
		if err := s.cache.MarkReminderKey(ctx, msg.ReminderKey); err != nil {
			log.Warn().Err(err).Str("reminder_key", msg.ReminderKey).Msg("failed to mark reminder key")
		}
	}

	if s.search != nil {
		if err := s.search.IndexNotification(ctx, n); err != nil {
			log.Warn().Err(err).Str("notification_id", n.ID.String()).Msg("failed to index notification")
		}
	}
}
