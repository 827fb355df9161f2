package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/campushub/services/events/internal/metrics"
	"example.com/campushub/services/events/internal/models"
	"example.com/campushub/services/events/internal/notifier"
	"example.com/campushub/services/events/internal/repositories"
)

// Stores the reminder scans read from. Satisfied by the repositories
// package; narrowed here so scans can be tested against fakes.
type eventStore interface {
	FindClosingBetween(ctx context.Context, from, to time.Time) ([]models.Event, error)
}

type assignmentStore interface {
	FindDueBetween(ctx context.Context, from, to time.Time) ([]repositories.DueAssignment, error)
}

type studentStore interface {
	ListCohort(ctx context.Context, facultyID, semester int) ([]models.StudentProfile, error)
}

type submissionStore interface {
	Exists(ctx context.Context, assignmentID int, studentID string) (bool, error)
}

// NotificationGateway is the three-call contract the reminder loop
// needs from the notification subsystem.
type NotificationGateway interface {
	SendToUser(ctx context.Context, userID string, msg notifier.Message) error
	CreateForAudience(ctx context.Context, audience string, msg notifier.Message) error
	HasNotificationByReminderKey(ctx context.Context, notificationType string, userID *string, reminderKey string) (bool, error)
}

// ReminderService scans for deadlines roughly a day out and delivers
// deduplicated reminders. Correctness comes from the reminder keys,
// not from precise scheduling: a deadline may be observed by several
// ticks of the coarse poll, but the same key is never sent twice.
type ReminderService struct {
	events      eventStore
	assignments assignmentStore
	students    studentStore
	submissions submissionStore
	gateway     NotificationGateway
	metrics     *metrics.Metrics

	leadTime  time.Duration
	windowPad time.Duration
	now       func() time.Time
}

// NewReminderService creates a new reminder service. leadTime is how
// far ahead of a deadline reminders fire; windowPad widens the scan
// band on both sides to absorb the polling interval.
func NewReminderService(
	events eventStore,
	assignments assignmentStore,
	students studentStore,
	submissions submissionStore,
	gateway NotificationGateway,
	collector *metrics.Metrics,
	leadTime, windowPad time.Duration,
) *ReminderService {
	return &ReminderService{
		events:      events,
		assignments: assignments,
		students:    students,
		submissions: submissions,
		gateway:     gateway,
		metrics:     collector,
		leadTime:    leadTime,
		windowPad:   windowPad,
		now:         time.Now,
	}
}

// EventReminderKey is the dedup key for an event's registration
// deadline reminder. Deterministic: every tick that observes the same
// event computes the same key.
func EventReminderKey(eventID int) string {
	return fmt.Sprintf("event-registration-deadline:%d:24h", eventID)
}

// AssignmentReminderKey is the per-student dedup key for an assignment
// deadline reminder.
func AssignmentReminderKey(assignmentID int, studentID string) string {
	return fmt.Sprintf("assignment-deadline:%d:%s:24h", assignmentID, studentID)
}

// Run executes both deadline scans. Each scan's failure is terminal
// for this tick only: it is logged and does not block the other scan
// or the recurring timer.
func (s *ReminderService) Run(ctx context.Context) {
	start := time.Now()

	if err := s.sendEventRegistrationDeadlineReminders(ctx); err != nil {
		s.metrics.IncrementCounter(metrics.CounterScanFailures)
		log.Error().Err(err).Msg("event registration deadline scan failed")
	}

	if err := s.sendAssignmentDeadlineReminders(ctx); err != nil {
		s.metrics.IncrementCounter(metrics.CounterScanFailures)
		log.Error().Err(err).Msg("assignment deadline scan failed")
	}

	s.metrics.RecordTimer("reminder_tick", time.Since(start).Milliseconds())
}

// window returns the [from, to) scan band centered leadTime out.
func (s *ReminderService) window() (time.Time, time.Time) {
	now := s.now()
	return now.Add(s.leadTime - s.windowPad), now.Add(s.leadTime + s.windowPad)
}

func (s *ReminderService) sendEventRegistrationDeadlineReminders(ctx context.Context) error {
	from, to := s.window()

	candidates, err := s.events.FindClosingBetween(ctx, from, to)
	if err != nil {
		return err
	}

	for _, event := range candidates {
		reminderKey := EventReminderKey(event.ID)

		alreadySent, err := s.gateway.HasNotificationByReminderKey(ctx, models.NotificationTypeEventRegistrationDeadline, nil, reminderKey)
		if err != nil {
			return err
		}
		if alreadySent {
			s.metrics.IncrementCounter(metrics.CounterRemindersSkipped)
			continue
		}

		data := map[string]string{
			"eventId":     strconv.Itoa(event.ID),
			"clubId":      strconv.Itoa(event.ClubID),
			"eventTitle":  event.Title,
			"reminderKey": reminderKey,
			"iconKey":     "event",
		}
		if event.BannerURL != nil {
			data["thumbnailUrl"] = *event.BannerURL
		}

		err = s.gateway.CreateForAudience(ctx, models.AudienceAll, notifier.Message{
			Type:        models.NotificationTypeEventRegistrationDeadline,
			Title:       "Registration closing soon",
			Body:        fmt.Sprintf("%q closes registration in about 24 hours.", event.Title),
			ReminderKey: reminderKey,
			Data:        data,
		})
		if err != nil {
			return err
		}

		s.metrics.IncrementCounter(metrics.CounterRemindersSent)
		log.Info().Int("event_id", event.ID).Str("reminder_key", reminderKey).Msg("event deadline reminder sent")
	}

	return nil
}

func (s *ReminderService) sendAssignmentDeadlineReminders(ctx context.Context) error {
	from, to := s.window()

	dueSoon, err := s.assignments.FindDueBetween(ctx, from, to)
	if err != nil {
		return err
	}

	for _, assignment := range dueSoon {
		students, err := s.students.ListCohort(ctx, assignment.FacultyID, assignment.SemesterNumber)
		if err != nil {
			return err
		}

		for _, student := range students {
			submitted, err := s.submissions.Exists(ctx, assignment.AssignmentID, student.UserID)
			if err != nil {
				return err
			}
			if submitted {
				continue
			}

			reminderKey := AssignmentReminderKey(assignment.AssignmentID, student.UserID)

			userID := student.UserID
			alreadySent, err := s.gateway.HasNotificationByReminderKey(ctx, models.NotificationTypeAssignmentDeadline, &userID, reminderKey)
			if err != nil {
				return err
			}
			if alreadySent {
				s.metrics.IncrementCounter(metrics.CounterRemindersSkipped)
				continue
			}

			err = s.gateway.SendToUser(ctx, student.UserID, notifier.Message{
				Type:        models.NotificationTypeAssignmentDeadline,
				Title:       "Assignment due soon",
				Body:        fmt.Sprintf("%q is due in about 24 hours.", assignment.AssignmentTitle),
				ReminderKey: reminderKey,
				Data: map[string]string{
					"type":            models.NotificationTypeAssignmentDeadline,
					"assignmentId":    strconv.Itoa(assignment.AssignmentID),
					"subjectId":       strconv.Itoa(assignment.SubjectID),
					"subjectTitle":    assignment.SubjectTitle,
					"assignmentTitle": assignment.AssignmentTitle,
					"dueAt":           assignment.DueAt.UTC().Format(time.RFC3339),
					"reminderKey":     reminderKey,
					"iconKey":         "classroom",
				},
			})
			if err != nil {
				return err
			}

			s.metrics.IncrementCounter(metrics.CounterRemindersSent)
			log.Info().
				Int("assignment_id", assignment.AssignmentID).
				Str("student_id", student.UserID).
				Str("reminder_key", reminderKey).
				Msg("assignment deadline reminder sent")
		}
	}

	return nil
}
