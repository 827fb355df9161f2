package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"example.com/campushub/services/events/internal/metrics"
	"example.com/campushub/services/events/internal/models"
	"example.com/campushub/services/events/internal/repositories"
	"example.com/campushub/services/events/internal/tracing"
)

// RegistrationService enforces the event registration business rules:
// open/closed state, capacity, deadline, and the duplicate/cancel/
// re-register lifecycle. Every mutation runs in one transaction so the
// participant counter stays consistent with the registration rows.
type RegistrationService struct {
	db            *gorm.DB
	events        *repositories.EventRepository
	registrations *repositories.RegistrationRepository
	metrics       *metrics.Metrics
	tracer        tracing.Tracer
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(
	db *gorm.DB,
	events *repositories.EventRepository,
	registrations *repositories.RegistrationRepository,
	collector *metrics.Metrics,
	tracer tracing.Tracer,
) *RegistrationService {
	return &RegistrationService{
		db:            db,
		events:        events,
		registrations: registrations,
		metrics:       collector,
		tracer:        tracer,
	}
}

// RegistrationSummary is one row of an event's registration list.
type RegistrationSummary struct {
	RegistrationID int            `json:"registration_id"`
	Status         string         `json:"status"`
	RegisteredAt   time.Time      `json:"registered_at"`
	AttendedAt     *time.Time     `json:"attended_at"`
	Student        StudentSummary `json:"student"`
}

// StudentSummary is the minimal identity joined onto a registration.
type StudentSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Register registers a student for an event. Validation and the seat
// claim run inside a single transaction; the seat claim itself is a
// conditional update, so a race for the last slot fails with Full
// instead of overbooking.
func (s *RegistrationService) Register(ctx context.Context, userID string, eventID int) Result {
	txn := s.tracer.StartTransaction("register-for-event")
	defer s.tracer.EndTransaction(txn)
	s.tracer.AddAttribute(txn, "event_id", eventID)
	s.tracer.AddAttribute(txn, "user_id", userID)

	var registration *models.EventRegistration

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.First(&event, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repositories.ErrEventNotFound
			}
			return errors.Wrap(err, "failed to load event")
		}

		if !event.IsRegistrationOpen {
			return repositories.ErrRegistrationClosed
		}
		if event.MaxParticipants != nil && event.CurrentParticipants >= *event.MaxParticipants {
			return repositories.ErrEventFull
		}
		if event.RegistrationDeadline != nil && time.Now().After(*event.RegistrationDeadline) {
			return repositories.ErrDeadlinePassed
		}

		existing, err := s.registrations.FindByEventAndUser(ctx, tx, eventID, userID)
		if err != nil {
			return err
		}

		switch {
		case existing == nil:
			registration, err = s.registrations.Create(ctx, tx, eventID, userID)
			if err != nil {
				return err
			}
		case existing.Status == models.RegistrationStatusCancelled:
			if err := s.registrations.Reactivate(ctx, tx, existing); err != nil {
				return err
			}
			registration = existing
		default:
			return repositories.ErrAlreadyRegistered
		}

		return s.events.ClaimSeat(ctx, tx, eventID)
	})

	if err != nil {
		s.tracer.RecordError(txn, err)
		s.metrics.IncrementCounter(metrics.CounterRegistrationsRejected)
		return s.registerFailure(err, userID, eventID)
	}

	s.metrics.IncrementCounter(metrics.CounterRegistrations)
	log.Info().
		Str("user_id", userID).
		Int("event_id", eventID).
		Int("registration_id", registration.ID).
		Msg("student registered for event")

	return success("Successfully registered for event", registration)
}

func (s *RegistrationService) registerFailure(err error, userID string, eventID int) Result {
	switch {
	case errors.Is(err, repositories.ErrEventNotFound):
		return failure(ReasonNotFound, "Event not found")
	case errors.Is(err, repositories.ErrRegistrationClosed):
		return failure(ReasonClosed, "Registration is closed for this event")
	case errors.Is(err, repositories.ErrEventFull):
		return failure(ReasonFull, "Event is full")
	case errors.Is(err, repositories.ErrDeadlinePassed):
		return failure(ReasonDeadlinePassed, "Registration deadline has passed")
	case errors.Is(err, repositories.ErrAlreadyRegistered):
		return failure(ReasonAlreadyRegistered, "You are already registered for this event")
	default:
		log.Error().Err(err).Str("user_id", userID).Int("event_id", eventID).Msg("registration failed")
		return failure(ReasonInternal, err.Error())
	}
}

// Cancel cancels the student's active registration. The participant
// counter is only released when an active row was actually cancelled,
// so redundant cancels can never drain seats taken by other students.
func (s *RegistrationService) Cancel(ctx context.Context, userID string, eventID int) Result {
	txn := s.tracer.StartTransaction("cancel-registration")
	defer s.tracer.EndTransaction(txn)
	s.tracer.AddAttribute(txn, "event_id", eventID)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.registrations.CancelActive(ctx, tx, eventID, userID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return repositories.ErrRegistrationNotFound
		}
		return s.events.ReleaseSeat(ctx, tx, eventID)
	})

	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return failure(ReasonNotFound, "No active registration found")
		}
		s.tracer.RecordError(txn, err)
		log.Error().Err(err).Str("user_id", userID).Int("event_id", eventID).Msg("cancellation failed")
		return failure(ReasonInternal, err.Error())
	}

	s.metrics.IncrementCounter(metrics.CounterCancellations)
	log.Info().Str("user_id", userID).Int("event_id", eventID).Msg("registration cancelled")

	return success("Registration cancelled successfully", nil)
}

// ListRegistrations returns all registrations for an event with the
// student's identity, newest first. An empty list is a valid result.
func (s *RegistrationService) ListRegistrations(ctx context.Context, eventID int) Result {
	regs, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		log.Error().Err(err).Int("event_id", eventID).Msg("failed to list registrations")
		return failure(ReasonInternal, err.Error())
	}

	summaries := make([]RegistrationSummary, 0, len(regs))
	for _, reg := range regs {
		summaries = append(summaries, RegistrationSummary{
			RegistrationID: reg.ID,
			Status:         reg.Status,
			RegisteredAt:   reg.RegisteredAt,
			AttendedAt:     reg.AttendedAt,
			Student: StudentSummary{
				ID:    reg.User.ID,
				Name:  reg.User.Name,
				Email: reg.User.Email,
			},
		})
	}

	if len(summaries) == 0 {
		return success("No registrations yet", summaries)
	}
	return success("", summaries)
}

// ActiveRegistration is a student's active registration joined with
// its event and the event's owning club.
type ActiveRegistration struct {
	Registration *models.EventRegistration `json:"registration"`
	Event        *models.Event             `json:"event"`
	Club         *models.Club              `json:"club"`
}

// GetActiveRegistration returns the student's single active
// registration, if any.
func (s *RegistrationService) GetActiveRegistration(ctx context.Context, userID string) Result {
	reg, err := s.registrations.FindActiveByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to find active registration")
		return failure(ReasonInternal, err.Error())
	}
	if reg == nil {
		return failure(ReasonNotFound, "No active registration found for this student")
	}

	return success("", ActiveRegistration{
		Registration: reg,
		Event:        &reg.Event,
		Club:         &reg.Event.Club,
	})
}
