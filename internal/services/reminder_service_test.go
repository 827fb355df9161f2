package services

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/campushub/services/events/internal/metrics"
	"example.com/campushub/services/events/internal/models"
	"example.com/campushub/services/events/internal/notifier"
	"example.com/campushub/services/events/internal/repositories"
)

// Mock stores for testing
type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) FindClosingBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]models.Event), args.Error(1)
}

type MockAssignmentStore struct {
	mock.Mock
}

func (m *MockAssignmentStore) FindDueBetween(ctx context.Context, from, to time.Time) ([]repositories.DueAssignment, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]repositories.DueAssignment), args.Error(1)
}

type MockStudentStore struct {
	mock.Mock
}

func (m *MockStudentStore) ListCohort(ctx context.Context, facultyID, semester int) ([]models.StudentProfile, error) {
	args := m.Called(ctx, facultyID, semester)
	return args.Get(0).([]models.StudentProfile), args.Error(1)
}

type MockSubmissionStore struct {
	mock.Mock
}

func (m *MockSubmissionStore) Exists(ctx context.Context, assignmentID int, studentID string) (bool, error) {
	args := m.Called(ctx, assignmentID, studentID)
	return args.Bool(0), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) SendToUser(ctx context.Context, userID string, msg notifier.Message) error {
	args := m.Called(ctx, userID, msg)
	return args.Error(0)
}

func (m *MockGateway) CreateForAudience(ctx context.Context, audience string, msg notifier.Message) error {
	args := m.Called(ctx, audience, msg)
	return args.Error(0)
}

func (m *MockGateway) HasNotificationByReminderKey(ctx context.Context, notificationType string, userID *string, reminderKey string) (bool, error) {
	args := m.Called(ctx, notificationType, userID, reminderKey)
	return args.Bool(0), args.Error(1)
}

type reminderFixture struct {
	service     *ReminderService
	events      *MockEventStore
	assignments *MockAssignmentStore
	students    *MockStudentStore
	submissions *MockSubmissionStore
	gateway     *MockGateway
	metrics     *metrics.Metrics
	now         time.Time
}

func newReminderFixture(t *testing.T) *reminderFixture {
	t.Helper()

	f := &reminderFixture{
		events:      new(MockEventStore),
		assignments: new(MockAssignmentStore),
		students:    new(MockStudentStore),
		submissions: new(MockSubmissionStore),
		gateway:     new(MockGateway),
		metrics:     metrics.NewMetrics(),
		now:         time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	f.service = NewReminderService(
		f.events, f.assignments, f.students, f.submissions,
		f.gateway, f.metrics,
		24*time.Hour, time.Hour,
	)
	f.service.now = func() time.Time { return f.now }

	return f
}

func (f *reminderFixture) window() (time.Time, time.Time) {
	return f.now.Add(23 * time.Hour), f.now.Add(25 * time.Hour)
}

func TestReminderKeyFormats(t *testing.T) {
	require.Equal(t, "event-registration-deadline:42:24h", EventReminderKey(42))
	require.Equal(t, "assignment-deadline:7:student-1:24h", AssignmentReminderKey(7, "student-1"))
}

func TestRunScansWindowAroundLeadTime(t *testing.T) {
	f := newReminderFixture(t)
	from, to := f.window()

	// Both scans query the same [now+23h, now+25h) band
	f.events.On("FindClosingBetween", mock.Anything, from, to).Return([]models.Event{}, nil)
	f.assignments.On("FindDueBetween", mock.Anything, from, to).Return([]repositories.DueAssignment{}, nil)

	f.service.Run(context.Background())

	f.events.AssertExpectations(t)
	f.assignments.AssertExpectations(t)
}

func TestEventReminderBroadcast(t *testing.T) {
	f := newReminderFixture(t)
	from, to := f.window()

	deadline := f.now.Add(24 * time.Hour)
	banner := "https://cdn.campus.edu/banners/37.png"
	event := models.Event{
		ID:                   37,
		ClubID:               5,
		Title:                "Spring Gala",
		BannerURL:            &banner,
		IsRegistrationOpen:   true,
		RegistrationDeadline: &deadline,
	}

	f.events.On("FindClosingBetween", mock.Anything, from, to).Return([]models.Event{event}, nil)
	f.assignments.On("FindDueBetween", mock.Anything, from, to).Return([]repositories.DueAssignment{}, nil)
	f.gateway.On("HasNotificationByReminderKey", mock.Anything,
		models.NotificationTypeEventRegistrationDeadline, (*string)(nil), "event-registration-deadline:37:24h").
		Return(false, nil)
	f.gateway.On("CreateForAudience", mock.Anything, models.AudienceAll,
		mock.MatchedBy(func(msg notifier.Message) bool {
			return msg.Type == models.NotificationTypeEventRegistrationDeadline &&
				msg.ReminderKey == "event-registration-deadline:37:24h" &&
				msg.Data["eventId"] == "37" &&
				msg.Data["clubId"] == "5" &&
				msg.Data["thumbnailUrl"] == banner
		})).Return(nil)

	f.service.Run(context.Background())

	f.gateway.AssertExpectations(t)
	require.EqualValues(t, 1, f.metrics.GetCounters()[metrics.CounterRemindersSent])
}

func TestEventReminderSkipsAlreadySent(t *testing.T) {
	f := newReminderFixture(t)
	from, to := f.window()

	f.events.On("FindClosingBetween", mock.Anything, from, to).
		Return([]models.Event{{ID: 37, Title: "Spring Gala"}}, nil)
	f.assignments.On("FindDueBetween", mock.Anything, from, to).Return([]repositories.DueAssignment{}, nil)
	f.gateway.On("HasNotificationByReminderKey", mock.Anything,
		models.NotificationTypeEventRegistrationDeadline, (*string)(nil), "event-registration-deadline:37:24h").
		Return(true, nil)

	f.service.Run(context.Background())

	f.gateway.AssertNotCalled(t, "CreateForAudience", mock.Anything, mock.Anything, mock.Anything)
	require.EqualValues(t, 1, f.metrics.GetCounters()[metrics.CounterRemindersSkipped])
	require.Zero(t, f.metrics.GetCounters()[metrics.CounterRemindersSent])
}

func TestAssignmentReminderSkipsSubmitted(t *testing.T) {
	f := newReminderFixture(t)
	from, to := f.window()

	dueAt := f.now.Add(24 * time.Hour)
	assignment := repositories.DueAssignment{
		AssignmentID:    7,
		AssignmentTitle: "Lab Report 3",
		DueAt:           dueAt,
		SubjectID:       2,
		SubjectTitle:    "Physics II",
		FacultyID:       1,
		SemesterNumber:  4,
	}
	cohort := []models.StudentProfile{
		{UserID: "student-1", FacultyID: 1, CurrentSemester: 4},
		{UserID: "student-2", FacultyID: 1, CurrentSemester: 4},
	}

	f.events.On("FindClosingBetween", mock.Anything, from, to).Return([]models.Event{}, nil)
	f.assignments.On("FindDueBetween", mock.Anything, from, to).
		Return([]repositories.DueAssignment{assignment}, nil)
	f.students.On("ListCohort", mock.Anything, 1, 4).Return(cohort, nil)

	// student-1 already submitted, only student-2 gets a reminder
	f.submissions.On("Exists", mock.Anything, 7, "student-1").Return(true, nil)
	f.submissions.On("Exists", mock.Anything, 7, "student-2").Return(false, nil)

	key2 := "assignment-deadline:7:student-2:24h"
	f.gateway.On("HasNotificationByReminderKey", mock.Anything,
		models.NotificationTypeAssignmentDeadline, mock.MatchedBy(func(userID *string) bool {
			return userID != nil && *userID == "student-2"
		}), key2).Return(false, nil)
	f.gateway.On("SendToUser", mock.Anything, "student-2",
		mock.MatchedBy(func(msg notifier.Message) bool {
			return msg.Type == models.NotificationTypeAssignmentDeadline &&
				msg.ReminderKey == key2 &&
				msg.Data["assignmentId"] == "7" &&
				msg.Data["dueAt"] == dueAt.UTC().Format(time.RFC3339)
		})).Return(nil)

	f.service.Run(context.Background())

	f.gateway.AssertExpectations(t)
	f.gateway.AssertNumberOfCalls(t, "SendToUser", 1)
	require.EqualValues(t, 1, f.metrics.GetCounters()[metrics.CounterRemindersSent])
}

func TestAssignmentReminderDedupIsPerStudent(t *testing.T) {
	f := newReminderFixture(t)
	from, to := f.window()

	assignment := repositories.DueAssignment{
		AssignmentID:    7,
		AssignmentTitle: "Essay Draft",
		DueAt:           f.now.Add(24 * time.Hour),
		SubjectID:       2,
		SubjectTitle:    "Literature",
		FacultyID:       1,
		SemesterNumber:  4,
	}
	cohort := []models.StudentProfile{
		{UserID: "student-1", FacultyID: 1, CurrentSemester: 4},
		{UserID: "student-2", FacultyID: 1, CurrentSemester: 4},
	}

	f.events.On("FindClosingBetween", mock.Anything, from, to).Return([]models.Event{}, nil)
	f.assignments.On("FindDueBetween", mock.Anything, from, to).
		Return([]repositories.DueAssignment{assignment}, nil)
	f.students.On("ListCohort", mock.Anything, 1, 4).Return(cohort, nil)
	f.submissions.On("Exists", mock.Anything, 7, mock.Anything).Return(false, nil)

	// student-1 was already reminded on an earlier tick
	f.gateway.On("HasNotificationByReminderKey", mock.Anything,
		models.NotificationTypeAssignmentDeadline, mock.MatchedBy(func(userID *string) bool {
			return userID != nil && *userID == "student-1"
		}), "assignment-deadline:7:student-1:24h").Return(true, nil)
	f.gateway.On("HasNotificationByReminderKey", mock.Anything,
		models.NotificationTypeAssignmentDeadline, mock.MatchedBy(func(userID *string) bool {
			return userID != nil && *userID == "student-2"
		}), "assignment-deadline:7:student-2:24h").Return(false, nil)
	f.gateway.On("SendToUser", mock.Anything, "student-2", mock.Anything).Return(nil)

	f.service.Run(context.Background())

	f.gateway.AssertNumberOfCalls(t, "SendToUser", 1)
	require.EqualValues(t, 1, f.metrics.GetCounters()[metrics.CounterRemindersSent])
	require.EqualValues(t, 1, f.metrics.GetCounters()[metrics.CounterRemindersSkipped])
}

func TestScanFailureDoesNotBlockOtherScan(t *testing.T) {
	f := newReminderFixture(t)
	from, to := f.window()

	f.events.On("FindClosingBetween", mock.Anything, from, to).
		Return([]models.Event{}, errors.New("read replica down"))
	f.assignments.On("FindDueBetween", mock.Anything, from, to).Return([]repositories.DueAssignment{}, nil)

	f.service.Run(context.Background())

	// The assignment scan still ran on this tick
	f.assignments.AssertExpectations(t)
	require.EqualValues(t, 1, f.metrics.GetCounters()[metrics.CounterScanFailures])
}
