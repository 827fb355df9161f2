package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Registration lifecycle states. Cancelled rows are kept and flipped
// back to registered on re-registration, never recreated.
const (
	RegistrationStatusRegistered = "registered"
	RegistrationStatusCancelled  = "cancelled"
)

// Notification types carried by reminder keys.
const (
	NotificationTypeEventRegistrationDeadline = "event_registration_deadline"
	NotificationTypeAssignmentDeadline        = "assignment_deadline"
)

// AudienceAll is the broadcast audience for in-app notifications.
const AudienceAll = "all"

// User is the minimal identity slice this service reads. The auth
// provider owns the full record.
type User struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"not null;uniqueIndex" json:"email"`
}

// Club owns events.
type Club struct {
	ID        int            `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"not null" json:"name"`
}

// Event represents a club event students can register for.
type Event struct {
	ID                   int            `gorm:"primaryKey" json:"id"`
	CreatedAt            time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
	ClubID               int            `gorm:"not null;index" json:"club_id"`
	Title                string         `gorm:"not null" json:"title"`
	Status               *string        `json:"status"`
	BannerURL            *string        `json:"banner_url"`
	RegistrationDeadline *time.Time     `json:"registration_deadline"`
	IsRegistrationOpen   bool           `gorm:"not null;default:true" json:"is_registration_open"`
	MaxParticipants      *int           `json:"max_participants"`
	CurrentParticipants  int            `gorm:"not null;default:0" json:"current_participants"`
	Club                 Club           `gorm:"foreignKey:ClubID" json:"-"`
}

// EventRegistration links a student to an event. At most one row per
// (event_id, user_id); status tracks the active/cancelled lifecycle.
type EventRegistration struct {
	ID           int        `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	EventID      int        `gorm:"not null;uniqueIndex:idx_event_user" json:"event_id"`
	UserID       string     `gorm:"not null;uniqueIndex:idx_event_user" json:"user_id"`
	Status       string     `gorm:"not null;default:registered" json:"status"`
	RegisteredAt time.Time  `gorm:"not null" json:"registered_at"`
	CancelledAt  *time.Time `json:"cancelled_at"`
	AttendedAt   *time.Time `json:"attended_at"`
	Event        Event      `gorm:"foreignKey:EventID" json:"-"`
	User         User       `gorm:"foreignKey:UserID" json:"-"`
}

// Subject groups assignments for one faculty cohort.
type Subject struct {
	ID             int       `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Title          string    `gorm:"not null" json:"title"`
	FacultyID      int       `gorm:"not null;index" json:"faculty_id"`
	SemesterNumber int       `gorm:"not null" json:"semester_number"`
}

// Assignment is read-only here; the classroom service owns writes.
type Assignment struct {
	ID        int        `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	SubjectID int        `gorm:"not null;index" json:"subject_id"`
	Title     string     `gorm:"not null" json:"title"`
	DueAt     *time.Time `gorm:"index" json:"due_at"`
	Subject   Subject    `gorm:"foreignKey:SubjectID" json:"-"`
}

// StudentProfile resolves which students a subject's deadlines apply to.
type StudentProfile struct {
	UserID          string    `gorm:"primaryKey" json:"user_id"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	FacultyID       int       `gorm:"not null;index" json:"faculty_id"`
	CurrentSemester int       `gorm:"not null" json:"current_semester"`
	User            User      `gorm:"foreignKey:UserID" json:"-"`
}

// Submission existence for (assignment, student) suppresses reminders.
type Submission struct {
	ID           int        `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	AssignmentID int        `gorm:"not null;uniqueIndex:idx_assignment_student" json:"assignment_id"`
	StudentID    string     `gorm:"not null;uniqueIndex:idx_assignment_student" json:"student_id"`
	SubmittedAt  time.Time  `gorm:"not null" json:"submitted_at"`
	Assignment   Assignment `gorm:"foreignKey:AssignmentID" json:"-"`
}

// Notification is an in-app notification row. UserID is nil for
// audience broadcasts. The (type, user_id, reminder_key) triple is the
// idempotency identity for scheduled reminders.
type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	UserID      *string    `gorm:"index" json:"user_id"`
	Audience    *string    `json:"audience"`
	Type        string     `gorm:"not null;index:idx_type_reminder_key" json:"type"`
	Title       string     `gorm:"not null" json:"title"`
	Body        string     `gorm:"not null" json:"body"`
	Data        []byte     `gorm:"type:jsonb" json:"data"`
	ReminderKey *string    `gorm:"index:idx_type_reminder_key" json:"reminder_key"`
	ReadAt      *time.Time `json:"read_at"`
}

// SetupModels configures GORM models and runs migrations
func SetupModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&User{},
		&Club{},
		&Event{},
		&EventRegistration{},
		&Subject{},
		&Assignment{},
		&StudentProfile{},
		&Submission{},
		&Notification{},
	)

	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}

	return nil
}
