package repositories

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/campushub/services/events/internal/models"
)

// DueAssignment is an assignment joined with the subject fields needed
// to resolve its student audience.
type DueAssignment struct {
	AssignmentID    int
	AssignmentTitle string
	DueAt           time.Time
	SubjectID       int
	SubjectTitle    string
	FacultyID       int
	SemesterNumber  int
}

// AssignmentRepository provides read access to classroom assignments
type AssignmentRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *gorm.DB, readOnlyDB *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// FindDueBetween returns assignments with a due date inside [from, to),
// joined with their subject for audience resolution.
func (r *AssignmentRepository) FindDueBetween(ctx context.Context, from, to time.Time) ([]DueAssignment, error) {
	var due []DueAssignment
	err := r.readOnlyDB.WithContext(ctx).
		Model(&models.Assignment{}).
		Select(`assignments.id AS assignment_id,
			assignments.title AS assignment_title,
			assignments.due_at AS due_at,
			subjects.id AS subject_id,
			subjects.title AS subject_title,
			subjects.faculty_id AS faculty_id,
			subjects.semester_number AS semester_number`).
		Joins("INNER JOIN subjects ON subjects.id = assignments.subject_id").
		Where("assignments.due_at IS NOT NULL AND assignments.due_at >= ? AND assignments.due_at < ?", from, to).
		Scan(&due).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find assignments due in window")
	}
	return due, nil
}

// StudentProfileRepository provides read access to student profiles
type StudentProfileRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewStudentProfileRepository creates a new student profile repository
func NewStudentProfileRepository(db *gorm.DB, readOnlyDB *gorm.DB) *StudentProfileRepository {
	return &StudentProfileRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// ListCohort returns the students whose faculty and current semester
// match a subject, i.e. the audience for its deadlines.
func (r *StudentProfileRepository) ListCohort(ctx context.Context, facultyID, semester int) ([]models.StudentProfile, error) {
	var students []models.StudentProfile
	err := r.readOnlyDB.WithContext(ctx).
		Where("faculty_id = ? AND current_semester = ?", facultyID, semester).
		Find(&students).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list cohort students")
	}
	return students, nil
}

// SubmissionRepository provides read access to submissions
type SubmissionRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *gorm.DB, readOnlyDB *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Exists reports whether the student already submitted the assignment.
func (r *SubmissionRepository) Exists(ctx context.Context, assignmentID int, studentID string) (bool, error) {
	var count int64
	err := r.readOnlyDB.WithContext(ctx).
		Model(&models.Submission{}).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check submission existence")
	}
	return count > 0, nil
}
