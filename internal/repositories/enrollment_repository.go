package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/openlearn/lms-service/internal/models"
)

// EnrollmentRepository interface for enrollment and progress operations.
// Create must surface ErrDuplicate when the student is already enrolled:
// the unique index on (student_id, course_id) is the single authority on
// duplicates, not a pre-check.
type EnrollmentRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error)
	GetByStudentAndCourse(ctx context.Context, tx *gorm.DB, studentID, courseID uint) (*models.Enrollment, error)

	// GetByStudentAndCourseForUpdate reads the enrollment with a row lock.
	// Read-modify-write of the completed-lesson set must go through this
	// inside a transaction, otherwise concurrent completions of different
	// lessons overwrite each other under read-committed isolation.
	GetByStudentAndCourseForUpdate(ctx context.Context, tx *gorm.DB, studentID, courseID uint) (*models.Enrollment, error)

	Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error

	// Query operations
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID uint, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)

	// Validation and checks
	Exists(ctx context.Context, tx *gorm.DB, studentID, courseID uint) (bool, error)
	CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error)
}
