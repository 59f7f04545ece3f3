package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openlearn/lms-service/internal/cache"
	"github.com/openlearn/lms-service/internal/models"
	"github.com/openlearn/lms-service/internal/repositories"
)

type EnrollmentPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewEnrollmentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (r *EnrollmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create inserts an enrollment. A concurrent duplicate loses the race at
// the unique index on (student_id, course_id) and surfaces as ErrDuplicate.
func (r *EnrollmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	if err := r.getDB(tx).WithContext(ctx).Create(enrollment).Error; err != nil {
		if translated := translateError(err); translated == repositories.ErrDuplicate {
			return translated
		}
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	cache.InvalidateEnrollmentCache(ctx, r.cacheManager, enrollment.StudentID, enrollment.CourseID)
	return nil
}

func (r *EnrollmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.getDB(tx).WithContext(ctx).
		Preload("Course").
		First(&enrollment, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &enrollment, nil
}

func (r *EnrollmentPostgreSQL) GetByStudentAndCourse(ctx context.Context, tx *gorm.DB, studentID, courseID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.getDB(tx).WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &enrollment, nil
}

// GetByStudentAndCourseForUpdate takes SELECT ... FOR UPDATE so a concurrent
// completion blocks until this transaction commits.
func (r *EnrollmentPostgreSQL) GetByStudentAndCourseForUpdate(ctx context.Context, tx *gorm.DB, studentID, courseID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.getDB(tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &enrollment, nil
}

// Update persists the completed-lesson set
func (r *EnrollmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("id = ?", enrollment.ID).
		Updates(map[string]interface{}{
			"completed_lesson_ids": enrollment.CompletedLessonIDs,
			"updated_at":           enrollment.UpdatedAt,
		}).Error; err != nil {
		return fmt.Errorf("failed to update enrollment: %w", err)
	}

	cache.InvalidateEnrollmentCache(ctx, r.cacheManager, enrollment.StudentID, enrollment.CourseID)
	return nil
}

func (r *EnrollmentPostgreSQL) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	query := r.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("student_id = ?", studentID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count enrollments: %w", err)
	}

	query = r.helpers.ApplyPaginationAndSort(query, "enrolled_at", "desc", filters.Limit, filters.Offset)

	var enrollments []*models.Enrollment
	if err := query.Preload("Course").Preload("Course.Instructor").Find(&enrollments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list enrollments: %w", err)
	}

	return enrollments, total, nil
}

func (r *EnrollmentPostgreSQL) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uint, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	query := r.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("course_id = ?", courseID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count enrollments: %w", err)
	}

	query = r.helpers.ApplyPaginationAndSort(query, "enrolled_at", "asc", filters.Limit, filters.Offset)

	var enrollments []*models.Enrollment
	if err := query.Preload("Student").Find(&enrollments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list course enrollments: %w", err)
	}

	return enrollments, total, nil
}

func (r *EnrollmentPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, studentID, courseID uint) (bool, error) {
	var count int64
	err := r.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment existence: %w", err)
	}
	return count > 0, nil
}

func (r *EnrollmentPostgreSQL) CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error) {
	var count int64
	err := r.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count enrollments: %w", err)
	}
	return count, nil
}
