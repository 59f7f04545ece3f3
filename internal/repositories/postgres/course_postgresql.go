package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/openlearn/lms-service/internal/cache"
	"github.com/openlearn/lms-service/internal/models"
	"github.com/openlearn/lms-service/internal/repositories"
)

type CoursePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (r *CoursePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := r.getDB(tx).WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, r.cacheManager.Course, fmt.Sprintf("instructor:%d:*", course.InstructorID))
	cache.SafeInvalidatePattern(ctx, r.cacheManager.Course, "list:*")
	return nil
}

// GetByID retrieves a course by ID with caching. Soft-deleted courses are
// excluded; callers needing them go through List with IncludeDeleted.
// GetByID reads the course unscoped: soft-deleted rows come back with
// DeletedAt set, and the policy layer decides who may see them (admins keep
// audit access, everyone else gets not-found).
func (r *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	if tx != nil {
		var course models.Course
		if err := tx.WithContext(ctx).Unscoped().Preload("Instructor").First(&course, id).Error; err != nil {
			return nil, translateError(err)
		}
		return &course, nil
	}

	cacheKey := fmt.Sprintf("id:%d", id)
	var course models.Course

	err := r.cacheManager.Course.CacheOrExecute(ctx, cacheKey, &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		var dbCourse models.Course
		err := r.db.WithContext(ctx).
			Unscoped().
			Preload("Instructor").
			First(&dbCourse, id).Error
		if err != nil {
			return nil, translateError(err)
		}
		return &dbCourse, nil
	})
	if err != nil {
		return nil, err
	}

	return &course, nil
}

// GetByIDWithCurriculum retrieves a course with its ordered modules and lessons
func (r *CoursePostgreSQL) GetByIDWithCurriculum(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	cacheKey := fmt.Sprintf("details:%d", id)
	var course models.Course

	fetch := func(db *gorm.DB) (*models.Course, error) {
		var dbCourse models.Course
		err := db.WithContext(ctx).
			Unscoped().
			Preload("Instructor").
			Preload("Modules", func(db *gorm.DB) *gorm.DB {
				return db.Order("modules.position ASC")
			}).
			Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
				return db.Order("lessons.position ASC")
			}).
			First(&dbCourse, id).Error
		if err != nil {
			return nil, translateError(err)
		}
		return &dbCourse, nil
	}

	if tx != nil {
		return fetch(tx)
	}

	err := r.cacheManager.Course.CacheOrExecute(ctx, cacheKey, &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		return fetch(r.db)
	})
	if err != nil {
		return nil, err
	}

	return &course, nil
}

func (r *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := r.getDB(tx).WithContext(ctx).Model(&models.Course{}).Where("id = ?", course.ID).Updates(map[string]interface{}{
		"title":       course.Title,
		"description": course.Description,
		"category":    course.Category,
		"level":       course.Level,
		"price":       course.Price,
		"updated_at":  course.UpdatedAt,
	}).Error; err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}

	cache.InvalidateCourseCache(ctx, r.cacheManager, course.ID, course.InstructorID)
	return nil
}

// Delete soft deletes a course. Enrollments and curriculum rows stay in
// place so existing students keep their history.
func (r *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	var course models.Course
	if err := r.getDB(tx).WithContext(ctx).Select("id, instructor_id").First(&course, id).Error; err != nil {
		return translateError(err)
	}

	if err := r.getDB(tx).WithContext(ctx).Delete(&models.Course{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	cache.InvalidateCourseCache(ctx, r.cacheManager, id, course.InstructorID)
	return nil
}

func (r *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	query := r.getDB(tx).WithContext(ctx).Model(&models.Course{})
	if filters.IncludeDeleted {
		query = query.Unscoped()
	}
	query = r.applyFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	query = r.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var courses []*models.Course
	if err := query.Preload("Instructor").Find(&courses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}

	return courses, total, nil
}

func (r *CoursePostgreSQL) GetByInstructor(ctx context.Context, tx *gorm.DB, instructorID uint, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	filters.InstructorID = &instructorID
	return r.List(ctx, tx, filters)
}

// SetApproved flips the admin approval gate
func (r *CoursePostgreSQL) SetApproved(ctx context.Context, tx *gorm.DB, id uint, approved bool) error {
	var course models.Course
	if err := r.getDB(tx).WithContext(ctx).Select("id, instructor_id").First(&course, id).Error; err != nil {
		return translateError(err)
	}

	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", id).
		Update("is_approved", approved).Error; err != nil {
		return fmt.Errorf("failed to set approved: %w", err)
	}

	cache.InvalidateCourseCache(ctx, r.cacheManager, id, course.InstructorID)
	return nil
}

// GetStats returns curriculum and enrollment counts with caching
func (r *CoursePostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.CourseStats, error) {
	cacheKey := fmt.Sprintf("course:%d:stats", id)
	var stats repositories.CourseStats

	fetch := func() (interface{}, error) {
		db := r.getDB(tx).WithContext(ctx)
		var s repositories.CourseStats

		var moduleCount, lessonCount, enrollmentCount int64
		if err := db.Model(&models.Module{}).Where("course_id = ?", id).Count(&moduleCount).Error; err != nil {
			return nil, fmt.Errorf("failed to count modules: %w", err)
		}
		if err := db.Model(&models.Lesson{}).Where("course_id = ?", id).Count(&lessonCount).Error; err != nil {
			return nil, fmt.Errorf("failed to count lessons: %w", err)
		}
		if err := db.Model(&models.Enrollment{}).Where("course_id = ?", id).Count(&enrollmentCount).Error; err != nil {
			return nil, fmt.Errorf("failed to count enrollments: %w", err)
		}

		s.ModuleCount = int(moduleCount)
		s.LessonCount = int(lessonCount)
		s.EnrollmentCount = int(enrollmentCount)
		return &s, nil
	}

	if tx != nil {
		value, err := fetch()
		if err != nil {
			return nil, err
		}
		return value.(*repositories.CourseStats), nil
	}

	err := r.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, fetch)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *CoursePostgreSQL) GetInstructorStats(ctx context.Context, tx *gorm.DB, instructorID uint) (*repositories.InstructorStats, error) {
	db := r.getDB(tx).WithContext(ctx)
	stats := &repositories.InstructorStats{}

	var total, approved, students int64
	if err := db.Model(&models.Course{}).Where("instructor_id = ?", instructorID).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count courses: %w", err)
	}
	if err := db.Model(&models.Course{}).Where("instructor_id = ? AND is_approved = ?", instructorID, true).Count(&approved).Error; err != nil {
		return nil, fmt.Errorf("failed to count approved courses: %w", err)
	}
	if err := db.Model(&models.Enrollment{}).
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("courses.instructor_id = ?", instructorID).
		Count(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}

	stats.TotalCourses = int(total)
	stats.ApprovedCourses = int(approved)
	stats.PendingCourses = int(total - approved)
	stats.TotalStudents = int(students)
	return stats, nil
}

func (r *CoursePostgreSQL) CountLessons(ctx context.Context, tx *gorm.DB, id uint) (int64, error) {
	var count int64
	err := r.getDB(tx).WithContext(ctx).
		Model(&models.Lesson{}).
		Where("course_id = ?", id).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}

func (r *CoursePostgreSQL) applyFilters(query *gorm.DB, filters repositories.CourseFilters) *gorm.DB {
	if filters.Category != nil && *filters.Category != "" {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.Level != nil {
		query = query.Where("level = ?", *filters.Level)
	}
	if filters.InstructorID != nil {
		query = query.Where("instructor_id = ?", *filters.InstructorID)
	}
	if filters.IsApproved != nil {
		query = query.Where("is_approved = ?", *filters.IsApproved)
	}
	if filters.Search != nil && *filters.Search != "" {
		like := "%" + *filters.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", like, like)
	}
	return query
}
