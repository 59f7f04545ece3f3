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

type CurriculumPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewCurriculumPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CurriculumRepository {
	return &CurriculumPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (r *CurriculumPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// invalidateCourse drops cached course details after any curriculum change
func (r *CurriculumPostgreSQL) invalidateCourse(ctx context.Context, courseID uint) {
	cache.SafeDelete(ctx, r.cacheManager.Course,
		fmt.Sprintf("id:%d", courseID),
		fmt.Sprintf("details:%d", courseID))
	cache.SafeInvalidatePattern(ctx, r.cacheManager.Stats, fmt.Sprintf("course:%d:*", courseID))
}

// ===== MODULES =====

// CreateModule appends a module at the end of the course when no position
// is set
func (r *CurriculumPostgreSQL) CreateModule(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	db := r.getDB(tx).WithContext(ctx)

	if module.Position == 0 {
		var maxPos int
		row := db.Model(&models.Module{}).
			Where("course_id = ?", module.CourseID).
			Select("COALESCE(MAX(position), 0)").
			Row()
		if err := row.Scan(&maxPos); err != nil {
			return fmt.Errorf("failed to get max module position: %w", err)
		}
		module.Position = maxPos + 1
	}

	if err := db.Create(module).Error; err != nil {
		return fmt.Errorf("failed to create module: %w", err)
	}

	r.invalidateCourse(ctx, module.CourseID)
	return nil
}

func (r *CurriculumPostgreSQL) GetModuleByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Module, error) {
	var module models.Module
	if err := r.getDB(tx).WithContext(ctx).First(&module, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &module, nil
}

func (r *CurriculumPostgreSQL) UpdateModule(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.Module{}).
		Where("id = ?", module.ID).
		Updates(map[string]interface{}{
			"title":      module.Title,
			"updated_at": module.UpdatedAt,
		}).Error; err != nil {
		return fmt.Errorf("failed to update module: %w", err)
	}

	r.invalidateCourse(ctx, module.CourseID)
	return nil
}

// DeleteModule removes a module and its lessons
func (r *CurriculumPostgreSQL) DeleteModule(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.getDB(tx).WithContext(ctx)

	var module models.Module
	if err := db.First(&module, id).Error; err != nil {
		return translateError(err)
	}

	if err := db.Where("module_id = ?", id).Delete(&models.Lesson{}).Error; err != nil {
		return fmt.Errorf("failed to delete module lessons: %w", err)
	}
	if err := db.Delete(&models.Module{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete module: %w", err)
	}

	r.invalidateCourse(ctx, module.CourseID)
	return nil
}

func (r *CurriculumPostgreSQL) ListModules(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Module, error) {
	var modules []*models.Module
	err := r.getDB(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("lessons.position ASC")
		}).
		Find(&modules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	return modules, nil
}

// ===== LESSONS =====

func (r *CurriculumPostgreSQL) CreateLesson(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	db := r.getDB(tx).WithContext(ctx)

	if lesson.Position == 0 {
		var maxPos int
		row := db.Model(&models.Lesson{}).
			Where("module_id = ?", lesson.ModuleID).
			Select("COALESCE(MAX(position), 0)").
			Row()
		if err := row.Scan(&maxPos); err != nil {
			return fmt.Errorf("failed to get max lesson position: %w", err)
		}
		lesson.Position = maxPos + 1
	}

	if err := db.Create(lesson).Error; err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}

	r.invalidateCourse(ctx, lesson.CourseID)
	return nil
}

func (r *CurriculumPostgreSQL) GetLessonByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := r.getDB(tx).WithContext(ctx).First(&lesson, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &lesson, nil
}

func (r *CurriculumPostgreSQL) UpdateLesson(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.Lesson{}).
		Where("id = ?", lesson.ID).
		Updates(map[string]interface{}{
			"title":       lesson.Title,
			"description": lesson.Description,
			"content":     lesson.Content,
			"video_url":   lesson.VideoURL,
			"updated_at":  lesson.UpdatedAt,
		}).Error; err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}

	r.invalidateCourse(ctx, lesson.CourseID)
	return nil
}

func (r *CurriculumPostgreSQL) DeleteLesson(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.getDB(tx).WithContext(ctx)

	var lesson models.Lesson
	if err := db.First(&lesson, id).Error; err != nil {
		return translateError(err)
	}

	if err := db.Delete(&models.Lesson{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}

	r.invalidateCourse(ctx, lesson.CourseID)
	return nil
}

func (r *CurriculumPostgreSQL) ListLessons(ctx context.Context, tx *gorm.DB, moduleID uint) ([]*models.Lesson, error) {
	var lessons []*models.Lesson
	err := r.getDB(tx).WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("position ASC").
		Find(&lessons).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

// Reorder rewrites every position in the course's curriculum. The whole
// rewrite runs in one transaction so a failed update never leaves mixed
// orderings behind.
func (r *CurriculumPostgreSQL) Reorder(ctx context.Context, tx *gorm.DB, courseID uint, order []repositories.ModuleOrder) error {
	run := func(db *gorm.DB) error {
		for modulePos, mo := range order {
			result := db.Model(&models.Module{}).
				Where("id = ? AND course_id = ?", mo.ModuleID, courseID).
				Update("position", modulePos+1)
			if result.Error != nil {
				return fmt.Errorf("failed to reorder module %d: %w", mo.ModuleID, result.Error)
			}
			if result.RowsAffected == 0 {
				return repositories.ErrNotFound
			}

			for lessonPos, lessonID := range mo.LessonIDs {
				result := db.Model(&models.Lesson{}).
					Where("id = ? AND course_id = ?", lessonID, courseID).
					Updates(map[string]interface{}{
						"module_id": mo.ModuleID,
						"position":  lessonPos + 1,
					})
				if result.Error != nil {
					return fmt.Errorf("failed to reorder lesson %d: %w", lessonID, result.Error)
				}
				if result.RowsAffected == 0 {
					return repositories.ErrNotFound
				}
			}
		}
		return nil
	}

	var err error
	if tx != nil {
		// Caller already manages the transaction
		err = run(tx.WithContext(ctx))
	} else {
		err = r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
			return run(db)
		})
	}
	if err != nil {
		return err
	}

	r.invalidateCourse(ctx, courseID)
	return nil
}
