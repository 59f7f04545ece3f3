package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/openlearn/lms-service/internal/models"
)

// CourseRepository interface for course catalog operations
type CourseRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	GetByIDWithCurriculum(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) // Include ordered modules and lessons
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error // Soft delete

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters CourseFilters) ([]*models.Course, int64, error)
	GetByInstructor(ctx context.Context, tx *gorm.DB, instructorID uint, filters CourseFilters) ([]*models.Course, int64, error)

	// Approval gate
	SetApproved(ctx context.Context, tx *gorm.DB, id uint, approved bool) error

	// Statistics
	GetStats(ctx context.Context, tx *gorm.DB, id uint) (*CourseStats, error)
	GetInstructorStats(ctx context.Context, tx *gorm.DB, instructorID uint) (*InstructorStats, error)
	CountLessons(ctx context.Context, tx *gorm.DB, id uint) (int64, error)
}

// CurriculumRepository interface for module and lesson operations
type CurriculumRepository interface {
	// Module operations
	CreateModule(ctx context.Context, tx *gorm.DB, module *models.Module) error
	GetModuleByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Module, error)
	UpdateModule(ctx context.Context, tx *gorm.DB, module *models.Module) error
	DeleteModule(ctx context.Context, tx *gorm.DB, id uint) error
	ListModules(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Module, error)

	// Lesson operations
	CreateLesson(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	GetLessonByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	DeleteLesson(ctx context.Context, tx *gorm.DB, id uint) error
	ListLessons(ctx context.Context, tx *gorm.DB, moduleID uint) ([]*models.Lesson, error)

	// Reorder rewrites every module and lesson position for the course in
	// one transaction. The order slice must cover exactly the course's
	// current modules and lessons.
	Reorder(ctx context.Context, tx *gorm.DB, courseID uint, order []ModuleOrder) error
}
