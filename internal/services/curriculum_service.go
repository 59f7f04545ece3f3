package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/openlearn/lms-service/internal/models"
	"github.com/openlearn/lms-service/internal/policy"
	"github.com/openlearn/lms-service/internal/repositories"
	"github.com/openlearn/lms-service/internal/validator"
)

type curriculumService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCurriculumService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator) CurriculumService {
	return &curriculumService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
	}
}

// ===== MODULE OPERATIONS =====

func (s *curriculumService) AddModule(ctx context.Context, courseID uint, req *CreateModuleRequest, actor *models.User) (*models.Module, error) {
	if _, err := s.getEditableCourse(ctx, courseID, actor); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	module := &models.Module{
		Title:    req.Title,
		CourseID: courseID,
	}
	if err := s.repo.Curriculum().CreateModule(ctx, nil, module); err != nil {
		return nil, fmt.Errorf("failed to create module: %w", err)
	}

	s.logger.Info("Module added", "course_id", courseID, "module_id", module.ID)
	return module, nil
}

func (s *curriculumService) UpdateModule(ctx context.Context, courseID, moduleID uint, req *UpdateModuleRequest, actor *models.User) (*models.Module, error) {
	if _, err := s.getEditableCourse(ctx, courseID, actor); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	module, err := s.getCourseModule(ctx, courseID, moduleID)
	if err != nil {
		return nil, err
	}

	module.Title = req.Title
	if err := s.repo.Curriculum().UpdateModule(ctx, nil, module); err != nil {
		return nil, fmt.Errorf("failed to update module: %w", err)
	}

	return module, nil
}

func (s *curriculumService) DeleteModule(ctx context.Context, courseID, moduleID uint, actor *models.User) error {
	if _, err := s.getEditableCourse(ctx, courseID, actor); err != nil {
		return err
	}

	if _, err := s.getCourseModule(ctx, courseID, moduleID); err != nil {
		return err
	}

	if err := s.repo.Curriculum().DeleteModule(ctx, nil, moduleID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrModuleNotFound
		}
		return fmt.Errorf("failed to delete module: %w", err)
	}

	s.logger.Info("Module deleted", "course_id", courseID, "module_id", moduleID)
	return nil
}

func (s *curriculumService) ListModules(ctx context.Context, courseID uint, actor *models.User) ([]*models.Module, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	// Module and lesson titles are part of the public course outline;
	// lesson content stays behind the enrollment gate
	if d := policy.CanViewCourse(toActor(actor), courseTarget(course)); !d.Allowed {
		return nil, denyError(d, actor, courseID, "course", ErrCourseNotFound)
	}

	modules, err := s.repo.Curriculum().ListModules(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}

	// Strip lesson bodies from the outline
	for _, module := range modules {
		for i := range module.Lessons {
			module.Lessons[i].Content = ""
			module.Lessons[i].VideoURL = ""
		}
	}

	return modules, nil
}

// ===== LESSON OPERATIONS =====

func (s *curriculumService) AddLesson(ctx context.Context, courseID, moduleID uint, req *CreateLessonRequest, actor *models.User) (*models.Lesson, error) {
	if _, err := s.getEditableCourse(ctx, courseID, actor); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.getCourseModule(ctx, courseID, moduleID); err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		VideoURL:    req.VideoURL,
		ModuleID:    moduleID,
		CourseID:    courseID,
	}
	if err := s.repo.Curriculum().CreateLesson(ctx, nil, lesson); err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}

	s.logger.Info("Lesson added", "course_id", courseID, "module_id", moduleID, "lesson_id", lesson.ID)
	return lesson, nil
}

func (s *curriculumService) UpdateLesson(ctx context.Context, courseID, lessonID uint, req *UpdateLessonRequest, actor *models.User) (*models.Lesson, error) {
	if _, err := s.getEditableCourse(ctx, courseID, actor); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	lesson, err := s.getCourseLesson(ctx, courseID, lessonID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		lesson.Title = *req.Title
	}
	if req.Description != nil {
		lesson.Description = *req.Description
	}
	if req.Content != nil {
		lesson.Content = *req.Content
	}
	if req.VideoURL != nil {
		lesson.VideoURL = *req.VideoURL
	}

	if err := s.repo.Curriculum().UpdateLesson(ctx, nil, lesson); err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}

	return lesson, nil
}

func (s *curriculumService) DeleteLesson(ctx context.Context, courseID, lessonID uint, actor *models.User) error {
	if _, err := s.getEditableCourse(ctx, courseID, actor); err != nil {
		return err
	}

	if _, err := s.getCourseLesson(ctx, courseID, lessonID); err != nil {
		return err
	}

	if err := s.repo.Curriculum().DeleteLesson(ctx, nil, lessonID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrLessonNotFound
		}
		return fmt.Errorf("failed to delete lesson: %w", err)
	}

	s.logger.Info("Lesson deleted", "course_id", courseID, "lesson_id", lessonID)
	return nil
}

// GetLesson returns full lesson content. Requires enrollment, course
// ownership, or the admin role.
func (s *curriculumService) GetLesson(ctx context.Context, courseID, lessonID uint, actor *models.User) (*models.Lesson, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	enrolled := false
	if actor != nil {
		enrolled, err = s.repo.Enrollment().Exists(ctx, nil, actor.ID, courseID)
		if err != nil {
			return nil, fmt.Errorf("failed to check enrollment: %w", err)
		}
	}

	if d := policy.CanViewLesson(toActor(actor), courseTarget(course), enrolled); !d.Allowed {
		return nil, denyError(d, actor, lessonID, "lesson", ErrLessonNotFound)
	}

	return s.getCourseLesson(ctx, courseID, lessonID)
}

// ===== REORDER =====

// Reorder atomically rewrites the course's module and lesson ordering. The
// payload must cover exactly the course's current curriculum; partial or
// stale payloads are rejected before any write happens.
func (s *curriculumService) Reorder(ctx context.Context, courseID uint, req *ReorderCurriculumRequest, actor *models.User) error {
	if _, err := s.getEditableCourse(ctx, courseID, actor); err != nil {
		return err
	}

	if errs := s.validator.GetBusinessValidator().ValidateReorder(req); len(errs) > 0 {
		return errs
	}

	modules, err := s.repo.Curriculum().ListModules(ctx, nil, courseID)
	if err != nil {
		return fmt.Errorf("failed to list modules: %w", err)
	}

	currentModules := make(map[uint]bool, len(modules))
	currentLessons := make(map[uint]bool)
	lessonTotal := 0
	for _, m := range modules {
		currentModules[m.ID] = true
		for _, l := range m.Lessons {
			currentLessons[l.ID] = true
			lessonTotal++
		}
	}

	payloadLessons := 0
	for _, mo := range req.Modules {
		if !currentModules[mo.ModuleID] {
			return ErrModuleNotFound
		}
		for _, lessonID := range mo.LessonIDs {
			if !currentLessons[lessonID] {
				return ErrLessonNotFound
			}
			payloadLessons++
		}
	}
	if len(req.Modules) != len(modules) || payloadLessons != lessonTotal {
		return validator.ValidationErrors{{
			Field:   "modules",
			Message: "payload must cover every module and lesson of the course",
			Rule:    "business_logic",
		}}
	}

	order := make([]repositories.ModuleOrder, len(req.Modules))
	for i, mo := range req.Modules {
		order[i] = repositories.ModuleOrder{
			ModuleID:  mo.ModuleID,
			LessonIDs: mo.LessonIDs,
		}
	}

	if err := s.repo.Curriculum().Reorder(ctx, nil, courseID, order); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrModuleNotFound
		}
		return fmt.Errorf("failed to reorder curriculum: %w", err)
	}

	s.logger.Info("Curriculum reordered", "course_id", courseID, "user_id", actor.ID)
	return nil
}

// ===== HELPERS =====

func (s *curriculumService) getEditableCourse(ctx context.Context, courseID uint, actor *models.User) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if d := policy.CanMutateCourse(toActor(actor), courseTarget(course), policy.ActionEditCurriculum); !d.Allowed {
		return nil, denyError(d, actor, courseID, "course", ErrCourseNotFound)
	}

	return course, nil
}

// getCourseModule loads a module and verifies it belongs to the course
func (s *curriculumService) getCourseModule(ctx context.Context, courseID, moduleID uint) (*models.Module, error) {
	module, err := s.repo.Curriculum().GetModuleByID(ctx, nil, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	if module.CourseID != courseID {
		return nil, ErrModuleNotFound
	}
	return module, nil
}

// getCourseLesson loads a lesson and verifies it belongs to the course
func (s *curriculumService) getCourseLesson(ctx context.Context, courseID, lessonID uint) (*models.Lesson, error) {
	lesson, err := s.repo.Curriculum().GetLessonByID(ctx, nil, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	if lesson.CourseID != courseID {
		return nil, ErrLessonNotFound
	}
	return lesson, nil
}
