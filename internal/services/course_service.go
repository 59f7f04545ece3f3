package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/openlearn/lms-service/internal/events"
	"github.com/openlearn/lms-service/internal/models"
	"github.com/openlearn/lms-service/internal/policy"
	"github.com/openlearn/lms-service/internal/repositories"
	"github.com/openlearn/lms-service/internal/validator"
)

type courseService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
}

func NewCourseService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) CourseService {
	return &courseService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      v,
		eventPublisher: publisher,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *courseService) Create(ctx context.Context, req *CreateCourseRequest, actor *models.User) (*CourseResponse, error) {
	if d := policy.CanCreateCourse(toActor(actor)); !d.Allowed {
		return nil, denyError(d, actor, 0, "course", ErrCourseNotFound)
	}

	if errs := s.validator.GetBusinessValidator().ValidateCourseCreate(req); len(errs) > 0 {
		return nil, errs
	}

	instructorID := actor.ID
	if req.InstructorID != nil && actor.Role == models.RoleAdmin {
		owner, err := s.repo.User().GetByID(ctx, nil, *req.InstructorID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to get instructor: %w", err)
		}
		if !owner.CanTeach() {
			return nil, validator.ValidationErrors{{Field: "instructor_id", Message: "user is not an instructor"}}
		}
		instructorID = owner.ID
	}

	course := &models.Course{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Level:        req.Level,
		Price:        req.Price,
		InstructorID: instructorID,
		// New courses start unapproved and invisible to the catalog
		IsApproved: false,
	}

	if err := s.repo.Course().Create(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("Course created", "course_id", course.ID, "instructor_id", course.InstructorID)

	s.publishEvent(ctx, events.NewEvent(events.EventCourseCreated, events.CourseEvent{
		CourseID:     course.ID,
		Title:        course.Title,
		InstructorID: course.InstructorID,
	}))

	return s.buildCourseResponse(course, actor), nil
}

func (s *courseService) GetByID(ctx context.Context, id uint, actor *models.User) (*CourseResponse, error) {
	course, err := s.getVisibleCourse(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	s.attachCounts(ctx, course)
	return s.buildCourseResponse(course, actor), nil
}

func (s *courseService) GetByIDWithCurriculum(ctx context.Context, id uint, actor *models.User) (*CourseResponse, error) {
	course, err := s.repo.Course().GetByIDWithCurriculum(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if d := policy.CanViewCourse(toActor(actor), courseTarget(course)); !d.Allowed {
		return nil, denyError(d, actor, id, "course", ErrCourseNotFound)
	}

	s.attachCounts(ctx, course)
	return s.buildCourseResponse(course, actor), nil
}

func (s *courseService) Update(ctx context.Context, id uint, req *UpdateCourseRequest, actor *models.User) (*CourseResponse, error) {
	course, err := s.getMutableCourse(ctx, id, actor, policy.ActionUpdateCourse)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.GetBusinessValidator().ValidateCourseUpdate(req); len(errs) > 0 {
		return nil, errs
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Category != nil {
		course.Category = *req.Category
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.Price != nil {
		course.Price = *req.Price
	}

	if err := s.repo.Course().Update(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	s.logger.Info("Course updated", "course_id", id, "user_id", actor.ID)

	return s.buildCourseResponse(course, actor), nil
}

func (s *courseService) Delete(ctx context.Context, id uint, actor *models.User) error {
	course, err := s.getMutableCourse(ctx, id, actor, policy.ActionDeleteCourse)
	if err != nil {
		return err
	}

	if err := s.repo.Course().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.logger.Info("Course deleted", "course_id", id, "user_id", actor.ID)

	s.publishEvent(ctx, events.NewEvent(events.EventCourseDeleted, events.CourseEvent{
		CourseID:     course.ID,
		Title:        course.Title,
		InstructorID: course.InstructorID,
	}))

	return nil
}

// ===== LIST OPERATIONS =====

// List serves the public catalog: only approved courses, regardless of the
// caller. Admins wanting drafts go through AdminList.
func (s *courseService) List(ctx context.Context, filters repositories.CourseFilters, actor *models.User) (*CourseListResponse, error) {
	if actor != nil && actor.IsBlocked {
		return nil, NewPermissionError(actor.ID, 0, "course", "list", "account is blocked")
	}

	approved := true
	filters.IsApproved = &approved
	filters.IncludeDeleted = false

	courses, total, err := s.repo.Course().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	return s.buildCourseListResponse(courses, total, filters, actor), nil
}

// GetMine lists the instructor's own courses, drafts included
func (s *courseService) GetMine(ctx context.Context, filters repositories.CourseFilters, actor *models.User) (*CourseListResponse, error) {
	if d := policy.CanCreateCourse(toActor(actor)); !d.Allowed {
		return nil, denyError(d, actor, 0, "course", ErrCourseNotFound)
	}

	courses, total, err := s.repo.Course().GetByInstructor(ctx, nil, actor.ID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	return s.buildCourseListResponse(courses, total, filters, actor), nil
}

// AdminList lists everything, soft-deleted courses included
func (s *courseService) AdminList(ctx context.Context, filters repositories.CourseFilters, actor *models.User) (*CourseListResponse, error) {
	if d := policy.CanViewAdminResource(toActor(actor)); !d.Allowed {
		return nil, denyError(d, actor, 0, "course", ErrCourseNotFound)
	}

	filters.IncludeDeleted = true
	courses, total, err := s.repo.Course().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	return s.buildCourseListResponse(courses, total, filters, actor), nil
}

// ===== APPROVAL GATE =====

func (s *courseService) SetApproved(ctx context.Context, id uint, approved bool, actor *models.User) error {
	if d := policy.CanApproveCourse(toActor(actor)); !d.Allowed {
		return denyError(d, actor, id, "course", ErrCourseNotFound)
	}

	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to get course: %w", err)
	}

	if err := s.repo.Course().SetApproved(ctx, nil, id, approved); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to set approval: %w", err)
	}

	s.logger.Info("Course approval changed", "course_id", id, "approved", approved, "admin_id", actor.ID)

	if approved {
		s.publishEvent(ctx, events.NewEvent(events.EventCourseApproved, events.CourseEvent{
			CourseID:     course.ID,
			Title:        course.Title,
			InstructorID: course.InstructorID,
		}))
	}

	return nil
}

// ===== STATISTICS =====

func (s *courseService) GetStats(ctx context.Context, id uint, actor *models.User) (*repositories.CourseStats, error) {
	course, err := s.getVisibleCourse(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.Course().GetStats(ctx, nil, course.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course stats: %w", err)
	}
	return stats, nil
}

func (s *courseService) GetInstructorStats(ctx context.Context, actor *models.User) (*repositories.InstructorStats, error) {
	if d := policy.CanCreateCourse(toActor(actor)); !d.Allowed {
		return nil, denyError(d, actor, 0, "course", ErrCourseNotFound)
	}

	stats, err := s.repo.Course().GetInstructorStats(ctx, nil, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get instructor stats: %w", err)
	}
	return stats, nil
}

// ===== HELPERS =====

// getVisibleCourse loads a course and enforces the visibility policy,
// masking hidden courses as not-found
func (s *courseService) getVisibleCourse(ctx context.Context, id uint, actor *models.User) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if d := policy.CanViewCourse(toActor(actor), courseTarget(course)); !d.Allowed {
		return nil, denyError(d, actor, id, "course", ErrCourseNotFound)
	}

	return course, nil
}

// getMutableCourse loads a course and enforces the mutation policy
func (s *courseService) getMutableCourse(ctx context.Context, id uint, actor *models.User, action policy.Action) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if d := policy.CanMutateCourse(toActor(actor), courseTarget(course), action); !d.Allowed {
		return nil, denyError(d, actor, id, "course", ErrCourseNotFound)
	}

	return course, nil
}

func (s *courseService) attachCounts(ctx context.Context, course *models.Course) {
	stats, err := s.repo.Course().GetStats(ctx, nil, course.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load course stats", "course_id", course.ID, "error", err)
		return
	}
	course.LessonCount = stats.LessonCount
	course.EnrollmentCount = stats.EnrollmentCount
}

func (s *courseService) buildCourseResponse(course *models.Course, actor *models.User) *CourseResponse {
	a := toActor(actor)
	target := courseTarget(course)
	return &CourseResponse{
		Course:    course,
		CanEdit:   policy.CanMutateCourse(a, target, policy.ActionUpdateCourse).Allowed,
		CanDelete: policy.CanMutateCourse(a, target, policy.ActionDeleteCourse).Allowed,
		CanEnroll: policy.CanEnroll(a, target).Allowed,
	}
}

func (s *courseService) buildCourseListResponse(courses []*models.Course, total int64, filters repositories.CourseFilters, actor *models.User) *CourseListResponse {
	responses := make([]*CourseResponse, len(courses))
	for i, course := range courses {
		responses[i] = s.buildCourseResponse(course, actor)
	}

	page := 1
	if filters.Limit > 0 {
		page = filters.Offset/filters.Limit + 1
	}

	return &CourseListResponse{
		Courses: responses,
		Total:   total,
		Page:    page,
		Size:    len(responses),
	}
}

func (s *courseService) publishEvent(ctx context.Context, event events.Event) {
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.Type, "error", err)
	}
}
