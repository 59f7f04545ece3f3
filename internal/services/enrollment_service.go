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

type enrollmentService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
}

func NewEnrollmentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) EnrollmentService {
	return &enrollmentService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      v,
		eventPublisher: publisher,
	}
}

// Enroll creates a free enrollment. Paid courses are rejected here and must
// go through the payment gate.
func (s *enrollmentService) Enroll(ctx context.Context, courseID uint, actor *models.User) (*EnrollmentResponse, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if d := policy.CanEnroll(toActor(actor), courseTarget(course)); !d.Allowed {
		return nil, denyError(d, actor, courseID, "course", ErrCourseNotFound)
	}

	if course.Price > 0 {
		return nil, ErrPaymentRequired
	}

	return s.createEnrollment(ctx, actor.ID, courseID)
}

// createEnrollment inserts the enrollment row. Shared by the free path and
// the payment gate. There is deliberately no prior existence check: the
// unique index on (student_id, course_id) decides races.
func (s *enrollmentService) createEnrollment(ctx context.Context, studentID, courseID uint) (*EnrollmentResponse, error) {
	enrollment := &models.Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
	}

	if err := s.repo.Enrollment().Create(ctx, nil, enrollment); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	s.logger.Info("Enrollment created", "enrollment_id", enrollment.ID, "student_id", studentID, "course_id", courseID)

	s.publishEvent(ctx, events.NewEvent(events.EventEnrollmentCreated, events.EnrollmentEvent{
		EnrollmentID: enrollment.ID,
		StudentID:    studentID,
		CourseID:     courseID,
	}))

	return &EnrollmentResponse{Enrollment: enrollment, Progress: 0}, nil
}

func (s *enrollmentService) ListMine(ctx context.Context, filters repositories.EnrollmentFilters, actor *models.User) (*EnrollmentListResponse, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if actor.IsBlocked {
		return nil, NewPermissionError(actor.ID, 0, "enrollment", "list", "account is blocked")
	}

	enrollments, total, err := s.repo.Enrollment().ListByStudent(ctx, nil, actor.ID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	responses := make([]*EnrollmentResponse, len(enrollments))
	for i, enrollment := range enrollments {
		responses[i] = s.buildEnrollmentResponse(ctx, enrollment)
	}

	page := 1
	if filters.Limit > 0 {
		page = filters.Offset/filters.Limit + 1
	}

	return &EnrollmentListResponse{
		Enrollments: responses,
		Total:       total,
		Page:        page,
		Size:        len(responses),
	}, nil
}

func (s *enrollmentService) GetByID(ctx context.Context, id uint, actor *models.User) (*EnrollmentResponse, error) {
	enrollment, err := s.repo.Enrollment().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	if d := policy.CanViewEnrollment(toActor(actor), policy.EnrollmentTarget{StudentID: enrollment.StudentID}); !d.Allowed {
		return nil, denyError(d, actor, id, "enrollment", ErrEnrollmentNotFound)
	}

	return s.buildEnrollmentResponse(ctx, enrollment), nil
}

// CompleteLesson marks a lesson done on the caller's enrollment. The
// operation is idempotent: completing an already-completed lesson changes
// nothing and still succeeds.
func (s *enrollmentService) CompleteLesson(ctx context.Context, courseID, lessonID uint, actor *models.User) (*EnrollmentResponse, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	enrollment, err := s.repo.Enrollment().GetByStudentAndCourse(ctx, nil, actor.ID, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	if d := policy.CanCompleteLesson(toActor(actor), policy.EnrollmentTarget{StudentID: enrollment.StudentID}); !d.Allowed {
		return nil, denyError(d, actor, enrollment.ID, "enrollment", ErrEnrollmentNotFound)
	}

	// The lesson must belong to the enrolled course
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

	changed := false
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		// Locked re-read: a plain read would let two concurrent completions
		// both see the same set and the later write drop the earlier lesson
		current, err := txRepo.Enrollment().GetByStudentAndCourseForUpdate(ctx, nil, actor.ID, courseID)
		if err != nil {
			return err
		}

		if current.HasCompleted(lessonID) {
			enrollment = current
			return nil
		}

		current.CompletedLessonIDs = append(current.CompletedLessonIDs, lessonID)
		if err := txRepo.Enrollment().Update(ctx, nil, current); err != nil {
			return err
		}

		enrollment = current
		changed = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete lesson: %w", err)
	}

	response := s.buildEnrollmentResponse(ctx, enrollment)

	if changed {
		s.logger.Info("Lesson completed",
			"enrollment_id", enrollment.ID,
			"lesson_id", lessonID,
			"progress", response.Progress)

		s.publishEvent(ctx, events.NewEvent(events.EventLessonCompleted, events.LessonCompletedEvent{
			EnrollmentID: enrollment.ID,
			StudentID:    enrollment.StudentID,
			CourseID:     enrollment.CourseID,
			LessonID:     lessonID,
			Progress:     response.Progress,
		}))
	}

	return response, nil
}

// buildEnrollmentResponse computes progress from the course's current
// lesson count
func (s *enrollmentService) buildEnrollmentResponse(ctx context.Context, enrollment *models.Enrollment) *EnrollmentResponse {
	total, err := s.repo.Course().CountLessons(ctx, nil, enrollment.CourseID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to count lessons for progress", "course_id", enrollment.CourseID, "error", err)
		total = 0
	}

	progress := enrollment.ProgressPercent(int(total))
	enrollment.Progress = progress
	return &EnrollmentResponse{Enrollment: enrollment, Progress: progress}
}

func (s *enrollmentService) publishEvent(ctx context.Context, event events.Event) {
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.Type, "error", err)
	}
}
