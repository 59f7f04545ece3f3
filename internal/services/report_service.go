package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/openlearn/lms-service/internal/models"
	"github.com/openlearn/lms-service/internal/policy"
	"github.com/openlearn/lms-service/internal/repositories"
)

type reportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewReportService(repo repositories.Repository, logger *slog.Logger) ReportService {
	return &reportService{
		repo:   repo,
		logger: logger,
	}
}

// CourseRoster renders every enrollment of a course as an xlsx sheet.
// Restricted to the owning instructor and admins.
func (s *reportService) CourseRoster(ctx context.Context, courseID uint, actor *models.User) (*RosterExport, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if d := policy.CanMutateCourse(toActor(actor), courseTarget(course), policy.ActionExportRoster); !d.Allowed {
		return nil, denyError(d, actor, courseID, "course", ErrCourseNotFound)
	}

	enrollments, _, err := s.repo.Enrollment().ListByCourse(ctx, nil, courseID, repositories.EnrollmentFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	totalLessons, err := s.repo.Course().CountLessons(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to count lessons: %w", err)
	}

	entries := make([]repositories.RosterEntry, len(enrollments))
	for i, enrollment := range enrollments {
		entries[i] = repositories.RosterEntry{
			StudentID:  enrollment.StudentID,
			Name:       enrollment.Student.Name,
			Email:      enrollment.Student.Email,
			Progress:   enrollment.ProgressPercent(int(totalLessons)),
			EnrolledAt: enrollment.EnrolledAt,
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Roster"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"Student ID", "Name", "Email", "Progress (%)", "Enrolled At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, entry := range entries {
		values := []interface{}{
			entry.StudentID,
			entry.Name,
			entry.Email,
			entry.Progress,
			entry.EnrolledAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write roster row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render roster: %w", err)
	}

	s.logger.Info("Roster exported", "course_id", courseID, "rows", len(entries), "user_id", actor.ID)

	return &RosterExport{
		Filename: fmt.Sprintf("course_%d_roster.xlsx", courseID),
		Content:  buf.Bytes(),
	}, nil
}
