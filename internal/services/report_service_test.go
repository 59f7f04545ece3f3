package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/openlearn/lms-service/internal/models"
)

func TestReportService_CourseRoster(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := NewReportService(repo, testLogger())

	owner := seedUser(t, repo, "owner", models.RoleInstructor)
	other := seedUser(t, repo, "other", models.RoleInstructor)
	admin := seedUser(t, repo, "admin", models.RoleAdmin)
	student := seedUser(t, repo, "sam", models.RoleStudent)

	course := seedCourse(t, repo, owner.ID, true, 0)
	lesson := seedLesson(t, repo, course.ID, "Only lesson")

	enrollment := &models.Enrollment{StudentID: student.ID, CourseID: course.ID}
	require.NoError(t, repo.Enrollment().Create(ctx, nil, enrollment))
	enrollment.CompletedLessonIDs = append(enrollment.CompletedLessonIDs, lesson.ID)
	require.NoError(t, repo.Enrollment().Update(ctx, nil, enrollment))

	t.Run("owner exports the roster", func(t *testing.T) {
		export, err := svc.CourseRoster(ctx, course.ID, owner)
		require.NoError(t, err)
		assert.Contains(t, export.Filename, ".xlsx")
		require.NotEmpty(t, export.Content)

		f, err := excelize.OpenReader(bytes.NewReader(export.Content))
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows("Roster")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Student ID", rows[0][0])
		assert.Equal(t, "sam", rows[1][1])
		assert.Equal(t, "100", rows[1][3])
	})

	t.Run("admin can export any course", func(t *testing.T) {
		_, err := svc.CourseRoster(ctx, course.ID, admin)
		require.NoError(t, err)
	})

	t.Run("other instructors see not found", func(t *testing.T) {
		_, err := svc.CourseRoster(ctx, course.ID, other)
		assert.ErrorIs(t, err, ErrCourseNotFound)
	})

	t.Run("students cannot export", func(t *testing.T) {
		_, err := svc.CourseRoster(ctx, course.ID, student)
		assert.ErrorIs(t, err, ErrCourseNotFound)
	})

	t.Run("missing course", func(t *testing.T) {
		_, err := svc.CourseRoster(ctx, 9999, admin)
		assert.ErrorIs(t, err, ErrCourseNotFound)
	})
}
