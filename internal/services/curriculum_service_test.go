package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlearn/lms-service/internal/models"
	"github.com/openlearn/lms-service/internal/validator"
)

func newCurriculumTestService(t *testing.T) (CurriculumService, *fakeRepository) {
	t.Helper()
	repo := newFakeRepository()
	svc := NewCurriculumService(repo, nil, testLogger(), validator.New())
	return svc, repo
}

func TestCurriculumService_Modules(t *testing.T) {
	ctx := context.Background()
	svc, repo := newCurriculumTestService(t)

	owner := seedUser(t, repo, "owner", models.RoleInstructor)
	other := seedUser(t, repo, "other", models.RoleInstructor)
	course := seedCourse(t, repo, owner.ID, true, 0)

	t.Run("owner adds modules in order", func(t *testing.T) {
		m1, err := svc.AddModule(ctx, course.ID, &CreateModuleRequest{Title: "Basics"}, owner)
		require.NoError(t, err)
		m2, err := svc.AddModule(ctx, course.ID, &CreateModuleRequest{Title: "Advanced"}, owner)
		require.NoError(t, err)
		assert.Less(t, m1.Position, m2.Position)
	})

	t.Run("stranger sees not found", func(t *testing.T) {
		_, err := svc.AddModule(ctx, course.ID, &CreateModuleRequest{Title: "Sneaky"}, other)
		assert.ErrorIs(t, err, ErrCourseNotFound)
	})

	t.Run("rename and delete", func(t *testing.T) {
		module, err := svc.AddModule(ctx, course.ID, &CreateModuleRequest{Title: "Temp"}, owner)
		require.NoError(t, err)

		renamed, err := svc.UpdateModule(ctx, course.ID, module.ID, &UpdateModuleRequest{Title: "Kept"}, owner)
		require.NoError(t, err)
		assert.Equal(t, "Kept", renamed.Title)

		require.NoError(t, svc.DeleteModule(ctx, course.ID, module.ID, owner))
		err = svc.DeleteModule(ctx, course.ID, module.ID, owner)
		assert.ErrorIs(t, err, ErrModuleNotFound)
	})

	t.Run("module from another course is not found", func(t *testing.T) {
		foreignCourse := seedCourse(t, repo, other.ID, true, 0)
		foreign, err := svc.AddModule(ctx, foreignCourse.ID, &CreateModuleRequest{Title: "Foreign"}, other)
		require.NoError(t, err)

		_, err = svc.UpdateModule(ctx, course.ID, foreign.ID, &UpdateModuleRequest{Title: "Stolen"}, owner)
		assert.ErrorIs(t, err, ErrModuleNotFound)
	})
}

func TestCurriculumService_Lessons(t *testing.T) {
	ctx := context.Background()
	svc, repo := newCurriculumTestService(t)

	owner := seedUser(t, repo, "owner", models.RoleInstructor)
	student := seedUser(t, repo, "sam", models.RoleStudent)
	outsider := seedUser(t, repo, "out", models.RoleStudent)
	admin := seedUser(t, repo, "admin", models.RoleAdmin)
	course := seedCourse(t, repo, owner.ID, true, 0)

	module, err := svc.AddModule(ctx, course.ID, &CreateModuleRequest{Title: "Basics"}, owner)
	require.NoError(t, err)

	lesson, err := svc.AddLesson(ctx, course.ID, module.ID, &CreateLessonRequest{
		Title:   "Hello",
		Content: "full lesson body",
	}, owner)
	require.NoError(t, err)

	require.NoError(t, repo.Enrollment().Create(ctx, nil, &models.Enrollment{
		StudentID: student.ID,
		CourseID:  course.ID,
	}))

	t.Run("enrolled student reads full content", func(t *testing.T) {
		got, err := svc.GetLesson(ctx, course.ID, lesson.ID, student)
		require.NoError(t, err)
		assert.Equal(t, "full lesson body", got.Content)
	})

	t.Run("owner and admin read without enrollment", func(t *testing.T) {
		_, err := svc.GetLesson(ctx, course.ID, lesson.ID, owner)
		require.NoError(t, err)
		_, err = svc.GetLesson(ctx, course.ID, lesson.ID, admin)
		require.NoError(t, err)
	})

	t.Run("unenrolled student is forbidden", func(t *testing.T) {
		_, err := svc.GetLesson(ctx, course.ID, lesson.ID, outsider)
		assert.True(t, IsPermission(err))
	})

	t.Run("anonymous is unauthenticated", func(t *testing.T) {
		_, err := svc.GetLesson(ctx, course.ID, lesson.ID, nil)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("outline hides lesson bodies", func(t *testing.T) {
		modules, err := svc.ListModules(ctx, course.ID, outsider)
		require.NoError(t, err)
		require.Len(t, modules, 1)
		require.Len(t, modules[0].Lessons, 1)
		assert.Equal(t, "Hello", modules[0].Lessons[0].Title)
		assert.Empty(t, modules[0].Lessons[0].Content)
	})

	t.Run("hidden course masks lessons even for enrolled students", func(t *testing.T) {
		require.NoError(t, repo.Course().SetApproved(ctx, nil, course.ID, false))
		defer func() {
			require.NoError(t, repo.Course().SetApproved(ctx, nil, course.ID, true))
		}()

		_, err := svc.GetLesson(ctx, course.ID, lesson.ID, student)
		assert.ErrorIs(t, err, ErrLessonNotFound)
	})
}

func TestCurriculumService_Reorder(t *testing.T) {
	ctx := context.Background()
	svc, repo := newCurriculumTestService(t)

	owner := seedUser(t, repo, "owner", models.RoleInstructor)
	course := seedCourse(t, repo, owner.ID, true, 0)

	m1, err := svc.AddModule(ctx, course.ID, &CreateModuleRequest{Title: "First"}, owner)
	require.NoError(t, err)
	m2, err := svc.AddModule(ctx, course.ID, &CreateModuleRequest{Title: "Second"}, owner)
	require.NoError(t, err)

	l1, err := svc.AddLesson(ctx, course.ID, m1.ID, &CreateLessonRequest{Title: "A"}, owner)
	require.NoError(t, err)
	l2, err := svc.AddLesson(ctx, course.ID, m1.ID, &CreateLessonRequest{Title: "B"}, owner)
	require.NoError(t, err)

	t.Run("full payload rewrites positions atomically", func(t *testing.T) {
		err := svc.Reorder(ctx, course.ID, &ReorderCurriculumRequest{
			Modules: []validator.ReorderModuleRequest{
				{ModuleID: m2.ID, LessonIDs: nil},
				{ModuleID: m1.ID, LessonIDs: []uint{l2.ID, l1.ID}},
			},
		}, owner)
		require.NoError(t, err)

		modules, err := svc.ListModules(ctx, course.ID, owner)
		require.NoError(t, err)
		require.Len(t, modules, 2)
		assert.Equal(t, m2.ID, modules[0].ID)
		assert.Equal(t, m1.ID, modules[1].ID)
		require.Len(t, modules[1].Lessons, 2)
		assert.Equal(t, l2.ID, modules[1].Lessons[0].ID)
		assert.Equal(t, l1.ID, modules[1].Lessons[1].ID)
	})

	t.Run("partial payload is rejected", func(t *testing.T) {
		err := svc.Reorder(ctx, course.ID, &ReorderCurriculumRequest{
			Modules: []validator.ReorderModuleRequest{
				{ModuleID: m1.ID, LessonIDs: []uint{l1.ID, l2.ID}},
			},
		}, owner)
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
	})

	t.Run("unknown module is rejected", func(t *testing.T) {
		err := svc.Reorder(ctx, course.ID, &ReorderCurriculumRequest{
			Modules: []validator.ReorderModuleRequest{
				{ModuleID: 9999},
				{ModuleID: m1.ID, LessonIDs: []uint{l1.ID, l2.ID}},
				{ModuleID: m2.ID},
			},
		}, owner)
		assert.ErrorIs(t, err, ErrModuleNotFound)
	})

	t.Run("duplicate module IDs are rejected", func(t *testing.T) {
		err := svc.Reorder(ctx, course.ID, &ReorderCurriculumRequest{
			Modules: []validator.ReorderModuleRequest{
				{ModuleID: m1.ID, LessonIDs: []uint{l1.ID, l2.ID}},
				{ModuleID: m1.ID},
			},
		}, owner)
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
	})
}
