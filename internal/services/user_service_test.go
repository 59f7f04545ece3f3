package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlearn/lms-service/internal/events"
	"github.com/openlearn/lms-service/internal/models"
	"github.com/openlearn/lms-service/internal/repositories"
)

func newUserTestService(t *testing.T) (UserService, *fakeRepository, *events.MockEventPublisher) {
	t.Helper()
	repo := newFakeRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewUserService(repo, nil, testLogger(), publisher)
	return svc, repo, publisher
}

func TestUserService_List(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newUserTestService(t)

	admin := seedUser(t, repo, "admin", models.RoleAdmin)
	student := seedUser(t, repo, "sam", models.RoleStudent)
	seedUser(t, repo, "ivan", models.RoleInstructor)

	t.Run("admin lists everyone", func(t *testing.T) {
		resp, err := svc.List(ctx, repositories.UserFilters{}, admin)
		require.NoError(t, err)
		assert.Len(t, resp.Users, 3)
	})

	t.Run("role filter narrows the list", func(t *testing.T) {
		role := models.RoleStudent
		resp, err := svc.List(ctx, repositories.UserFilters{Role: &role}, admin)
		require.NoError(t, err)
		require.Len(t, resp.Users, 1)
		assert.Equal(t, student.ID, resp.Users[0].ID)
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		_, err := svc.List(ctx, repositories.UserFilters{}, student)
		assert.True(t, IsPermission(err))
	})

	t.Run("anonymous is unauthenticated", func(t *testing.T) {
		_, err := svc.List(ctx, repositories.UserFilters{}, nil)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestUserService_SetBlocked(t *testing.T) {
	ctx := context.Background()
	svc, repo, publisher := newUserTestService(t)

	admin := seedUser(t, repo, "admin", models.RoleAdmin)
	otherAdmin := seedUser(t, repo, "root", models.RoleAdmin)
	student := seedUser(t, repo, "sam", models.RoleStudent)
	instructor := seedUser(t, repo, "ivan", models.RoleInstructor)

	t.Run("admin blocks and unblocks", func(t *testing.T) {
		require.NoError(t, svc.SetBlocked(ctx, student.ID, true, admin))

		blocked, err := repo.User().GetByID(ctx, nil, student.ID)
		require.NoError(t, err)
		assert.True(t, blocked.IsBlocked)

		published := publisher.GetPublishedEvents()
		require.Len(t, published, 1)
		assert.Equal(t, events.EventUserBlocked, published[0].Type)

		publisher.ClearEvents()
		require.NoError(t, svc.SetBlocked(ctx, student.ID, false, admin))

		published = publisher.GetPublishedEvents()
		require.Len(t, published, 1)
		assert.Equal(t, events.EventUserUnblocked, published[0].Type)
	})

	t.Run("admins cannot be blocked", func(t *testing.T) {
		err := svc.SetBlocked(ctx, otherAdmin.ID, true, admin)
		assert.True(t, IsPermission(err))
	})

	t.Run("non-admin cannot block", func(t *testing.T) {
		err := svc.SetBlocked(ctx, student.ID, true, instructor)
		assert.True(t, IsPermission(err))
	})

	t.Run("missing user", func(t *testing.T) {
		err := svc.SetBlocked(ctx, 9999, true, admin)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
