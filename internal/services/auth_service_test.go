package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlearn/lms-service/internal/auth"
	"github.com/openlearn/lms-service/internal/events"
	"github.com/openlearn/lms-service/internal/models"
	"github.com/openlearn/lms-service/internal/validator"
)

func newAuthTestService(t *testing.T) (AuthService, *fakeRepository, *events.MockEventPublisher, *auth.TokenManager) {
	t.Helper()
	repo := newFakeRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	tokens := auth.NewTokenManager("test-signing-secret")
	svc := NewAuthService(repo, nil, testLogger(), validator.New(), tokens, publisher)
	return svc, repo, publisher, tokens
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user and issues token", func(t *testing.T) {
		svc, _, publisher, tokens := newAuthTestService(t)

		resp, err := svc.Register(ctx, &RegisterRequest{
			Name:     "Asha Nair",
			Email:    "asha@example.com",
			Password: "correct horse",
			Role:     models.RoleStudent,
		})
		require.NoError(t, err)
		require.NotNil(t, resp.User)
		assert.NotZero(t, resp.User.ID)
		assert.Equal(t, models.RoleStudent, resp.User.Role)
		assert.False(t, resp.User.IsBlocked)

		// Password is stored hashed, never verbatim
		assert.NotEqual(t, "correct horse", resp.User.PasswordHash)
		assert.True(t, auth.VerifyPassword(resp.User.PasswordHash, "correct horse"))

		userID, role, err := tokens.VerifyToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID, userID)
		assert.Equal(t, models.RoleStudent, role)

		published := publisher.GetPublishedEvents()
		require.Len(t, published, 1)
		assert.Equal(t, events.EventUserRegistered, published[0].Type)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		svc, _, _, _ := newAuthTestService(t)

		req := &RegisterRequest{
			Name:     "Asha Nair",
			Email:    "asha@example.com",
			Password: "correct horse",
			Role:     models.RoleStudent,
		}
		_, err := svc.Register(ctx, req)
		require.NoError(t, err)

		_, err = svc.Register(ctx, req)
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("email is case-insensitive", func(t *testing.T) {
		svc, _, _, _ := newAuthTestService(t)

		resp, err := svc.Register(ctx, &RegisterRequest{
			Name:     "Sam Iyer",
			Email:    "sam@example.com",
			Password: "correct horse",
			Role:     models.RoleStudent,
		})
		require.NoError(t, err)
		assert.Equal(t, "sam@example.com", resp.User.Email)

		_, err = svc.Register(ctx, &RegisterRequest{
			Name:     "Sam Iyer",
			Email:    "SAM@example.com",
			Password: "correct horse",
			Role:     models.RoleStudent,
		})
		assert.ErrorIs(t, err, ErrEmailTaken)

		relogin, err := svc.Login(ctx, &LoginRequest{Email: "Sam@Example.com", Password: "correct horse"})
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID, relogin.User.ID)
	})

	t.Run("rejects admin self-signup", func(t *testing.T) {
		svc, _, _, _ := newAuthTestService(t)

		_, err := svc.Register(ctx, &RegisterRequest{
			Name:     "Root",
			Email:    "root@example.com",
			Password: "supersecret",
			Role:     models.RoleAdmin,
		})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
	})

	t.Run("rejects short password", func(t *testing.T) {
		svc, _, _, _ := newAuthTestService(t)

		_, err := svc.Register(ctx, &RegisterRequest{
			Name:     "Asha Nair",
			Email:    "asha@example.com",
			Password: "short",
			Role:     models.RoleStudent,
		})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := newAuthTestService(t)

	_, err := svc.Register(ctx, &RegisterRequest{
		Name:     "Asha Nair",
		Email:    "asha@example.com",
		Password: "correct horse",
		Role:     models.RoleStudent,
	})
	require.NoError(t, err)

	t.Run("succeeds with valid credentials", func(t *testing.T) {
		resp, err := svc.Login(ctx, &LoginRequest{Email: "asha@example.com", Password: "correct horse"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "asha@example.com", resp.User.Email)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginRequest{Email: "asha@example.com", Password: "wrong horse"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email gets the same error as a bad password", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginRequest{Email: "nobody@example.com", Password: "correct horse"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("rejects blocked account", func(t *testing.T) {
		user, err := repo.User().GetByEmail(ctx, nil, "asha@example.com")
		require.NoError(t, err)
		require.NoError(t, repo.User().SetBlocked(ctx, nil, user.ID, true))

		_, err = svc.Login(ctx, &LoginRequest{Email: "asha@example.com", Password: "correct horse"})
		assert.ErrorIs(t, err, ErrAccountBlocked)

		require.NoError(t, repo.User().SetBlocked(ctx, nil, user.ID, false))
	})
}

func TestAuthService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newAuthTestService(t)

	resp, err := svc.Register(ctx, &RegisterRequest{
		Name:     "Asha Nair",
		Email:    "asha@example.com",
		Password: "correct horse",
		Role:     models.RoleStudent,
	})
	require.NoError(t, err)

	name := "Asha N."
	avatar := "https://cdn.example.com/a.png"
	updated, err := svc.UpdateProfile(ctx, resp.User.ID, &UpdateProfileRequest{Name: &name, AvatarURL: &avatar})
	require.NoError(t, err)
	assert.Equal(t, "Asha N.", updated.Name)
	assert.Equal(t, avatar, updated.AvatarURL)

	fetched, err := svc.GetProfile(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha N.", fetched.Name)

	newPassword := "battery staple"
	_, err = svc.UpdateProfile(ctx, resp.User.ID, &UpdateProfileRequest{Password: &newPassword})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &LoginRequest{Email: "asha@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	relogin, err := svc.Login(ctx, &LoginRequest{Email: "asha@example.com", Password: newPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, relogin.Token)

	_, err = svc.GetProfile(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
