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
)

type userService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	eventPublisher events.EventPublisher
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, publisher events.EventPublisher) UserService {
	return &userService{
		repo:           repo,
		db:             db,
		logger:         logger,
		eventPublisher: publisher,
	}
}

func (s *userService) List(ctx context.Context, filters repositories.UserFilters, actor *models.User) (*UserListResponse, error) {
	if d := policy.CanViewAdminResource(toActor(actor)); !d.Allowed {
		return nil, denyError(d, actor, 0, "user", ErrUserNotFound)
	}

	users, total, err := s.repo.User().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	page := 1
	if filters.Limit > 0 {
		page = filters.Offset/filters.Limit + 1
	}

	return &UserListResponse{
		Users: users,
		Total: total,
		Page:  page,
		Size:  len(users),
	}, nil
}

// SetBlocked toggles the moderation flag. Admin accounts cannot be blocked.
func (s *userService) SetBlocked(ctx context.Context, userID uint, blocked bool, actor *models.User) error {
	target, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if d := policy.CanBlockUser(toActor(actor), target.Role); !d.Allowed {
		return denyError(d, actor, userID, "user", ErrUserNotFound)
	}

	if err := s.repo.User().SetBlocked(ctx, nil, userID, blocked); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to set blocked: %w", err)
	}

	s.logger.Info("User block state changed",
		"user_id", userID,
		"blocked", blocked,
		"admin_id", actor.ID)

	eventType := events.EventUserUnblocked
	if blocked {
		eventType = events.EventUserBlocked
	}
	if err := s.eventPublisher.Publish(ctx, events.NewEvent(eventType, events.UserEvent{
		UserID: target.ID,
		Email:  target.Email,
		Role:   string(target.Role),
	})); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", "event_type", eventType, "error", err)
	}

	return nil
}
