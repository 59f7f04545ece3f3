package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/openlearn/lms-service/internal/models"
)

// UserRepository interface for user account operations
type UserRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)
	GetByRole(ctx context.Context, tx *gorm.DB, role models.UserRole, filters UserFilters) ([]*models.User, int64, error)

	// Moderation
	SetBlocked(ctx context.Context, tx *gorm.DB, id uint, blocked bool) error

	// Validation and checks
	ExistsByEmail(ctx context.Context, tx *gorm.DB, email string, excludeID *uint) (bool, error)
}
