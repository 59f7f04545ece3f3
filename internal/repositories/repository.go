package repositories

import (
	"context"
	"errors"
)

// Sentinel errors every backend translates its driver errors into so the
// service layer never inspects driver error types directly.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// IsNotFoundError reports whether err is the not-found sentinel
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err is the duplicate sentinel
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// Repository aggregates all entity repositories
type Repository interface {
	// User domain
	User() UserRepository

	// Course catalog domain
	Course() CourseRepository
	Curriculum() CurriculumRepository

	// Enrollment domain
	Enrollment() EnrollmentRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
