package services

import (
	"context"

	"github.com/openlearn/lms-service/internal/models"
	"github.com/openlearn/lms-service/internal/repositories"
	"github.com/openlearn/lms-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type RegisterRequest = validator.RegisterRequest
type LoginRequest = validator.LoginRequest
type UpdateProfileRequest = validator.UpdateProfileRequest
type CreateCourseRequest = validator.CourseCreateRequest
type UpdateCourseRequest = validator.CourseUpdateRequest
type CreateModuleRequest = validator.ModuleCreateRequest
type UpdateModuleRequest = validator.ModuleUpdateRequest
type CreateLessonRequest = validator.LessonCreateRequest
type UpdateLessonRequest = validator.LessonUpdateRequest
type ReorderCurriculumRequest = validator.ReorderCurriculumRequest
type CheckoutRequest = validator.CheckoutRequest
type VerifyPaymentRequest = validator.VerifyPaymentRequest

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type CourseResponse struct {
	*models.Course
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	CanEnroll bool `json:"can_enroll"`
}

type CourseListResponse struct {
	Courses []*CourseResponse `json:"courses"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Size    int               `json:"size"`
}

type EnrollmentResponse struct {
	*models.Enrollment
	Progress int `json:"progress"`
}

type EnrollmentListResponse struct {
	Enrollments []*EnrollmentResponse `json:"enrollments"`
	Total       int64                 `json:"total"`
	Page        int                   `json:"page"`
	Size        int                   `json:"size"`
}

type UserListResponse struct {
	Users []*models.User `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

// CheckoutResponse carries everything the client needs to open the payment
// widget for a gateway order.
type CheckoutResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
	CourseID uint   `json:"course_id"`
}

// RosterExport is a rendered spreadsheet of a course's enrollments.
type RosterExport struct {
	Filename string
	Content  []byte
}

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	GetProfile(ctx context.Context, userID uint) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*models.User, error)
}

type CourseService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateCourseRequest, actor *models.User) (*CourseResponse, error)
	GetByID(ctx context.Context, id uint, actor *models.User) (*CourseResponse, error)
	GetByIDWithCurriculum(ctx context.Context, id uint, actor *models.User) (*CourseResponse, error)
	Update(ctx context.Context, id uint, req *UpdateCourseRequest, actor *models.User) (*CourseResponse, error)
	Delete(ctx context.Context, id uint, actor *models.User) error

	// List operations
	List(ctx context.Context, filters repositories.CourseFilters, actor *models.User) (*CourseListResponse, error)
	GetMine(ctx context.Context, filters repositories.CourseFilters, actor *models.User) (*CourseListResponse, error)
	AdminList(ctx context.Context, filters repositories.CourseFilters, actor *models.User) (*CourseListResponse, error)

	// Approval gate
	SetApproved(ctx context.Context, id uint, approved bool, actor *models.User) error

	// Statistics
	GetStats(ctx context.Context, id uint, actor *models.User) (*repositories.CourseStats, error)
	GetInstructorStats(ctx context.Context, actor *models.User) (*repositories.InstructorStats, error)
}

type CurriculumService interface {
	// Module operations
	AddModule(ctx context.Context, courseID uint, req *CreateModuleRequest, actor *models.User) (*models.Module, error)
	UpdateModule(ctx context.Context, courseID, moduleID uint, req *UpdateModuleRequest, actor *models.User) (*models.Module, error)
	DeleteModule(ctx context.Context, courseID, moduleID uint, actor *models.User) error
	ListModules(ctx context.Context, courseID uint, actor *models.User) ([]*models.Module, error)

	// Lesson operations
	AddLesson(ctx context.Context, courseID, moduleID uint, req *CreateLessonRequest, actor *models.User) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, courseID, lessonID uint, req *UpdateLessonRequest, actor *models.User) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, courseID, lessonID uint, actor *models.User) error
	GetLesson(ctx context.Context, courseID, lessonID uint, actor *models.User) (*models.Lesson, error)

	// Reorder rewrites the whole curriculum ordering atomically
	Reorder(ctx context.Context, courseID uint, req *ReorderCurriculumRequest, actor *models.User) error
}

type EnrollmentService interface {
	// Enroll handles free courses; paid courses must go through the
	// payment service and return ErrPaymentRequired here
	Enroll(ctx context.Context, courseID uint, actor *models.User) (*EnrollmentResponse, error)

	// Query operations
	ListMine(ctx context.Context, filters repositories.EnrollmentFilters, actor *models.User) (*EnrollmentListResponse, error)
	GetByID(ctx context.Context, id uint, actor *models.User) (*EnrollmentResponse, error)

	// Progress tracking
	CompleteLesson(ctx context.Context, courseID, lessonID uint, actor *models.User) (*EnrollmentResponse, error)
}

type PaymentService interface {
	// Checkout opens a gateway order for a paid course
	Checkout(ctx context.Context, req *CheckoutRequest, actor *models.User) (*CheckoutResponse, error)

	// Verify checks the gateway signature and creates the enrollment
	Verify(ctx context.Context, req *VerifyPaymentRequest, actor *models.User) (*EnrollmentResponse, error)

	// KeyID exposes the public gateway key for the checkout widget
	KeyID() string
}

type UserService interface {
	// Admin operations
	List(ctx context.Context, filters repositories.UserFilters, actor *models.User) (*UserListResponse, error)
	SetBlocked(ctx context.Context, userID uint, blocked bool, actor *models.User) error
}

type ReportService interface {
	// CourseRoster renders the course's enrollments as a spreadsheet
	CourseRoster(ctx context.Context, courseID uint, actor *models.User) (*RosterExport, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Auth() AuthService
	Course() CourseService
	Curriculum() CurriculumService
	Enrollment() EnrollmentService
	Payment() PaymentService
	User() UserService
	Report() ReportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
