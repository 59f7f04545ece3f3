package validator

import "github.com/openlearn/lms-service/internal/models"

// RegisterRequest represents the request structure for account signup
type RegisterRequest struct {
	Name     string          `json:"name" validate:"required,person_name"`
	Email    string          `json:"email" validate:"required,email,max=254"`
	Password string          `json:"password" validate:"required,min=8,max=72"`
	Role     models.UserRole `json:"role" validate:"required,user_role"`
}

// LoginRequest represents the request structure for signing in
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest represents the request structure for profile updates
type UpdateProfileRequest struct {
	Name      *string `json:"name" validate:"omitempty,person_name"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url,max=2048"`
	Password  *string `json:"password" validate:"omitempty,min=8,max=72"`
}

// CourseCreateRequest represents the request structure for creating courses
type CourseCreateRequest struct {
	Title       string             `json:"title" validate:"required,course_title"`
	Description string             `json:"description" validate:"omitempty,course_description"`
	Category    string             `json:"category" validate:"required,max=100"`
	Level       models.CourseLevel `json:"level" validate:"required,course_level"`
	Price       int64              `json:"price" validate:"price_minor"`

	// InstructorID lets an admin create a course owned by an instructor.
	// Ignored unless the caller is an admin.
	InstructorID *uint `json:"instructor_id" validate:"omitempty,gt=0"`
}

// CourseUpdateRequest represents the request structure for updating courses
type CourseUpdateRequest struct {
	Title       *string             `json:"title" validate:"omitempty,course_title"`
	Description *string             `json:"description" validate:"omitempty,course_description"`
	Category    *string             `json:"category" validate:"omitempty,max=100"`
	Level       *models.CourseLevel `json:"level" validate:"omitempty,course_level"`
	Price       *int64              `json:"price" validate:"omitempty,price_minor"`
}

// ModuleCreateRequest represents the request structure for adding a module
type ModuleCreateRequest struct {
	Title string `json:"title" validate:"required,course_title"`
}

// ModuleUpdateRequest represents the request structure for renaming a module
type ModuleUpdateRequest struct {
	Title string `json:"title" validate:"required,course_title"`
}

// LessonCreateRequest represents the request structure for adding a lesson
type LessonCreateRequest struct {
	Title       string `json:"title" validate:"required,course_title"`
	Description string `json:"description" validate:"omitempty,course_description"`
	Content     string `json:"content" validate:"omitempty,max=100000"`
	VideoURL    string `json:"video_url" validate:"omitempty,url,max=2048"`
}

// LessonUpdateRequest represents the request structure for updating a lesson
type LessonUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,course_title"`
	Description *string `json:"description" validate:"omitempty,course_description"`
	Content     *string `json:"content" validate:"omitempty,max=100000"`
	VideoURL    *string `json:"video_url" validate:"omitempty,url,max=2048"`
}

// ReorderModuleRequest is one module entry in a curriculum reorder
type ReorderModuleRequest struct {
	ModuleID  uint   `json:"module_id" validate:"required"`
	LessonIDs []uint `json:"lesson_ids" validate:"dive,required"`
}

// ReorderCurriculumRequest represents the full atomic curriculum rewrite
type ReorderCurriculumRequest struct {
	Modules []ReorderModuleRequest `json:"modules" validate:"required,min=1,dive"`
}

// CheckoutRequest represents the request structure for opening a payment order
type CheckoutRequest struct {
	CourseID uint `json:"course_id" validate:"required"`
}

// VerifyPaymentRequest represents the gateway callback payload
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
	CourseID  uint   `json:"course_id" validate:"required"`
}

// BlockUserRequest represents the moderation toggle payload
type BlockUserRequest struct {
	Blocked bool `json:"blocked"`
}

// ApproveCourseRequest represents the approval toggle payload
type ApproveCourseRequest struct {
	Approved bool `json:"approved"`
}
