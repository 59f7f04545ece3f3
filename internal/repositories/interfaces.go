package repositories

import (
	"time"

	"github.com/openlearn/lms-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	Category       *string             `json:"category"`
	Level          *models.CourseLevel `json:"level"`
	InstructorID   *uint               `json:"instructor_id"`
	IsApproved     *bool               `json:"is_approved"`
	Search         *string             `json:"search"`
	IncludeDeleted bool                `json:"include_deleted"`
	Limit          int                 `json:"limit"`
	Offset         int                 `json:"offset"`
	SortBy         string              `json:"sort_by"`    // "created_at", "title", "price"
	SortOrder      string              `json:"sort_order"` // "asc", "desc"
}

type UserFilters struct {
	Role      *models.UserRole `json:"role"`
	IsBlocked *bool            `json:"is_blocked"`
	Search    *string          `json:"search"`
	Limit     int              `json:"limit"`
	Offset    int              `json:"offset"`
	SortBy    string           `json:"sort_by"`
	SortOrder string           `json:"sort_order"`
}

type EnrollmentFilters struct {
	StudentID *uint `json:"student_id"`
	CourseID  *uint `json:"course_id"`
	Limit     int   `json:"limit"`
	Offset    int   `json:"offset"`
}

// ===== SHARED HELPER STRUCTS =====

// ModuleOrder describes the desired position of one module and its lessons
// in a curriculum rewrite. Lesson order is the slice order.
type ModuleOrder struct {
	ModuleID  uint   `json:"module_id"`
	LessonIDs []uint `json:"lesson_ids"`
}

// ===== SHARED STATISTICS STRUCTS =====

type CourseStats struct {
	LessonCount     int `json:"lesson_count"`
	ModuleCount     int `json:"module_count"`
	EnrollmentCount int `json:"enrollment_count"`
}

type InstructorStats struct {
	TotalCourses    int `json:"total_courses"`
	ApprovedCourses int `json:"approved_courses"`
	PendingCourses  int `json:"pending_courses"`
	TotalStudents   int `json:"total_students"`
}

// RosterEntry is one row of a course roster export.
type RosterEntry struct {
	StudentID  uint      `json:"student_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Progress   int       `json:"progress"`
	EnrolledAt time.Time `json:"enrolled_at"`
}
