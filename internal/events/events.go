// Package events defines the domain events the service emits and the
// publisher used to ship them to the message broker.
package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	sourceService = "lms-service"
	eventVersion  = "1.0"
)

// Event types emitted by the service.
const (
	EventUserRegistered    = "user.registered"
	EventUserBlocked       = "user.blocked"
	EventUserUnblocked     = "user.unblocked"
	EventCourseCreated     = "course.created"
	EventCourseApproved    = "course.approved"
	EventCourseDeleted     = "course.deleted"
	EventEnrollmentCreated = "enrollment.created"
	EventLessonCompleted   = "enrollment.lesson_completed"
	EventPaymentVerified   = "payment.verified"
)

// Event is the envelope every published message uses.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent wraps a payload in a fully populated envelope.
func NewEvent(eventType string, data interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    sourceService,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// UserEvent is the payload for user lifecycle events.
type UserEvent struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// CourseEvent is the payload for course lifecycle events.
type CourseEvent struct {
	CourseID     uint   `json:"course_id"`
	Title        string `json:"title"`
	InstructorID uint   `json:"instructor_id"`
}

// EnrollmentEvent is the payload for enrollment lifecycle events.
type EnrollmentEvent struct {
	EnrollmentID uint `json:"enrollment_id"`
	StudentID    uint `json:"student_id"`
	CourseID     uint `json:"course_id"`
}

// LessonCompletedEvent is the payload emitted when a student finishes a
// lesson. Progress is the percentage after the completion was recorded.
type LessonCompletedEvent struct {
	EnrollmentID uint `json:"enrollment_id"`
	StudentID    uint `json:"student_id"`
	CourseID     uint `json:"course_id"`
	LessonID     uint `json:"lesson_id"`
	Progress     int  `json:"progress"`
}

// PaymentVerifiedEvent is the payload emitted after a checkout signature
// passes verification and the paid enrollment is created.
type PaymentVerifiedEvent struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	StudentID uint   `json:"student_id"`
	CourseID  uint   `json:"course_id"`
	Amount    int64  `json:"amount"`
}
