package models

import (
	"time"

	"gorm.io/datatypes"
)

// Enrollment ties a student to a course. The compound unique index on
// (student_id, course_id) is what makes duplicate enrollment impossible even
// under concurrent requests; application code only translates the violation.
type Enrollment struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	StudentID uint `json:"student_id" gorm:"not null;uniqueIndex:idx_enrollments_student_course"`
	CourseID  uint `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollments_student_course"`

	// CompletedLessonIDs only ever grows; completing a lesson twice is a no-op.
	CompletedLessonIDs datatypes.JSONSlice[uint] `json:"completed_lesson_ids" gorm:"type:jsonb"`

	EnrolledAt time.Time `json:"enrolled_at" gorm:"not null;autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relations
	Student User   `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Course  Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`

	// Computed (not stored)
	Progress int `json:"progress" gorm:"-"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// HasCompleted reports whether the lesson is already in the completed set.
func (e *Enrollment) HasCompleted(lessonID uint) bool {
	for _, id := range e.CompletedLessonIDs {
		if id == lessonID {
			return true
		}
	}
	return false
}

// ProgressPercent derives completion as a rounded percentage of totalLessons.
// A course with no lessons reports 0 rather than dividing by zero.
func (e *Enrollment) ProgressPercent(totalLessons int) int {
	if totalLessons <= 0 {
		return 0
	}
	done := len(e.CompletedLessonIDs)
	if done > totalLessons {
		done = totalLessons
	}
	return int((float64(done)/float64(totalLessons))*100 + 0.5)
}
