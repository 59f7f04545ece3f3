package models

import (
	"time"

	"gorm.io/gorm"
)

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
	LevelAllLevels    CourseLevel = "all-levels"
)

func (l CourseLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelAllLevels:
		return true
	}
	return false
}

// Course is the catalog root. Visibility to students is gated by IsApproved
// (admin-controlled); deletion is soft so enrollments keep a valid reference.
type Course struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	Title       string      `json:"title" gorm:"not null;size:200;index"`
	Description string      `json:"description" gorm:"type:text;not null"`
	Category    string      `json:"category" gorm:"size:100;default:General"`
	Level       CourseLevel `json:"level" gorm:"size:20;default:beginner"`

	// Price in minor currency units (paise).
	Price int64 `json:"price" gorm:"not null;default:0"`

	InstructorID uint `json:"instructor_id" gorm:"not null;index"`
	IsApproved   bool `json:"is_approved" gorm:"not null;default:false;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Instructor User     `json:"instructor,omitempty" gorm:"foreignKey:InstructorID"`
	Modules    []Module `json:"modules,omitempty" gorm:"foreignKey:CourseID"`

	// Computed fields (not stored)
	LessonCount     int `json:"lesson_count,omitempty" gorm:"-"`
	EnrollmentCount int `json:"enrollment_count,omitempty" gorm:"-"`
}

func (Course) TableName() string {
	return "courses"
}

// IsOwnedBy reports whether userID created the course.
func (c *Course) IsOwnedBy(userID uint) bool {
	return c.InstructorID == userID
}
