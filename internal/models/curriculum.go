package models

import "time"

// Module groups lessons within a course. Position is the 0-based order of the
// module inside its course curriculum.
type Module struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Title    string `json:"title" gorm:"not null;size:200"`
	CourseID uint   `json:"course_id" gorm:"not null;index"`
	Position int    `json:"position" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Lessons []Lesson `json:"lessons,omitempty" gorm:"foreignKey:ModuleID"`
}

func (Module) TableName() string {
	return "modules"
}

// Lesson carries the actual learning content. CourseID is denormalized from
// the owning module so enrollment checks need a single lookup.
type Lesson struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"not null;size:200"`
	Description string `json:"description" gorm:"type:text"`
	Content     string `json:"content,omitempty" gorm:"type:text"`
	VideoURL    string `json:"video_url,omitempty" gorm:"size:500"`
	Position    int    `json:"position" gorm:"not null;default:0"`

	ModuleID uint `json:"module_id" gorm:"not null;index"`
	CourseID uint `json:"course_id" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Lesson) TableName() string {
	return "lessons"
}
