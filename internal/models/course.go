package models

import "time"

// CourseLevel grades course difficulty.
type CourseLevel string

const (
	CourseLevelBeginner     CourseLevel = "beginner"
	CourseLevelIntermediate CourseLevel = "intermediate"
	CourseLevelAdvanced     CourseLevel = "advanced"
)

// Valid reports whether l is a known level.
func (l CourseLevel) Valid() bool {
	switch l {
	case CourseLevelBeginner, CourseLevelIntermediate, CourseLevelAdvanced:
		return true
	}
	return false
}

// Course is a catalog entry owned by at most one instructor.
type Course struct {
	ID           string      `db:"id" json:"id"`
	Title        string      `db:"title" json:"title"`
	Description  *string     `db:"description" json:"description,omitempty"`
	Category     string      `db:"category" json:"category"`
	Level        CourseLevel `db:"level" json:"level"`
	Duration     int         `db:"duration" json:"duration"`
	Thumbnail    *string     `db:"thumbnail" json:"thumbnail,omitempty"`
	Rating       float64     `db:"rating" json:"rating"`
	InstructorID *string     `db:"instructor_id" json:"instructor_id,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// CourseDetail adds the ordered lesson list and the instructor display name.
type CourseDetail struct {
	Course
	InstructorName *string  `db:"instructor_name" json:"instructor_name,omitempty"`
	Lessons        []Lesson `db:"-" json:"lessons"`
}

// Lesson is a unit of course content.
type Lesson struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	VideoURL    *string   `db:"video_url" json:"video_url,omitempty"`
	Duration    int       `db:"duration" json:"duration"`
	Order       int       `db:"lesson_order" json:"order"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CourseFilter provides filters for listing courses.
type CourseFilter struct {
	Category string
	Level    CourseLevel
	Search   string
	Page     int
	PageSize int
}
