package dto

import "github.com/noah-isme/edu-platform-api/internal/models"

// CreateCourseRequest describes the payload for authoring a course.
type CreateCourseRequest struct {
	Title        string             `json:"title" validate:"required,max=255"`
	Description  *string            `json:"description"`
	Category     string             `json:"category" validate:"required,max=100"`
	Level        models.CourseLevel `json:"level"`
	Duration     int                `json:"duration" validate:"gte=0"`
	Thumbnail    *string            `json:"thumbnail" validate:"omitempty,url"`
	InstructorID *string            `json:"instructor_id"`
}

// CreateLessonRequest describes a lesson appended to a course.
type CreateLessonRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description"`
	VideoURL    *string `json:"video_url" validate:"omitempty,url"`
	Duration    int     `json:"duration" validate:"gte=0"`
	Order       int     `json:"order" validate:"gte=0"`
}
