package dto

import "time"

// CreateAssignmentRequest describes a new assignment.
type CreateAssignmentRequest struct {
	CourseID    string    `json:"course_id" validate:"required"`
	Title       string    `json:"title" validate:"required,max=255"`
	Description *string   `json:"description"`
	MaxGrade    *float64  `json:"max_grade" validate:"omitempty,gt=0"`
	DueDate     time.Time `json:"due_date" validate:"required"`
}

// SubmitAssignmentRequest carries a student's answer. At least one of content or file_url is required.
type SubmitAssignmentRequest struct {
	Content *string `json:"content"`
	FileURL *string `json:"file_url" validate:"omitempty,url"`
}

// GradeSubmissionRequest carries an instructor's grade.
type GradeSubmissionRequest struct {
	Grade    *float64 `json:"grade" validate:"required,gte=0"`
	Feedback *string  `json:"feedback"`
}
