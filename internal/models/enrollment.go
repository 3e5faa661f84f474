package models

import "time"

// Enrollment links one user to one course and tracks completion.
// CompletedAt is set once, when progress first reaches 100, and never cleared.
type Enrollment struct {
	ID                 string     `db:"id" json:"id"`
	UserID             string     `db:"user_id" json:"user_id"`
	CourseID           string     `db:"course_id" json:"course_id"`
	EnrolledAt         time.Time  `db:"enrolled_at" json:"enrolled_at"`
	CompletedAt        *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	ProgressPercentage float64    `db:"progress_percentage" json:"progress_percentage"`
}

// Completed reports whether the completion timestamp has been stamped.
func (e *Enrollment) Completed() bool {
	return e != nil && e.CompletedAt != nil
}

// EnrolledCourse is an enrollment joined with the course summary for "my courses".
type EnrolledCourse struct {
	Enrollment
	CourseTitle     string      `db:"course_title" json:"course_title"`
	CourseCategory  string      `db:"course_category" json:"course_category"`
	CourseLevel     CourseLevel `db:"course_level" json:"course_level"`
	CourseThumbnail *string     `db:"course_thumbnail" json:"course_thumbnail,omitempty"`
	CourseDuration  int         `db:"course_duration" json:"course_duration"`
}

// EnrollmentReportRow is one student line of a course enrollment export.
type EnrollmentReportRow struct {
	StudentName        string     `db:"student_name"`
	StudentEmail       string     `db:"student_email"`
	EnrolledAt         time.Time  `db:"enrolled_at"`
	CompletedAt        *time.Time `db:"completed_at"`
	ProgressPercentage float64    `db:"progress_percentage"`
	TimeSpent          int        `db:"time_spent"`
	Points             int        `db:"points"`
}
