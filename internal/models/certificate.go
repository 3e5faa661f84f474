package models

import "time"

// CertificateGrade is the qualitative label printed on a certificate.
type CertificateGrade string

const (
	GradeExcellent CertificateGrade = "Excellent"
	GradeVeryGood  CertificateGrade = "Very Good"
	GradePass      CertificateGrade = "Pass"
)

// Certificate is an append-only proof of completion. Names and title are snapshots taken at issuance.
type Certificate struct {
	ID                string           `db:"id" json:"id"`
	UserID            string           `db:"user_id" json:"user_id"`
	CourseID          string           `db:"course_id" json:"course_id"`
	CertificateNumber string           `db:"certificate_number" json:"certificate_number"`
	IssuedAt          time.Time        `db:"issued_at" json:"issued_at"`
	CompletedAt       time.Time        `db:"completed_at" json:"completed_at"`
	InstructorName    string           `db:"instructor_name" json:"instructor_name"`
	CourseTitle       string           `db:"course_title" json:"course_title"`
	StudentName       string           `db:"student_name" json:"student_name"`
	Grade             CertificateGrade `db:"grade" json:"grade"`
}

// CertificateDetail adds display-only course metadata joined at read time.
type CertificateDetail struct {
	Certificate
	CourseThumbnail *string `db:"course_thumbnail" json:"course_thumbnail,omitempty"`
	CourseCategory  *string `db:"course_category" json:"course_category,omitempty"`
	CourseDuration  *int    `db:"course_duration" json:"course_duration,omitempty"`
}
