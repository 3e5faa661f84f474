package models

import "time"

// ScheduleType classifies a calendar entry.
type ScheduleType string

const (
	ScheduleTypeLive       ScheduleType = "live"
	ScheduleTypeExam       ScheduleType = "exam"
	ScheduleTypeAssignment ScheduleType = "assignment"
)

// Valid reports whether t is a known schedule type.
func (t ScheduleType) Valid() bool {
	switch t {
	case ScheduleTypeLive, ScheduleTypeExam, ScheduleTypeAssignment:
		return true
	}
	return false
}

// Schedule is a timed course event.
type Schedule struct {
	ID        string       `db:"id" json:"id"`
	CourseID  string       `db:"course_id" json:"course_id"`
	Title     string       `db:"title" json:"title"`
	Type      ScheduleType `db:"type" json:"type"`
	StartTime time.Time    `db:"start_time" json:"start_time"`
	EndTime   time.Time    `db:"end_time" json:"end_time"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// ScheduleItem is a schedule joined with its course title.
type ScheduleItem struct {
	Schedule
	CourseTitle string `db:"course_title" json:"course_title"`
}
