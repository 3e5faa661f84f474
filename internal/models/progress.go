package models

import "time"

// Progress holds the per (user, course) learning counters.
type Progress struct {
	ID                   string    `db:"id" json:"id"`
	UserID               string    `db:"user_id" json:"user_id"`
	CourseID             string    `db:"course_id" json:"course_id"`
	CompletionPercentage float64   `db:"completion_percentage" json:"completion_percentage"`
	TimeSpent            int       `db:"time_spent" json:"time_spent"`
	LastAccessed         time.Time `db:"last_accessed" json:"last_accessed"`
	Streak               int       `db:"streak" json:"streak"`
	Points               int       `db:"points" json:"points"`
}

// LeaderboardEntry ranks a user by points earned across courses.
type LeaderboardEntry struct {
	Rank      int     `db:"-" json:"rank"`
	UserID    string  `db:"user_id" json:"user_id"`
	Name      string  `db:"name" json:"name"`
	Avatar    *string `db:"avatar" json:"avatar,omitempty"`
	Points    int     `db:"points" json:"points"`
	Streak    int     `db:"streak" json:"streak"`
	Completed int     `db:"completed" json:"completed_courses"`
}
