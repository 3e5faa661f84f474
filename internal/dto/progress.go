package dto

import "github.com/noah-isme/edu-platform-api/internal/models"

// RecordProgressRequest carries one lesson-consumption event.
type RecordProgressRequest struct {
	CompletionPercentage *float64 `json:"completion_percentage" binding:"required" validate:"required,gte=0,lte=100"`
	TimeSpent            int     `json:"time_spent" validate:"gte=0"`
	Points               int     `json:"points" validate:"gte=0"`
}

// ProgressResult pairs the updated counters with the enrollment they drove.
type ProgressResult struct {
	Progress   *models.Progress   `json:"progress"`
	Enrollment *models.Enrollment `json:"enrollment"`
}
