package dto

import (
	"time"

	"github.com/noah-isme/edu-platform-api/internal/models"
)

// CreateScheduleRequest describes a timed course event.
type CreateScheduleRequest struct {
	Title     string              `json:"title" validate:"required,max=255"`
	Type      models.ScheduleType `json:"type"`
	StartTime time.Time           `json:"start_time" validate:"required"`
	EndTime   time.Time           `json:"end_time" validate:"required"`
}
