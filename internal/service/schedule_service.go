package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-platform-api/internal/dto"
	"github.com/noah-isme/edu-platform-api/internal/models"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

type scheduleRepository interface {
	Create(ctx context.Context, schedule *models.Schedule) error
	ListByCourse(ctx context.Context, courseID string) ([]models.Schedule, error)
	ListUpcomingForUser(ctx context.Context, userID string, from time.Time, limit int) ([]models.ScheduleItem, error)
}

// ScheduleService manages course calendars.
type ScheduleService struct {
	repo      scheduleRepository
	courses   courseReader
	clock     Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(repo scheduleRepository, courses courseReader, clock Clock, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, courses: courses, clock: clockOrSystem(clock), validator: validate, logger: logger}
}

// Create adds an event to a course calendar.
func (s *ScheduleService) Create(ctx context.Context, courseID string, req dto.CreateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if req.Type == "" {
		req.Type = models.ScheduleTypeLive
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "type must be live, exam or assignment")
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	if err := ensureCourse(ctx, s.courses, courseID); err != nil {
		return nil, err
	}
	schedule := &models.Schedule{
		CourseID:  courseID,
		Title:     req.Title,
		Type:      req.Type,
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime.UTC(),
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return schedule, nil
}

// ListByCourse returns a course calendar.
func (s *ScheduleService) ListByCourse(ctx context.Context, courseID string) ([]models.Schedule, error) {
	if err := ensureCourse(ctx, s.courses, courseID); err != nil {
		return nil, err
	}
	schedules, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	if schedules == nil {
		schedules = []models.Schedule{}
	}
	return schedules, nil
}

// Upcoming returns events from now on across the user's enrolled courses.
func (s *ScheduleService) Upcoming(ctx context.Context, userID string, limit int) ([]models.ScheduleItem, error) {
	items, err := s.repo.ListUpcomingForUser(ctx, userID, s.clock.Now(), limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list upcoming schedules")
	}
	if items == nil {
		items = []models.ScheduleItem{}
	}
	return items, nil
}
