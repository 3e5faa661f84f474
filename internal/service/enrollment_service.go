package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/internal/repository"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

type enrollmentRepository interface {
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateProgress(ctx context.Context, id string, percentage float64, completedAt *time.Time) (*models.Enrollment, error)
	ListByUser(ctx context.Context, userID string) ([]models.EnrolledCourse, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// EnrollmentService owns the enrollment lifecycle: joining a course and the one-way completion transition.
type EnrollmentService struct {
	repo    enrollmentRepository
	courses courseReader
	clock   Clock
	metrics *MetricsService
	logger  *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, courses courseReader, clock Clock, metrics *MetricsService, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, courses: courses, clock: clockOrSystem(clock), metrics: metrics, logger: logger}
}

// Enroll registers the user in the course with zero progress.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	if err := ensureCourse(ctx, s.courses, courseID); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	}

	enrollment := &models.Enrollment{
		UserID:             userID,
		CourseID:           courseID,
		EnrolledAt:         s.clock.Now(),
		ProgressPercentage: 0,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicateEnrollment) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	s.metrics.IncEnrollment()
	s.logger.Info("user enrolled", zap.String("user_id", userID), zap.String("course_id", courseID))
	return enrollment, nil
}

// RecordProgress stores the completion percentage. Reaching 100 stamps completed_at once; it is never cleared.
// A lower value after completion is stored but flagged in the logs.
func (s *EnrollmentService) RecordProgress(ctx context.Context, userID, courseID string, percentage float64) (*models.Enrollment, error) {
	if percentage < 0 || percentage > 100 {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "progress percentage must be between 0 and 100",
			map[string]interface{}{"progress_percentage": percentage})
	}

	enrollment, err := s.repo.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotEnrolled, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	if enrollment.Completed() && percentage < enrollment.ProgressPercentage {
		s.logger.Warn("progress regressed after completion",
			zap.String("user_id", userID),
			zap.String("course_id", courseID),
			zap.Float64("previous", enrollment.ProgressPercentage),
			zap.Float64("reported", percentage))
	}

	var completedAt *time.Time
	if percentage >= 100 && !enrollment.Completed() {
		now := s.clock.Now()
		completedAt = &now
	}

	updated, err := s.repo.UpdateProgress(ctx, enrollment.ID, percentage, completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotEnrolled, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update progress")
	}
	if completedAt != nil {
		s.metrics.IncCompletion()
		s.logger.Info("course completed", zap.String("user_id", userID), zap.String("course_id", courseID))
	}
	return updated, nil
}

// ListMine returns the user's enrolled courses.
func (s *EnrollmentService) ListMine(ctx context.Context, userID string) ([]models.EnrolledCourse, error) {
	courses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	if courses == nil {
		courses = []models.EnrolledCourse{}
	}
	return courses, nil
}

func ensureCourse(ctx context.Context, courses courseReader, courseID string) error {
	if _, err := loadCourse(ctx, courses, courseID); err != nil {
		return err
	}
	return nil
}

func loadCourse(ctx context.Context, courses courseReader, courseID string) (*models.Course, error) {
	course, err := courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}
