package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-platform-api/internal/dto"
	"github.com/noah-isme/edu-platform-api/internal/models"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

const leaderboardCacheKeyPrefix = "leaderboard:"

type progressRepository interface {
	Find(ctx context.Context, userID, courseID string) (*models.Progress, error)
	Apply(ctx context.Context, userID, courseID string, seededAt time.Time, mutate func(*models.Progress)) (*models.Progress, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

type enrollmentFinder interface {
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
}

type completionRecorder interface {
	RecordProgress(ctx context.Context, userID, courseID string, percentage float64) (*models.Enrollment, error)
}

// ProgressService accumulates learning counters and feeds the completion percentage to the enrollment lifecycle.
type ProgressService struct {
	repo        progressRepository
	enrollments enrollmentFinder
	completion  completionRecorder
	cache       *CacheService
	cacheTTL    time.Duration
	clock       Clock
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewProgressService constructs ProgressService.
func NewProgressService(repo progressRepository, enrollments enrollmentFinder, completion completionRecorder, cache *CacheService, cacheTTL time.Duration, clock Clock, validate *validator.Validate, logger *zap.Logger) *ProgressService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &ProgressService{
		repo:        repo,
		enrollments: enrollments,
		completion:  completion,
		cache:       cache,
		cacheTTL:    cacheTTL,
		clock:       clockOrSystem(clock),
		validator:   validate,
		logger:      logger,
	}
}

// Record applies a progress event for an enrolled user.
// The enrollment percentage is written first; counters are only added once it succeeded, so a retried event is never counted twice.
func (s *ProgressService) Record(ctx context.Context, userID, courseID string, req dto.RecordProgressRequest) (*dto.ProgressResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress payload")
	}
	if err := s.requireEnrollment(ctx, userID, courseID); err != nil {
		return nil, err
	}
	percentage := *req.CompletionPercentage

	enrollment, err := s.completion.RecordProgress(ctx, userID, courseID, percentage)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	progress, err := s.repo.Apply(ctx, userID, courseID, now, func(p *models.Progress) {
		p.Streak = nextStreak(p.Streak, p.LastAccessed, now)
		p.CompletionPercentage = percentage
		p.TimeSpent += req.TimeSpent
		p.Points += req.Points
		p.LastAccessed = now
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save progress")
	}

	if req.Points > 0 {
		_ = s.cache.Invalidate(ctx, leaderboardCacheKeyPrefix+"*")
	}
	return &dto.ProgressResult{Progress: progress, Enrollment: enrollment}, nil
}

// Get returns the counters for an enrolled user. A user who has not recorded anything yet gets a zero row.
func (s *ProgressService) Get(ctx context.Context, userID, courseID string) (*models.Progress, error) {
	if err := s.requireEnrollment(ctx, userID, courseID); err != nil {
		return nil, err
	}
	progress, err := s.repo.Find(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.Progress{UserID: userID, CourseID: courseID}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load progress")
	}
	return progress, nil
}

// Leaderboard ranks users by points. The second return value reports a cache hit.
func (s *ProgressService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	key := fmt.Sprintf("%s%d", leaderboardCacheKeyPrefix, limit)
	return remember(ctx, s.cache, key, s.cacheTTL, func() ([]models.LeaderboardEntry, error) {
		entries, err := s.repo.Leaderboard(ctx, limit)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leaderboard")
		}
		if entries == nil {
			entries = []models.LeaderboardEntry{}
		}
		return entries, nil
	})
}

func (s *ProgressService) requireEnrollment(ctx context.Context, userID, courseID string) error {
	if _, err := s.enrollments.FindByUserAndCourse(ctx, userID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotEnrolled, "")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return nil
}

// nextStreak keeps the streak on the same UTC day, extends it on the following day and restarts it after a gap.
func nextStreak(current int, last, now time.Time) int {
	lastDay := truncateDay(last)
	today := truncateDay(now)
	switch {
	case today.Equal(lastDay):
		if current < 1 {
			return 1
		}
		return current
	case today.Equal(lastDay.AddDate(0, 0, 1)):
		return current + 1
	default:
		return 1
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
