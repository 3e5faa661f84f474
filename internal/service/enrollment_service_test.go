package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/edu-platform-api/internal/models"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

var jan15 = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func newEnrollmentServiceForTest(repo *fakeEnrollments, logger *zap.Logger) *EnrollmentService {
	courses := newFakeCourses(models.Course{ID: "course-1", Title: "Go Fundamentals"})
	return NewEnrollmentService(repo, courses, fixedClock(jan15), nil, logger)
}

func TestEnrollCreatesZeroProgressEnrollment(t *testing.T) {
	repo := newFakeEnrollments()
	svc := newEnrollmentServiceForTest(repo, nil)

	enrollment, err := svc.Enroll(context.Background(), "user-a", "course-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, enrollment.ProgressPercentage)
	assert.Nil(t, enrollment.CompletedAt)
	assert.Equal(t, jan15, enrollment.EnrolledAt)
}

func TestEnrollUnknownCourse(t *testing.T) {
	svc := newEnrollmentServiceForTest(newFakeEnrollments(), nil)

	_, err := svc.Enroll(context.Background(), "user-a", "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestEnrollTwiceFailsAlreadyEnrolled(t *testing.T) {
	svc := newEnrollmentServiceForTest(newFakeEnrollments(), nil)

	_, err := svc.Enroll(context.Background(), "user-a", "course-1")
	require.NoError(t, err)
	_, err = svc.Enroll(context.Background(), "user-a", "course-1")
	assert.ErrorIs(t, err, appErrors.ErrAlreadyEnrolled)
}

func TestConcurrentEnrollLeavesExactlyOneEnrollment(t *testing.T) {
	repo := newFakeEnrollments()
	svc := newEnrollmentServiceForTest(repo, nil)

	const attempts = 50
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Enroll(context.Background(), "user-a", "course-1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, appErrors.ErrAlreadyEnrolled):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
	mine, err := svc.ListMine(context.Background(), "user-a")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestRecordProgressRejectsOutOfRange(t *testing.T) {
	repo := newFakeEnrollments()
	svc := newEnrollmentServiceForTest(repo, nil)
	_, err := svc.Enroll(context.Background(), "user-a", "course-1")
	require.NoError(t, err)

	for _, pct := range []float64{-0.1, 100.5, 250} {
		_, err := svc.RecordProgress(context.Background(), "user-a", "course-1", pct)
		assert.ErrorIs(t, err, appErrors.ErrValidation, "percentage %v", pct)
	}
}

func TestRecordProgressRequiresEnrollment(t *testing.T) {
	svc := newEnrollmentServiceForTest(newFakeEnrollments(), nil)

	_, err := svc.RecordProgress(context.Background(), "user-a", "course-1", 50)
	assert.ErrorIs(t, err, appErrors.ErrNotEnrolled)
}

func TestRecordProgressStampsCompletionOnce(t *testing.T) {
	repo := newFakeEnrollments()
	svc := newEnrollmentServiceForTest(repo, nil)
	ctx := context.Background()
	_, err := svc.Enroll(ctx, "user-a", "course-1")
	require.NoError(t, err)

	partial, err := svc.RecordProgress(ctx, "user-a", "course-1", 60)
	require.NoError(t, err)
	assert.Nil(t, partial.CompletedAt)

	done, err := svc.RecordProgress(ctx, "user-a", "course-1", 100)
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, jan15, *done.CompletedAt)

	svc.clock = fixedClock(jan15.Add(48 * time.Hour))
	again, err := svc.RecordProgress(ctx, "user-a", "course-1", 100)
	require.NoError(t, err)
	assert.Equal(t, jan15, *again.CompletedAt)
}

func TestRecordProgressRegressionKeepsCompletionAndWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	repo := newFakeEnrollments()
	svc := newEnrollmentServiceForTest(repo, zap.New(core))
	ctx := context.Background()
	_, err := svc.Enroll(ctx, "user-a", "course-1")
	require.NoError(t, err)
	_, err = svc.RecordProgress(ctx, "user-a", "course-1", 100)
	require.NoError(t, err)

	regressed, err := svc.RecordProgress(ctx, "user-a", "course-1", 70)
	require.NoError(t, err)
	assert.Equal(t, 70.0, regressed.ProgressPercentage)
	require.NotNil(t, regressed.CompletedAt)
	assert.Equal(t, jan15, *regressed.CompletedAt)
	require.Equal(t, 1, logs.FilterMessage("progress regressed after completion").Len())
}
