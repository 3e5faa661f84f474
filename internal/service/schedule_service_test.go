package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-platform-api/internal/dto"
	"github.com/noah-isme/edu-platform-api/internal/models"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

type fakeSchedules struct {
	rows      []models.Schedule
	upcoming  []models.ScheduleItem
	lastFrom  time.Time
	lastLimit int
}

func (f *fakeSchedules) Create(ctx context.Context, schedule *models.Schedule) error {
	schedule.ID = "sched-1"
	f.rows = append(f.rows, *schedule)
	return nil
}

func (f *fakeSchedules) ListByCourse(ctx context.Context, courseID string) ([]models.Schedule, error) {
	var out []models.Schedule
	for _, s := range f.rows {
		if s.CourseID == courseID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSchedules) ListUpcomingForUser(ctx context.Context, userID string, from time.Time, limit int) ([]models.ScheduleItem, error) {
	f.lastFrom = from
	f.lastLimit = limit
	return f.upcoming, nil
}

func TestScheduleCreate(t *testing.T) {
	repo := &fakeSchedules{}
	svc := NewScheduleService(repo, newFakeCourses(models.Course{ID: "course-1"}), fixedClock(jan15), nil, nil)
	start := jan15.Add(24 * time.Hour)

	schedule, err := svc.Create(context.Background(), "course-1", dto.CreateScheduleRequest{Title: "Live Q&A", StartTime: start, EndTime: start.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleTypeLive, schedule.Type)

	_, err = svc.Create(context.Background(), "course-1", dto.CreateScheduleRequest{Title: "Exam", Type: models.ScheduleTypeExam, StartTime: start, EndTime: start})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), "course-1", dto.CreateScheduleRequest{Title: "Party", Type: "party", StartTime: start, EndTime: start.Add(time.Hour)})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), "missing", dto.CreateScheduleRequest{Title: "Live", StartTime: start, EndTime: start.Add(time.Hour)})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	schedules, err := svc.ListByCourse(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Len(t, schedules, 1)
}

func TestScheduleUpcomingUsesClock(t *testing.T) {
	repo := &fakeSchedules{}
	svc := NewScheduleService(repo, newFakeCourses(), fixedClock(jan15), nil, nil)

	items, err := svc.Upcoming(context.Background(), "user-a", 5)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Equal(t, jan15, repo.lastFrom)
	assert.Equal(t, 5, repo.lastLimit)
}
