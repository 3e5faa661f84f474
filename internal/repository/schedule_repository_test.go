package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleRepositoryListUpcomingForUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "course_id", "title", "type", "start_time", "end_time", "created_at", "course_title"}).
		AddRow("s-1", "c-1", "Live Q&A", "live", from.Add(time.Hour), from.Add(2*time.Hour), from, "Go")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.user_id = $1 AND s.start_time >= $2")).
		WithArgs("u-1", from, 20).
		WillReturnRows(rows)

	items, err := repo.ListUpcomingForUser(context.Background(), "u-1", from, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Go", items[0].CourseTitle)
	assert.NoError(t, mock.ExpectationsWereMet())
}
