package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-platform-api/internal/models"
)

var submissionRowColumns = []string{"id", "assignment_id", "student_id", "content", "file_url", "status", "grade", "feedback", "submitted_at", "graded_at"}

func TestAssignmentRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "course_id", "title", "description", "max_grade", "due_date", "created_at"}).
		AddRow("a-1", "c-1", "Essay", nil, 100.0, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments WHERE course_id = $1 ORDER BY due_date ASC LIMIT 20 OFFSET 0")).
		WithArgs("c-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assignments WHERE course_id = $1")).
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	assignments, total, err := repo.List(context.Background(), models.AssignmentFilter{CourseID: "c-1"})
	require.NoError(t, err)
	assert.Len(t, assignments, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryGradeSubmission(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	gradedAt := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	feedback := "good"
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM submissions WHERE id = $1 FOR UPDATE")).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("submitted"))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE submissions SET grade = $2")).
		WithArgs("s-1", 88.0, &feedback, gradedAt, models.SubmissionStatusGraded, models.SubmissionStatusGraded).
		WillReturnRows(sqlmock.NewRows(submissionRowColumns).
			AddRow("s-1", "a-1", "u-1", "answer", nil, "graded", 88.0, "good", gradedAt.Add(-time.Hour), gradedAt))
	mock.ExpectCommit()

	submission, err := repo.GradeSubmission(context.Background(), "s-1", 88, &feedback, gradedAt)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusGraded, submission.Status)
	require.NotNil(t, submission.Grade)
	assert.Equal(t, 88.0, *submission.Grade)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryGradeSubmissionRejectsRegrade(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM submissions WHERE id = $1 FOR UPDATE")).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("graded"))
	mock.ExpectRollback()

	_, err := repo.GradeSubmission(context.Background(), "s-1", 50, nil, time.Now())
	assert.ErrorIs(t, err, ErrSubmissionAlreadyGraded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryGradeSubmissionMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM submissions")).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.GradeSubmission(context.Background(), "nope", 50, nil, time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAssignmentRepositoryCreateSubmission(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO submissions").WillReturnResult(sqlmock.NewResult(1, 1))

	submission := &models.Submission{AssignmentID: "a-1", StudentID: "u-1", Status: models.SubmissionStatusSubmitted, SubmittedAt: time.Now()}
	require.NoError(t, repo.CreateSubmission(context.Background(), submission))
	assert.NotEmpty(t, submission.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryGradeSubmissionMalformedID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM submissions")).
		WithArgs("not-a-uuid").
		WillReturnError(&pq.Error{Code: "22P02"})
	mock.ExpectRollback()

	_, err := repo.GradeSubmission(context.Background(), "not-a-uuid", 50, nil, time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryFindByIDMalformedID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments WHERE id = $1")).
		WithArgs("xyz").
		WillReturnError(&pq.Error{Code: "22P02"})

	_, err := repo.FindByID(context.Background(), "xyz")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAssignmentRepositoryListMalformedCourseFilterIsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments WHERE course_id = $1")).
		WithArgs("bogus").
		WillReturnError(&pq.Error{Code: "22P02"})

	assignments, total, err := repo.List(context.Background(), models.AssignmentFilter{CourseID: "bogus"})
	require.NoError(t, err)
	assert.Empty(t, assignments)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
