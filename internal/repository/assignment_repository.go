package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-platform-api/internal/models"
)

// ErrSubmissionAlreadyGraded is returned when a grade is written to a submission that already has one.
var ErrSubmissionAlreadyGraded = errors.New("submission already graded")

// AssignmentRepository persists assignments and their submissions.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const (
	assignmentColumns = `id, course_id, title, description, max_grade, due_date, created_at`
	submissionColumns = `id, assignment_id, student_id, content, file_url, status, grade, feedback, submitted_at, graded_at`
)

// List returns assignments, optionally restricted to one course, ordered by due date.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error) {
	clause := ""
	var args []interface{}
	if filter.CourseID != "" {
		clause = fmt.Sprintf(" WHERE course_id = $%d", len(args)+1)
		args = append(args, filter.CourseID)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM assignments%s ORDER BY due_date ASC LIMIT %d OFFSET %d`, assignmentColumns, clause, size, offset)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		if missingRow(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM assignments"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}
	return assignments, total, nil
}

// FindByID returns an assignment or sql.ErrNoRows.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		if missingRow(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &assignment, nil
}

// Create persists a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assignments (id, course_id, title, description, max_grade, due_date, created_at)
        VALUES (:id, :course_id, :title, :description, :max_grade, :due_date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// CreateSubmission stores a submission. Every call adds a row.
func (r *AssignmentRepository) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	const query = `INSERT INTO submissions (id, assignment_id, student_id, content, file_url, status, grade, feedback, submitted_at, graded_at)
        VALUES (:id, :assignment_id, :student_id, :content, :file_url, :status, :grade, :feedback, :submitted_at, :graded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// FindSubmission returns a submission or sql.ErrNoRows.
func (r *AssignmentRepository) FindSubmission(ctx context.Context, id string) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		if missingRow(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return &submission, nil
}

// GradeSubmission records a grade. A submission that is already graded is left untouched and
// ErrSubmissionAlreadyGraded is returned; sql.ErrNoRows means the submission does not exist.
func (r *AssignmentRepository) GradeSubmission(ctx context.Context, id string, grade float64, feedback *string, gradedAt time.Time) (*models.Submission, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin grade tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var status models.SubmissionStatus
	if err := tx.GetContext(ctx, &status, `SELECT status FROM submissions WHERE id = $1 FOR UPDATE`, id); err != nil {
		if missingRow(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("lock submission: %w", err)
	}
	if status == models.SubmissionStatusGraded {
		return nil, ErrSubmissionAlreadyGraded
	}

	query := `UPDATE submissions SET grade = $2, feedback = $3, graded_at = $4, status = $5
        WHERE id = $1 AND status <> $6 RETURNING ` + submissionColumns
	var submission models.Submission
	if err := tx.GetContext(ctx, &submission, query, id, grade, feedback, gradedAt, models.SubmissionStatusGraded, models.SubmissionStatusGraded); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionAlreadyGraded
		}
		return nil, fmt.Errorf("grade submission: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit grade tx: %w", err)
	}
	return &submission, nil
}

// ListSubmissions returns all submissions for an assignment, newest first.
func (r *AssignmentRepository) ListSubmissions(ctx context.Context, assignmentID string) ([]models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE assignment_id = $1 ORDER BY submitted_at DESC`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// ListSubmissionsByStudent returns the student's submissions, newest first.
func (r *AssignmentRepository) ListSubmissionsByStudent(ctx context.Context, studentID string) ([]models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE student_id = $1 ORDER BY submitted_at DESC`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, studentID); err != nil {
		return nil, fmt.Errorf("list student submissions: %w", err)
	}
	return submissions, nil
}
