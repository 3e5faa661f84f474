package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-platform-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `id, user_id, course_id, enrolled_at, completed_at, progress_percentage`

// FindByUserAndCourse returns the enrollment for the pair or sql.ErrNoRows.
func (r *EnrollmentRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id = $1 AND course_id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, userID, courseID); err != nil {
		if missingRow(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// Create persists a new enrollment. A concurrent duplicate surfaces as ErrDuplicateEnrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (id, user_id, course_id, enrolled_at, completed_at, progress_percentage)
        VALUES (:id, :user_id, :course_id, :enrolled_at, :completed_at, :progress_percentage)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		if translated := translateUniqueViolation(err); translated != err {
			return translated
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// UpdateProgress stores the percentage. completedAt only fills an empty completion stamp; an existing one is kept.
func (r *EnrollmentRepository) UpdateProgress(ctx context.Context, id string, percentage float64, completedAt *time.Time) (*models.Enrollment, error) {
	query := `UPDATE enrollments SET progress_percentage = $2, completed_at = COALESCE(completed_at, $3)
        WHERE id = $1 RETURNING ` + enrollmentColumns
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id, percentage, completedAt); err != nil {
		if missingRow(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("update enrollment progress: %w", err)
	}
	return &enrollment, nil
}

// MarkCompleted stamps completed_at when it is still empty and returns the resulting row.
func (r *EnrollmentRepository) MarkCompleted(ctx context.Context, id string, completedAt time.Time) (*models.Enrollment, error) {
	query := `UPDATE enrollments SET completed_at = COALESCE(completed_at, $2) WHERE id = $1 RETURNING ` + enrollmentColumns
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id, completedAt); err != nil {
		if missingRow(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("mark enrollment completed: %w", err)
	}
	return &enrollment, nil
}

// ListByUser returns the user's enrollments joined with course summaries, newest first.
func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID string) ([]models.EnrolledCourse, error) {
	const query = `SELECT e.id, e.user_id, e.course_id, e.enrolled_at, e.completed_at, e.progress_percentage,
        c.title AS course_title, c.category AS course_category, c.level AS course_level,
        c.thumbnail AS course_thumbnail, c.duration AS course_duration
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        WHERE e.user_id = $1
        ORDER BY e.enrolled_at DESC`
	var courses []models.EnrolledCourse
	if err := r.db.SelectContext(ctx, &courses, query, userID); err != nil {
		return nil, fmt.Errorf("list user enrollments: %w", err)
	}
	return courses, nil
}

// ListReportRows returns one line per enrolled student of a course with their progress counters.
func (r *EnrollmentRepository) ListReportRows(ctx context.Context, courseID string) ([]models.EnrollmentReportRow, error) {
	const query = `SELECT u.name AS student_name, u.email AS student_email, e.enrolled_at, e.completed_at, e.progress_percentage,
        COALESCE(p.time_spent, 0) AS time_spent, COALESCE(p.points, 0) AS points
        FROM enrollments e
        JOIN users u ON u.id = e.user_id
        LEFT JOIN progress p ON p.user_id = e.user_id AND p.course_id = e.course_id
        WHERE e.course_id = $1
        ORDER BY u.name ASC`
	var rows []models.EnrollmentReportRow
	if err := r.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, fmt.Errorf("list enrollment report rows: %w", err)
	}
	return rows, nil
}
