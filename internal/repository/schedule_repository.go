package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-platform-api/internal/models"
)

// ScheduleRepository provides persistence for course schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create persists a schedule entry.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO schedules (id, course_id, title, type, start_time, end_time, created_at)
        VALUES (:id, :course_id, :title, :type, :start_time, :end_time, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// ListByCourse returns a course's schedule in chronological order.
func (r *ScheduleRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Schedule, error) {
	const query = `SELECT id, course_id, title, type, start_time, end_time, created_at FROM schedules WHERE course_id = $1 ORDER BY start_time ASC`
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, courseID); err != nil {
		return nil, fmt.Errorf("list course schedules: %w", err)
	}
	return schedules, nil
}

// ListUpcomingForUser returns events starting at or after from in courses the user is enrolled in.
func (r *ScheduleRepository) ListUpcomingForUser(ctx context.Context, userID string, from time.Time, limit int) ([]models.ScheduleItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const query = `SELECT s.id, s.course_id, s.title, s.type, s.start_time, s.end_time, s.created_at, c.title AS course_title
        FROM schedules s
        JOIN enrollments e ON e.course_id = s.course_id
        JOIN courses c ON c.id = s.course_id
        WHERE e.user_id = $1 AND s.start_time >= $2
        ORDER BY s.start_time ASC
        LIMIT $3`
	var items []models.ScheduleItem
	if err := r.db.SelectContext(ctx, &items, query, userID, from, limit); err != nil {
		return nil, fmt.Errorf("list upcoming schedules: %w", err)
	}
	return items, nil
}
