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

// ProgressRepository stores per user and course learning counters.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository constructs the repository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

const progressColumns = `id, user_id, course_id, completion_percentage, time_spent, last_accessed, streak, points`

// Find returns the counters for the pair or sql.ErrNoRows.
func (r *ProgressRepository) Find(ctx context.Context, userID, courseID string) (*models.Progress, error) {
	query := `SELECT ` + progressColumns + ` FROM progress WHERE user_id = $1 AND course_id = $2`
	var progress models.Progress
	if err := r.db.GetContext(ctx, &progress, query, userID, courseID); err != nil {
		if missingRow(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find progress: %w", err)
	}
	return &progress, nil
}

// Apply updates the counters for the pair under a row lock so concurrent events are serialised.
// A missing row is seeded with zero counters and last_accessed = seededAt before mutate runs.
func (r *ProgressRepository) Apply(ctx context.Context, userID, courseID string, seededAt time.Time, mutate func(*models.Progress)) (*models.Progress, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin progress tx: %w", err)
	}

	const seed = `INSERT INTO progress (id, user_id, course_id, last_accessed) VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, course_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, seed, uuid.NewString(), userID, courseID, seededAt); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("seed progress: %w", err)
	}

	var progress models.Progress
	lock := `SELECT ` + progressColumns + ` FROM progress WHERE user_id = $1 AND course_id = $2 FOR UPDATE`
	if err := tx.GetContext(ctx, &progress, lock, userID, courseID); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("lock progress: %w", err)
	}

	mutate(&progress)

	const update = `UPDATE progress SET completion_percentage = :completion_percentage, time_spent = :time_spent,
        last_accessed = :last_accessed, streak = :streak, points = :points WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, update, &progress); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("update progress: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit progress: %w", err)
	}
	return &progress, nil
}

// Leaderboard ranks users by points summed over all courses.
func (r *ProgressRepository) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	const query = `SELECT u.id AS user_id, u.name, u.avatar,
        COALESCE(SUM(p.points), 0) AS points,
        COALESCE(MAX(p.streak), 0) AS streak,
        COUNT(e.completed_at) AS completed
        FROM users u
        JOIN progress p ON p.user_id = u.id
        LEFT JOIN enrollments e ON e.user_id = p.user_id AND e.course_id = p.course_id
        GROUP BY u.id, u.name, u.avatar
        ORDER BY points DESC, u.name ASC
        LIMIT $1`
	var entries []models.LeaderboardEntry
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
