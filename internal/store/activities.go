package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Activity types recorded alongside task mutations. The log is append-only.
const (
	ActivityCreation         = "creation"
	ActivityCompletion       = "completion"
	ActivityCategoryAddition = "category_addition"
)

type Activity struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"timestamp"`
	UserID      string    `json:"user_id"`
}

// recordActivity appends an activity row inside the caller's transaction so
// the log entry commits or rolls back with the mutation it describes.
func recordActivity(ctx context.Context, tx *sql.Tx, userID, typ, format string, args ...interface{}) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO activities (user_id, type, description) VALUES ($1,$2,$3)`,
		userID, typ, fmt.Sprintf(format, args...))
	return err
}

// ListRecentActivities returns the newest activities for a user, newest first.
func (s *Store) ListRecentActivities(ctx context.Context, userID string, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, type, description, created_at, user_id FROM activities
		 WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Activity{}
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.Type, &a.Description, &a.CreatedAt, &a.UserID); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
