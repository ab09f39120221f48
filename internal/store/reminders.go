package store

import (
	"context"
	"time"
)

type Reminder struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
	UserID    string     `json:"user_id"`
}

func (s *Store) CreateReminder(ctx context.Context, userID, content string) (Reminder, error) {
	var r Reminder
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO reminders (content, user_id) VALUES ($1,$2)
		 RETURNING id, content, created_at, updated_at, user_id`,
		content, userID).
		Scan(&r.ID, &r.Content, &r.CreatedAt, &r.UpdatedAt, &r.UserID)
	return r, err
}

func (s *Store) ListReminders(ctx context.Context, userID string) ([]Reminder, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, content, created_at, updated_at, user_id FROM reminders
		 WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Reminder{}
	for rows.Next() {
		var r Reminder
		if err := rows.Scan(&r.ID, &r.Content, &r.CreatedAt, &r.UpdatedAt, &r.UserID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpdateReminder(ctx context.Context, id, userID, content string) (Reminder, error) {
	var r Reminder
	err := s.DB.QueryRowContext(ctx,
		`UPDATE reminders SET content=$3, updated_at=now()
		 WHERE id=$1 AND user_id=$2
		 RETURNING id, content, created_at, updated_at, user_id`,
		id, userID, content).
		Scan(&r.ID, &r.Content, &r.CreatedAt, &r.UpdatedAt, &r.UserID)
	return r, err
}

func (s *Store) DeleteReminder(ctx context.Context, id, userID string) error {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM reminders WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}
