package store

import (
	"context"
	"time"
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUser inserts a new user row. Duplicate username or email surfaces as
// a pq unique-violation error for the caller to map.
func (s *Store) CreateUser(ctx context.Context, username, email, hash string) (User, error) {
	var u User
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES ($1,$2,$3)
		 RETURNING id, username, email, is_active, created_at`,
		username, email, hash).
		Scan(&u.ID, &u.Username, &u.Email, &u.IsActive, &u.CreatedAt)
	return u, err
}

// GetUserCredentials resolves a username to (id, password hash) for login.
// Only active accounts can authenticate.
func (s *Store) GetUserCredentials(ctx context.Context, username string) (id string, hash string, err error) {
	err = s.DB.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE username=$1 AND is_active`, username).
		Scan(&id, &hash)
	return
}

func (s *Store) GetUserByID(ctx context.Context, id string) (User, error) {
	var u User
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, username, email, is_active, created_at FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.IsActive, &u.CreatedAt)
	return u, err
}

// DeleteUser removes a user; owned tasks, categories, tags, activities and
// reminders go with it via ON DELETE CASCADE.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
