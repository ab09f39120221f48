package store

import (
	"context"
	"database/sql"
	"time"
)

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`

	// Derived counts, populated on listing only.
	TaskCount       int `json:"task_count"`
	CompletedTasks  int `json:"completed_tasks"`
	InProgressTasks int `json:"in_progress_tasks"`
}

func (s *Store) CreateCategory(ctx context.Context, ownerID, name, color string) (Category, error) {
	var c Category
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO categories (name, color, owner_id) VALUES ($1,$2,$3)
		 RETURNING id, name, color, owner_id, created_at`,
		name, color, ownerID).
		Scan(&c.ID, &c.Name, &c.Color, &c.OwnerID, &c.CreatedAt)
	return c, err
}

// ListCategories returns the owner's categories with per-category task counts.
func (s *Store) ListCategories(ctx context.Context, ownerID string) ([]Category, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT c.id, c.name, c.color, c.owner_id, c.created_at,
		        COUNT(t.id),
		        COUNT(t.id) FILTER (WHERE t.status = 'Completed'),
		        COUNT(t.id) FILTER (WHERE t.status = 'In Progress')
		 FROM categories c
		 LEFT JOIN tasks t ON t.category_id = c.id AND t.owner_id = c.owner_id
		 WHERE c.owner_id=$1
		 GROUP BY c.id, c.name, c.color, c.owner_id, c.created_at
		 ORDER BY c.created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.OwnerID, &c.CreatedAt,
			&c.TaskCount, &c.CompletedTasks, &c.InProgressTasks); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCategory(ctx context.Context, id, ownerID string) (Category, error) {
	var c Category
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, name, color, owner_id, created_at FROM categories WHERE id=$1 AND owner_id=$2`,
		id, ownerID).
		Scan(&c.ID, &c.Name, &c.Color, &c.OwnerID, &c.CreatedAt)
	return c, err
}

// UpdateCategory renames a category; an empty color keeps the existing one.
func (s *Store) UpdateCategory(ctx context.Context, id, ownerID, name, color string) (Category, error) {
	var c Category
	err := s.DB.QueryRowContext(ctx,
		`UPDATE categories SET name=$3, color=COALESCE(NULLIF($4,''), color)
		 WHERE id=$1 AND owner_id=$2
		 RETURNING id, name, color, owner_id, created_at`,
		id, ownerID, name, color).
		Scan(&c.ID, &c.Name, &c.Color, &c.OwnerID, &c.CreatedAt)
	return c, err
}

// DeleteCategory detaches every task referencing the category and removes the
// row, all inside one transaction so both effects land together or not at all.
func (s *Store) DeleteCategory(ctx context.Context, id, ownerID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM categories WHERE id=$1 AND owner_id=$2 FOR UPDATE`, id, ownerID).Scan(&one)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE tasks SET category_id=NULL WHERE category_id=$1 AND owner_id=$2`, id, ownerID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM categories WHERE id=$1 AND owner_id=$2`, id, ownerID)
		if err != nil {
			return err
		}
		return requireRow(res)
	})
}
