package store

import (
	"context"
	"strings"
	"time"
)

type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeTagName canonicalizes tag names to carry a leading '#'.
func NormalizeTagName(name string) string {
	if strings.HasPrefix(name, "#") {
		return name
	}
	return "#" + name
}

func (s *Store) CreateTag(ctx context.Context, ownerID, name, color string) (Tag, error) {
	var t Tag
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO tags (name, color, owner_id) VALUES ($1,$2,$3)
		 RETURNING id, name, color, owner_id, created_at`,
		NormalizeTagName(name), color, ownerID).
		Scan(&t.ID, &t.Name, &t.Color, &t.OwnerID, &t.CreatedAt)
	return t, err
}

func (s *Store) ListTags(ctx context.Context, ownerID string) ([]Tag, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name, color, owner_id, created_at FROM tags WHERE owner_id=$1 ORDER BY created_at DESC`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.OwnerID, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTag(ctx context.Context, id, ownerID string) (Tag, error) {
	var t Tag
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, name, color, owner_id, created_at FROM tags WHERE id=$1 AND owner_id=$2`,
		id, ownerID).
		Scan(&t.ID, &t.Name, &t.Color, &t.OwnerID, &t.CreatedAt)
	return t, err
}

// UpdateTag renames a tag (normalized); an empty color keeps the existing one.
func (s *Store) UpdateTag(ctx context.Context, id, ownerID, name, color string) (Tag, error) {
	var t Tag
	err := s.DB.QueryRowContext(ctx,
		`UPDATE tags SET name=$3, color=COALESCE(NULLIF($4,''), color)
		 WHERE id=$1 AND owner_id=$2
		 RETURNING id, name, color, owner_id, created_at`,
		id, ownerID, NormalizeTagName(name), color).
		Scan(&t.ID, &t.Name, &t.Color, &t.OwnerID, &t.CreatedAt)
	return t, err
}

func (s *Store) DeleteTag(ctx context.Context, id, ownerID string) error {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM tags WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	return requireRow(res)
}
