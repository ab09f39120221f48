package store

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	OwnerID     string     `json:"owner_id"`
	CategoryID  *string    `json:"category_id"`
	Tags        []Tag      `json:"tags"`
}

// NewTask carries the fields accepted on task creation.
type NewTask struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	CategoryID  *string
}

// TaskPatch is an explicit per-field merge: nil pointers are left untouched.
// DueDate and CategoryID distinguish "absent" from "clear" via the Set flags.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
	DueDateSet  bool
	CategoryID  *string
	CategorySet bool
}

// TaskFilter narrows ListTasks. Zero values mean "no filter".
type TaskFilter struct {
	CategoryID string
	Status     string
	Priority   string
	Skip       uint64
	Limit      uint64
}

const taskColumns = `id, title, description, status, priority, due_date, created_at, updated_at, owner_id, category_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(r rowScanner) (Task, error) {
	var t Task
	err := r.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.DueDate, &t.CreatedAt, &t.UpdatedAt, &t.OwnerID, &t.CategoryID)
	return t, err
}

// categoryOwned verifies a category belongs to the given owner within tx.
func categoryOwned(ctx context.Context, tx *sql.Tx, categoryID, ownerID string) error {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM categories WHERE id=$1 AND owner_id=$2`, categoryID, ownerID).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrCategoryNotFound
	}
	return err
}

// CreateTask inserts a task and its creation activity in one transaction.
// A category reference is validated against the owner first.
func (s *Store) CreateTask(ctx context.Context, ownerID string, nt NewTask) (Task, error) {
	if nt.Status == "" {
		nt.Status = StatusPending
	}
	if nt.Priority == "" {
		nt.Priority = PriorityMedium
	}
	var t Task
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if nt.CategoryID != nil {
			if err := categoryOwned(ctx, tx, *nt.CategoryID, ownerID); err != nil {
				return err
			}
		}
		var err error
		t, err = scanTask(tx.QueryRowContext(ctx,
			`INSERT INTO tasks (title, description, status, priority, due_date, owner_id, category_id)
			 VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING `+taskColumns,
			nt.Title, nt.Description, nt.Status, nt.Priority, nt.DueDate, ownerID, nt.CategoryID))
		if err != nil {
			return err
		}
		if err := recordActivity(ctx, tx, ownerID, ActivityCreation, "created task %q", t.Title); err != nil {
			return err
		}
		if nt.CategoryID != nil {
			if err := recordActivity(ctx, tx, ownerID, ActivityCategoryAddition, "added task %q to a category", t.Title); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Task{}, err
	}
	t.Tags = []Tag{}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context, ownerID string, f TaskFilter) ([]Task, error) {
	qb := psql.Select(taskColumns).From("tasks").Where(sq.Eq{"owner_id": ownerID})
	if f.CategoryID != "" {
		qb = qb.Where(sq.Eq{"category_id": f.CategoryID})
	}
	if f.Status != "" {
		qb = qb.Where(sq.Eq{"status": f.Status})
	}
	if f.Priority != "" {
		qb = qb.Where(sq.Eq{"priority": f.Priority})
	}
	limit := f.Limit
	if limit == 0 {
		limit = 100
	}
	qb = qb.OrderBy("created_at DESC").Offset(f.Skip).Limit(limit)

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		t.Tags = []Tag{}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.fillTags(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *Store) GetTask(ctx context.Context, id, ownerID string) (Task, error) {
	t, err := scanTask(s.DB.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id=$1 AND owner_id=$2`, id, ownerID))
	if err != nil {
		return Task{}, err
	}
	t.Tags = []Tag{}
	tasks := []Task{t}
	if err := s.fillTags(ctx, tasks); err != nil {
		return Task{}, err
	}
	return tasks[0], nil
}

// UpdateTask applies a partial merge to an owned task. Completing a task or
// attaching it to a category records the matching activity in the same
// transaction as the update.
func (s *Store) UpdateTask(ctx context.Context, id, ownerID string, p TaskPatch) (Task, error) {
	var t Task
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var prevStatus string
		var prevCat sql.NullString
		err := tx.QueryRowContext(ctx,
			`SELECT status, category_id FROM tasks WHERE id=$1 AND owner_id=$2 FOR UPDATE`, id, ownerID).
			Scan(&prevStatus, &prevCat)
		if err != nil {
			return err
		}
		if p.CategorySet && p.CategoryID != nil {
			if err := categoryOwned(ctx, tx, *p.CategoryID, ownerID); err != nil {
				return err
			}
		}

		ub := psql.Update("tasks")
		if p.Title != nil {
			ub = ub.Set("title", *p.Title)
		}
		if p.Description != nil {
			ub = ub.Set("description", *p.Description)
		}
		if p.Status != nil {
			ub = ub.Set("status", *p.Status)
		}
		if p.Priority != nil {
			ub = ub.Set("priority", *p.Priority)
		}
		if p.DueDateSet {
			ub = ub.Set("due_date", p.DueDate)
		}
		if p.CategorySet {
			ub = ub.Set("category_id", p.CategoryID)
		}
		ub = ub.Set("updated_at", sq.Expr("now()")).
			Where("id = ? AND owner_id = ?", id, ownerID).
			Suffix("RETURNING " + taskColumns)
		query, args, err := ub.ToSql()
		if err != nil {
			return err
		}
		t, err = scanTask(tx.QueryRowContext(ctx, query, args...))
		if err != nil {
			return err
		}

		if p.Status != nil && *p.Status == StatusCompleted && prevStatus != StatusCompleted {
			if err := recordActivity(ctx, tx, ownerID, ActivityCompletion, "completed task %q", t.Title); err != nil {
				return err
			}
		}
		if p.CategorySet && p.CategoryID != nil && (!prevCat.Valid || prevCat.String != *p.CategoryID) {
			if err := recordActivity(ctx, tx, ownerID, ActivityCategoryAddition, "added task %q to a category", t.Title); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Task{}, err
	}
	t.Tags = []Tag{}
	tasks := []Task{t}
	if err := s.fillTags(ctx, tasks); err != nil {
		return Task{}, err
	}
	return tasks[0], nil
}

func (s *Store) DeleteTask(ctx context.Context, id, ownerID string) error {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM tasks WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// AttachTag links a tag to a task after independent ownership checks on both.
// Attaching an already attached tag is a no-op.
func (s *Store) AttachTag(ctx context.Context, taskID, tagID, ownerID string) error {
	if err := s.checkTaskAndTag(ctx, taskID, tagID, ownerID); err != nil {
		return err
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO task_tags (task_id, tag_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
		taskID, tagID)
	return err
}

// DetachTag removes a tag from a task with the same ownership checks.
func (s *Store) DetachTag(ctx context.Context, taskID, tagID, ownerID string) error {
	if err := s.checkTaskAndTag(ctx, taskID, tagID, ownerID); err != nil {
		return err
	}
	_, err := s.DB.ExecContext(ctx,
		`DELETE FROM task_tags WHERE task_id=$1 AND tag_id=$2`, taskID, tagID)
	return err
}

func (s *Store) checkTaskAndTag(ctx context.Context, taskID, tagID, ownerID string) error {
	var one int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT 1 FROM tasks WHERE id=$1 AND owner_id=$2`, taskID, ownerID).Scan(&one); err != nil {
		return err
	}
	if err := s.DB.QueryRowContext(ctx,
		`SELECT 1 FROM tags WHERE id=$1 AND owner_id=$2`, tagID, ownerID).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return ErrTagNotFound
		}
		return err
	}
	return nil
}

// fillTags populates Tags for the given tasks in a single join query.
func (s *Store) fillTags(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]string, len(tasks))
	byID := make(map[string]*Task, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
		byID[tasks[i].ID] = &tasks[i]
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT tt.task_id, t.id, t.name, t.color, t.owner_id, t.created_at
		 FROM task_tags tt JOIN tags t ON t.id = tt.tag_id
		 WHERE tt.task_id = ANY($1) ORDER BY t.name`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var taskID string
		var tg Tag
		if err := rows.Scan(&taskID, &tg.ID, &tg.Name, &tg.Color, &tg.OwnerID, &tg.CreatedAt); err != nil {
			return err
		}
		if t, ok := byID[taskID]; ok {
			t.Tags = append(t.Tags, tg)
		}
	}
	return rows.Err()
}
