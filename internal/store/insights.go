package store

import (
	"context"
	"time"
)

// WeekStart returns the most recent Monday 00:00 at or before now, in now's
// location.
func WeekStart(now time.Time) time.Time {
	day := now.Truncate(0) // keep monotonic clock out of the arithmetic
	offset := (int(day.Weekday()) + 6) % 7
	y, m, d := day.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// DaysRemaining is the whole-day difference between the due date and now,
// floored so an overdue date within the last 24 hours already reads -1.
func DaysRemaining(due, now time.Time) int {
	diff := due.Sub(now)
	days := int(diff / (24 * time.Hour))
	if diff < 0 && diff%(24*time.Hour) != 0 {
		days--
	}
	return days
}

// HighPriorityOpenTasks lists the owner's high-priority tasks that are not
// completed yet.
func (s *Store) HighPriorityOpenTasks(ctx context.Context, ownerID string) ([]Task, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE owner_id=$1 AND priority=$2 AND status<>$3
		 ORDER BY due_date NULLS LAST, created_at`, ownerID, PriorityHigh, StatusCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		t.Tags = []Tag{}
		out = append(out, t)
	}
	return out, rows.Err()
}

// WeeklyCounts aggregates the week-window statistics used by the insights
// endpoint. weekStart and lastWeekStart bound the current and previous weeks.
func (s *Store) WeeklyCounts(ctx context.Context, ownerID string, weekStart, lastWeekStart time.Time) (created, completed, completedLastWeek int, err error) {
	err = s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE owner_id=$1 AND created_at >= $2`,
		ownerID, weekStart).Scan(&created)
	if err != nil {
		return
	}
	err = s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE owner_id=$1 AND status=$2 AND updated_at >= $3`,
		ownerID, StatusCompleted, weekStart).Scan(&completed)
	if err != nil {
		return
	}
	err = s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE owner_id=$1 AND status=$2 AND updated_at >= $3 AND updated_at < $4`,
		ownerID, StatusCompleted, lastWeekStart, weekStart).Scan(&completedLastWeek)
	return
}

// ProductivityTrend is the week-over-week percentage change in completions.
// A zero previous week yields 0, never a division error.
func ProductivityTrend(thisWeek, lastWeek int) float64 {
	if lastWeek == 0 {
		return 0
	}
	return float64(thisWeek-lastWeek) / float64(lastWeek) * 100
}
