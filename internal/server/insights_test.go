package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/taskflow/taskflow/internal/store"
)

var taskCols = []string{
	"id", "title", "description", "status", "priority",
	"due_date", "created_at", "updated_at", "owner_id", "category_id",
}

func insightsFixture(t *testing.T, now time.Time) (*InsightsHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	h := &InsightsHandler{Store: &store.Store{DB: db}, Now: func() time.Time { return now }}
	return h, mock, func() { db.Close() }
}

func TestInsightsDaysRemaining(t *testing.T) {
	e := echo.New()
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC) // Wednesday
	h, mock, done := insightsFixture(t, now)
	defer done()

	due := now.AddDate(0, 0, 3)
	weekStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	lastWeekStart := weekStart.AddDate(0, 0, -7)

	mock.ExpectQuery(`SELECT .+ FROM tasks\s+WHERE owner_id=\$1 AND priority=\$2 AND status<>\$3`).
		WithArgs("user-1", store.PriorityHigh, store.StatusCompleted).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow("task-1", "Ship report", "", store.StatusPending, store.PriorityHigh, due, now, nil, "user-1", nil).
			AddRow("task-2", "No deadline", "", store.StatusPending, store.PriorityHigh, nil, now, nil, "user-1", nil))
	mock.ExpectQuery(`SELECT id, type, description, created_at, user_id FROM activities`).
		WithArgs("user-1", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "description", "created_at", "user_id"}).
			AddRow("act-1", store.ActivityCreation, `created task "Ship report"`, now, "user-1"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tasks WHERE owner_id=\$1 AND created_at >= \$2`).
		WithArgs("user-1", weekStart).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tasks WHERE owner_id=\$1 AND status=\$2 AND updated_at >= \$3`).
		WithArgs("user-1", store.StatusCompleted, weekStart).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tasks WHERE owner_id=\$1 AND status=\$2 AND updated_at >= \$3 AND updated_at < \$4`).
		WithArgs("user-1", store.StatusCompleted, lastWeekStart, weekStart).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	req := httptest.NewRequest(http.MethodGet, "/api/insights", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "user-1")

	if err := h.get(ctx); err != nil {
		t.Fatalf("get: %v", err)
	}
	var resp InsightsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.HighPriorityTasks) != 2 {
		t.Fatalf("expected 2 high priority tasks, got %d", len(resp.HighPriorityTasks))
	}
	if resp.HighPriorityTasks[0].DaysRemaining == nil || *resp.HighPriorityTasks[0].DaysRemaining != 3 {
		t.Fatalf("days_remaining = %v, want 3", resp.HighPriorityTasks[0].DaysRemaining)
	}
	if resp.HighPriorityTasks[1].DaysRemaining != nil {
		t.Fatalf("task without due date must omit days_remaining")
	}
	if resp.WeeklyInsights.TasksCreatedThisWeek != 3 || resp.WeeklyInsights.TasksCompletedThisWeek != 6 {
		t.Fatalf("unexpected weekly counts: %+v", resp.WeeklyInsights)
	}
	if resp.WeeklyInsights.ProductivityTrend != 50 {
		t.Fatalf("trend = %v, want 50", resp.WeeklyInsights.ProductivityTrend)
	}
	if resp.WeeklyInsights.HighPriorityTasks != 2 {
		t.Fatalf("high priority count = %d, want 2", resp.WeeklyInsights.HighPriorityTasks)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsightsNoHistory(t *testing.T) {
	e := echo.New()
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	h, mock, done := insightsFixture(t, now)
	defer done()

	weekStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	lastWeekStart := weekStart.AddDate(0, 0, -7)

	mock.ExpectQuery(`SELECT .+ FROM tasks\s+WHERE owner_id=\$1 AND priority=\$2 AND status<>\$3`).
		WithArgs("user-1", store.PriorityHigh, store.StatusCompleted).
		WillReturnRows(sqlmock.NewRows(taskCols))
	mock.ExpectQuery(`SELECT id, type, description, created_at, user_id FROM activities`).
		WithArgs("user-1", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "description", "created_at", "user_id"}))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tasks WHERE owner_id=\$1 AND created_at >= \$2`).
		WithArgs("user-1", weekStart).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tasks WHERE owner_id=\$1 AND status=\$2 AND updated_at >= \$3`).
		WithArgs("user-1", store.StatusCompleted, weekStart).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tasks WHERE owner_id=\$1 AND status=\$2 AND updated_at >= \$3 AND updated_at < \$4`).
		WithArgs("user-1", store.StatusCompleted, lastWeekStart, weekStart).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	req := httptest.NewRequest(http.MethodGet, "/api/insights", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "user-1")

	if err := h.get(ctx); err != nil {
		t.Fatalf("get with no history: %v", err)
	}
	var resp InsightsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.HighPriorityTasks) != 0 || len(resp.RecentActivities) != 0 {
		t.Fatalf("expected empty lists, got %+v", resp)
	}
	if resp.WeeklyInsights.ProductivityTrend != 0 {
		t.Fatalf("trend = %v, want 0", resp.WeeklyInsights.ProductivityTrend)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
