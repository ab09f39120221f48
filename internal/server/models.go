package server

import (
	"time"

	"github.com/taskflow/taskflow/internal/store"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenRequest binds the OAuth2-style form login.
type TokenRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type TaskCreateRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"due_date"`
	CategoryID  *string `json:"category_id"`
}

// TaskUpdateRequest is a partial update: nil fields are untouched, and an
// empty due_date or category_id clears the value.
type TaskUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"due_date"`
	CategoryID  *string `json:"category_id"`
}

type CategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type TagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type ReminderRequest struct {
	Content string `json:"content"`
}

type HighPriorityTask struct {
	store.Task
	DaysRemaining *int `json:"days_remaining"`
}

type WeeklyInsights struct {
	TasksCreatedThisWeek   int     `json:"tasks_created_this_week"`
	TasksCompletedThisWeek int     `json:"tasks_completed_this_week"`
	ProductivityTrend      float64 `json:"productivity_trend"`
	HighPriorityTasks      int     `json:"high_priority_tasks"`
}

type InsightsResponse struct {
	HighPriorityTasks []HighPriorityTask `json:"high_priority_tasks"`
	RecentActivities  []store.Activity   `json:"recent_activities"`
	WeeklyInsights    WeeklyInsights     `json:"weekly_insights"`
}

// parseDue accepts RFC3339 timestamps or bare dates for due_date payloads.
func parseDue(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
