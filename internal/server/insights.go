package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskflow/taskflow/internal/runtime"
	"github.com/taskflow/taskflow/internal/store"
)

// InsightsHandler serves read-only productivity statistics. Now is injectable
// so the week window is deterministic under test.
type InsightsHandler struct {
	Store *store.Store
	Now   func() time.Time
}

func (h *InsightsHandler) Register(g *echo.Group, secret []byte, revoker runtime.Revoker) {
	g.Use(runtime.EchoAuthMiddleware(secret, revoker))
	g.GET("", h.get)
}

func (h *InsightsHandler) get(c echo.Context) error {
	userID := c.Get("user_id").(string)
	ctx := c.Request().Context()
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}

	open, err := h.Store.HighPriorityOpenTasks(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	high := make([]HighPriorityTask, 0, len(open))
	for _, t := range open {
		item := HighPriorityTask{Task: t}
		if t.DueDate != nil {
			d := store.DaysRemaining(*t.DueDate, now)
			item.DaysRemaining = &d
		}
		high = append(high, item)
	}

	acts, err := h.Store.ListRecentActivities(ctx, userID, 10)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	weekStart := store.WeekStart(now)
	lastWeekStart := weekStart.AddDate(0, 0, -7)
	created, completed, completedLast, err := h.Store.WeeklyCounts(ctx, userID, weekStart, lastWeekStart)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, InsightsResponse{
		HighPriorityTasks: high,
		RecentActivities:  acts,
		WeeklyInsights: WeeklyInsights{
			TasksCreatedThisWeek:   created,
			TasksCompletedThisWeek: completed,
			ProductivityTrend:      store.ProductivityTrend(completed, completedLast),
			HighPriorityTasks:      len(high),
		},
	})
}
