package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskflow/taskflow/internal/runtime"
	"github.com/taskflow/taskflow/internal/store"
)

type TasksHandler struct {
	Store *store.Store
}

func (h *TasksHandler) Register(g *echo.Group, secret []byte, revoker runtime.Revoker) {
	g.Use(runtime.EchoAuthMiddleware(secret, revoker))
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.PATCH("/:id/status", h.updateStatus)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/tags/:tagID", h.attachTag)
	g.DELETE("/:id/tags/:tagID", h.detachTag)
}

// pathID validates a uuid path parameter. Malformed ids get the same 404 as
// missing rows so nothing about existing ids leaks.
func pathID(c echo.Context, name, notFound string) (string, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusNotFound, notFound)
	}
	return id.String(), nil
}

func (h *TasksHandler) create(c echo.Context) error {
	userID := c.Get("user_id").(string)
	var req TaskCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	nt := store.NewTask{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	}
	if req.DueDate != nil && *req.DueDate != "" {
		due, err := parseDue(*req.DueDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid due_date")
		}
		nt.DueDate = &due
	}
	if req.CategoryID != nil && *req.CategoryID != "" {
		cid, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		s := cid.String()
		nt.CategoryID = &s
	}
	t, err := h.Store.CreateTask(c.Request().Context(), userID, nt)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *TasksHandler) list(c echo.Context) error {
	userID := c.Get("user_id").(string)
	var f store.TaskFilter
	f.CategoryID = c.QueryParam("category_id")
	f.Status = c.QueryParam("status")
	f.Priority = c.QueryParam("priority")
	if v := c.QueryParam("skip"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			f.Skip = n
		}
	}
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			f.Limit = n
		}
	}
	tasks, err := h.Store.ListTasks(c.Request().Context(), userID, f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *TasksHandler) get(c echo.Context) error {
	userID := c.Get("user_id").(string)
	id, err := pathID(c, "id", "task not found")
	if err != nil {
		return err
	}
	t, err := h.Store.GetTask(c.Request().Context(), id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "task not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TasksHandler) update(c echo.Context) error {
	var req TaskUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.applyPatch(c, req)
}

func (h *TasksHandler) updateStatus(c echo.Context) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "status is required")
	}
	return h.applyPatch(c, TaskUpdateRequest{Status: &req.Status})
}

func (h *TasksHandler) applyPatch(c echo.Context, req TaskUpdateRequest) error {
	userID := c.Get("user_id").(string)
	id, err := pathID(c, "id", "task not found")
	if err != nil {
		return err
	}
	p := store.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	}
	if req.DueDate != nil {
		p.DueDateSet = true
		if *req.DueDate != "" {
			due, err := parseDue(*req.DueDate)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid due_date")
			}
			p.DueDate = &due
		}
	}
	if req.CategoryID != nil {
		p.CategorySet = true
		if *req.CategoryID != "" {
			cid, err := uuid.Parse(*req.CategoryID)
			if err != nil {
				return echo.NewHTTPError(http.StatusNotFound, "category not found")
			}
			s := cid.String()
			p.CategoryID = &s
		}
	}
	t, err := h.Store.UpdateTask(c.Request().Context(), id, userID, p)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return echo.NewHTTPError(http.StatusNotFound, "task not found")
		case errors.Is(err, store.ErrCategoryNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TasksHandler) delete(c echo.Context) error {
	userID := c.Get("user_id").(string)
	id, err := pathID(c, "id", "task not found")
	if err != nil {
		return err
	}
	if err := h.Store.DeleteTask(c.Request().Context(), id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "task not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "task deleted"})
}

func (h *TasksHandler) attachTag(c echo.Context) error {
	return h.tagAssoc(c, h.Store.AttachTag, "tag attached")
}

func (h *TasksHandler) detachTag(c echo.Context) error {
	return h.tagAssoc(c, h.Store.DetachTag, "tag detached")
}

func (h *TasksHandler) tagAssoc(c echo.Context, op func(ctx context.Context, taskID, tagID, ownerID string) error, msg string) error {
	userID := c.Get("user_id").(string)
	taskID, err := pathID(c, "id", "task not found")
	if err != nil {
		return err
	}
	tagID, err := pathID(c, "tagID", "tag not found")
	if err != nil {
		return err
	}
	if err := op(c.Request().Context(), taskID, tagID, userID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return echo.NewHTTPError(http.StatusNotFound, "task not found")
		case errors.Is(err, store.ErrTagNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "tag not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": msg})
}
