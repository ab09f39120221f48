package server

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskflow/taskflow/internal/runtime"
	"github.com/taskflow/taskflow/internal/store"
)

type TagsHandler struct {
	Store  *store.Store
	Colors *store.ColorPicker
}

func (h *TagsHandler) Register(g *echo.Group, secret []byte, revoker runtime.Revoker) {
	g.Use(runtime.EchoAuthMiddleware(secret, revoker))
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *TagsHandler) create(c echo.Context) error {
	userID := c.Get("user_id").(string)
	var req TagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	color := req.Color
	if color == "" {
		color = h.Colors.Pick()
	}
	tag, err := h.Store.CreateTag(c.Request().Context(), userID, req.Name, color)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, tag)
}

func (h *TagsHandler) list(c echo.Context) error {
	userID := c.Get("user_id").(string)
	tags, err := h.Store.ListTags(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tags)
}

func (h *TagsHandler) get(c echo.Context) error {
	userID := c.Get("user_id").(string)
	id, err := pathID(c, "id", "tag not found")
	if err != nil {
		return err
	}
	tag, err := h.Store.GetTag(c.Request().Context(), id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "tag not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tag)
}

func (h *TagsHandler) update(c echo.Context) error {
	userID := c.Get("user_id").(string)
	id, err := pathID(c, "id", "tag not found")
	if err != nil {
		return err
	}
	var req TagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	tag, err := h.Store.UpdateTag(c.Request().Context(), id, userID, req.Name, req.Color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "tag not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tag)
}

func (h *TagsHandler) delete(c echo.Context) error {
	userID := c.Get("user_id").(string)
	id, err := pathID(c, "id", "tag not found")
	if err != nil {
		return err
	}
	if err := h.Store.DeleteTag(c.Request().Context(), id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "tag not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "tag deleted"})
}
