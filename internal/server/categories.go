package server

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskflow/taskflow/internal/runtime"
	"github.com/taskflow/taskflow/internal/store"
)

type CategoriesHandler struct {
	Store  *store.Store
	Colors *store.ColorPicker
}

func (h *CategoriesHandler) Register(g *echo.Group, secret []byte, revoker runtime.Revoker) {
	g.Use(runtime.EchoAuthMiddleware(secret, revoker))
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *CategoriesHandler) create(c echo.Context) error {
	userID := c.Get("user_id").(string)
	var req CategoryRequest
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
	cat, err := h.Store.CreateCategory(c.Request().Context(), userID, req.Name, color)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *CategoriesHandler) list(c echo.Context) error {
	userID := c.Get("user_id").(string)
	cats, err := h.Store.ListCategories(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *CategoriesHandler) get(c echo.Context) error {
	userID := c.Get("user_id").(string)
	id, err := pathID(c, "id", "category not found")
	if err != nil {
		return err
	}
	cat, err := h.Store.GetCategory(c.Request().Context(), id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CategoriesHandler) update(c echo.Context) error {
	userID := c.Get("user_id").(string)
	id, err := pathID(c, "id", "category not found")
	if err != nil {
		return err
	}
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	cat, err := h.Store.UpdateCategory(c.Request().Context(), id, userID, req.Name, req.Color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CategoriesHandler) delete(c echo.Context) error {
	userID := c.Get("user_id").(string)
	id, err := pathID(c, "id", "category not found")
	if err != nil {
		return err
	}
	if err := h.Store.DeleteCategory(c.Request().Context(), id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "category deleted"})
}
