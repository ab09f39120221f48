package server

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskflow/taskflow/internal/runtime"
	"github.com/taskflow/taskflow/internal/store"
)

type AuthHandler struct {
	Store   *store.Store
	Secret  []byte
	TTL     time.Duration
	Revoker runtime.Revoker
}

func (a *AuthHandler) Register(g *echo.Group) {
	g.POST("/register", a.register)
	g.POST("/token", a.token)

	p := g.Group("")
	p.Use(runtime.EchoAuthMiddleware(a.Secret, a.Revoker))
	p.GET("/me", a.me)
	p.DELETE("/me", a.deleteMe)
	p.POST("/logout", a.logout)
}

func (a *AuthHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Username == "" || req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and email are required")
	}
	if len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "password too short")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	u, err := a.Store.CreateUser(c.Request().Context(), req.Username, req.Email, string(hash))
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return echo.NewHTTPError(http.StatusConflict, "username or email already registered")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, u)
}

func (a *AuthHandler) token(c echo.Context) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// Uniform failure below: unknown user and wrong password are
	// indistinguishable to the caller.
	id, hash, err := a.Store.GetUserCredentials(c.Request().Context(), req.Username)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "incorrect username or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "incorrect username or password")
	}
	signed, err := runtime.SignJWT(id, a.Secret, a.TTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	cookie := new(http.Cookie)
	cookie.Name = "auth"
	cookie.Value = signed
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteLaxMode
	c.SetCookie(cookie)
	return c.JSON(http.StatusOK, TokenResponse{AccessToken: signed, TokenType: "bearer"})
}

func (a *AuthHandler) me(c echo.Context) error {
	u, err := a.Store.GetUserByID(c.Request().Context(), c.Get("user_id").(string))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return c.JSON(http.StatusOK, u)
}

// deleteMe removes the account; owned tasks, categories, tags, activities and
// reminders go with it through the schema cascade.
func (a *AuthHandler) deleteMe(c echo.Context) error {
	if err := a.Store.DeleteUser(c.Request().Context(), c.Get("user_id").(string)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	cookie := new(http.Cookie)
	cookie.Name = "auth"
	cookie.Value = ""
	cookie.Path = "/"
	cookie.MaxAge = -1
	c.SetCookie(cookie)
	return c.NoContent(http.StatusNoContent)
}

func (a *AuthHandler) logout(c echo.Context) error {
	if a.Revoker != nil {
		if jti, ok := c.Get("jti").(string); ok && jti != "" {
			ttl := time.Minute
			if exp, ok := c.Get("exp").(int64); ok {
				ttl = time.Until(time.Unix(exp, 0))
			}
			if err := a.Revoker.Revoke(c.Request().Context(), jti, ttl); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
		}
	}
	cookie := new(http.Cookie)
	cookie.Name = "auth"
	cookie.Value = ""
	cookie.Path = "/"
	cookie.MaxAge = -1
	c.SetCookie(cookie)
	return c.NoContent(http.StatusOK)
}
