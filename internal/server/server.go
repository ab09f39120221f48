package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/taskflow/taskflow/config"
	"github.com/taskflow/taskflow/internal/runtime"
	"github.com/taskflow/taskflow/internal/store"
)

// Run wires the HTTP API and blocks serving it.
func Run(cfg *appconfig.Config, addr string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(requestMetrics())

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()
	dsn, err := cfg.Databases.Postgres.DSN()
	if err != nil {
		return err
	}
	if err := Migrate("file://migrations", dsn, "up", 0); err != nil && err != migrate.ErrNoChange {
		log.Printf("migrate: %v", err)
	}
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return err
	}

	secret := cfg.General.JWTSecret
	if secret == "" {
		return fmt.Errorf("jwt secret not configured (general.jwt_secret)")
	}
	ttl := cfg.General.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	// Redis is optional; when present it backs token revocation for logout.
	var revoker runtime.Revoker
	if cfg.Databases.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Databases.Redis.Addr(),
			Password: cfg.Databases.Redis.Pass,
			DB:       cfg.Databases.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed (%s): %w", cfg.Databases.Redis.Addr(), err)
		}
		revoker = &runtime.RedisRevoker{Rdb: rdb}
	}

	api := e.Group("/api")

	auth := &AuthHandler{Store: st, Secret: []byte(secret), TTL: ttl, Revoker: revoker}
	auth.Register(api.Group("/users"))

	colors := store.NewColorPicker(time.Now().UnixNano())
	th := &TasksHandler{Store: st}
	th.Register(api.Group("/tasks"), auth.Secret, revoker)
	ch := &CategoriesHandler{Store: st, Colors: colors}
	ch.Register(api.Group("/categories"), auth.Secret, revoker)
	tgh := &TagsHandler{Store: st, Colors: colors}
	tgh.Register(api.Group("/tags"), auth.Secret, revoker)
	rh := &RemindersHandler{Store: st}
	rh.Register(api.Group("/reminders"), auth.Secret, revoker)
	ih := &InsightsHandler{Store: st}
	ih.Register(api.Group("/insights"), auth.Secret, revoker)

	if addr == "" {
		addr = cfg.General.Listen
		if addr != "" && addr[0] != ':' {
			addr = ":" + addr
		}
		if addr == "" {
			addr = ":8000"
		}
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
