package server

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/taskflow/taskflow/internal/store"
)

const (
	taskID  = "6f1c2f66-9f3a-4c2e-8f57-2a4f9cb1e0aa"
	otherID = "0b7f9d14-3a52-4b1d-9e0c-7d2f8e6a1b33"
)

func TestGetTaskNotOwnedIsNotFound(t *testing.T) {
	e := echo.New()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	h := &TasksHandler{Store: &store.Store{DB: db}}

	// Row exists for another owner; the scoped query sees nothing.
	mock.ExpectQuery(`SELECT .+ FROM tasks WHERE id=\$1 AND owner_id=\$2`).
		WithArgs(taskID, "user-b").
		WillReturnError(sql.ErrNoRows)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/"+taskID, nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "user-b")
	ctx.SetParamNames("id")
	ctx.SetParamValues(taskID)

	err = h.get(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetTaskMalformedID(t *testing.T) {
	e := echo.New()
	h := &TasksHandler{}

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "user-1")
	ctx.SetParamNames("id")
	ctx.SetParamValues("not-a-uuid")

	err := h.get(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed id, got %v", err)
	}
}

func TestCreateTaskRequiresTitle(t *testing.T) {
	e := echo.New()
	h := &TasksHandler{}

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"description":"no title"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "user-1")

	err := h.create(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestUpdateStatusRequiresStatus(t *testing.T) {
	e := echo.New()
	h := &TasksHandler{}

	req := httptest.NewRequest(http.MethodPatch, "/api/tasks/"+taskID+"/status", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "user-1")
	ctx.SetParamNames("id")
	ctx.SetParamValues(taskID)

	err := h.updateStatus(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAttachTagForeignTagIsNotFound(t *testing.T) {
	e := echo.New()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	h := &TasksHandler{Store: &store.Store{DB: db}}

	mock.ExpectQuery(`SELECT 1 FROM tasks WHERE id=\$1 AND owner_id=\$2`).
		WithArgs(taskID, "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(`SELECT 1 FROM tags WHERE id=\$1 AND owner_id=\$2`).
		WithArgs(otherID, "user-1").
		WillReturnError(sql.ErrNoRows)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/"+taskID+"/tags/"+otherID, nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "user-1")
	ctx.SetParamNames("id", "tagID")
	ctx.SetParamValues(taskID, otherID)

	err = h.attachTag(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
	if he.Message != "tag not found" {
		t.Fatalf("unexpected message: %v", he.Message)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
