package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskflow/taskflow/internal/store"
)

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	h := &AuthHandler{Store: &store.Store{DB: db}, Secret: []byte("test-secret"), TTL: time.Hour}
	return h, mock, func() { db.Close() }
}

func TestRegisterDuplicateUsername(t *testing.T) {
	e := echo.New()
	h, mock, done := newAuthHandler(t)
	defer done()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice", "alice@example.com", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	req := httptest.NewRequest(http.MethodPost, "/api/users/register",
		strings.NewReader(`{"username":"alice","email":"alice@example.com","password":"password123"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	err := h.register(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRegisterShortPassword(t *testing.T) {
	e := echo.New()
	h, _, done := newAuthHandler(t)
	defer done()

	req := httptest.NewRequest(http.MethodPost, "/api/users/register",
		strings.NewReader(`{"username":"alice","email":"a@b.c","password":"short"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := h.register(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestTokenSuccess(t *testing.T) {
	e := echo.New()
	h, mock, done := newAuthHandler(t)
	defer done()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	mock.ExpectQuery(`SELECT id, password_hash FROM users WHERE username=\$1 AND is_active`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}).AddRow("user-1", string(hash)))

	req := httptest.NewRequest(http.MethodPost, "/api/users/token",
		strings.NewReader("username=alice&password=password123"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()

	if err := h.token(e.NewContext(req, rec)); err != nil {
		t.Fatalf("token: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TokenType != "bearer" || resp.AccessToken == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	parsed, err := jwt.Parse(resp.AccessToken, func(tk *jwt.Token) (interface{}, error) { return h.Secret, nil })
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	sub, _ := parsed.Claims.GetSubject()
	if sub != "user-1" {
		t.Fatalf("subject = %q, want user-1", sub)
	}
}

func TestTokenUniformFailure(t *testing.T) {
	e := echo.New()
	h, mock, done := newAuthHandler(t)
	defer done()

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)

	// Unknown user and wrong password must be indistinguishable.
	mock.ExpectQuery(`SELECT id, password_hash FROM users`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}))
	mock.ExpectQuery(`SELECT id, password_hash FROM users`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}).AddRow("user-1", string(hash)))

	for _, body := range []string{"username=ghost&password=whatever1", "username=alice&password=wrong-pass"} {
		req := httptest.NewRequest(http.MethodPost, "/api/users/token", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		rec := httptest.NewRecorder()

		err := h.token(e.NewContext(req, rec))
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusUnauthorized {
			t.Fatalf("body %q: expected 401, got %v", body, err)
		}
		if he.Message != "incorrect username or password" {
			t.Fatalf("body %q: message %v leaks detail", body, he.Message)
		}
	}
}

func TestDeleteMe(t *testing.T) {
	e := echo.New()
	h, mock, done := newAuthHandler(t)
	defer done()

	mock.ExpectExec(`DELETE FROM users WHERE id=\$1`).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodDelete, "/api/users/me", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "user-1")

	if err := h.deleteMe(ctx); err != nil {
		t.Fatalf("deleteMe: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "auth" && c.MaxAge < 0 {
			found = true
		}
	}
	if !found {
		t.Fatal("auth cookie not cleared")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMe(t *testing.T) {
	e := echo.New()
	h, mock, done := newAuthHandler(t)
	defer done()

	mock.ExpectQuery(`SELECT id, username, email, is_active, created_at FROM users WHERE id=\$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "is_active", "created_at"}).
			AddRow("user-1", "alice", "alice@example.com", true, time.Now()))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "user-1")

	if err := h.me(ctx); err != nil {
		t.Fatalf("me: %v", err)
	}
	var u store.User
	if err := json.Unmarshal(rec.Body.Bytes(), &u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.Username != "alice" {
		t.Fatalf("unexpected user: %+v", u)
	}
}
