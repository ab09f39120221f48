package store

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTagName(t *testing.T) {
	if got := NormalizeTagName("urgent"); got != "#urgent" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeTagName("#urgent"); got != "#urgent" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeTagName(""); got != "#" {
		t.Fatalf("got %q", got)
	}
}

func TestCreateTagNormalizes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := &Store{DB: db}

	mock.ExpectQuery(`INSERT INTO tags \(name, color, owner_id\)`).
		WithArgs("#urgent", "#F44336", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color", "owner_id", "created_at"}).
			AddRow("tag-1", "#urgent", "#F44336", "user-1", sampleTime))

	tag, err := s.CreateTag(context.Background(), "user-1", "urgent", "#F44336")
	require.NoError(t, err)
	require.Equal(t, "#urgent", tag.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
