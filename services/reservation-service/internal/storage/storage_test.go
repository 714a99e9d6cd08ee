package storage

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
)

func TestNotFoundMapping(t *testing.T) {
	if !errors.Is(notFound(pgx.ErrNoRows), model.ErrNotFound) {
		t.Fatal("no rows should map to ErrNotFound")
	}
	if !errors.Is(notFound(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"})), model.ErrNotFound) {
		t.Fatal("foreign key violation should map to ErrNotFound")
	}
	boom := errors.New("boom")
	if notFound(boom) != boom {
		t.Fatal("other errors must pass through")
	}
	if !IsNotFound(pgx.ErrNoRows) || !IsNotFound(model.ErrNotFound) || IsNotFound(boom) {
		t.Fatal("IsNotFound misclassified")
	}
}

func TestValidID(t *testing.T) {
	if !validID("3f8a4a5e-8d0e-4a55-9a7f-0b5e8f9f2c11") {
		t.Fatal("expected uuid to be valid")
	}
	if validID("table-1") || validID("") {
		t.Fatal("expected non-uuid ids to be rejected")
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("iofs.New: %v", err)
	}
	defer src.Close()

	first, err := src.First()
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if first != 1 {
		t.Fatalf("expected first version 1, got %d", first)
	}
	up, _, err := src.ReadUp(first)
	if err != nil {
		t.Fatalf("ReadUp: %v", err)
	}
	defer up.Close()
	body, err := io.ReadAll(up)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(body) == 0 {
		t.Fatal("empty up migration")
	}
	down, _, err := src.ReadDown(first)
	if err != nil {
		t.Fatalf("ReadDown: %v", err)
	}
	_ = down.Close()
}
