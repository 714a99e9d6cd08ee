package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestErrorClassification(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	fk := &pgconn.PgError{Code: "23503"}

	if !IsUniqueViolation(unique) || IsUniqueViolation(fk) {
		t.Fatal("unique violation misclassified")
	}
	if !IsForeignKeyViolation(fk) || IsForeignKeyViolation(unique) {
		t.Fatal("foreign key violation misclassified")
	}
	if !IsNoRows(fmt.Errorf("scan: %w", pgx.ErrNoRows)) || IsNoRows(errors.New("other")) {
		t.Fatal("no rows misclassified")
	}
}

func TestReadyCheck(t *testing.T) {
	if ReadyCheck(nil) != nil {
		t.Fatal("nil pool should not register a check")
	}
	if err := ReadyCheck(&Pool{})(context.Background()); err == nil {
		t.Fatal("expected error for unconfigured pool")
	}
}
