package config

import (
	"testing"
	"time"
)

func TestPort(t *testing.T) {
	t.Setenv("TEST_PORT", "8084")
	p, err := Port("TEST_PORT", "1")
	if err != nil || p != "8084" {
		t.Fatalf("expected 8084, got %q (%v)", p, err)
	}

	t.Setenv("TEST_PORT", "70000")
	if _, err := Port("TEST_PORT", "1"); err == nil {
		t.Fatal("expected error for out of range port")
	}
}

func TestRequiredString(t *testing.T) {
	t.Setenv("TEST_REQUIRED", "")
	if _, err := RequiredString("TEST_REQUIRED"); err == nil {
		t.Fatal("expected error for missing value")
	}
	t.Setenv("TEST_REQUIRED", " postgres://x ")
	v, err := RequiredString("TEST_REQUIRED")
	if err != nil || v != "postgres://x" {
		t.Fatalf("unexpected value %q (%v)", v, err)
	}
}

func TestTypedFallbacks(t *testing.T) {
	t.Setenv("TEST_INT", "abc")
	if got := Int("TEST_INT", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
	t.Setenv("TEST_INT", "42")
	if got := Int("TEST_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}

	t.Setenv("TEST_BOOL", "true")
	if !Bool("TEST_BOOL", false) {
		t.Fatal("expected true")
	}

	t.Setenv("TEST_DUR", "90s")
	if got := Duration("TEST_DUR", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}

	t.Setenv("TEST_LIST", " a, ,b ")
	got := List("TEST_LIST")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected list %v", got)
	}
}
