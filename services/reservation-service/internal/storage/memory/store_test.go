package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/outbox"
)

func TestAddTableNumbering(t *testing.T) {
	ctx := context.Background()
	s := New()
	rest, err := s.CreateRestaurant(ctx, "Bistro", nil)
	if err != nil {
		t.Fatalf("CreateRestaurant: %v", err)
	}
	for want := 1; want <= 3; want++ {
		tbl, err := s.AddTable(ctx, rest.ID, 2)
		if err != nil {
			t.Fatalf("AddTable: %v", err)
		}
		if tbl.TableNumber != want {
			t.Fatalf("expected table number %d, got %d", want, tbl.TableNumber)
		}
	}
	if _, err := s.AddTable(ctx, "missing", 2); err != model.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	events := s.Events()
	if len(events) != 1 || events[0].EventType != outbox.TopicRestaurantCreated {
		t.Fatalf("expected one restaurant.created.v1 event, got %+v", events)
	}
}

func TestOverlapQuery(t *testing.T) {
	ctx := context.Background()
	s := New()
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.reservations = []model.Reservation{
		{ID: "a", TableID: "t1", Date: date, StartMinute: 540, EndMinute: 630},
		{ID: "b", TableID: "t1", Date: date, StartMinute: 660, EndMinute: 720},
		{ID: "c", TableID: "t1", Date: date.AddDate(0, 0, 1), StartMinute: 600, EndMinute: 660},
		{ID: "d", TableID: "t2", Date: date, StartMinute: 600, EndMinute: 660},
	}
	got, err := s.ListReservationsOverlapping(ctx, "t1", date, 600, 660)
	if err != nil {
		t.Fatalf("ListReservationsOverlapping: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected only the earlier-starting overlap, got %+v", got)
	}
	onDate, _ := s.ListReservationsOnDate(ctx, "t1", date)
	if len(onDate) != 2 {
		t.Fatalf("expected 2 reservations on date, got %d", len(onDate))
	}
}

func TestTxRollbackReleasesLock(t *testing.T) {
	ctx := context.Background()
	s := New()
	rest, _ := s.CreateRestaurant(ctx, "Bistro", nil)
	tbl, _ := s.AddTable(ctx, rest.ID, 2)

	tx1, _ := s.Begin(ctx)
	if _, err := tx1.LockTable(ctx, tbl.ID); err != nil {
		t.Fatalf("LockTable: %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	tx2, _ := s.Begin(waitCtx)
	if _, err := tx2.LockTable(waitCtx, tbl.ID); err == nil {
		t.Fatal("expected second lock to block until the context expires")
	}

	_ = tx1.Rollback(ctx)
	tx3, _ := s.Begin(ctx)
	if _, err := tx3.LockTable(ctx, tbl.ID); err != nil {
		t.Fatalf("lock after rollback: %v", err)
	}
	_ = tx3.Rollback(ctx)
}

func TestLocksAreDroppedAfterRelease(t *testing.T) {
	ctx := context.Background()
	s := New()
	rest, _ := s.CreateRestaurant(ctx, "Bistro", nil)
	tbl, _ := s.AddTable(ctx, rest.ID, 2)

	for i := 0; i < 50; i++ {
		tx, _ := s.Begin(ctx)
		if _, _, err := tx.LockIdempotencyKey(ctx, tbl.ID, fmt.Sprintf("key-%d", i)); err != nil {
			t.Fatalf("LockIdempotencyKey: %v", err)
		}
		if _, err := tx.LockTable(ctx, tbl.ID); err != nil {
			t.Fatalf("LockTable: %v", err)
		}
		if i%2 == 0 {
			_ = tx.Commit(ctx)
		} else {
			_ = tx.Rollback(ctx)
		}
	}
	if n := s.locks.size(); n != 0 {
		t.Fatalf("expected no lock entries after release, got %d", n)
	}

	holder, _ := s.Begin(ctx)
	if _, err := holder.LockTable(ctx, tbl.ID); err != nil {
		t.Fatalf("LockTable: %v", err)
	}
	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	waiter, _ := s.Begin(waitCtx)
	if _, err := waiter.LockTable(waitCtx, tbl.ID); err == nil {
		t.Fatal("expected waiter to time out")
	}
	if n := s.locks.size(); n != 1 {
		t.Fatalf("expected only the held entry, got %d", n)
	}
	_ = holder.Rollback(ctx)
	if n := s.locks.size(); n != 0 {
		t.Fatalf("expected no lock entries, got %d", n)
	}
}
