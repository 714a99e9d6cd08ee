package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
	"github.com/redis/go-redis/v9"
)

type countingSource struct {
	calls int
}

func (s *countingSource) GetBusinessHours(_ context.Context, restaurantID string, day model.Weekday) (model.BusinessHours, error) {
	s.calls++
	if day == model.Sunday {
		return model.BusinessHours{}, model.ErrNotFound
	}
	return model.BusinessHours{RestaurantID: restaurantID, Weekday: day, IsOpen: true, OpenMinute: 540, CloseMinute: 1020}, nil
}

func TestHoursCache_NoRedisPassesThrough(t *testing.T) {
	src := &countingSource{}
	c := NewHoursCache(nil, src, time.Minute, nil)
	for i := 0; i < 2; i++ {
		bh, err := c.GetBusinessHours(context.Background(), "r1", model.Monday)
		if err != nil {
			t.Fatalf("GetBusinessHours: %v", err)
		}
		if bh.OpenMinute != 540 || !bh.IsOpen {
			t.Fatalf("unexpected hours %+v", bh)
		}
	}
	if src.calls != 2 {
		t.Fatalf("expected 2 source calls, got %d", src.calls)
	}
	if err := c.Invalidate(context.Background(), "r1"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
}

func TestHoursCache_RedisDownFallsBack(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	src := &countingSource{}
	c := NewHoursCache(rdb, src, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	bh, err := c.GetBusinessHours(context.Background(), "r1", model.Friday)
	if err != nil {
		t.Fatalf("expected fallback to source, got %v", err)
	}
	if bh.Weekday != model.Friday || src.calls != 1 {
		t.Fatalf("unexpected result %+v after %d calls", bh, src.calls)
	}
	if _, err := c.GetBusinessHours(context.Background(), "r1", model.Sunday); err != model.ErrNotFound {
		t.Fatalf("expected ErrNotFound from source, got %v", err)
	}
}

func TestKey(t *testing.T) {
	if got := key("r1", model.Monday); got != "tablereserve:hours:r1:monday" {
		t.Fatalf("unexpected key %q", got)
	}
}

func newRedisCache(t *testing.T, ttl time.Duration) (*HoursCache, *countingSource, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	src := &countingSource{}
	return NewHoursCache(rdb, src, ttl, slog.New(slog.NewTextHandler(io.Discard, nil))), src, mr
}

func TestHoursCache_HitSkipsSource(t *testing.T) {
	c, src, mr := newRedisCache(t, 2*time.Minute)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		bh, err := c.GetBusinessHours(ctx, "r1", model.Friday)
		if err != nil {
			t.Fatalf("GetBusinessHours: %v", err)
		}
		if !bh.IsOpen || bh.OpenMinute != 540 || bh.CloseMinute != 1020 || bh.Weekday != model.Friday || bh.RestaurantID != "r1" {
			t.Fatalf("unexpected hours %+v", bh)
		}
	}
	if src.calls != 1 {
		t.Fatalf("expected one source call, got %d", src.calls)
	}
	k := key("r1", model.Friday)
	if !mr.Exists(k) {
		t.Fatalf("expected %s to be cached", k)
	}
	if ttl := mr.TTL(k); ttl != 2*time.Minute {
		t.Fatalf("unexpected ttl %s", ttl)
	}
}

func TestHoursCache_NotFoundIsNotCached(t *testing.T) {
	c, src, mr := newRedisCache(t, time.Minute)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := c.GetBusinessHours(ctx, "r1", model.Sunday); !errors.Is(err, model.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if mr.Exists(key("r1", model.Sunday)) {
		t.Fatal("a missing record must not be cached")
	}
	if src.calls != 2 {
		t.Fatalf("expected every miss to reach the source, got %d calls", src.calls)
	}
}

func TestHoursCache_MalformedValueFallsBack(t *testing.T) {
	c, src, mr := newRedisCache(t, time.Minute)
	k := key("r1", model.Monday)
	if err := mr.Set(k, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	bh, err := c.GetBusinessHours(context.Background(), "r1", model.Monday)
	if err != nil {
		t.Fatalf("GetBusinessHours: %v", err)
	}
	if src.calls != 1 || bh.OpenMinute != 540 {
		t.Fatalf("expected source hours after %d calls, got %+v", src.calls, bh)
	}
	raw, err := mr.Get(k)
	if err != nil {
		t.Fatalf("get %s: %v", k, err)
	}
	if raw != `{"is_open":true,"open_minute":540,"close_minute":1020}` {
		t.Fatalf("cached value not repaired: %q", raw)
	}
}

func TestHoursCache_InvalidateDropsEveryWeekday(t *testing.T) {
	c, src, mr := newRedisCache(t, time.Minute)
	ctx := context.Background()
	for _, d := range model.Weekdays {
		if d == model.Sunday {
			continue
		}
		if _, err := c.GetBusinessHours(ctx, "r1", d); err != nil {
			t.Fatalf("GetBusinessHours(%s): %v", d, err)
		}
	}
	if err := mr.Set(key("r1", model.Sunday), `{"is_open":false}`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := c.GetBusinessHours(ctx, "r2", model.Monday); err != nil {
		t.Fatalf("GetBusinessHours(r2): %v", err)
	}

	if err := c.Invalidate(ctx, "r1"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	for _, d := range model.Weekdays {
		if mr.Exists(key("r1", d)) {
			t.Fatalf("%s still cached after invalidate", d)
		}
	}
	if !mr.Exists(key("r2", model.Monday)) {
		t.Fatal("invalidate must not touch other restaurants")
	}

	before := src.calls
	if _, err := c.GetBusinessHours(ctx, "r1", model.Friday); err != nil {
		t.Fatalf("GetBusinessHours: %v", err)
	}
	if src.calls != before+1 {
		t.Fatal("expected a read after invalidate to reach the source")
	}
}
