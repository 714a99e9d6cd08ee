// Package cache keeps business hours in Redis in front of the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/availability"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "tablereserve:hours:"

type HoursCache struct {
	rdb    *redis.Client
	source availability.HoursSource
	ttl    time.Duration
	logger *slog.Logger
}

type cachedHours struct {
	IsOpen      bool `json:"is_open"`
	OpenMinute  int  `json:"open_minute"`
	CloseMinute int  `json:"close_minute"`
}

// NewHoursCache wraps source. With a nil client every call goes straight to source.
func NewHoursCache(rdb *redis.Client, source availability.HoursSource, ttl time.Duration, logger *slog.Logger) *HoursCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HoursCache{rdb: rdb, source: source, ttl: ttl, logger: logger}
}

func key(restaurantID string, day model.Weekday) string {
	return keyPrefix + restaurantID + ":" + string(day)
}

// GetBusinessHours reads through the cache. Redis failures are logged and
// the source is used instead; a missing record is never cached.
func (c *HoursCache) GetBusinessHours(ctx context.Context, restaurantID string, day model.Weekday) (model.BusinessHours, error) {
	if c.rdb == nil {
		return c.source.GetBusinessHours(ctx, restaurantID, day)
	}

	k := key(restaurantID, day)
	raw, err := c.rdb.Get(ctx, k).Bytes()
	switch {
	case err == nil:
		var ch cachedHours
		if err := json.Unmarshal(raw, &ch); err == nil {
			return model.BusinessHours{
				RestaurantID: restaurantID,
				Weekday:      day,
				IsOpen:       ch.IsOpen,
				OpenMinute:   ch.OpenMinute,
				CloseMinute:  ch.CloseMinute,
			}, nil
		}
		c.logger.Warn("discarding malformed cached hours", "key", k)
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("hours cache read failed", "err", err)
		return c.source.GetBusinessHours(ctx, restaurantID, day)
	}

	bh, err := c.source.GetBusinessHours(ctx, restaurantID, day)
	if err != nil {
		return model.BusinessHours{}, err
	}
	payload, err := json.Marshal(cachedHours{IsOpen: bh.IsOpen, OpenMinute: bh.OpenMinute, CloseMinute: bh.CloseMinute})
	if err == nil {
		if err := c.rdb.Set(ctx, k, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("hours cache write failed", "err", err)
		}
	}
	return bh, nil
}

// Invalidate drops every cached weekday of a restaurant.
func (c *HoursCache) Invalidate(ctx context.Context, restaurantID string) error {
	if c.rdb == nil {
		return nil
	}
	keys := make([]string, 0, len(model.Weekdays))
	for _, d := range model.Weekdays {
		keys = append(keys, key(restaurantID, d))
	}
	return c.rdb.Del(ctx, keys...).Err()
}
