// Package memory is a process-local store used by tests and by the service
// when STORAGE_DRIVER=memory. Reservation writes are serialised per table.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/booking"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/outbox"
)

type idemKey struct {
	tableID string
	key     string
}

type Store struct {
	mu           sync.RWMutex
	restaurants  map[string]model.Restaurant
	hours        map[string]map[model.Weekday]model.BusinessHours
	tables       map[string]model.Table
	reservations []model.Reservation
	idempotency  map[idemKey]booking.IdempotencyRecord
	events       []outbox.Event

	locks *keyedLocks
	now   func() time.Time
}

func New() *Store {
	return &Store{
		restaurants: make(map[string]model.Restaurant),
		hours:       make(map[string]map[model.Weekday]model.BusinessHours),
		tables:      make(map[string]model.Table),
		idempotency: make(map[idemKey]booking.IdempotencyRecord),
		locks:       newKeyedLocks(),
		now:         time.Now,
	}
}

// Events returns a copy of every event enqueued so far.
func (s *Store) Events() []outbox.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]outbox.Event(nil), s.events...)
}

func (s *Store) CreateRestaurant(_ context.Context, name string, hours []model.BusinessHours) (model.Restaurant, error) {
	r := model.Restaurant{ID: uuid.NewString(), Name: name, CreatedAt: s.now().UTC()}
	evt, err := outbox.RestaurantCreated(r, hours)
	if err != nil {
		return model.Restaurant{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.restaurants[r.ID] = r
	days := make(map[model.Weekday]model.BusinessHours, len(hours))
	for _, bh := range hours {
		bh.RestaurantID = r.ID
		days[bh.Weekday] = bh
	}
	s.hours[r.ID] = days
	s.events = append(s.events, evt)
	return r, nil
}

func (s *Store) ListRestaurants(_ context.Context) ([]model.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Restaurant, 0, len(s.restaurants))
	for _, r := range s.restaurants {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetRestaurant(_ context.Context, id string) (model.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.restaurants[id]
	if !ok {
		return model.Restaurant{}, model.ErrNotFound
	}
	return r, nil
}

func (s *Store) ListBusinessHours(_ context.Context, restaurantID string) ([]model.BusinessHours, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	days := s.hours[restaurantID]
	out := make([]model.BusinessHours, 0, len(days))
	for _, d := range model.Weekdays {
		if bh, ok := days[d]; ok {
			out = append(out, bh)
		}
	}
	return out, nil
}

func (s *Store) UpsertBusinessHours(_ context.Context, bh model.BusinessHours) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.restaurants[bh.RestaurantID]; !ok {
		return model.ErrNotFound
	}
	if s.hours[bh.RestaurantID] == nil {
		s.hours[bh.RestaurantID] = make(map[model.Weekday]model.BusinessHours)
	}
	s.hours[bh.RestaurantID][bh.Weekday] = bh
	return nil
}

func (s *Store) GetBusinessHours(_ context.Context, restaurantID string, day model.Weekday) (model.BusinessHours, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bh, ok := s.hours[restaurantID][day]
	if !ok {
		return model.BusinessHours{}, model.ErrNotFound
	}
	return bh, nil
}

// AddTable numbers the new table one past the restaurant's current count.
func (s *Store) AddTable(_ context.Context, restaurantID string, capacity int) (model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.restaurants[restaurantID]; !ok {
		return model.Table{}, model.ErrNotFound
	}
	count := 0
	for _, t := range s.tables {
		if t.RestaurantID == restaurantID {
			count++
		}
	}
	t := model.Table{
		ID:           uuid.NewString(),
		RestaurantID: restaurantID,
		TableNumber:  count + 1,
		Capacity:     capacity,
		CreatedAt:    s.now().UTC(),
	}
	s.tables[t.ID] = t
	return t, nil
}

func (s *Store) ListTables(_ context.Context, restaurantID string) ([]model.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Table
	for _, t := range s.tables {
		if t.RestaurantID == restaurantID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TableNumber < out[j].TableNumber })
	return out, nil
}

func (s *Store) GetTable(_ context.Context, tableID string) (model.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[tableID]
	if !ok {
		return model.Table{}, model.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListReservationsOverlapping(_ context.Context, tableID string, date time.Time, start, end int) ([]model.Reservation, error) {
	return s.filterReservations(func(r model.Reservation) bool {
		return r.TableID == tableID && r.Date.Equal(date) && r.StartMinute < end && r.EndMinute > start
	}), nil
}

func (s *Store) ListReservationsOnDate(_ context.Context, tableID string, date time.Time) ([]model.Reservation, error) {
	return s.filterReservations(func(r model.Reservation) bool {
		return r.TableID == tableID && r.Date.Equal(date)
	}), nil
}

// ListReservations lists a restaurant's reservations, optionally for one date.
func (s *Store) ListReservations(_ context.Context, restaurantID string, date *time.Time) ([]model.Reservation, error) {
	return s.filterReservations(func(r model.Reservation) bool {
		return r.RestaurantID == restaurantID && (date == nil || r.Date.Equal(*date))
	}), nil
}

func (s *Store) filterReservations(keep func(model.Reservation) bool) []model.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Reservation
	for _, r := range s.reservations {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartMinute < out[j].StartMinute
	})
	return out
}
