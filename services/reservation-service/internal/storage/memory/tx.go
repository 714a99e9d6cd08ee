package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/booking"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/outbox"
)

var errTxDone = errors.New("memory: transaction already finished")

// keyedLocks hands out one context-aware lock per key. An entry lives only
// while someone holds or waits for it.
type keyedLocks struct {
	mu    sync.Mutex
	slots map[string]*keyedSlot
}

type keyedSlot struct {
	ch   chan struct{}
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{slots: make(map[string]*keyedSlot)}
}

func (k *keyedLocks) lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	slot, ok := k.slots[key]
	if !ok {
		slot = &keyedSlot{ch: make(chan struct{}, 1)}
		k.slots[key] = slot
	}
	slot.refs++
	k.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
		return func() {
			<-slot.ch
			k.release(key, slot)
		}, nil
	case <-ctx.Done():
		k.release(key, slot)
		return nil, ctx.Err()
	}
}

func (k *keyedLocks) release(key string, slot *keyedSlot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(k.slots, key)
	}
}

func (k *keyedLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}

type tx struct {
	store    *Store
	unlocks  []func()
	held     map[string]bool
	inserted []model.Reservation
	events   []outbox.Event
	idem     []booking.IdempotencyRecord
	done     bool
}

func (s *Store) Begin(_ context.Context) (booking.Tx, error) {
	return &tx{store: s, held: make(map[string]bool)}, nil
}

func (t *tx) acquire(ctx context.Context, key string) error {
	if t.done {
		return errTxDone
	}
	if t.held[key] {
		return nil
	}
	unlock, err := t.store.locks.lock(ctx, key)
	if err != nil {
		return err
	}
	t.held[key] = true
	t.unlocks = append(t.unlocks, unlock)
	return nil
}

func (t *tx) LockTable(ctx context.Context, tableID string) (model.Table, error) {
	if err := t.acquire(ctx, "table:"+tableID); err != nil {
		return model.Table{}, err
	}
	return t.store.GetTable(ctx, tableID)
}

func (t *tx) LockIdempotencyKey(ctx context.Context, tableID, key string) (booking.IdempotencyRecord, bool, error) {
	if err := t.acquire(ctx, "idem:"+tableID+":"+key); err != nil {
		return booking.IdempotencyRecord{}, false, err
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	rec, ok := t.store.idempotency[idemKey{tableID: tableID, key: key}]
	if !ok {
		return booking.IdempotencyRecord{TableID: tableID, Key: key}, false, nil
	}
	return rec, true, nil
}

func (t *tx) FinalizeIdempotency(_ context.Context, rec booking.IdempotencyRecord) error {
	if t.done {
		return errTxDone
	}
	t.idem = append(t.idem, rec)
	return nil
}

func (t *tx) GetReservation(_ context.Context, id string) (model.Reservation, error) {
	for _, r := range t.inserted {
		if r.ID == id {
			return r, nil
		}
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	for _, r := range t.store.reservations {
		if r.ID == id {
			return r, nil
		}
	}
	return model.Reservation{}, model.ErrNotFound
}

func (t *tx) InsertReservation(_ context.Context, r model.Reservation) error {
	if t.done {
		return errTxDone
	}
	t.inserted = append(t.inserted, r)
	return nil
}

func (t *tx) EnqueueEvent(_ context.Context, evt outbox.Event) error {
	if t.done {
		return errTxDone
	}
	t.events = append(t.events, evt)
	return nil
}

func (t *tx) GetTable(ctx context.Context, tableID string) (model.Table, error) {
	return t.store.GetTable(ctx, tableID)
}

func (t *tx) GetBusinessHours(ctx context.Context, restaurantID string, day model.Weekday) (model.BusinessHours, error) {
	return t.store.GetBusinessHours(ctx, restaurantID, day)
}

func (t *tx) ListReservationsOverlapping(ctx context.Context, tableID string, date time.Time, start, end int) ([]model.Reservation, error) {
	return t.store.ListReservationsOverlapping(ctx, tableID, date, start, end)
}

func (t *tx) ListReservationsOnDate(ctx context.Context, tableID string, date time.Time) ([]model.Reservation, error) {
	return t.store.ListReservationsOnDate(ctx, tableID, date)
}

func (t *tx) Commit(_ context.Context) error {
	if t.done {
		return errTxDone
	}
	s := t.store
	s.mu.Lock()
	s.reservations = append(s.reservations, t.inserted...)
	s.events = append(s.events, t.events...)
	for _, rec := range t.idem {
		s.idempotency[idemKey{tableID: rec.TableID, key: rec.Key}] = rec
	}
	s.mu.Unlock()
	t.finish()
	return nil
}

// Rollback after Commit is a no-op so it can always be deferred.
func (t *tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.finish()
	return nil
}

func (t *tx) finish() {
	t.done = true
	for i := len(t.unlocks) - 1; i >= 0; i-- {
		t.unlocks[i]()
	}
	t.unlocks = nil
}
