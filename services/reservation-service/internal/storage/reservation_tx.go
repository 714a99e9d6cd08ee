package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/availability"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/booking"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/outbox"
)

// reservationTx runs a reservation write inside one pgx transaction.
type reservationTx struct {
	tx     pgx.Tx
	outbox *outbox.Repository
}

func (r *Repository) Begin(ctx context.Context) (booking.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &reservationTx{tx: tx, outbox: r.outbox}, nil
}

func (t *reservationTx) LockTable(ctx context.Context, tableID string) (model.Table, error) {
	return getTable(ctx, t.tx, tableID, true)
}

func (t *reservationTx) LockIdempotencyKey(ctx context.Context, tableID, key string) (booking.IdempotencyRecord, bool, error) {
	if !validID(tableID) {
		return booking.IdempotencyRecord{}, false, model.ErrNotFound
	}
	rec, err := t.selectIdempotencyForUpdate(ctx, tableID, key)
	if err == nil {
		return rec, true, nil
	}
	if !IsNotFound(err) {
		return booking.IdempotencyRecord{}, false, err
	}

	_, err = t.tx.Exec(ctx, `
		INSERT INTO reservation_idempotency_keys (table_id, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (table_id, idempotency_key) DO NOTHING
	`, tableID, key)
	if err != nil {
		return booking.IdempotencyRecord{}, false, err
	}

	rec, err = t.selectIdempotencyForUpdate(ctx, tableID, key)
	if err != nil {
		return booking.IdempotencyRecord{}, false, err
	}
	return rec, false, nil
}

func (t *reservationTx) selectIdempotencyForUpdate(ctx context.Context, tableID, key string) (booking.IdempotencyRecord, error) {
	rec := booking.IdempotencyRecord{TableID: tableID, Key: key}
	var kind int
	err := t.tx.QueryRow(ctx, `
		SELECT COALESCE(reservation_id::text, ''), outcome_kind, outcome_message
		FROM reservation_idempotency_keys
		WHERE table_id = $1 AND idempotency_key = $2
		FOR UPDATE
	`, tableID, key).Scan(&rec.ReservationID, &kind, &rec.OutcomeMessage)
	if err != nil {
		return booking.IdempotencyRecord{}, err
	}
	rec.OutcomeKind = availability.Kind(kind)
	return rec, nil
}

func (t *reservationTx) FinalizeIdempotency(ctx context.Context, rec booking.IdempotencyRecord) error {
	var reservationID *string
	if rec.ReservationID != "" {
		reservationID = &rec.ReservationID
	}
	_, err := t.tx.Exec(ctx, `
		UPDATE reservation_idempotency_keys
		SET reservation_id = $3,
			outcome_kind = $4,
			outcome_message = $5,
			updated_at = now()
		WHERE table_id = $1 AND idempotency_key = $2
	`, rec.TableID, rec.Key, reservationID, int(rec.OutcomeKind), rec.OutcomeMessage)
	return err
}

func (t *reservationTx) GetReservation(ctx context.Context, id string) (model.Reservation, error) {
	if !validID(id) {
		return model.Reservation{}, model.ErrNotFound
	}
	out, err := queryReservations(ctx, t.tx, `WHERE id = $1`, id)
	if err != nil {
		return model.Reservation{}, err
	}
	if len(out) == 0 {
		return model.Reservation{}, model.ErrNotFound
	}
	return out[0], nil
}

func (t *reservationTx) InsertReservation(ctx context.Context, r model.Reservation) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO reservations
			(id, restaurant_id, table_id, reservation_date, start_minute, end_minute, duration_minutes, party_size, customer_name, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, r.ID, r.RestaurantID, r.TableID, r.Date, r.StartMinute, r.EndMinute, r.Duration, r.PartySize, r.CustomerName, r.Phone, r.CreatedAt)
	return err
}

func (t *reservationTx) EnqueueEvent(ctx context.Context, evt outbox.Event) error {
	return t.outbox.Insert(ctx, t.tx, evt)
}

func (t *reservationTx) GetTable(ctx context.Context, tableID string) (model.Table, error) {
	return getTable(ctx, t.tx, tableID, false)
}

func (t *reservationTx) GetBusinessHours(ctx context.Context, restaurantID string, day model.Weekday) (model.BusinessHours, error) {
	return getBusinessHours(ctx, t.tx, restaurantID, day)
}

func (t *reservationTx) ListReservationsOverlapping(ctx context.Context, tableID string, date time.Time, start, end int) ([]model.Reservation, error) {
	return listReservationsOverlapping(ctx, t.tx, tableID, date, start, end)
}

func (t *reservationTx) ListReservationsOnDate(ctx context.Context, tableID string, date time.Time) ([]model.Reservation, error) {
	return listReservationsOnDate(ctx, t.tx, tableID, date)
}

func (t *reservationTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *reservationTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
