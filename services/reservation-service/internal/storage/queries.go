package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/tablereserve/libs/db"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
)

// Read queries shared by the pool and by reservation transactions.

func getTable(ctx context.Context, q db.Querier, tableID string, forUpdate bool) (model.Table, error) {
	if !validID(tableID) {
		return model.Table{}, model.ErrNotFound
	}
	sql := `
		SELECT id::text, restaurant_id::text, table_number, capacity, created_at
		FROM restaurant_tables
		WHERE id = $1
	`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	var t model.Table
	err := q.QueryRow(ctx, sql, tableID).Scan(&t.ID, &t.RestaurantID, &t.TableNumber, &t.Capacity, &t.CreatedAt)
	if err != nil {
		return model.Table{}, notFound(err)
	}
	return t, nil
}

func getBusinessHours(ctx context.Context, q db.Querier, restaurantID string, day model.Weekday) (model.BusinessHours, error) {
	if !validID(restaurantID) {
		return model.BusinessHours{}, model.ErrNotFound
	}
	bh, err := scanHours(q.QueryRow(ctx, `
		SELECT restaurant_id::text, weekday, is_open, open_minute, close_minute
		FROM restaurant_business_hours
		WHERE restaurant_id = $1 AND weekday = $2
	`, restaurantID, string(day)))
	if err != nil {
		return model.BusinessHours{}, notFound(err)
	}
	return bh, nil
}

func scanHours(row pgx.Row) (model.BusinessHours, error) {
	var bh model.BusinessHours
	var day string
	if err := row.Scan(&bh.RestaurantID, &day, &bh.IsOpen, &bh.OpenMinute, &bh.CloseMinute); err != nil {
		return model.BusinessHours{}, err
	}
	bh.Weekday = model.Weekday(day)
	return bh, nil
}

// listReservationsOverlapping uses true half-open overlap, so a reservation
// that starts before the window but runs into it is included.
func listReservationsOverlapping(ctx context.Context, q db.Querier, tableID string, date time.Time, start, end int) ([]model.Reservation, error) {
	if !validID(tableID) {
		return nil, nil
	}
	return queryReservations(ctx, q, `
		WHERE table_id = $1
			AND reservation_date = $2
			AND start_minute < $4
			AND end_minute > $3
		ORDER BY start_minute ASC
	`, tableID, date, start, end)
}

func listReservationsOnDate(ctx context.Context, q db.Querier, tableID string, date time.Time) ([]model.Reservation, error) {
	if !validID(tableID) {
		return nil, nil
	}
	return queryReservations(ctx, q, `
		WHERE table_id = $1
			AND reservation_date = $2
		ORDER BY start_minute ASC
	`, tableID, date)
}

func queryReservations(ctx context.Context, q db.Querier, where string, args ...any) ([]model.Reservation, error) {
	rows, err := q.Query(ctx, `
		SELECT id::text, restaurant_id::text, table_id::text, reservation_date, start_minute, end_minute,
			duration_minutes, party_size, customer_name, phone, created_at
		FROM reservations
	`+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		var r model.Reservation
		if err := rows.Scan(&r.ID, &r.RestaurantID, &r.TableID, &r.Date, &r.StartMinute, &r.EndMinute,
			&r.Duration, &r.PartySize, &r.CustomerName, &r.Phone, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Date = r.Date.UTC()
		out = append(out, r)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
