package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/tablereserve/libs/db"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/outbox"
)

type Repository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewRepository(pool *db.Pool, outboxRepo *outbox.Repository) *Repository {
	return &Repository{pool: pool, outbox: outboxRepo}
}

// IsNotFound reports missing rows and ids that cannot exist.
func IsNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound) || db.IsNoRows(err)
}

func notFound(err error) error {
	if db.IsNoRows(err) || db.IsForeignKeyViolation(err) {
		return model.ErrNotFound
	}
	return err
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *Repository) CreateRestaurant(ctx context.Context, name string, hours []model.BusinessHours) (model.Restaurant, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Restaurant{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rest := model.Restaurant{ID: uuid.NewString(), Name: name}
	err = tx.QueryRow(ctx, `
		INSERT INTO restaurants (id, name)
		VALUES ($1, $2)
		RETURNING created_at
	`, rest.ID, rest.Name).Scan(&rest.CreatedAt)
	if err != nil {
		return model.Restaurant{}, err
	}

	batch := &pgx.Batch{}
	for _, bh := range hours {
		batch.Queue(`
			INSERT INTO restaurant_business_hours (restaurant_id, weekday, is_open, open_minute, close_minute)
			VALUES ($1, $2, $3, $4, $5)
		`, rest.ID, string(bh.Weekday), bh.IsOpen, bh.OpenMinute, bh.CloseMinute)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return model.Restaurant{}, err
	}

	evt, err := outbox.RestaurantCreated(rest, hours)
	if err != nil {
		return model.Restaurant{}, err
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return model.Restaurant{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Restaurant{}, err
	}
	return rest, nil
}

func (r *Repository) ListRestaurants(ctx context.Context) ([]model.Restaurant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, created_at
		FROM restaurants
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Restaurant
	for rows.Next() {
		var rest model.Restaurant
		if err := rows.Scan(&rest.ID, &rest.Name, &rest.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rest)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) GetRestaurant(ctx context.Context, id string) (model.Restaurant, error) {
	if !validID(id) {
		return model.Restaurant{}, model.ErrNotFound
	}
	var rest model.Restaurant
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, created_at
		FROM restaurants
		WHERE id = $1
	`, id).Scan(&rest.ID, &rest.Name, &rest.CreatedAt)
	if err != nil {
		return model.Restaurant{}, notFound(err)
	}
	return rest, nil
}

func (r *Repository) ListBusinessHours(ctx context.Context, restaurantID string) ([]model.BusinessHours, error) {
	if !validID(restaurantID) {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT restaurant_id::text, weekday, is_open, open_minute, close_minute
		FROM restaurant_business_hours
		WHERE restaurant_id = $1
		ORDER BY array_position(ARRAY['monday','tuesday','wednesday','thursday','friday','saturday','sunday'], weekday)
	`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BusinessHours
	for rows.Next() {
		bh, err := scanHours(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, bh)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) UpsertBusinessHours(ctx context.Context, bh model.BusinessHours) error {
	if !validID(bh.RestaurantID) {
		return model.ErrNotFound
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO restaurant_business_hours (restaurant_id, weekday, is_open, open_minute, close_minute)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (restaurant_id, weekday) DO UPDATE
		SET is_open = EXCLUDED.is_open,
			open_minute = EXCLUDED.open_minute,
			close_minute = EXCLUDED.close_minute,
			updated_at = now()
	`, bh.RestaurantID, string(bh.Weekday), bh.IsOpen, bh.OpenMinute, bh.CloseMinute)
	return notFound(err)
}

func (r *Repository) GetBusinessHours(ctx context.Context, restaurantID string, day model.Weekday) (model.BusinessHours, error) {
	return getBusinessHours(ctx, r.pool, restaurantID, day)
}

// AddTable numbers the new table one past the restaurant's current count.
// The restaurant row is locked so concurrent adds cannot share a number.
func (r *Repository) AddTable(ctx context.Context, restaurantID string, capacity int) (model.Table, error) {
	if !validID(restaurantID) {
		return model.Table{}, model.ErrNotFound
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Table{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked string
	if err := tx.QueryRow(ctx, `SELECT id::text FROM restaurants WHERE id = $1 FOR UPDATE`, restaurantID).Scan(&locked); err != nil {
		return model.Table{}, notFound(err)
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM restaurant_tables WHERE restaurant_id = $1`, restaurantID).Scan(&count); err != nil {
		return model.Table{}, err
	}

	t := model.Table{
		ID:           uuid.NewString(),
		RestaurantID: restaurantID,
		TableNumber:  count + 1,
		Capacity:     capacity,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO restaurant_tables (id, restaurant_id, table_number, capacity)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, t.ID, t.RestaurantID, t.TableNumber, t.Capacity).Scan(&t.CreatedAt)
	if err != nil {
		return model.Table{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Table{}, err
	}
	return t, nil
}

func (r *Repository) ListTables(ctx context.Context, restaurantID string) ([]model.Table, error) {
	if !validID(restaurantID) {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, restaurant_id::text, table_number, capacity, created_at
		FROM restaurant_tables
		WHERE restaurant_id = $1
		ORDER BY table_number ASC
	`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Table
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.ID, &t.RestaurantID, &t.TableNumber, &t.Capacity, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) GetTable(ctx context.Context, tableID string) (model.Table, error) {
	return getTable(ctx, r.pool, tableID, false)
}

func (r *Repository) ListReservationsOverlapping(ctx context.Context, tableID string, date time.Time, start, end int) ([]model.Reservation, error) {
	return listReservationsOverlapping(ctx, r.pool, tableID, date, start, end)
}

func (r *Repository) ListReservationsOnDate(ctx context.Context, tableID string, date time.Time) ([]model.Reservation, error) {
	return listReservationsOnDate(ctx, r.pool, tableID, date)
}

// ListReservations lists a restaurant's reservations, optionally for one date.
func (r *Repository) ListReservations(ctx context.Context, restaurantID string, date *time.Time) ([]model.Reservation, error) {
	if !validID(restaurantID) {
		return nil, nil
	}
	return queryReservations(ctx, r.pool, `
		WHERE restaurant_id = $1
			AND ($2::date IS NULL OR reservation_date = $2::date)
		ORDER BY reservation_date ASC, start_minute ASC
	`, restaurantID, date)
}
