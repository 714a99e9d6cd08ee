package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/tablereserve/libs/httpx"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/availability"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/booking"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
)

// Directory is the restaurant, table and reservation bookkeeping behind the API.
type Directory interface {
	CreateRestaurant(ctx context.Context, name string, hours []model.BusinessHours) (model.Restaurant, error)
	ListRestaurants(ctx context.Context) ([]model.Restaurant, error)
	GetRestaurant(ctx context.Context, id string) (model.Restaurant, error)
	ListBusinessHours(ctx context.Context, restaurantID string) ([]model.BusinessHours, error)
	UpsertBusinessHours(ctx context.Context, bh model.BusinessHours) error
	AddTable(ctx context.Context, restaurantID string, capacity int) (model.Table, error)
	ListTables(ctx context.Context, restaurantID string) ([]model.Table, error)
	ListReservations(ctx context.Context, restaurantID string, date *time.Time) ([]model.Reservation, error)
}

// HoursInvalidator drops cached business hours after a write.
type HoursInvalidator interface {
	Invalidate(ctx context.Context, restaurantID string) error
}

type Handler struct {
	dir     Directory
	engine  *availability.Engine
	booking *booking.Service
	hours   HoursInvalidator
	logger  *slog.Logger
}

func New(dir Directory, engine *availability.Engine, bookingSvc *booking.Service, hours HoursInvalidator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{dir: dir, engine: engine, booking: bookingSvc, hours: hours, logger: logger}
}

// Register mounts every route on mux. public wraps the endpoints guests hit
// directly (availability, slots, reservations); it may be nil.
func (h *Handler) Register(mux *http.ServeMux, public httpx.Middleware) {
	guard := func(f http.HandlerFunc) http.Handler {
		return httpx.Chain(f, public)
	}
	mux.HandleFunc("/api/v1/restaurants", h.Restaurants)
	mux.HandleFunc("/api/v1/restaurants/detail", h.RestaurantDetail)
	mux.HandleFunc("/api/v1/restaurants/business-hours", h.UpsertBusinessHours)
	mux.HandleFunc("/api/v1/tables", h.Tables)
	mux.Handle("/api/v1/tables/check-availability", guard(h.CheckAvailability))
	mux.Handle("/api/v1/tables/slots", guard(h.Slots))
	mux.Handle("/api/v1/reservations", guard(h.Reservations))
}
