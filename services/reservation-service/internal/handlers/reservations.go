package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/availability"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/booking"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
)

type createReservationRequest struct {
	TableID      string `json:"table_id"`
	PartySize    int    `json:"party_size"`
	Duration     int    `json:"duration"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	Phone        string `json:"phone"`
	CustomerName string `json:"customer_name"`
}

type reservationItem struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	TableID      string `json:"table_id"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Duration     int    `json:"duration"`
	PartySize    int    `json:"party_size"`
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	CreatedAt    string `json:"created_at"`
}

func toReservationItem(r model.Reservation) reservationItem {
	return reservationItem{
		ID:           r.ID,
		RestaurantID: r.RestaurantID,
		TableID:      r.TableID,
		Date:         r.Date.Format(model.DateLayout),
		StartTime:    availability.FormatClock(r.StartMinute),
		EndTime:      availability.FormatClock(r.EndMinute),
		Duration:     r.Duration,
		PartySize:    r.PartySize,
		CustomerName: r.CustomerName,
		Phone:        r.Phone,
		CreatedAt:    r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Reservations handles POST (reserve) and GET (list by restaurant_id, optional date).
func (h *Handler) Reservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createReservation(w, r)
	case http.MethodGet:
		h.listReservations(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) createReservation(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.TableID = strings.TrimSpace(req.TableID)
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.Phone = strings.TrimSpace(req.Phone)

	if req.TableID == "" || req.CustomerName == "" || req.Phone == "" {
		http.Error(w, "table_id, customer_name and phone are required", http.StatusBadRequest)
		return
	}
	if req.PartySize < 1 {
		http.Error(w, "party_size must be at least 1", http.StatusBadRequest)
		return
	}
	if !validDuration(req.Duration) {
		http.Error(w, "duration must be between 1 and 1440 minutes", http.StatusBadRequest)
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		http.Error(w, "date must be in YYYY-MM-DD format", http.StatusBadRequest)
		return
	}
	start, ok := parseClock(req.StartTime)
	if !ok {
		http.Error(w, "start_time must be in HH:MM format (e.g., 09:00, 23:30)", http.StatusBadRequest)
		return
	}

	out, err := h.booking.Reserve(r.Context(), booking.Request{
		TableID:        req.TableID,
		Date:           date,
		StartMinute:    start,
		Duration:       req.Duration,
		PartySize:      req.PartySize,
		CustomerName:   req.CustomerName,
		Phone:          req.Phone,
		IdempotencyKey: strings.TrimSpace(r.Header.Get("Idempotency-Key")),
	})
	if err != nil {
		h.writeError(w, r, err, "failed to create reservation", true)
		return
	}
	if out.Replayed {
		w.Header().Set("Idempotent-Replayed", "true")
	}
	writeJSON(w, http.StatusCreated, toReservationItem(out.Reservation))
}

func (h *Handler) listReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	restaurantID := strings.TrimSpace(q.Get("restaurant_id"))
	if restaurantID == "" {
		http.Error(w, "restaurant_id is required", http.StatusBadRequest)
		return
	}
	if !h.requireRestaurant(w, r, restaurantID) {
		return
	}
	var date *time.Time
	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		d, ok := parseDate(raw)
		if !ok {
			http.Error(w, "date must be in YYYY-MM-DD format", http.StatusBadRequest)
			return
		}
		date = &d
	}

	reservations, err := h.dir.ListReservations(r.Context(), restaurantID, date)
	if err != nil {
		h.writeError(w, r, err, "failed to list reservations", false)
		return
	}
	items := make([]reservationItem, 0, len(reservations))
	for _, res := range reservations {
		items = append(items, toReservationItem(res))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
