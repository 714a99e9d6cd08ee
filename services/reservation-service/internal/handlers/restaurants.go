package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/availability"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
)

type businessHoursItem struct {
	Weekday   string `json:"weekday"`
	IsOpen    bool   `json:"is_open"`
	OpenTime  string `json:"open_time,omitempty"`
	CloseTime string `json:"close_time,omitempty"`
}

type createRestaurantRequest struct {
	Name          string              `json:"name"`
	BusinessHours []businessHoursItem `json:"business_hours"`
}

type restaurantItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type restaurantDetail struct {
	restaurantItem
	BusinessHours []businessHoursItem `json:"business_hours"`
	Tables        []tableItem         `json:"tables"`
}

func toRestaurantItem(r model.Restaurant) restaurantItem {
	return restaurantItem{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339)}
}

func toHoursItem(bh model.BusinessHours) businessHoursItem {
	item := businessHoursItem{Weekday: string(bh.Weekday), IsOpen: bh.IsOpen}
	if bh.IsOpen {
		item.OpenTime = availability.FormatClock(bh.OpenMinute)
		item.CloseTime = availability.FormatClock(bh.CloseMinute)
	}
	return item
}

// parseHours validates one weekday entry. Closed days ignore their times.
func parseHours(item businessHoursItem) (model.BusinessHours, error) {
	day, ok := model.ParseWeekday(strings.ToLower(strings.TrimSpace(item.Weekday)))
	if !ok {
		return model.BusinessHours{}, errors.New("weekday must be a valid day of the week")
	}
	bh := model.BusinessHours{Weekday: day, IsOpen: item.IsOpen}
	if !item.IsOpen {
		return bh, nil
	}
	open, ok := parseClock(item.OpenTime)
	if !ok {
		return model.BusinessHours{}, errors.New("open_time must be in HH:MM format (e.g., 09:00, 23:30)")
	}
	closeAt, ok := parseEndClock(item.CloseTime)
	if !ok {
		return model.BusinessHours{}, errors.New("close_time must be in HH:MM format (e.g., 09:00, 23:30)")
	}
	if open >= closeAt {
		return model.BusinessHours{}, errors.New("open_time must be before close_time")
	}
	bh.OpenMinute, bh.CloseMinute = open, closeAt
	return bh, nil
}

// Restaurants handles POST (create) and GET (list) on the collection.
func (h *Handler) Restaurants(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createRestaurant(w, r)
	case http.MethodGet:
		h.listRestaurants(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) createRestaurant(w http.ResponseWriter, r *http.Request) {
	var req createRestaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > 255 {
		http.Error(w, "name must be between 1 and 255 characters", http.StatusBadRequest)
		return
	}
	if len(req.BusinessHours) != len(model.Weekdays) {
		http.Error(w, "business_hours must include exactly 7 days", http.StatusBadRequest)
		return
	}

	hours := make([]model.BusinessHours, 0, len(req.BusinessHours))
	seen := make(map[model.Weekday]bool, len(req.BusinessHours))
	for _, item := range req.BusinessHours {
		bh, err := parseHours(item)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if seen[bh.Weekday] {
			http.Error(w, "business_hours must have unique days (no duplicates)", http.StatusBadRequest)
			return
		}
		seen[bh.Weekday] = true
		hours = append(hours, bh)
	}

	rest, err := h.dir.CreateRestaurant(r.Context(), req.Name, hours)
	if err != nil {
		h.writeError(w, r, err, "failed to create restaurant", false)
		return
	}
	writeJSON(w, http.StatusCreated, toRestaurantItem(rest))
}

func (h *Handler) listRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.dir.ListRestaurants(r.Context())
	if err != nil {
		h.writeError(w, r, err, "failed to list restaurants", false)
		return
	}
	items := make([]restaurantItem, 0, len(restaurants))
	for _, rest := range restaurants {
		items = append(items, toRestaurantItem(rest))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) RestaurantDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("restaurant_id"))
	if id == "" {
		http.Error(w, "restaurant_id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	rest, err := h.dir.GetRestaurant(ctx, id)
	if err != nil {
		h.writeError(w, r, err, "failed to load restaurant", false)
		return
	}
	hours, err := h.dir.ListBusinessHours(ctx, id)
	if err != nil {
		h.writeError(w, r, err, "failed to load business hours", false)
		return
	}
	tables, err := h.dir.ListTables(ctx, id)
	if err != nil {
		h.writeError(w, r, err, "failed to load tables", false)
		return
	}

	detail := restaurantDetail{
		restaurantItem: toRestaurantItem(rest),
		BusinessHours:  make([]businessHoursItem, 0, len(hours)),
		Tables:         make([]tableItem, 0, len(tables)),
	}
	for _, bh := range hours {
		detail.BusinessHours = append(detail.BusinessHours, toHoursItem(bh))
	}
	for _, t := range tables {
		detail.Tables = append(detail.Tables, toTableItem(t))
	}
	writeJSON(w, http.StatusOK, detail)
}

// UpsertBusinessHours replaces one weekday of a restaurant's schedule.
func (h *Handler) UpsertBusinessHours(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("restaurant_id"))
	if id == "" {
		http.Error(w, "restaurant_id is required", http.StatusBadRequest)
		return
	}
	var item businessHoursItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	bh, err := parseHours(item)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	bh.RestaurantID = id

	ctx := r.Context()
	if err := h.dir.UpsertBusinessHours(ctx, bh); err != nil {
		h.writeError(w, r, err, "failed to update business hours", false)
		return
	}
	if h.hours != nil {
		if err := h.hours.Invalidate(ctx, id); err != nil {
			h.logger.WarnContext(ctx, "hours cache invalidation failed", "restaurant_id", id, "err", err)
		}
	}
	writeJSON(w, http.StatusOK, toHoursItem(bh))
}

// requireRestaurant answers 404 "Invalid restaurant ID" for unknown ids and
// reports whether the caller may continue.
func (h *Handler) requireRestaurant(w http.ResponseWriter, r *http.Request, id string) bool {
	if _, err := h.dir.GetRestaurant(r.Context(), id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			http.Error(w, "Invalid restaurant ID", http.StatusNotFound)
			return false
		}
		h.writeError(w, r, err, "failed to load restaurant", false)
		return false
	}
	return true
}
