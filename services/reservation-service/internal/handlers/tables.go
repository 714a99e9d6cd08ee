package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/availability"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
)

type tableItem struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	TableNumber  int    `json:"table_number"`
	Capacity     int    `json:"capacity"`
	CreatedAt    string `json:"created_at"`
}

func toTableItem(t model.Table) tableItem {
	return tableItem{
		ID:           t.ID,
		RestaurantID: t.RestaurantID,
		TableNumber:  t.TableNumber,
		Capacity:     t.Capacity,
		CreatedAt:    t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type addTableRequest struct {
	RestaurantID string `json:"restaurant_id"`
	Capacity     int    `json:"capacity"`
}

type checkAvailabilityRequest struct {
	TableID  string `json:"table_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Capacity int    `json:"capacity"`
	Duration int    `json:"duration"`
}

type slotItem struct {
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	AvailableSeats int    `json:"available_seats"`
	CanFitParty    bool   `json:"can_fit_party"`
}

type bookedItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	SeatsLeft int    `json:"seats_left"`
}

type checkAvailabilityResponse struct {
	Available       bool         `json:"available"`
	AvailableSeats  int          `json:"available_seats"`
	TimeSlot        string       `json:"time_slot"`
	Message         string       `json:"message,omitempty"`
	OpenTimeSlots   []slotItem   `json:"open_time_slots"`
	BookedIntervals []bookedItem `json:"booked_intervals"`
}

type slotsResponse struct {
	TableID         string       `json:"table_id"`
	Date            string       `json:"date"`
	Weekday         string       `json:"weekday"`
	OpenTime        string       `json:"open_time"`
	CloseTime       string       `json:"close_time"`
	Slots           []slotItem   `json:"slots"`
	BookedIntervals []bookedItem `json:"booked_intervals"`
}

func toSlotItems(slots []availability.SlotResult) []slotItem {
	out := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotItem{
			StartTime:      availability.FormatClock(s.Start),
			EndTime:        availability.FormatClock(s.End),
			AvailableSeats: s.AvailableSeats,
			CanFitParty:    s.CanFitParty,
		})
	}
	return out
}

func toBookedItems(intervals []availability.Interval) []bookedItem {
	out := make([]bookedItem, 0, len(intervals))
	for _, iv := range intervals {
		out = append(out, bookedItem{
			StartTime: availability.FormatClock(iv.Start),
			EndTime:   availability.FormatClock(iv.End),
			SeatsLeft: iv.SeatsLeft,
		})
	}
	return out
}

// Tables handles POST (add) and GET (list by restaurant_id).
func (h *Handler) Tables(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.addTable(w, r)
	case http.MethodGet:
		h.listTables(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) addTable(w http.ResponseWriter, r *http.Request) {
	var req addTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.RestaurantID = strings.TrimSpace(req.RestaurantID)
	if req.RestaurantID == "" {
		http.Error(w, "restaurant_id is required", http.StatusBadRequest)
		return
	}
	if req.Capacity < 1 {
		http.Error(w, "capacity must be at least 1", http.StatusBadRequest)
		return
	}

	t, err := h.dir.AddTable(r.Context(), req.RestaurantID, req.Capacity)
	if err != nil {
		h.writeError(w, r, err, "failed to add table", false)
		return
	}
	writeJSON(w, http.StatusCreated, toTableItem(t))
}

func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("restaurant_id"))
	if id == "" {
		http.Error(w, "restaurant_id is required", http.StatusBadRequest)
		return
	}
	if !h.requireRestaurant(w, r, id) {
		return
	}
	tables, err := h.dir.ListTables(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "failed to list tables", false)
		return
	}
	items := make([]tableItem, 0, len(tables))
	for _, t := range tables {
		items = append(items, toTableItem(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req checkAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.TableID = strings.TrimSpace(req.TableID)
	if req.TableID == "" {
		http.Error(w, "table_id is required", http.StatusBadRequest)
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		http.Error(w, "date must be in YYYY-MM-DD format", http.StatusBadRequest)
		return
	}
	start, ok := parseClock(req.Time)
	if !ok {
		http.Error(w, "time must be in HH:MM format (e.g., 09:00, 23:30)", http.StatusBadRequest)
		return
	}
	if req.Capacity < 1 {
		http.Error(w, "capacity must be at least 1", http.StatusBadRequest)
		return
	}
	if !validDuration(req.Duration) {
		http.Error(w, "duration must be between 1 and 1440 minutes", http.StatusBadRequest)
		return
	}

	res, err := h.engine.CheckAvailability(r.Context(), availability.Request{
		TableID:     req.TableID,
		Date:        date,
		StartMinute: start,
		PartySize:   req.Capacity,
		Duration:    req.Duration,
	})
	if err != nil {
		h.writeError(w, r, err, "failed to check availability", false)
		return
	}
	writeJSON(w, http.StatusOK, checkAvailabilityResponse{
		Available:       res.Available,
		AvailableSeats:  res.AvailableSeats,
		TimeSlot:        res.TimeSlot,
		Message:         res.Message,
		OpenTimeSlots:   toSlotItems(res.OpenTimeSlots),
		BookedIntervals: toBookedItems(res.BookedIntervals),
	})
}

// Slots returns the whole day's grid for a table, including full slots.
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	tableID := strings.TrimSpace(q.Get("table_id"))
	if tableID == "" {
		http.Error(w, "table_id is required", http.StatusBadRequest)
		return
	}
	date, ok := parseDate(q.Get("date"))
	if !ok {
		http.Error(w, "date must be in YYYY-MM-DD format", http.StatusBadRequest)
		return
	}
	party, ok := queryInt(r, "party_size")
	if !ok || party < 1 {
		http.Error(w, "party_size must be at least 1", http.StatusBadRequest)
		return
	}
	duration, ok := queryInt(r, "duration")
	if !ok || !validDuration(duration) {
		http.Error(w, "duration must be between 1 and 1440 minutes", http.StatusBadRequest)
		return
	}

	view, err := h.engine.DaySlots(r.Context(), tableID, date, party, duration)
	if err != nil {
		h.writeError(w, r, err, "failed to list slots", false)
		return
	}
	writeJSON(w, http.StatusOK, slotsResponse{
		TableID:         view.Table.ID,
		Date:            date.Format(model.DateLayout),
		Weekday:         string(view.Weekday),
		OpenTime:        availability.FormatClock(view.OpenMinute),
		CloseTime:       availability.FormatClock(view.CloseMinute),
		Slots:           toSlotItems(view.Slots),
		BookedIntervals: toBookedItems(view.BookedIntervals),
	})
}
