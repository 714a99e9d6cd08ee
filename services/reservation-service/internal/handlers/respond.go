package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/tablereserve/libs/httpx"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/availability"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
)

var (
	clockPattern    = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	endClockPattern = regexp.MustCompile(`^(([01]\d|2[0-3]):[0-5]\d|24:00)$`)
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an availability outcome to an HTTP status. conflict is used
// for capacity rejections on writes.
func statusFor(kind availability.Kind, conflict bool) int {
	switch kind {
	case availability.KindNotFound:
		return http.StatusNotFound
	case availability.KindCapacityExceeded:
		if conflict {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

// writeError renders business rejections with their message and hides
// infrastructure failures behind fallback.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string, conflict bool) {
	var rejected *availability.Error
	if errors.As(err, &rejected) {
		http.Error(w, rejected.Error(), statusFor(rejected.Kind, conflict))
		return
	}
	if errors.Is(err, model.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	h.logger.ErrorContext(r.Context(), fallback,
		"request_id", httpx.RequestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"err", err,
	)
	http.Error(w, fallback, http.StatusInternalServerError)
}

func parseClock(s string) (int, bool) {
	if !clockPattern.MatchString(s) {
		return 0, false
	}
	m, err := availability.ParseClock(s)
	return m, err == nil
}

func parseEndClock(s string) (int, bool) {
	if !endClockPattern.MatchString(s) {
		return 0, false
	}
	m, err := availability.ParseClock(s)
	return m, err == nil
}

func parseDate(s string) (time.Time, bool) {
	d, err := model.ParseDate(strings.TrimSpace(s))
	return d, err == nil
}

func queryInt(r *http.Request, key string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	return n, err == nil
}

func validDuration(d int) bool {
	return d >= 1 && d <= availability.MinutesPerDay
}
