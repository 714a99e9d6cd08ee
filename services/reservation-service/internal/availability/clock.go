package availability

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the exclusive end-of-day marker; it renders as "24:00".
const MinutesPerDay = 24 * 60

// ParseClock converts "HH:MM" into minutes since midnight. Only the shape is
// checked (1-2 digit hour, 2 digit minute); range checks belong to callers.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 || !digits(hh) || !digits(mm) {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as zero padded "HH:MM".
// 1440 stays "24:00" instead of wrapping to "00:00".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
