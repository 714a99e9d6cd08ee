package availability

import "github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"

// Interval is a half-open minute range [Start, End) on one table and day.
// SeatsLeft is what remained of the table after the booking it stands for.
type Interval struct {
	Start     int
	End       int
	SeatsLeft int
}

func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start < o.End && iv.End > o.Start
}

// String renders "HH:MM - HH:MM".
func (iv Interval) String() string {
	return FormatClock(iv.Start) + " - " + FormatClock(iv.End)
}

// BookedIntervals turns reservations into intervals for a table of capacity seats.
func BookedIntervals(reservations []model.Reservation, capacity int) []Interval {
	out := make([]Interval, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, Interval{
			Start:     r.StartMinute,
			End:       r.EndMinute,
			SeatsLeft: capacity - r.PartySize,
		})
	}
	return out
}

// MergeIntervals collapses intervals with an identical (Start, End) key: the
// first keeps its SeatsLeft and every later one subtracts its own. Partially
// overlapping intervals with different keys stay separate. Output keeps
// first-occurrence order.
func MergeIntervals(intervals []Interval) []Interval {
	type key struct{ start, end int }
	index := make(map[key]int, len(intervals))
	out := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		k := key{iv.Start, iv.End}
		if i, ok := index[k]; ok {
			out[i].SeatsLeft -= iv.SeatsLeft
			continue
		}
		index[k] = len(out)
		out = append(out, iv)
	}
	return out
}

// SeatsAvailableDuring returns the seats still free during candidate. Every
// booked interval overlapping candidate takes away the seats it consumed
// (capacity - SeatsLeft); only the final result is floored at zero.
func SeatsAvailableDuring(candidate Interval, booked []Interval, capacity int) int {
	seats := capacity
	for _, b := range booked {
		if candidate.Overlaps(b) {
			seats -= capacity - b.SeatsLeft
		}
	}
	if seats < 0 {
		return 0
	}
	return seats
}
