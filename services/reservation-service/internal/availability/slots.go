package availability

// SlotResult is one grid slot annotated with the seats it still has.
type SlotResult struct {
	Interval
	AvailableSeats int
	CanFitParty    bool
}

// GenerateSlots tiles [open, close) with contiguous slots of exactly duration
// minutes. A trailing remainder shorter than duration is dropped.
func GenerateSlots(open, close, duration int) []Interval {
	if duration <= 0 || close <= open {
		return nil
	}
	slots := make([]Interval, 0, (close-open)/duration)
	for t := open; t+duration <= close; t += duration {
		slots = append(slots, Interval{Start: t, End: t + duration})
	}
	return slots
}

// EvaluateSlots computes the free seats of every slot against booked.
func EvaluateSlots(slots []Interval, booked []Interval, capacity, partySize int) []SlotResult {
	out := make([]SlotResult, 0, len(slots))
	for _, s := range slots {
		seats := SeatsAvailableDuring(s, booked, capacity)
		out = append(out, SlotResult{
			Interval:       Interval{Start: s.Start, End: s.End, SeatsLeft: seats},
			AvailableSeats: seats,
			CanFitParty:    seats >= partySize,
		})
	}
	return out
}

func fitting(results []SlotResult) []SlotResult {
	out := make([]SlotResult, 0, len(results))
	for _, r := range results {
		if r.CanFitParty {
			out = append(out, r)
		}
	}
	return out
}
