package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
)

// HoursSource supplies one weekday of a restaurant's schedule.
// A missing row is reported as model.ErrNotFound.
type HoursSource interface {
	GetBusinessHours(ctx context.Context, restaurantID string, day model.Weekday) (model.BusinessHours, error)
}

// Window is a requested reservation window that fits the restaurant's hours.
type Window struct {
	Weekday     model.Weekday
	StartMinute int
	EndMinute   int
	OpenMinute  int
	CloseMinute int
}

func (w Window) Interval() Interval {
	return Interval{Start: w.StartMinute, End: w.EndMinute}
}

// ValidateWindow checks [start, start+duration) against the hours of the
// date's weekday. Failures are *Error values; store errors pass through.
func ValidateWindow(ctx context.Context, hours HoursSource, restaurantID string, date time.Time, start, duration int) (Window, error) {
	bh, err := openHours(ctx, hours, restaurantID, date)
	if err != nil {
		return Window{}, err
	}
	day := bh.Weekday

	end := start + duration
	if end > MinutesPerDay {
		return Window{}, newError(KindInvalidWindow, fmt.Sprintf("Invalid request duration. Requested end time is %s", FormatClock(end)))
	}
	if start < bh.OpenMinute || end > bh.CloseMinute {
		return Window{}, newError(KindOutsideHours, fmt.Sprintf(
			"Restaurant is closed during the requested time slot %s - %s. Operating hours are %s - %s",
			FormatClock(start), FormatClock(end), FormatClock(bh.OpenMinute), FormatClock(bh.CloseMinute),
		))
	}

	return Window{
		Weekday:     day,
		StartMinute: start,
		EndMinute:   end,
		OpenMinute:  bh.OpenMinute,
		CloseMinute: bh.CloseMinute,
	}, nil
}

// openHours fetches the hours of the date's weekday and fails unless the
// restaurant is open that day. Window validation and the slot grid both go
// through it.
func openHours(ctx context.Context, hours HoursSource, restaurantID string, date time.Time) (model.BusinessHours, error) {
	day := model.WeekdayOf(date)
	bh, err := hours.GetBusinessHours(ctx, restaurantID, day)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.BusinessHours{}, newError(KindNotFound, "Error fetching restaurant business hours")
		}
		return model.BusinessHours{}, fmt.Errorf("get business hours: %w", err)
	}
	if !bh.IsOpen {
		return model.BusinessHours{}, newError(KindClosed, fmt.Sprintf("Restaurant is closed on %s", day))
	}
	bh.Weekday = day
	return bh, nil
}
