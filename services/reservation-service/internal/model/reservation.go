package model

import "time"

// DateLayout is the ISO calendar date format used on every API.
const DateLayout = "2006-01-02"

type Reservation struct {
	ID           string
	RestaurantID string
	TableID      string
	Date         time.Time
	StartMinute  int
	EndMinute    int
	Duration     int
	PartySize    int
	CustomerName string
	Phone        string
	CreatedAt    time.Time
}

// ParseDate parses YYYY-MM-DD into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
