package model

import "time"

// Weekday is the lowercase English day name used as the business-hours key.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists every weekday, Monday first.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var byTimeWeekday = [...]Weekday{
	time.Sunday:    Sunday,
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
}

// WeekdayOf returns the weekday of a calendar date. time.Time uses the
// proleptic Gregorian calendar, so any year is handled.
func WeekdayOf(date time.Time) Weekday {
	return byTimeWeekday[date.Weekday()]
}

func ParseWeekday(s string) (Weekday, bool) {
	for _, d := range Weekdays {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// BusinessHours holds one weekday of a restaurant's schedule. Open and close
// are minutes since midnight; when IsOpen is false both are zero.
type BusinessHours struct {
	RestaurantID string
	Weekday      Weekday
	IsOpen       bool
	OpenMinute   int
	CloseMinute  int
}
