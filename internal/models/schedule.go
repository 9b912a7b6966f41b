package models

import "time"

// RestDay is the routine name used for days without a planned routine.
const RestDay = "Rest Day"

// DateLayout is the on-disk and wire format for calendar days.
const DateLayout = "2006-01-02"

// ScheduleDay is the plan for one calendar day.
type ScheduleDay struct {
	Date     time.Time `json:"date"`
	Throwing string    `json:"throwing"`
	Lifting  string    `json:"lifting"`
	Notes    string    `json:"notes,omitempty"`
}

// NewRestDay returns an unplanned day.
func NewRestDay(date time.Time) ScheduleDay {
	return ScheduleDay{Date: Day(date), Throwing: RestDay, Lifting: RestDay}
}

// IsRest reports whether a routine slot holds no planned routine.
func IsRest(name string) bool {
	return name == "" || name == RestDay
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
