package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	ShowDateLayout  = "2006-01-02"
	TimeLabelLayout = "3:04 PM"

	// CancellationWindow is how long before the showtime start a booking may
	// still be cancelled.
	CancellationWindow = 2 * time.Hour
)

// Showing identifies one concrete screening instance: a showtime of a movie
// bound to a theater and a calendar date. Occupancy is keyed on this tuple.
type Showing struct {
	MovieID   uuid.UUID
	TheaterID uuid.UUID
	Date      string
	TimeLabel string
}

// StartAt resolves the showing's start as a point in time in the given
// location.
func (s Showing) StartAt(loc *time.Location) (time.Time, error) {
	return ShowtimeStart(s.Date, s.TimeLabel, loc)
}

// ShowtimeStart combines a booking date with a showtime clock label.
func ShowtimeStart(date, label string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(ShowDateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid show date %q: %w", date, err)
	}

	t, err := time.Parse(TimeLabelLayout, label)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time label %q: %w", label, err)
	}

	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
