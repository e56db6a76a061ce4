package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Movie struct {
	ID          uuid.UUID
	Title       string
	Description string
	PosterUrl   string
	BackdropUrl string
	Year        string
	Duration    string
	Genre       string
	Studio      string
	Rating      string
	TrailerUrl  string
	Showtimes   []Showtime
	IsActive    bool
	ScheduledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Showtime is one scheduled screening slot embedded in a movie. It carries a
// clock label rather than a full timestamp; the booking binds it to a date.
type Showtime struct {
	ID         uuid.UUID
	MovieID    uuid.UUID
	TimeLabel  string
	TotalSeats int
	Price      decimal.Decimal
}

const DefaultShowtimeSeats = 50

// VisibleAt reports whether the movie is publicly listed at the given moment:
// it is active, or its scheduled activation time has already elapsed.
func (m *Movie) VisibleAt(now time.Time) bool {
	if m.IsActive {
		return true
	}

	return m.ScheduledAt != nil && !m.ScheduledAt.After(now)
}

// ShowtimeByLabel finds the showtime whose label exactly equals the given
// time string. Labels are compared verbatim, so "7:00 PM" and "07:00 PM" are
// distinct slots.
func (m *Movie) ShowtimeByLabel(label string) (Showtime, bool) {
	for _, st := range m.Showtimes {
		if st.TimeLabel == label {
			return st, true
		}
	}

	return Showtime{}, false
}

type MovieRepository interface {
	GetAll(ctx context.Context) ([]*Movie, error)
	GetAllVisible(ctx context.Context, now time.Time) ([]*Movie, error)
	GetById(ctx context.Context, id uuid.UUID) (*Movie, error)
	Create(ctx context.Context, movie *Movie) error
	Update(ctx context.Context, movie *Movie) error
	UpdateStatus(ctx context.Context, id uuid.UUID, isActive bool, scheduledAt *time.Time) (*Movie, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
