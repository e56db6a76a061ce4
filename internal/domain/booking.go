package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID              uuid.UUID
	MovieID         uuid.UUID
	MovieTitle      string
	MoviePosterUrl  string
	TheaterID       uuid.UUID
	TheaterName     string
	ShowDate        string
	ShowTime        string
	Seats           []string
	Price           decimal.Decimal
	Total           decimal.Decimal
	Status          BookingStatus
	PaymentIntentID *string
	CreatedAt       time.Time
}

// Showing returns the screening instance the booking occupies seats in.
func (b *Booking) Showing() Showing {
	return Showing{
		MovieID:   b.MovieID,
		TheaterID: b.TheaterID,
		Date:      b.ShowDate,
		TimeLabel: b.ShowTime,
	}
}

// CancelableAt reports whether the booking may still be cancelled at the
// given moment. A booking stays cancelable until two hours before the
// showtime starts.
func (b *Booking) CancelableAt(now time.Time, loc *time.Location) (bool, error) {
	if b.Status == BookingStatusCancelled {
		return false, nil
	}

	start, err := b.Showing().StartAt(loc)
	if err != nil {
		return false, err
	}

	return start.Sub(now) > CancellationWindow, nil
}

type BookingRepository interface {
	// Create persists the booking together with one occupancy-ledger row per
	// seat. It returns ErrSeatAlreadyReserved when any seat is already taken
	// for the same showing; the check and the insert are a single atomic
	// operation.
	Create(ctx context.Context, booking *Booking) error

	GetAll(ctx context.Context) ([]*Booking, error)
	GetById(ctx context.Context, id uuid.UUID) (*Booking, error)

	// Cancel marks the booking cancelled and releases its seats from the
	// occupancy ledger.
	Cancel(ctx context.Context, id uuid.UUID) (*Booking, error)

	// GetOccupiedSeats returns the seat labels claimed by non-cancelled
	// bookings for the showing.
	GetOccupiedSeats(ctx context.Context, showing Showing) ([]string, error)

	// SeatCountsByTime returns, per showtime label, how many seats are taken
	// across all non-cancelled bookings of the movie.
	SeatCountsByTime(ctx context.Context, movieID uuid.UUID) (map[string]int, error)

	HasActiveByMovie(ctx context.Context, movieID uuid.UUID) (bool, error)
}
