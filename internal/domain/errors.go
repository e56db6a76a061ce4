package domain

import "errors"

var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrSeatAlreadyReserved = errors.New("one or more seats are already occupied")
	ErrSeatHeldElsewhere   = errors.New("one or more seats are held by another customer")
	ErrShowtimeNotFound    = errors.New("no showtime matches the requested time")
	ErrMovieHasBookings    = errors.New("movie has active bookings")
	ErrCancellationClosed  = errors.New("booking can no longer be cancelled")
	ErrPaymentNotCompleted = errors.New("payment has not completed")
	ErrPaymentAmountWrong  = errors.New("payment amount does not match booking total")
	ErrPaymentAlreadyUsed  = errors.New("payment is already attached to another booking")
)
