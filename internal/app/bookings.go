package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/cinetix/movie-ticket-booking/api"
	"github.com/cinetix/movie-ticket-booking/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var nonNumericRgx = regexp.MustCompile(`[^\d.]`)

func (app *Application) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var input api.CreateBookingRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	movieID := uuid.MustParse(input.Movie)

	movie, err := app.movieRepo.GetById(r.Context(), movieID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponseWithErr(w, r, fmt.Errorf("movie not found"))
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	showtime, ok := movie.ShowtimeByLabel(input.Time)
	if !ok {
		app.badRequestResponse(w, r, domain.ErrShowtimeNotFound)
		return
	}

	// The stored showtime price is the only price authority. A client-declared
	// price is parsed solely to notice drift between what the UI displayed
	// and what will be charged.
	price := showtime.Price
	if clientPrice, ok := parseClientPrice(string(input.Price)); ok && !clientPrice.Equal(price) {
		app.logger.Warn("client-declared price differs from showtime price",
			"movie_id", movieID, "time", input.Time,
			"client_price", clientPrice, "showtime_price", price)
	}

	total := price.Mul(decimal.NewFromInt(int64(len(input.Seats))))

	if price.IsZero() || total.IsZero() {
		app.badRequestResponse(w, r, fmt.Errorf("invalid price or total, please try again"))
		return
	}

	theater, err := app.theaterRepo.GetOrCreateByName(r.Context(), input.Theater)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	showing := domain.Showing{
		MovieID:   movieID,
		TheaterID: theater.ID,
		Date:      input.Date,
		TimeLabel: input.Time,
	}

	sessionID := app.sessionManager.Token(r.Context())

	err = app.checkSeatHolds(r.Context(), showing, input.Seats, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSeatHeldElsewhere) {
			app.metrics.seatConflicts.Add(r.Context(), 1)
			app.editConflictResponseWithErr(w, r, err)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	booking := &domain.Booking{
		MovieID:        movieID,
		MovieTitle:     movie.Title,
		MoviePosterUrl: movie.PosterUrl,
		TheaterID:      theater.ID,
		TheaterName:    theater.Name,
		ShowDate:       input.Date,
		ShowTime:       input.Time,
		Seats:          input.Seats,
		Price:          price,
		Total:          total,
		Status:         domain.BookingStatusConfirmed,
	}

	if input.PaymentIntentId != "" {
		err = app.verifyPayment(r.Context(), input.PaymentIntentId, total)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}

		booking.PaymentIntentID = &input.PaymentIntentId
	}

	err = app.bookingRepo.Create(r.Context(), booking)
	if err != nil {
		if errors.Is(err, domain.ErrSeatAlreadyReserved) {
			app.metrics.seatConflicts.Add(r.Context(), 1)
			app.editConflictResponseWithErr(w, r, err)
			return
		}

		if errors.Is(err, domain.ErrPaymentAlreadyUsed) {
			app.editConflictResponseWithErr(w, r, err)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	app.metrics.bookingsAdmitted.Add(r.Context(), 1)
	app.releaseSeatHolds(r.Context(), showing, input.Seats)

	if input.Email != "" {
		app.sendBookingConfirmation(input.Email, booking)
	}

	err = app.writeJSON(w, http.StatusCreated, toBookingResponse(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := app.bookingRepo.GetAll(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	responses := make([]api.BookingResponse, len(bookings))
	for i, booking := range bookings {
		responses[i] = toBookingResponse(booking)
	}

	err = app.writeJSON(w, http.StatusOK, responses, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		app.notFoundResponseWithErr(w, r, fmt.Errorf("booking not found"))
		return
	}

	booking, err := app.bookingRepo.GetById(r.Context(), bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponseWithErr(w, r, fmt.Errorf("booking not found"))
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	// Cancelling twice is a no-op, not an error.
	if booking.Status == domain.BookingStatusCancelled {
		app.writeJSON(w, http.StatusOK, toBookingResponse(booking), nil)
		return
	}

	cancelable, err := booking.CancelableAt(time.Now(), app.location)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if !cancelable {
		app.editConflictResponseWithErr(w, r, domain.ErrCancellationClosed)
		return
	}

	booking, err = app.bookingRepo.Cancel(r.Context(), bookingID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if booking.PaymentIntentID != nil {
		err = app.paymentRepo.UpdateStatus(r.Context(), *booking.PaymentIntentID, domain.PaymentStatusRefunded, "")
		if err != nil {
			app.logger.Error("failed to mark payment refunded",
				"booking_id", booking.ID, "error", err)
		}
	}

	err = app.writeJSON(w, http.StatusOK, toBookingResponse(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// verifyPayment admits a booking against its payment: the processor must have
// confirmed the charge and the captured amount must equal the authoritative
// total.
func (app *Application) verifyPayment(ctx context.Context, intentID string, total decimal.Decimal) error {
	payment, err := app.paymentRepo.GetByIntentID(ctx, intentID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return fmt.Errorf("unknown payment intent")
		}

		return err
	}

	if payment.Status != domain.PaymentStatusCompleted {
		return domain.ErrPaymentNotCompleted
	}

	if !payment.Amount.Equal(total) {
		return domain.ErrPaymentAmountWrong
	}

	return nil
}

func (app *Application) sendBookingConfirmation(email string, booking *domain.Booking) {
	data := map[string]any{
		"BookingID":  booking.ID.String(),
		"MovieTitle": booking.MovieTitle,
		"Theater":    booking.TheaterName,
		"Date":       booking.ShowDate,
		"Time":       booking.ShowTime,
		"Seats":      booking.Seats,
		"Total":      booking.Total,
	}

	app.background(func() {
		err := app.mailer.Send(email, "booking_confirmation.tmpl", data)
		if err != nil {
			app.logger.Error("failed to send booking confirmation",
				"booking_id", booking.ID, "error", err)
		}
	})
}

// parseClientPrice coerces a client-declared price string, stripping currency
// symbols and separators. It reports false for anything unusable.
func parseClientPrice(raw string) (decimal.Decimal, bool) {
	if raw == "" {
		return decimal.Zero, false
	}

	cleaned := nonNumericRgx.ReplaceAllString(raw, "")
	if cleaned == "" {
		return decimal.Zero, false
	}

	price, err := decimal.NewFromString(cleaned)
	if err != nil || price.IsZero() {
		return decimal.Zero, false
	}

	return price, true
}

func toBookingResponse(booking *domain.Booking) api.BookingResponse {
	return api.BookingResponse{
		Id: booking.ID.String(),
		Movie: api.MovieRef{
			Id:     booking.MovieID.String(),
			Title:  booking.MovieTitle,
			Poster: booking.MoviePosterUrl,
		},
		Theater:   booking.TheaterName,
		Date:      booking.ShowDate,
		Time:      booking.ShowTime,
		Seats:     booking.Seats,
		Price:     booking.Price,
		Total:     booking.Total,
		Status:    string(booking.Status),
		CreatedAt: booking.CreatedAt,
	}
}
