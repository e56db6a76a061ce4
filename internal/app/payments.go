package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cinetix/movie-ticket-booking/api"
	"github.com/cinetix/movie-ticket-booking/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// seatHoldTTL bounds how long a checkout may keep seats off the market while
// the customer completes payment.
const seatHoldTTL = 10 * time.Minute

var holdSeatsScript = redis.NewScript(`
    -- KEYS = seat hold keys
    -- ARGV = [sessionID, ttl]

    for i=1, #KEYS do
        if redis.call("EXISTS", KEYS[i]) == 1 then
            return {err = "seat already held"}
        end
    end

    for i=1, #KEYS do
        redis.call("SET", KEYS[i], ARGV[1], "EX", ARGV[2])
    end

    return "OK"
`)

func (app *Application) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var input api.CreatePaymentIntentRequest

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

	// The charge amount is a function of server-held state only: the stored
	// showtime price times the number of requested seats.
	if clientPrice, ok := parseClientPrice(string(input.Price)); ok && !clientPrice.Equal(showtime.Price) {
		app.logger.Warn("client-declared price differs from showtime price",
			"movie_id", movieID, "time", input.Time,
			"client_price", clientPrice, "showtime_price", showtime.Price)
	}

	total := showtime.Price.Mul(decimal.NewFromInt(int64(len(input.Seats))))
	if total.IsZero() {
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

	booked, err := app.bookingRepo.GetOccupiedSeats(r.Context(), showing)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	bookedSet := make(map[string]bool, len(booked))
	for _, seat := range booked {
		bookedSet[seat] = true
	}

	for _, seat := range input.Seats {
		if bookedSet[seat] {
			app.editConflictResponseWithErr(w, r, domain.ErrSeatAlreadyReserved)
			return
		}
	}

	sessionID := app.sessionManager.Token(r.Context())

	err = app.tryHoldSeats(r.Context(), showing, input.Seats, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSeatHeldElsewhere) {
			app.editConflictResponseWithErr(w, r, err)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	details := domain.CheckoutDetails{
		MovieTitle: movie.Title,
		Theater:    theater.Name,
		Date:       input.Date,
		TimeLabel:  input.Time,
		Seats:      input.Seats,
		Amount:     total,
		Currency:   app.config.Currency,
	}

	intent, err := app.paymentProvider.CreatePaymentIntent(sessionID, details)
	if err != nil {
		app.releaseSeatHolds(r.Context(), showing, input.Seats)
		app.serverErrorResponse(w, r, err)
		return
	}

	paymentRec := &domain.Payment{
		PaymentIntentID: intent.ID,
		Amount:          total,
		Currency:        app.config.Currency,
		Status:          domain.PaymentStatusPending,
	}

	err = app.paymentRepo.Create(r.Context(), paymentRec)
	if err != nil {
		app.releaseSeatHolds(r.Context(), showing, input.Seats)
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.PaymentIntentResponse{
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
		Currency:     string(intent.Currency),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 65536))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), app.config.Stripe.WebhookSecret)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("webhook signature verification failed"))
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}

		err = app.reconcilePayment(r.Context(), &intent)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}

		errMsg := "payment failed"
		if intent.LastPaymentError != nil {
			errMsg = intent.LastPaymentError.Msg
		}

		err = app.paymentRepo.UpdateStatus(r.Context(), intent.ID, domain.PaymentStatusFailed, errMsg)
		if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
			app.serverErrorResponse(w, r, err)
			return
		}

	default:
		app.logger.Info("ignoring webhook event", "type", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}

// reconcilePayment marks a payment completed only when the captured amount
// matches what was quoted when the intent was created.
func (app *Application) reconcilePayment(ctx context.Context, intent *stripe.PaymentIntent) error {
	payment, err := app.paymentRepo.GetByIntentID(ctx, intent.ID)
	if err != nil {
		// An intent this service never issued is not worth having the
		// processor retry the delivery.
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.logger.Warn("ignoring webhook for unknown payment intent", "intent_id", intent.ID)
			return nil
		}

		return err
	}

	expectedMinor := payment.Amount.Mul(decimal.NewFromInt(100)).IntPart()

	if intent.AmountReceived != expectedMinor {
		msg := fmt.Sprintf("captured amount %d does not match expected %d", intent.AmountReceived, expectedMinor)
		return app.paymentRepo.UpdateStatus(ctx, intent.ID, domain.PaymentStatusFailed, msg)
	}

	return app.paymentRepo.UpdateStatus(ctx, intent.ID, domain.PaymentStatusCompleted, "")
}

// tryHoldSeats atomically claims every requested seat for the session, or
// none of them.
func (app *Application) tryHoldSeats(
	ctx context.Context,
	showing domain.Showing,
	seats []string,
	sessionID string) error {

	keys := make([]string, len(seats))
	for i, seat := range seats {
		keys[i] = seatHoldKey(showing, seat)
	}

	err := holdSeatsScript.Run(ctx, app.redis, keys, sessionID, int(seatHoldTTL.Seconds())).Err()
	if err != nil {
		if err.Error() == "seat already held" {
			return domain.ErrSeatHeldElsewhere
		}

		return fmt.Errorf("failed to hold seats: %w", err)
	}

	pipe := app.redis.TxPipeline()
	pipe.SAdd(ctx, seatHoldSetKey(showing), toMembers(seats)...)
	pipe.Expire(ctx, seatHoldSetKey(showing), seatHoldTTL)

	_, err = pipe.Exec(ctx)
	if err != nil {
		app.releaseSeatHolds(ctx, showing, seats)
		return fmt.Errorf("failed to track seat holds: %w", err)
	}

	return nil
}

// checkSeatHolds rejects seats currently held by a different session. The
// caller's own holds are fine: the booking is the hold being redeemed.
func (app *Application) checkSeatHolds(
	ctx context.Context,
	showing domain.Showing,
	seats []string,
	sessionID string) error {

	for _, seat := range seats {
		owner, err := app.redis.Get(ctx, seatHoldKey(showing, seat)).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}

			return fmt.Errorf("failed to check seat hold: %w", err)
		}

		if owner != sessionID {
			return domain.ErrSeatHeldElsewhere
		}
	}

	return nil
}

func (app *Application) releaseSeatHolds(ctx context.Context, showing domain.Showing, seats []string) {
	keys := make([]string, len(seats))
	for i, seat := range seats {
		keys[i] = seatHoldKey(showing, seat)
	}

	pipe := app.redis.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.SRem(ctx, seatHoldSetKey(showing), toMembers(seats)...)

	_, err := pipe.Exec(ctx)
	if err != nil {
		app.logger.Error("failed to release seat holds", "error", err)
	}
}

func toMembers(seats []string) []any {
	members := make([]any, len(seats))
	for i, seat := range seats {
		members[i] = seat
	}

	return members
}
