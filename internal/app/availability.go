package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/cinetix/movie-ticket-booking/api"
	"github.com/cinetix/movie-ticket-booking/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis Lua script to clean up expired seat holds and return the seat labels
// still validly held for a showing.
var filterValidHeldSeats = redis.NewScript(`
	local setKey = KEYS[1]
	local holdPrefix = ARGV[1]
	local cursor = "0"
	local batchSize = 100
	local expiredSeats = {}
	local validSeats = {}

	repeat
		local result = redis.call("SSCAN", setKey, cursor, "COUNT", batchSize)
		cursor = result[1]
		local seats = result[2]

		for _, seat in ipairs(seats) do
			if redis.call("EXISTS", holdPrefix .. seat) == 0 then
				table.insert(expiredSeats, seat)
			else
				table.insert(validSeats, seat)
			end
		end
	until cursor == "0"

	if #expiredSeats > 0 then
		redis.call("SREM", setKey, unpack(expiredSeats))
	end

	return validSeats
`)

func showingKey(showing domain.Showing) string {
	return fmt.Sprintf("%s:%s:%s:%s", showing.MovieID, showing.TheaterID, showing.Date, showing.TimeLabel)
}

func seatHoldKey(showing domain.Showing, seat string) string {
	return "seat_hold:" + showingKey(showing) + ":" + seat
}

func seatHoldSetKey(showing domain.Showing) string {
	return "seat_holds:" + showingKey(showing)
}

func (app *Application) GetAvailability(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		movie   = query.Get("movie")
		theater = query.Get("theater")
		date    = query.Get("date")
		timeStr = query.Get("time")
	)

	resp := api.OccupancyResponse{
		Movie:   movie,
		Theater: theater,
		Date:    date,
		Time:    timeStr,
		Seats:   []string{},
	}

	// An incomplete selection is not an error: occupancy is simply empty
	// until the client has picked a full showing tuple.
	if movie == "" || theater == "" || date == "" || timeStr == "" {
		app.writeJSON(w, http.StatusOK, resp, nil)
		return
	}

	movieID, err := uuid.Parse(movie)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid movie ID"))
		return
	}

	theaterRec, err := app.theaterRepo.GetByName(r.Context(), theater)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			// No bookings can exist for a theater the store has never seen.
			app.writeJSON(w, http.StatusOK, resp, nil)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	showing := domain.Showing{
		MovieID:   movieID,
		TheaterID: theaterRec.ID,
		Date:      date,
		TimeLabel: timeStr,
	}

	seats, err := app.occupiedSeats(r.Context(), showing)
	if err != nil {
		// Unknown occupancy must read as unavailable, never as free seats.
		app.serverErrorResponse(w, r, err)
		return
	}

	resp.Seats = seats

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// occupiedSeats merges the persistent occupancy ledger with live seat holds.
func (app *Application) occupiedSeats(ctx context.Context, showing domain.Showing) ([]string, error) {
	booked, err := app.bookingRepo.GetOccupiedSeats(ctx, showing)
	if err != nil {
		return nil, fmt.Errorf("failed to get booked seats: %w", err)
	}

	held, err := app.heldSeats(ctx, showing)
	if err != nil {
		return nil, err
	}

	seats := booked
	for _, seat := range held {
		if !slices.Contains(seats, seat) {
			seats = append(seats, seat)
		}
	}

	slices.Sort(seats)

	return seats, nil
}

func (app *Application) heldSeats(ctx context.Context, showing domain.Showing) ([]string, error) {
	holdPrefix := "seat_hold:" + showingKey(showing) + ":"

	cmd := filterValidHeldSeats.Run(ctx, app.redis, []string{seatHoldSetKey(showing)}, holdPrefix)
	held, err := cmd.StringSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to run filterValidHeldSeats script: %w", err)
	}

	return held, nil
}
