package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func prepareRequest(method, path string, body io.Reader, headers map[string]string) (*http.Request, error) {
	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func compareResponse(t *testing.T, body io.Reader, expectedResponse string) {
	var actual map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&actual))

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(expectedResponse), &expected))

	// ignore indeterministic fields while comparing
	opts := cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
		return k == "timestamp" || k == "requestId" || k == "createdAt" || k == "id"
	})

	if diff := cmp.Diff(expected, actual, opts); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

// seedMovie inserts a movie with a single showtime and returns the movie id.
func seedMovie(t testing.TB, app *TestApp, title, timeLabel string, price decimal.Decimal, totalSeats int) uuid.UUID {
	ctx := context.Background()

	var movieID uuid.UUID
	err := app.DB.QueryRow(ctx, `
		INSERT INTO movies (title, description, poster_url, backdrop_url, year, duration, genre, studio, rating, trailer_url)
		VALUES ($1, 'Seeded for testing', 'https://example.com/p.jpg', 'https://example.com/b.jpg',
		        '2024', '2h', 'Drama', 'Test Studio', 'PG-13', 'https://example.com/t')
		RETURNING id`, title).Scan(&movieID)
	require.NoError(t, err)

	_, err = app.DB.Exec(ctx, `
		INSERT INTO showtimes (movie_id, time_label, total_seats, price)
		VALUES ($1, $2, $3, $4)`, movieID, timeLabel, totalSeats, price)
	require.NoError(t, err)

	return movieID
}

func countBookedSeats(t testing.TB, app *TestApp, movieID uuid.UUID) int {
	var count int
	err := app.DB.QueryRow(context.Background(), `
		SELECT COUNT(*) FROM booking_seats WHERE movie_id = $1`, movieID).Scan(&count)
	require.NoError(t, err)

	return count
}

func bookingPayload(movieID uuid.UUID, theater, date, timeLabel string, seats []string) io.Reader {
	payload := map[string]any{
		"movie":   movieID.String(),
		"theater": theater,
		"date":    date,
		"time":    timeLabel,
		"seats":   seats,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal booking payload: %v", err))
	}

	return bytes.NewReader(data)
}
