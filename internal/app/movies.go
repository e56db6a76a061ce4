package app

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/cinetix/movie-ticket-booking/api"
	"github.com/cinetix/movie-ticket-booking/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (app *Application) GetMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := app.movieRepo.GetAll(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toMovieResponses(movies), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetActiveMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := app.movieRepo.GetAllVisible(r.Context(), time.Now())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toMovieResponses(movies), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetMovie(w http.ResponseWriter, r *http.Request) {
	movieID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid movie ID"))
		return
	}

	movie, err := app.movieRepo.GetById(r.Context(), movieID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	seatCounts, err := app.bookingRepo.SeatCountsByTime(r.Context(), movieID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := toMovieResponse(movie)

	// Annotate each showtime with how many seats are still free, derived
	// live from the booking store.
	for i := range resp.Showtimes {
		st := &resp.Showtimes[i]

		available := st.TotalSeats - seatCounts[st.Time]
		if available < 0 {
			available = 0
		}

		st.Available = &available
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CreateMovie(w http.ResponseWriter, r *http.Request) {
	var input api.MovieRequest

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

	movie := toMovie(input)
	movie.IsActive = true

	if len(movie.Showtimes) == 0 {
		movie.Showtimes = defaultShowtimes()
	}

	err = app.movieRepo.Create(r.Context(), movie)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, toMovieResponse(movie), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	movieID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid movie ID"))
		return
	}

	var input api.MovieRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	movie := toMovie(input)
	movie.ID = movieID

	err = app.movieRepo.Update(r.Context(), movie)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toMovieResponse(movie), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	movieID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid movie ID"))
		return
	}

	hasBookings, err := app.bookingRepo.HasActiveByMovie(r.Context(), movieID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if hasBookings {
		app.editConflictResponseWithErr(w, r, domain.ErrMovieHasBookings)
		return
	}

	err = app.movieRepo.Delete(r.Context(), movieID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrMovieHasBookings):
			app.editConflictResponseWithErr(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, map[string]bool{"success": true}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) UpdateMovieStatus(w http.ResponseWriter, r *http.Request) {
	movieID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid movie ID"))
		return
	}

	var input api.MovieStatusRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	movie, err := app.movieRepo.UpdateStatus(r.Context(), movieID, input.IsActive, input.ScheduledAt)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toMovieResponse(movie), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// defaultShowtimes mirrors the slate installed for a movie created without an
// explicit schedule.
func defaultShowtimes() []domain.Showtime {
	randomPrice := func() decimal.Decimal {
		return decimal.NewFromInt(int64(rand.IntN(251)) + 250)
	}

	return []domain.Showtime{
		{TimeLabel: "2:00 PM", TotalSeats: 45, Price: randomPrice()},
		{TimeLabel: "5:30 PM", TotalSeats: 23, Price: randomPrice()},
		{TimeLabel: "8:00 PM", TotalSeats: 12, Price: randomPrice()},
		{TimeLabel: "10:45 PM", TotalSeats: 67, Price: randomPrice()},
	}
}

func toMovie(input api.MovieRequest) *domain.Movie {
	movie := &domain.Movie{
		Title:       input.Title,
		Description: input.Description,
		PosterUrl:   input.Poster,
		BackdropUrl: input.Backdrop,
		Year:        input.Year,
		Duration:    input.Duration,
		Genre:       input.Genre,
		Studio:      input.Studio,
		Rating:      input.Rating,
		TrailerUrl:  input.Trailer,
	}

	if input.Showtimes != nil {
		movie.Showtimes = make([]domain.Showtime, len(input.Showtimes))
		for i, st := range input.Showtimes {
			movie.Showtimes[i] = domain.Showtime{
				TimeLabel:  st.Time,
				TotalSeats: st.TotalSeats,
				Price:      st.Price,
			}
		}
	}

	return movie
}

func toMovieResponses(movies []*domain.Movie) []api.MovieResponse {
	responses := make([]api.MovieResponse, len(movies))
	for i, movie := range movies {
		responses[i] = toMovieResponse(movie)
	}

	return responses
}

func toMovieResponse(movie *domain.Movie) api.MovieResponse {
	showtimes := make([]api.Showtime, len(movie.Showtimes))
	for i, st := range movie.Showtimes {
		showtimes[i] = api.Showtime{
			Time:       st.TimeLabel,
			TotalSeats: st.TotalSeats,
			Price:      st.Price,
		}
	}

	return api.MovieResponse{
		Id:          movie.ID.String(),
		Title:       movie.Title,
		Description: movie.Description,
		Poster:      movie.PosterUrl,
		Backdrop:    movie.BackdropUrl,
		Year:        movie.Year,
		Duration:    movie.Duration,
		Genre:       movie.Genre,
		Studio:      movie.Studio,
		Rating:      movie.Rating,
		Trailer:     movie.TrailerUrl,
		Showtimes:   showtimes,
		IsActive:    movie.IsActive,
		ScheduledAt: movie.ScheduledAt,
		CreatedAt:   movie.CreatedAt,
	}
}
