package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cinetix/movie-ticket-booking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresMovieRepository struct {
	db *pgxpool.Pool
}

func NewPostgresMovieRepository(db *pgxpool.Pool) *PostgresMovieRepository {
	return &PostgresMovieRepository{
		db: db,
	}
}

const movieColumns = `
	id, title, description, poster_url, backdrop_url, year, duration,
	genre, studio, rating, trailer_url, is_active, scheduled_at,
	created_at, updated_at
`

func (p *PostgresMovieRepository) GetAll(ctx context.Context) ([]*domain.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies ORDER BY created_at DESC`

	return p.queryMovies(ctx, query)
}

func (p *PostgresMovieRepository) GetAllVisible(ctx context.Context, now time.Time) ([]*domain.Movie, error) {
	query := `
		SELECT ` + movieColumns + `
		FROM movies
		WHERE is_active = true
			OR (is_active = false AND scheduled_at IS NOT NULL AND scheduled_at <= $1)
		ORDER BY created_at DESC
	`

	return p.queryMovies(ctx, query, now)
}

func (p *PostgresMovieRepository) queryMovies(ctx context.Context, query string, args ...any) ([]*domain.Movie, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movies := make([]*domain.Movie, 0)

	for rows.Next() {
		var movie domain.Movie

		err := scanMovie(rows, &movie)
		if err != nil {
			return nil, err
		}

		movies = append(movies, &movie)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(movies))
	for _, m := range movies {
		ids = append(ids, m.ID)
	}

	showtimes, err := p.retrieveShowtimes(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, m := range movies {
		m.Showtimes = showtimes[m.ID]
	}

	return movies, nil
}

func (p *PostgresMovieRepository) GetById(ctx context.Context, id uuid.UUID) (*domain.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE id = $1`

	var movie domain.Movie

	err := scanMovie(p.db.QueryRow(ctx, query, id), &movie)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	showtimes, err := p.retrieveShowtimes(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}

	movie.Showtimes = showtimes[id]

	return &movie, nil
}

func (p *PostgresMovieRepository) Create(ctx context.Context, movie *domain.Movie) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO movies (
				title, description, poster_url, backdrop_url, year, duration,
				genre, studio, rating, trailer_url, is_active, scheduled_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id, created_at, updated_at
		`

		err := tx.QueryRow(
			ctx,
			query,
			movie.Title,
			movie.Description,
			movie.PosterUrl,
			movie.BackdropUrl,
			movie.Year,
			movie.Duration,
			movie.Genre,
			movie.Studio,
			movie.Rating,
			movie.TrailerUrl,
			movie.IsActive,
			movie.ScheduledAt,
		).Scan(&movie.ID, &movie.CreatedAt, &movie.UpdatedAt)

		if err != nil {
			return err
		}

		return insertShowtimes(ctx, tx, movie)
	})
}

func (p *PostgresMovieRepository) Update(ctx context.Context, movie *domain.Movie) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			UPDATE movies
			SET title = $1, description = $2, poster_url = $3, backdrop_url = $4,
				year = $5, duration = $6, genre = $7, studio = $8, rating = $9,
				trailer_url = $10, updated_at = NOW()
			WHERE id = $11
			RETURNING is_active, scheduled_at, created_at, updated_at
		`

		err := tx.QueryRow(
			ctx,
			query,
			movie.Title,
			movie.Description,
			movie.PosterUrl,
			movie.BackdropUrl,
			movie.Year,
			movie.Duration,
			movie.Genre,
			movie.Studio,
			movie.Rating,
			movie.TrailerUrl,
			movie.ID,
		).Scan(&movie.IsActive, &movie.ScheduledAt, &movie.CreatedAt, &movie.UpdatedAt)

		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}

			return err
		}

		if movie.Showtimes == nil {
			return p.loadShowtimesInTx(ctx, tx, movie)
		}

		_, err = tx.Exec(ctx, `DELETE FROM showtimes WHERE movie_id = $1`, movie.ID)
		if err != nil {
			return err
		}

		return insertShowtimes(ctx, tx, movie)
	})
}

func (p *PostgresMovieRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	isActive bool,
	scheduledAt *time.Time) (*domain.Movie, error) {

	query := `
		UPDATE movies
		SET is_active = $1, scheduled_at = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + movieColumns

	var movie domain.Movie

	err := scanMovie(p.db.QueryRow(ctx, query, isActive, scheduledAt, id), &movie)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	showtimes, err := p.retrieveShowtimes(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}

	movie.Showtimes = showtimes[id]

	return &movie, nil
}

func (p *PostgresMovieRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := p.db.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return domain.ErrMovieHasBookings
		}

		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (p *PostgresMovieRepository) retrieveShowtimes(
	ctx context.Context,
	movieIDs []uuid.UUID) (map[uuid.UUID][]domain.Showtime, error) {

	if len(movieIDs) == 0 {
		return map[uuid.UUID][]domain.Showtime{}, nil
	}

	query := `
		SELECT id, movie_id, time_label, total_seats, price
		FROM showtimes
		WHERE movie_id = ANY($1)
		ORDER BY movie_id, created_at, id
	`

	rows, err := p.db.Query(ctx, query, movieIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	showtimes := make(map[uuid.UUID][]domain.Showtime)

	for rows.Next() {
		var st domain.Showtime

		err := rows.Scan(&st.ID, &st.MovieID, &st.TimeLabel, &st.TotalSeats, &st.Price)
		if err != nil {
			return nil, err
		}

		showtimes[st.MovieID] = append(showtimes[st.MovieID], st)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return showtimes, nil
}

func (p *PostgresMovieRepository) loadShowtimesInTx(ctx context.Context, tx pgx.Tx, movie *domain.Movie) error {
	query := `
		SELECT id, movie_id, time_label, total_seats, price
		FROM showtimes
		WHERE movie_id = $1
		ORDER BY created_at, id
	`

	rows, err := tx.Query(ctx, query, movie.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	showtimes := make([]domain.Showtime, 0)

	for rows.Next() {
		var st domain.Showtime

		err := rows.Scan(&st.ID, &st.MovieID, &st.TimeLabel, &st.TotalSeats, &st.Price)
		if err != nil {
			return err
		}

		showtimes = append(showtimes, st)
	}

	if err = rows.Err(); err != nil {
		return err
	}

	movie.Showtimes = showtimes

	return nil
}

func insertShowtimes(ctx context.Context, tx pgx.Tx, movie *domain.Movie) error {
	for i := range movie.Showtimes {
		st := &movie.Showtimes[i]
		st.MovieID = movie.ID

		if st.TotalSeats == 0 {
			st.TotalSeats = domain.DefaultShowtimeSeats
		}

		err := tx.QueryRow(
			ctx,
			`INSERT INTO showtimes (movie_id, time_label, total_seats, price)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			st.MovieID,
			st.TimeLabel,
			st.TotalSeats,
			st.Price,
		).Scan(&st.ID)

		if err != nil {
			return err
		}
	}

	return nil
}

func scanMovie(row pgx.Row, movie *domain.Movie) error {
	return row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Description,
		&movie.PosterUrl,
		&movie.BackdropUrl,
		&movie.Year,
		&movie.Duration,
		&movie.Genre,
		&movie.Studio,
		&movie.Rating,
		&movie.TrailerUrl,
		&movie.IsActive,
		&movie.ScheduledAt,
		&movie.CreatedAt,
		&movie.UpdatedAt,
	)
}
