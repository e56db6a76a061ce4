package repository

import (
	"context"
	"errors"

	"github.com/cinetix/movie-ticket-booking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

func (p *PostgresBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO bookings (
				movie_id, theater_id, show_date, show_time, seats,
				price, total, status, payment_intent_id
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at
		`

		err := tx.QueryRow(
			ctx,
			query,
			booking.MovieID,
			booking.TheaterID,
			booking.ShowDate,
			booking.ShowTime,
			booking.Seats,
			booking.Price,
			booking.Total,
			booking.Status,
			booking.PaymentIntentID,
		).Scan(&booking.ID, &booking.CreatedAt)

		if err != nil {
			return err
		}

		rows := make([][]any, 0, len(booking.Seats))
		for _, seat := range booking.Seats {
			rows = append(rows, []any{
				booking.ID,
				booking.MovieID,
				booking.TheaterID,
				booking.ShowDate,
				booking.ShowTime,
				seat,
			})
		}

		// The unique index on (movie_id, theater_id, show_date, show_time,
		// seat_label) makes this insert the conflict check: concurrent
		// bookings for overlapping seats cannot both commit.
		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"booking_seats"},
			[]string{"booking_id", "movie_id", "theater_id", "show_date", "show_time", "seat_label"},
			pgx.CopyFromRows(rows),
		)

		return err
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			if pgErr.ConstraintName == "bookings_payment_intent_id_key" {
				return domain.ErrPaymentAlreadyUsed
			}

			return domain.ErrSeatAlreadyReserved
		}

		return err
	}

	return nil
}

func runInTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	var txOptions pgx.TxOptions

	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		return tx.Commit(ctx)
	}

	rollbackErr := tx.Rollback(ctx)
	if rollbackErr != nil {
		return errors.Join(err, rollbackErr)
	}

	return err
}

const bookingColumns = `
	b.id, b.movie_id, m.title, m.poster_url, b.theater_id, t.name,
	to_char(b.show_date, 'YYYY-MM-DD'), b.show_time, b.seats,
	b.price, b.total, b.status, b.payment_intent_id, b.created_at
`

const bookingJoins = `
	FROM bookings b
	JOIN movies m ON b.movie_id = m.id
	JOIN theaters t ON b.theater_id = t.id
`

func (p *PostgresBookingRepository) GetAll(ctx context.Context) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingJoins + ` ORDER BY b.created_at DESC`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		var booking domain.Booking

		err := scanBooking(rows, &booking)
		if err != nil {
			return nil, err
		}

		bookings = append(bookings, &booking)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (p *PostgresBookingRepository) GetById(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingJoins + ` WHERE b.id = $1`

	var booking domain.Booking

	err := scanBooking(p.db.QueryRow(ctx, query, id), &booking)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &booking, nil
}

func (p *PostgresBookingRepository) Cancel(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		result, err := tx.Exec(
			ctx,
			`UPDATE bookings SET status = 'cancelled' WHERE id = $1`,
			id,
		)
		if err != nil {
			return err
		}

		if result.RowsAffected() == 0 {
			return domain.ErrRecordNotFound
		}

		// Releasing the ledger rows is what frees the seats for rebooking.
		_, err = tx.Exec(ctx, `DELETE FROM booking_seats WHERE booking_id = $1`, id)

		return err
	})

	if err != nil {
		return nil, err
	}

	return p.GetById(ctx, id)
}

func (p *PostgresBookingRepository) GetOccupiedSeats(
	ctx context.Context,
	showing domain.Showing) ([]string, error) {

	query := `
		SELECT seat_label
		FROM booking_seats
		WHERE movie_id = $1 AND theater_id = $2 AND show_date = $3 AND show_time = $4
		ORDER BY seat_label
	`

	rows, err := p.db.Query(ctx, query, showing.MovieID, showing.TheaterID, showing.Date, showing.TimeLabel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]string, 0)

	for rows.Next() {
		var seat string

		err := rows.Scan(&seat)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}

func (p *PostgresBookingRepository) SeatCountsByTime(
	ctx context.Context,
	movieID uuid.UUID) (map[string]int, error) {

	query := `
		SELECT show_time, COALESCE(SUM(cardinality(seats)), 0)
		FROM bookings
		WHERE movie_id = $1 AND status <> 'cancelled'
		GROUP BY show_time
	`

	rows, err := p.db.Query(ctx, query, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)

	for rows.Next() {
		var (
			timeLabel string
			count     int
		)

		err := rows.Scan(&timeLabel, &count)
		if err != nil {
			return nil, err
		}

		counts[timeLabel] = count
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

func (p *PostgresBookingRepository) HasActiveByMovie(ctx context.Context, movieID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings WHERE movie_id = $1 AND status <> 'cancelled'
		)
	`

	var exists bool

	err := p.db.QueryRow(ctx, query, movieID).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func scanBooking(row pgx.Row, booking *domain.Booking) error {
	return row.Scan(
		&booking.ID,
		&booking.MovieID,
		&booking.MovieTitle,
		&booking.MoviePosterUrl,
		&booking.TheaterID,
		&booking.TheaterName,
		&booking.ShowDate,
		&booking.ShowTime,
		&booking.Seats,
		&booking.Price,
		&booking.Total,
		&booking.Status,
		&booking.PaymentIntentID,
		&booking.CreatedAt,
	)
}
