package repository

import (
	"context"
	"errors"

	"github.com/cinetix/movie-ticket-booking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresTheaterRepository struct {
	db *pgxpool.Pool
}

func NewPostgresTheaterRepository(db *pgxpool.Pool) *PostgresTheaterRepository {
	return &PostgresTheaterRepository{
		db: db,
	}
}

func (p *PostgresTheaterRepository) GetOrCreateByName(ctx context.Context, name string) (*domain.Theater, error) {
	// ON CONFLICT DO UPDATE so the row is returned on both paths; a plain
	// DO NOTHING returns no row for an existing theater.
	query := `
		INSERT INTO theaters (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at
	`

	var theater domain.Theater

	err := p.db.QueryRow(ctx, query, name).Scan(&theater.ID, &theater.Name, &theater.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &theater, nil
}

func (p *PostgresTheaterRepository) GetByName(ctx context.Context, name string) (*domain.Theater, error) {
	query := `SELECT id, name, created_at FROM theaters WHERE name = $1`

	var theater domain.Theater

	err := p.db.QueryRow(ctx, query, name).Scan(&theater.ID, &theater.Name, &theater.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &theater, nil
}
