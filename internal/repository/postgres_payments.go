package repository

import (
	"context"
	"errors"

	"github.com/cinetix/movie-ticket-booking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPostgresPaymentRepository(db *pgxpool.Pool) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{
		db: db,
	}
}

func (p *PostgresPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (payment_intent_id, amount, currency, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	return p.db.QueryRow(
		ctx,
		query,
		payment.PaymentIntentID,
		payment.Amount,
		payment.Currency,
		payment.Status,
	).Scan(&payment.ID, &payment.CreatedAt)
}

func (p *PostgresPaymentRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error) {
	query := `
		SELECT id, payment_intent_id, amount, currency, status, error_message,
			created_at, updated_at
		FROM payments
		WHERE payment_intent_id = $1
	`

	var payment domain.Payment

	err := p.db.QueryRow(ctx, query, intentID).Scan(
		&payment.ID,
		&payment.PaymentIntentID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.ErrorMsg,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &payment, nil
}

func (p *PostgresPaymentRepository) UpdateStatus(
	ctx context.Context,
	intentID string,
	status domain.PaymentStatus,
	errMsg string) error {

	query := `
		UPDATE payments
		SET status = $1, error_message = NULLIF($2, ''), updated_at = NOW()
		WHERE payment_intent_id = $3
	`

	result, err := p.db.Exec(ctx, query, status, errMsg, intentID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}
