package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type Payment struct {
	ID              uuid.UUID
	PaymentIntentID string
	Amount          decimal.Decimal
	Currency        string
	Status          PaymentStatus
	ErrorMsg        *string
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	GetByIntentID(ctx context.Context, intentID string) (*Payment, error)
	UpdateStatus(ctx context.Context, intentID string, status PaymentStatus, errMsg string) error
}

// CheckoutDetails carries everything the payment provider needs to describe
// the charge. The amount is always resolved server-side from the stored
// showtime price, never taken from the client.
type CheckoutDetails struct {
	MovieTitle string
	Theater    string
	Date       string
	TimeLabel  string
	Seats      []string
	Amount     decimal.Decimal
	Currency   string
}

type PaymentProvider interface {
	CreatePaymentIntent(sessionID string, details CheckoutDetails) (*stripe.PaymentIntent, error)
}
