package payment

import (
	"strings"

	"github.com/cinetix/movie-ticket-booking/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
)

// MockPaymentProvider mints fake intents without talking to Stripe.
type MockPaymentProvider struct{}

func NewMockPaymentProvider() *MockPaymentProvider {
	return &MockPaymentProvider{}
}

func (m *MockPaymentProvider) CreatePaymentIntent(
	sessionID string,
	details domain.CheckoutDetails) (*stripe.PaymentIntent, error) {

	id := "pi_mock_" + uuid.NewString()

	return &stripe.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Amount:       details.Amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency:     stripe.Currency(strings.ToLower(details.Currency)),
		Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
	}, nil
}
