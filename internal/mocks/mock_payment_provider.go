package mocks

import (
	"github.com/cinetix/movie-ticket-booking/internal/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v82"
)

type MockPaymentProvider struct {
	mock.Mock
	domain.PaymentProvider
}

func (m *MockPaymentProvider) CreatePaymentIntent(sessionID string, details domain.CheckoutDetails) (*stripe.PaymentIntent, error) {
	args := m.Called(sessionID, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.PaymentIntent), args.Error(1)
}
