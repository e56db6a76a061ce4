package mocks

import (
	"context"

	"github.com/cinetix/movie-ticket-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPaymentRepo struct {
	mock.Mock
	domain.PaymentRepository
}

func (m *MockPaymentRepo) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepo) GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepo) UpdateStatus(
	ctx context.Context,
	intentID string,
	status domain.PaymentStatus,
	errMsg string) error {

	args := m.Called(ctx, intentID, status, errMsg)
	return args.Error(0)
}
