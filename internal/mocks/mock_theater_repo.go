package mocks

import (
	"context"

	"github.com/cinetix/movie-ticket-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockTheaterRepo struct {
	mock.Mock
	domain.TheaterRepository
}

func (m *MockTheaterRepo) GetOrCreateByName(ctx context.Context, name string) (*domain.Theater, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Theater), args.Error(1)
}

func (m *MockTheaterRepo) GetByName(ctx context.Context, name string) (*domain.Theater, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Theater), args.Error(1)
}
