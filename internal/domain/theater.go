package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Theater struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

type TheaterRepository interface {
	// GetOrCreateByName resolves a theater by its public name, creating the
	// row on first sight. Booking paths go through this so the store can key
	// occupancy on a stable id instead of free text.
	GetOrCreateByName(ctx context.Context, name string) (*Theater, error)

	GetByName(ctx context.Context, name string) (*Theater, error)
}
