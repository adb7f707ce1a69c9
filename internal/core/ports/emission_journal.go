package ports

import (
	"context"

	"tram/internal/core/domain"

	"github.com/google/uuid"
)

// EmissionJournal persists emissions observed on a bus.
type EmissionJournal interface {
	Record(ctx context.Context, emission *domain.Emission) error
	ListByBus(ctx context.Context, busID uuid.UUID) ([]domain.Emission, error)
	CountByBus(ctx context.Context, busID uuid.UUID) (int64, error)
}
