package ports

import (
	"context"
	"ward-pickup-service/internal/domain"
)

// Port: storage boundary for per-citizen incentive balances.
type IncentiveRepository interface {
	// Atomically add delta to the citizen's balance, creating it if absent.
	Increment(ctx context.Context, citizenID string, delta int) (*domain.IncentiveBalance, error)
	// Returns ErrNotFound when the citizen has no balance record yet.
	Get(ctx context.Context, citizenID string) (*domain.IncentiveBalance, error)
}
