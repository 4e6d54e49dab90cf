package ports

import (
	"context"
	"ward-pickup-service/internal/domain"
)

// Port: read-only lookup into the account collaborator.
type AccountRepository interface {
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
}
