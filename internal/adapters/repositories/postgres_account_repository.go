package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"ward-pickup-service/internal/domain"
	"ward-pickup-service/internal/ports"
)

// Postgres-backed, read-only view of the accounts table.
type PostgresAccountRepository struct{ db dbtx }

func NewPostgresAccountRepository(db *sql.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

func (r *PostgresAccountRepository) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, name, email, role, ward_number, house_number, area, lat, lng
	FROM accounts
	WHERE id = $1;
	`, id)

	acc, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account id=%s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account id=%s: %w", id, err)
	}
	return acc, nil
}
