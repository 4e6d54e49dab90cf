package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"ward-pickup-service/internal/ports"
)

// PostgresStore bundles the Postgres repositories and implements ports.Transactor.
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

func (s *PostgresStore) Pickups() *PostgresPickupRepository {
	return NewPostgresPickupRepository(s.DB)
}

func (s *PostgresStore) Incentives() *PostgresIncentiveRepository {
	return NewPostgresIncentiveRepository(s.DB)
}

func (s *PostgresStore) Accounts() *PostgresAccountRepository {
	return NewPostgresAccountRepository(s.DB)
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(repos ports.Repositories) error) error {
	if s.DB == nil {
		return errors.New("postgres store: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres store: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	repos := ports.Repositories{
		Pickups:    &PostgresPickupRepository{db: tx},
		Incentives: &PostgresIncentiveRepository{db: tx},
	}
	if err := fn(repos); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres store: commit tx: %w", err)
	}
	return nil
}
