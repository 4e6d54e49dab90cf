package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"ward-pickup-service/internal/ports"
)

// SqliteStore bundles the SQLite repositories and implements ports.Transactor.
type SqliteStore struct {
	DB *sql.DB
}

func NewSqliteStore(db *sql.DB) *SqliteStore {
	return &SqliteStore{DB: db}
}

func (s *SqliteStore) Pickups() *SqlitePickupRepository {
	return NewSqlitePickupRepository(s.DB)
}

func (s *SqliteStore) Incentives() *SqliteIncentiveRepository {
	return NewSqliteIncentiveRepository(s.DB)
}

func (s *SqliteStore) Accounts() *SqliteAccountRepository {
	return NewSqliteAccountRepository(s.DB)
}

func (s *SqliteStore) WithinTx(ctx context.Context, fn func(repos ports.Repositories) error) error {
	if s.DB == nil {
		return errors.New("sqlite store: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite store: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	repos := ports.Repositories{
		Pickups:    &SqlitePickupRepository{db: tx},
		Incentives: &SqliteIncentiveRepository{db: tx},
	}
	if err := fn(repos); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite store: commit tx: %w", err)
	}
	return nil
}
