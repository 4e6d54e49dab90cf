package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"ward-pickup-service/internal/domain"
	"ward-pickup-service/internal/platform/obs"
	"ward-pickup-service/internal/ports"
)

// Postgres-backed implementation of the IncentiveRepository port.
type PostgresIncentiveRepository struct{ db dbtx }

func NewPostgresIncentiveRepository(db *sql.DB) *PostgresIncentiveRepository {
	return &PostgresIncentiveRepository{db: db}
}

func (r *PostgresIncentiveRepository) Increment(ctx context.Context, citizenID string, delta int) (_ *domain.IncentiveBalance, err error) {
	defer obs.Time(ctx, "postgres.incentives.Increment")(&err)

	if citizenID == "" {
		return nil, errors.New("increment incentive: citizen id must not be empty")
	}

	var b domain.IncentiveBalance
	err = r.db.QueryRowContext(ctx, `
	INSERT INTO incentives (citizen_id, points, updated_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (citizen_id) DO UPDATE
	SET points = incentives.points + EXCLUDED.points,
		updated_at = EXCLUDED.updated_at
	RETURNING citizen_id, points, updated_at;
	`, citizenID, delta).Scan(&b.CitizenID, &b.Points, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("increment incentive citizen=%s: %w", citizenID, err)
	}

	return &b, nil
}

func (r *PostgresIncentiveRepository) Get(ctx context.Context, citizenID string) (*domain.IncentiveBalance, error) {
	var b domain.IncentiveBalance
	err := r.db.QueryRowContext(ctx, `
	SELECT citizen_id, points, updated_at
	FROM incentives
	WHERE citizen_id = $1;
	`, citizenID).Scan(&b.CitizenID, &b.Points, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get incentive citizen=%s: %w", citizenID, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get incentive citizen=%s: %w", citizenID, err)
	}

	return &b, nil
}
