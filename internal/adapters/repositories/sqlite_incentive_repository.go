package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"ward-pickup-service/internal/domain"
	"ward-pickup-service/internal/platform/obs"
	"ward-pickup-service/internal/ports"
)

// SQLite-backed implementation of the IncentiveRepository port.
type SqliteIncentiveRepository struct{ db dbtx }

func NewSqliteIncentiveRepository(db *sql.DB) *SqliteIncentiveRepository {
	return &SqliteIncentiveRepository{db: db}
}

func scanSqliteIncentive(row rowScanner) (*domain.IncentiveBalance, error) {
	var (
		b       domain.IncentiveBalance
		updated int64
	)
	if err := row.Scan(&b.CitizenID, &b.Points, &updated); err != nil {
		return nil, err
	}
	b.UpdatedAt = time.UnixMilli(updated).UTC()
	return &b, nil
}

// Increment is a single upsert so concurrent writers never lose an update.
func (s *SqliteIncentiveRepository) Increment(ctx context.Context, citizenID string, delta int) (_ *domain.IncentiveBalance, err error) {
	defer obs.Time(ctx, "sqlite.incentives.Increment")(&err)

	if citizenID == "" {
		return nil, errors.New("increment incentive: citizen id must not be empty")
	}

	row := s.db.QueryRowContext(ctx, `
	INSERT INTO incentives (citizen_id, points, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT (citizen_id) DO UPDATE
	SET points = incentives.points + excluded.points,
		updated_at = excluded.updated_at
	RETURNING citizen_id, points, updated_at;
	`, citizenID, delta, time.Now().UTC().UnixMilli())

	b, err := scanSqliteIncentive(row)
	if err != nil {
		return nil, fmt.Errorf("increment incentive citizen=%s: %w", citizenID, err)
	}
	return b, nil
}

func (s *SqliteIncentiveRepository) Get(ctx context.Context, citizenID string) (*domain.IncentiveBalance, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT citizen_id, points, updated_at
	FROM incentives
	WHERE citizen_id = ?;
	`, citizenID)

	b, err := scanSqliteIncentive(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get incentive citizen=%s: %w", citizenID, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get incentive citizen=%s: %w", citizenID, err)
	}
	return b, nil
}
