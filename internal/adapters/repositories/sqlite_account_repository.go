package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"ward-pickup-service/internal/domain"
	"ward-pickup-service/internal/ports"
)

// SQLite-backed, read-only view of the accounts table.
type SqliteAccountRepository struct{ db dbtx }

func NewSqliteAccountRepository(db *sql.DB) *SqliteAccountRepository {
	return &SqliteAccountRepository{db: db}
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		acc         domain.Account
		role        string
		house, area sql.NullString
		lat, lng    sql.NullFloat64
	)
	if err := row.Scan(&acc.ID, &acc.Name, &acc.Email, &role, &acc.WardNumber, &house, &area, &lat, &lng); err != nil {
		return nil, err
	}
	acc.Role = domain.Role(role)
	acc.HouseNumber = house.String
	acc.Area = stringPtr(area)
	acc.Location = locationPtr(lat, lng)
	return &acc, nil
}

func (s *SqliteAccountRepository) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT id, name, email, role, ward_number, house_number, area, lat, lng
	FROM accounts
	WHERE id = ?;
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

// Put inserts or replaces an account. Used by seeding and tests; the
// engine itself never writes accounts.
func (s *SqliteAccountRepository) Put(ctx context.Context, acc domain.Account) error {
	lat, lng := nullCoords(acc.Location)
	_, err := s.db.ExecContext(ctx, `
	INSERT OR REPLACE INTO accounts (
		id, name, email, role, ward_number, house_number, area, lat, lng
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`,
		acc.ID, acc.Name, acc.Email, string(acc.Role), acc.WardNumber,
		nullString(&acc.HouseNumber), nullString(acc.Area), lat, lng,
	)
	if err != nil {
		return fmt.Errorf("put account id=%s: %w", acc.ID, err)
	}
	return nil
}
