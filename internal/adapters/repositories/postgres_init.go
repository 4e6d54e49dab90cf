package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"ward-pickup-service/internal/domain"
)

// Initialize the Postgres database schema.
func InitPostgresSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init postgres schema: DB is nil")
	}

	statements := []string{
		`
		CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL CHECK (role IN ('citizen', 'collector', 'admin')),
			ward_number TEXT NOT NULL DEFAULT '',
			house_number TEXT,
			area TEXT,
			lat DOUBLE PRECISION,
			lng DOUBLE PRECISION
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS pickup_requests (
			id TEXT PRIMARY KEY,
			seq BIGINT GENERATED ALWAYS AS IDENTITY,
			citizen_id TEXT NOT NULL,
			ward_number TEXT NOT NULL,
			house_number TEXT NOT NULL,
			area TEXT,
			waste_type TEXT NOT NULL CHECK (waste_type IN ('wet', 'dry', 'e-waste')),
			pickup_time TIMESTAMPTZ NOT NULL,
			overflow BOOLEAN NOT NULL DEFAULT FALSE,
			lat DOUBLE PRECISION,
			lng DOUBLE PRECISION,
			status TEXT NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending', 'assigned', 'completed', 'cancelled', 'missed')),
			assigned_to TEXT,
			completed_by TEXT,
			segregation_verified BOOLEAN NOT NULL DEFAULT FALSE,
			verification_status TEXT NOT NULL DEFAULT 'pending'
				CHECK (verification_status IN ('pending', 'verified', 'false_alarm')),
			false_alarm_penalized BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS incentives (
			citizen_id TEXT PRIMARY KEY,
			points INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		`,
		`CREATE INDEX IF NOT EXISTS idx_pickup_requests_ward_status ON pickup_requests(ward_number, status);`,
		`CREATE INDEX IF NOT EXISTS idx_pickup_requests_citizen ON pickup_requests(citizen_id);`,
		`CREATE INDEX IF NOT EXISTS idx_pickup_requests_assigned_to ON pickup_requests(assigned_to);`,
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init postgres schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init postgres schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init postgres schema: commit tx: %w", err)
	}

	return nil
}

// Populate the Postgres database with accounts and pickups from a JSON file.
func SeedPostgresFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	seed, err := LoadSeed(jsonPath)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	byID := make(map[string]domain.Account, len(seed.Accounts))
	for _, a := range seed.Accounts {
		acc := a.toDomain()
		byID[acc.ID] = acc
		lat, lng := nullCoords(acc.Location)
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (id, name, email, role, ward_number, house_number, area, lat, lng)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			ward_number = EXCLUDED.ward_number,
			house_number = EXCLUDED.house_number,
			area = EXCLUDED.area,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng;
		`,
			acc.ID, acc.Name, acc.Email, string(acc.Role), acc.WardNumber,
			nullString(&acc.HouseNumber), nullString(acc.Area), lat, lng,
		); err != nil {
			return fmt.Errorf("seed: insert account id=%s: %w", acc.ID, err)
		}
	}

	now := time.Now().UTC()
	for _, p := range seed.Pickups {
		owner := byID[p.CitizenID]
		loc := owner.Location
		if p.Location != nil {
			if l := domain.LocationFromParts(p.Location.Lat, p.Location.Lng); l != nil {
				loc = l
			}
		}
		lat, lng := nullCoords(loc)
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO pickup_requests (
			id, citizen_id, ward_number, house_number, area, waste_type,
			pickup_time, overflow, lat, lng, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (id) DO NOTHING;
		`,
			p.ID, owner.ID, owner.WardNumber, owner.HouseNumber, nullString(owner.Area), p.WasteType,
			p.PickupTime.UTC(), p.Overflow, lat, lng, now,
		); err != nil {
			return fmt.Errorf("seed: insert pickup id=%s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}
