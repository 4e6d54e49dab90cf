package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"ward-pickup-service/internal/domain"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createAccountsQuery := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL CHECK (role IN ('citizen', 'collector', 'admin')),
		ward_number TEXT NOT NULL DEFAULT '',
		house_number TEXT,
		area TEXT,
		lat REAL,
		lng REAL
	);
	`

	createPickupsQuery := `
	CREATE TABLE IF NOT EXISTS pickup_requests (
		id TEXT PRIMARY KEY,
		citizen_id TEXT NOT NULL,
		ward_number TEXT NOT NULL,
		house_number TEXT NOT NULL,
		area TEXT,
		waste_type TEXT NOT NULL CHECK (waste_type IN ('wet', 'dry', 'e-waste')),
		pickup_time INTEGER NOT NULL,
		overflow INTEGER NOT NULL DEFAULT 0,
		lat REAL,
		lng REAL,
		status TEXT NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'assigned', 'completed', 'cancelled', 'missed')),
		assigned_to TEXT,
		completed_by TEXT,
		segregation_verified INTEGER NOT NULL DEFAULT 0,
		verification_status TEXT NOT NULL DEFAULT 'pending'
			CHECK (verification_status IN ('pending', 'verified', 'false_alarm')),
		false_alarm_penalized INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`

	createIncentivesQuery := `
	CREATE TABLE IF NOT EXISTS incentives (
		citizen_id TEXT PRIMARY KEY,
		points INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	);
	`

	createIndexQueries := []string{
		`CREATE INDEX IF NOT EXISTS idx_pickup_requests_ward_status ON pickup_requests(ward_number, status);`,
		`CREATE INDEX IF NOT EXISTS idx_pickup_requests_citizen ON pickup_requests(citizen_id);`,
		`CREATE INDEX IF NOT EXISTS idx_pickup_requests_assigned_to ON pickup_requests(assigned_to);`,
	}

	statements := append([]string{
		createAccountsQuery,
		createPickupsQuery,
		createIncentivesQuery,
	}, createIndexQueries...)

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type LocationSeed struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type AccountSeed struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Role        string        `json:"role"`
	WardNumber  string        `json:"wardNumber"`
	HouseNumber string        `json:"houseNumber"`
	Area        *string       `json:"area"`
	Location    *LocationSeed `json:"location"`
}

type PickupSeed struct {
	ID         string        `json:"id"`
	CitizenID  string        `json:"citizenId"`
	WasteType  string        `json:"wasteType"`
	PickupTime time.Time     `json:"pickupTime"`
	Overflow   bool          `json:"overflow"`
	Location   *LocationSeed `json:"location"`
}

type Seed struct {
	Accounts []AccountSeed `json:"accounts"`
	Pickups  []PickupSeed  `json:"pickups"`
}

// LoadSeed reads and validates a seed file.
func LoadSeed(jsonPath string) (*Seed, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("load seed: read %q: %w", jsonPath, err)
	}

	var seed Seed
	if err := json.Unmarshal(bytes, &seed); err != nil {
		return nil, fmt.Errorf("load seed: parse json: %w", err)
	}

	accounts := make(map[string]AccountSeed, len(seed.Accounts))
	for i, a := range seed.Accounts {
		if strings.TrimSpace(a.ID) == "" {
			return nil, fmt.Errorf("load seed: account at index %d: id cannot be empty", i+1)
		}
		if _, err := domain.PrincipalFor(domain.Account{ID: a.ID, Role: domain.Role(a.Role)}); err != nil {
			return nil, fmt.Errorf("load seed: account at index %d: %w", i+1, err)
		}
		accounts[a.ID] = a
	}

	for i, p := range seed.Pickups {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("load seed: pickup at index %d: id cannot be empty", i+1)
		}
		owner, ok := accounts[p.CitizenID]
		if !ok || owner.Role != string(domain.RoleCitizen) {
			return nil, fmt.Errorf("load seed: pickup at index %d: citizen %q not seeded", i+1, p.CitizenID)
		}
		if p.WasteType == "" || p.PickupTime.IsZero() {
			return nil, fmt.Errorf("load seed: pickup at index %d: wasteType and pickupTime are required", i+1)
		}
	}

	return &seed, nil
}

func (s AccountSeed) toDomain() domain.Account {
	acc := domain.Account{
		ID:          s.ID,
		Name:        s.Name,
		Email:       s.Email,
		Role:        domain.Role(s.Role),
		WardNumber:  s.WardNumber,
		HouseNumber: s.HouseNumber,
		Area:        s.Area,
	}
	if s.Location != nil {
		acc.Location = domain.LocationFromParts(s.Location.Lat, s.Location.Lng)
	}
	return acc
}

// Populate the SQLite database with accounts and pickups from a JSON file.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	seed, err := LoadSeed(jsonPath)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer tx.Rollback()

	accounts := &SqliteAccountRepository{db: tx}
	byID := make(map[string]domain.Account, len(seed.Accounts))
	for _, a := range seed.Accounts {
		acc := a.toDomain()
		byID[acc.ID] = acc
		if err := accounts.Put(context.Background(), acc); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	pickupStmt, err := tx.Prepare(`
	INSERT OR IGNORE INTO pickup_requests (
		id, citizen_id, ward_number, house_number, area, waste_type,
		pickup_time, overflow, lat, lng, created_at, updated_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("seed: prepare pickup insert: %w", err)
	}
	defer pickupStmt.Close()

	now := time.Now().UTC().UnixMilli()
	for _, p := range seed.Pickups {
		owner := byID[p.CitizenID]
		loc := owner.Location
		if p.Location != nil {
			if l := domain.LocationFromParts(p.Location.Lat, p.Location.Lng); l != nil {
				loc = l
			}
		}
		lat, lng := nullCoords(loc)
		if _, err := pickupStmt.Exec(
			p.ID, owner.ID, owner.WardNumber, owner.HouseNumber, nullString(owner.Area), p.WasteType,
			p.PickupTime.UTC().UnixMilli(), p.Overflow, lat, lng, now, now,
		); err != nil {
			return fmt.Errorf("seed: insert pickup id=%s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}
