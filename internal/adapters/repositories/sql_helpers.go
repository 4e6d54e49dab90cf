package repositories

import (
	"context"
	"database/sql"
	"strings"
	"ward-pickup-service/internal/domain"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so repositories can run
// standalone or inside a unit of work.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullCoords(loc *domain.Location) (sql.NullFloat64, sql.NullFloat64) {
	if loc == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: loc.Lat, Valid: true}, sql.NullFloat64{Float64: loc.Lng, Valid: true}
}

func locationPtr(lat, lng sql.NullFloat64) *domain.Location {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	return &domain.Location{Lat: lat.Float64, Lng: lng.Float64}
}

// placeholders returns "?, ?, ?" for n SQLite parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
