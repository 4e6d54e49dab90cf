package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pgMaxConns     = 20
	pgConnLifetime = 15 * time.Minute
	pgPingTimeout  = 5 * time.Second
)

// Open connects to Postgres through the pgx database/sql driver and fails
// fast when the server does not answer a ping within pgPingTimeout.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	conn.SetMaxOpenConns(pgMaxConns)
	conn.SetMaxIdleConns(pgMaxConns)
	conn.SetConnMaxLifetime(pgConnLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pgPingTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return conn, nil
}
