package repositories

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
	"ward-pickup-service/internal/domain"
	"ward-pickup-service/internal/platform/db"

	"github.com/stretchr/testify/require"
)

func openTestSqlite(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, InitSchema(conn))
	return conn
}

func testPickup(id, citizenID, ward string, overflow bool, loc *domain.Location) *domain.PickupRequest {
	citizen := domain.Account{ID: citizenID, Role: domain.RoleCitizen, WardNumber: ward, HouseNumber: "H-" + id}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return domain.NewPickupRequest(id, citizen, domain.WasteDry, now.Add(time.Hour), overflow, loc, now)
}

func insertPickups(t *testing.T, repo *SqlitePickupRepository, pickups ...*domain.PickupRequest) {
	t.Helper()
	for _, p := range pickups {
		require.NoError(t, repo.Insert(context.Background(), p))
	}
}
