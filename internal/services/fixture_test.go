package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"
	"ward-pickup-service/internal/adapters/repositories"
	"ward-pickup-service/internal/domain"
	"ward-pickup-service/internal/platform/db"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	store     *repositories.SqliteStore
	lifecycle *PickupLifecycle
	ledger    *IncentiveLedger
	engine    *RouteEngine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "pickups.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, repositories.InitSchema(conn))

	store := repositories.NewSqliteStore(conn)
	f := &fixture{
		store:     store,
		lifecycle: NewPickupLifecycle(store.Accounts(), store.Pickups(), store),
		ledger:    NewIncentiveLedger(store.Incentives()),
		engine:    NewRouteEngine(store.Accounts(), store.Pickups(), DefaultDepot),
	}

	home := domain.Location{Lat: 26.15, Lng: 91.75}
	area := "Beltola"
	f.addAccount(t, domain.Account{ID: "citizen-1", Role: domain.RoleCitizen, WardNumber: "4", HouseNumber: "H-1", Area: &area, Location: &home})
	f.addAccount(t, domain.Account{ID: "citizen-2", Role: domain.RoleCitizen, WardNumber: "4", HouseNumber: "H-2"})
	f.addAccount(t, domain.Account{ID: "citizen-9", Role: domain.RoleCitizen, WardNumber: "9", HouseNumber: "H-9"})
	f.addAccount(t, domain.Account{ID: "collector-1", Role: domain.RoleCollector, WardNumber: "4"})
	f.addAccount(t, domain.Account{ID: "collector-2", Role: domain.RoleCollector, WardNumber: "4"})
	f.addAccount(t, domain.Account{ID: "collector-9", Role: domain.RoleCollector, WardNumber: "9"})
	f.addAccount(t, domain.Account{ID: "admin-1", Role: domain.RoleAdmin})

	return f
}

func (f *fixture) addAccount(t *testing.T, acc domain.Account) {
	t.Helper()
	require.NoError(t, f.store.Accounts().Put(context.Background(), acc))
}

func (f *fixture) request(t *testing.T, citizenID string, wasteType domain.WasteType, overflow bool, loc *domain.Location) *domain.PickupRequest {
	t.Helper()

	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	in := CreatePickupInput{WasteType: string(wasteType), PickupTime: &at, Overflow: overflow}
	if loc != nil {
		in.Lat, in.Lng = &loc.Lat, &loc.Lng
	}

	p, err := f.lifecycle.Create(context.Background(), citizenID, in)
	require.NoError(t, err)
	return p
}

func (f *fixture) points(t *testing.T, citizenID string) int {
	t.Helper()
	b, err := f.ledger.Balance(context.Background(), citizenID)
	require.NoError(t, err)
	return b.Points
}

func requireKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	got, ok := domain.KindOf(err)
	require.True(t, ok, "error %v carries no kind", err)
	require.Equal(t, kind, got, "error: %v", err)
}

func ptr[T any](v T) *T { return &v }
