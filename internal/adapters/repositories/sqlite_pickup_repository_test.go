package repositories

import (
	"context"
	"sync"
	"testing"
	"time"
	"ward-pickup-service/internal/domain"
	"ward-pickup-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqlitePickupRepository_InsertAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSqlitePickupRepository(openTestSqlite(t))

	area := "Beltola"
	p := testPickup("p1", "c1", "12", true, &domain.Location{Lat: 26.1, Lng: 91.7})
	p.Area = &area
	insertPickups(t, repo, p)

	got, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)

	assert.Equal(t, "c1", got.CitizenID)
	assert.Equal(t, "12", got.WardNumber)
	assert.Equal(t, "Beltola", got.AreaLabel())
	assert.True(t, got.Overflow)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, domain.VerificationPending, got.VerificationStatus)
	assert.False(t, got.SegregationVerified)
	assert.Nil(t, got.AssignedTo)
	require.NotNil(t, got.Location)
	assert.InDelta(t, 26.1, got.Location.Lat, 1e-9)
	assert.True(t, p.PickupTime.Equal(got.PickupTime))
}

func TestSqlitePickupRepository_GetMissingIsNotFound(t *testing.T) {
	repo := NewSqlitePickupRepository(openTestSqlite(t))

	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSqlitePickupRepository_ListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	repo := NewSqlitePickupRepository(openTestSqlite(t))

	late := testPickup("late", "c1", "12", false, nil)
	late.PickupTime = late.PickupTime.Add(48 * time.Hour)
	early := testPickup("early", "c1", "12", false, nil)
	other := testPickup("other", "c2", "7", false, nil)
	insertPickups(t, repo, late, early, other)

	mine, err := repo.List(ctx, ports.PickupFilter{CitizenID: "c1"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "early", mine[0].ID)
	assert.Equal(t, "late", mine[1].ID)

	ward, err := repo.List(ctx, ports.PickupFilter{WardNumber: "7"})
	require.NoError(t, err)
	require.Len(t, ward, 1)
	assert.Equal(t, "other", ward[0].ID)

	none, err := repo.List(ctx, ports.PickupFilter{Status: domain.StatusCompleted})
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := repo.List(ctx, ports.PickupFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSqlitePickupRepository_ClaimPendingSkipsTakenRows(t *testing.T) {
	ctx := context.Background()
	repo := NewSqlitePickupRepository(openTestSqlite(t))
	insertPickups(t, repo,
		testPickup("a", "c1", "12", false, nil),
		testPickup("b", "c1", "12", false, nil),
	)

	n, err := repo.ClaimPending(ctx, []string{"a"}, "col-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.ClaimPending(ctx, []string{"a", "b"}, "col-2")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	a, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, a.AssignedTo)
	assert.Equal(t, "col-1", *a.AssignedTo)

	assigned, err := repo.ListAssigned(ctx, "12", "col-2")
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, "b", assigned[0].ID)

	n, err = repo.ClaimPending(ctx, nil, "col-2")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSqlitePickupRepository_ConcurrentClaimsNeverOverlap(t *testing.T) {
	ctx := context.Background()
	repo := NewSqlitePickupRepository(openTestSqlite(t))

	ids := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		id := "p" + string(rune('a'+i))
		ids = append(ids, id)
		insertPickups(t, repo, testPickup(id, "c1", "12", false, nil))
	}

	var (
		wg     sync.WaitGroup
		counts [2]int64
		errs   [2]error
	)
	for i, collector := range []string{"col-1", "col-2"} {
		wg.Add(1)
		go func(i int, collector string) {
			defer wg.Done()
			counts[i], errs[i] = repo.ClaimPending(ctx, ids, collector)
		}(i, collector)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.EqualValues(t, 20, counts[0]+counts[1])

	first, err := repo.ListAssigned(ctx, "12", "col-1")
	require.NoError(t, err)
	second, err := repo.ListAssigned(ctx, "12", "col-2")
	require.NoError(t, err)
	assert.Len(t, append(first, second...), 20)
}

func TestSqlitePickupRepository_RouteCandidatesScopedToWardAndCollector(t *testing.T) {
	ctx := context.Background()
	repo := NewSqlitePickupRepository(openTestSqlite(t))
	insertPickups(t, repo,
		testPickup("mine", "c1", "12", false, nil),
		testPickup("theirs", "c1", "12", false, nil),
		testPickup("open", "c1", "12", false, nil),
		testPickup("elsewhere", "c2", "7", false, nil),
	)
	_, err := repo.ClaimPending(ctx, []string{"mine"}, "col-1")
	require.NoError(t, err)
	_, err = repo.ClaimPending(ctx, []string{"theirs"}, "col-2")
	require.NoError(t, err)

	got, err := repo.ListRouteCandidates(ctx, "12", "col-1")
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"mine", "open"}, ids)
}

func TestSqlitePickupRepository_CompleteResolvesSegregation(t *testing.T) {
	ctx := context.Background()
	repo := NewSqlitePickupRepository(openTestSqlite(t))
	insertPickups(t, repo,
		testPickup("plain", "c1", "12", false, nil),
		testPickup("alarm", "c1", "12", true, nil),
		testPickup("attested", "c1", "12", false, nil),
	)

	_, changed, err := repo.SetVerificationStatus(ctx, "alarm", domain.VerificationFalseAlarm)
	require.NoError(t, err)
	require.True(t, changed)
	_, applied, err := repo.SetSegregationVerified(ctx, "attested", true)
	require.NoError(t, err)
	require.True(t, applied)

	plain, err := repo.Complete(ctx, "plain", "col-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, plain.Status)
	assert.True(t, plain.SegregationVerified)
	require.NotNil(t, plain.CompletedBy)
	assert.Equal(t, "col-1", *plain.CompletedBy)

	alarm, err := repo.Complete(ctx, "alarm", "col-1")
	require.NoError(t, err)
	assert.False(t, alarm.SegregationVerified)

	attested, err := repo.Complete(ctx, "attested", "col-1")
	require.NoError(t, err)
	assert.True(t, attested.SegregationVerified)

	_, err = repo.Complete(ctx, "plain", "col-2")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSqlitePickupRepository_SetVerificationStatusReportsChange(t *testing.T) {
	ctx := context.Background()
	repo := NewSqlitePickupRepository(openTestSqlite(t))
	insertPickups(t, repo, testPickup("p1", "c1", "12", true, nil))

	p, changed, err := repo.SetVerificationStatus(ctx, "p1", domain.VerificationFalseAlarm)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.VerificationFalseAlarm, p.VerificationStatus)

	p, changed, err = repo.SetVerificationStatus(ctx, "p1", domain.VerificationFalseAlarm)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, domain.VerificationFalseAlarm, p.VerificationStatus)

	_, _, err = repo.SetVerificationStatus(ctx, "missing", domain.VerificationVerified)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSqlitePickupRepository_MarkFalseAlarmPenalizedOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewSqlitePickupRepository(openTestSqlite(t))
	insertPickups(t, repo, testPickup("p1", "c1", "12", true, nil))

	first, err := repo.MarkFalseAlarmPenalized(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, first)

	first, err = repo.MarkFalseAlarmPenalized(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, first)

	first, err = repo.MarkFalseAlarmPenalized(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, first)
}

func TestSqlitePickupRepository_CancelOnlyByOwnerAndClearsAssignment(t *testing.T) {
	ctx := context.Background()
	repo := NewSqlitePickupRepository(openTestSqlite(t))
	insertPickups(t, repo, testPickup("p1", "c1", "12", false, nil))
	_, err := repo.ClaimPending(ctx, []string{"p1"}, "col-1")
	require.NoError(t, err)

	_, err = repo.Cancel(ctx, "p1", "someone-else")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	p, err := repo.Cancel(ctx, "p1", "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, p.Status)
	assert.Nil(t, p.AssignedTo)

	_, err = repo.Cancel(ctx, "p1", "c1")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	_, applied, err := repo.SetSegregationVerified(ctx, "p1", true)
	require.NoError(t, err)
	assert.False(t, applied)
}
