package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"ward-pickup-service/internal/domain"
	"ward-pickup-service/internal/platform/obs"
	"ward-pickup-service/internal/ports"
)

const sqlitePickupColumns = `
	id, citizen_id, ward_number, house_number, area, waste_type,
	pickup_time, overflow, lat, lng, status, assigned_to, completed_by,
	segregation_verified, verification_status, created_at, updated_at
`

// SQLite-backed implementation of the PickupRepository port.
// Timestamps are stored as Unix milliseconds.
type SqlitePickupRepository struct{ db dbtx }

func NewSqlitePickupRepository(db *sql.DB) *SqlitePickupRepository {
	return &SqlitePickupRepository{db: db}
}

func scanSqlitePickup(row rowScanner) (*domain.PickupRequest, error) {
	var (
		p                        domain.PickupRequest
		area, assigned, complete sql.NullString
		lat, lng                 sql.NullFloat64
		pickupAt, created, upd   int64
		wasteType, status, vstat string
	)

	err := row.Scan(
		&p.ID, &p.CitizenID, &p.WardNumber, &p.HouseNumber, &area, &wasteType,
		&pickupAt, &p.Overflow, &lat, &lng, &status, &assigned, &complete,
		&p.SegregationVerified, &vstat, &created, &upd,
	)
	if err != nil {
		return nil, err
	}

	p.Area = stringPtr(area)
	p.WasteType = domain.WasteType(wasteType)
	p.PickupTime = time.UnixMilli(pickupAt).UTC()
	p.Location = locationPtr(lat, lng)
	p.Status = domain.PickupStatus(status)
	p.AssignedTo = stringPtr(assigned)
	p.CompletedBy = stringPtr(complete)
	p.VerificationStatus = domain.VerificationStatus(vstat)
	p.CreatedAt = time.UnixMilli(created).UTC()
	p.UpdatedAt = time.UnixMilli(upd).UTC()

	return &p, nil
}

func (s *SqlitePickupRepository) queryPickups(ctx context.Context, query string, args ...any) ([]*domain.PickupRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pickup_requests table: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.PickupRequest, 0, 16)
	for rows.Next() {
		p, err := scanSqlitePickup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}

	return out, nil
}

// updateReturning runs a conditional UPDATE … RETURNING and reports whether a row matched.
func (s *SqlitePickupRepository) updateReturning(ctx context.Context, query string, args ...any) (*domain.PickupRequest, bool, error) {
	p, err := scanSqlitePickup(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (s *SqlitePickupRepository) Insert(ctx context.Context, p *domain.PickupRequest) (err error) {
	defer obs.Time(ctx, "sqlite.pickups.Insert")(&err)

	if p == nil {
		return errors.New("insert pickup: request is nil")
	}

	lat, lng := nullCoords(p.Location)
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO pickup_requests (`+sqlitePickupColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`,
		p.ID, p.CitizenID, p.WardNumber, p.HouseNumber, nullString(p.Area), string(p.WasteType),
		p.PickupTime.UTC().UnixMilli(), p.Overflow, lat, lng, string(p.Status),
		nullString(p.AssignedTo), nullString(p.CompletedBy),
		p.SegregationVerified, string(p.VerificationStatus),
		p.CreatedAt.UTC().UnixMilli(), p.UpdatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert pickup id=%s: %w", p.ID, err)
	}

	return nil
}

func (s *SqlitePickupRepository) GetByID(ctx context.Context, id string) (*domain.PickupRequest, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqlitePickupColumns+` FROM pickup_requests WHERE id = ?;`, id)

	p, err := scanSqlitePickup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get pickup id=%s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get pickup id=%s: %w", id, err)
	}

	return p, nil
}

func (s *SqlitePickupRepository) List(ctx context.Context, filter ports.PickupFilter) (_ []*domain.PickupRequest, err error) {
	defer obs.Time(ctx, "sqlite.pickups.List")(&err)

	var (
		conds []string
		args  []any
	)
	if filter.CitizenID != "" {
		conds = append(conds, "citizen_id = ?")
		args = append(args, filter.CitizenID)
	}
	if filter.WardNumber != "" {
		conds = append(conds, "ward_number = ?")
		args = append(args, filter.WardNumber)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}

	var qb strings.Builder
	qb.WriteString("SELECT " + sqlitePickupColumns + " FROM pickup_requests")
	if len(conds) > 0 {
		qb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	qb.WriteString(" ORDER BY pickup_time, created_at, rowid;")

	pickups, err := s.queryPickups(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list pickups: %w", err)
	}
	return pickups, nil
}

func (s *SqlitePickupRepository) ListRouteCandidates(ctx context.Context, wardNumber, collectorID string) ([]*domain.PickupRequest, error) {
	query := `
	SELECT ` + sqlitePickupColumns + `
	FROM pickup_requests
	WHERE ward_number = ?
		AND (status = 'pending' OR (status = 'assigned' AND assigned_to = ?))
	ORDER BY created_at, rowid;
	`
	pickups, err := s.queryPickups(ctx, query, wardNumber, collectorID)
	if err != nil {
		return nil, fmt.Errorf("list route candidates ward=%s: %w", wardNumber, err)
	}
	return pickups, nil
}

func (s *SqlitePickupRepository) ListAssigned(ctx context.Context, wardNumber, collectorID string) ([]*domain.PickupRequest, error) {
	query := `
	SELECT ` + sqlitePickupColumns + `
	FROM pickup_requests
	WHERE ward_number = ? AND status = 'assigned' AND assigned_to = ?
	ORDER BY created_at, rowid;
	`
	pickups, err := s.queryPickups(ctx, query, wardNumber, collectorID)
	if err != nil {
		return nil, fmt.Errorf("list assigned ward=%s collector=%s: %w", wardNumber, collectorID, err)
	}
	return pickups, nil
}

func (s *SqlitePickupRepository) ClaimPending(ctx context.Context, ids []string, collectorID string) (_ int64, err error) {
	defer obs.Time(ctx, "sqlite.pickups.ClaimPending")(&err)

	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(ids)+2)
	args = append(args, collectorID, time.Now().UTC().UnixMilli())
	for _, id := range ids {
		args = append(args, id)
	}

	// SQLite does not support binding slices directly in an IN (...) clause.
	// Only the placeholder structure is interpolated; all values remain parameterized.
	query := fmt.Sprintf(`
	UPDATE pickup_requests
	SET status = 'assigned', assigned_to = ?, updated_at = ?
	WHERE status = 'pending' AND id IN (%s);
	`, placeholders(len(ids)))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("claim pending: update pickup_requests: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("claim pending: rows affected: %w", err)
	}

	return n, nil
}

func (s *SqlitePickupRepository) SetSegregationVerified(ctx context.Context, id string, verified bool) (*domain.PickupRequest, bool, error) {
	p, ok, err := s.updateReturning(ctx, `
	UPDATE pickup_requests
	SET segregation_verified = ?, updated_at = ?
	WHERE id = ? AND status IN ('pending', 'assigned')
	RETURNING `+sqlitePickupColumns+`;
	`, verified, time.Now().UTC().UnixMilli(), id)
	if err != nil {
		return nil, false, fmt.Errorf("set segregation verified id=%s: %w", id, err)
	}
	if ok {
		return p, true, nil
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func (s *SqlitePickupRepository) SetVerificationStatus(ctx context.Context, id string, status domain.VerificationStatus) (*domain.PickupRequest, bool, error) {
	p, ok, err := s.updateReturning(ctx, `
	UPDATE pickup_requests
	SET verification_status = ?, updated_at = ?
	WHERE id = ? AND verification_status <> ? AND status NOT IN ('cancelled', 'missed')
	RETURNING `+sqlitePickupColumns+`;
	`, string(status), time.Now().UTC().UnixMilli(), id, string(status))
	if err != nil {
		return nil, false, fmt.Errorf("set verification status id=%s: %w", id, err)
	}
	if ok {
		return p, true, nil
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func (s *SqlitePickupRepository) MarkFalseAlarmPenalized(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
	UPDATE pickup_requests
	SET false_alarm_penalized = 1, updated_at = ?
	WHERE id = ? AND false_alarm_penalized = 0;
	`, time.Now().UTC().UnixMilli(), id)
	if err != nil {
		return false, fmt.Errorf("mark false alarm penalized id=%s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark false alarm penalized id=%s: rows affected: %w", id, err)
	}
	return n == 1, nil
}

func (s *SqlitePickupRepository) Complete(ctx context.Context, id, collectorID string) (_ *domain.PickupRequest, err error) {
	defer obs.Time(ctx, "sqlite.pickups.Complete")(&err)

	// Segregation is resolved from the row as it stands at write time:
	// a false alarm forces false, anything else ends up true.
	p, ok, err := s.updateReturning(ctx, `
	UPDATE pickup_requests
	SET status = 'completed',
		completed_by = ?,
		segregation_verified = CASE WHEN verification_status = 'false_alarm' THEN 0 ELSE 1 END,
		updated_at = ?
	WHERE id = ? AND status IN ('pending', 'assigned')
	RETURNING `+sqlitePickupColumns+`;
	`, collectorID, time.Now().UTC().UnixMilli(), id)
	if err != nil {
		return nil, fmt.Errorf("complete pickup id=%s: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("complete pickup id=%s: %w", id, ports.ErrNotFound)
	}

	return p, nil
}

func (s *SqlitePickupRepository) Cancel(ctx context.Context, id, citizenID string) (*domain.PickupRequest, error) {
	p, ok, err := s.updateReturning(ctx, `
	UPDATE pickup_requests
	SET status = 'cancelled', assigned_to = NULL, updated_at = ?
	WHERE id = ? AND citizen_id = ? AND status IN ('pending', 'assigned')
	RETURNING `+sqlitePickupColumns+`;
	`, time.Now().UTC().UnixMilli(), id, citizenID)
	if err != nil {
		return nil, fmt.Errorf("cancel pickup id=%s: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("cancel pickup id=%s: %w", id, ports.ErrNotFound)
	}

	return p, nil
}
