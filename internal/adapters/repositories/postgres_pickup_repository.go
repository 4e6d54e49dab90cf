package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"ward-pickup-service/internal/domain"
	"ward-pickup-service/internal/platform/obs"
	"ward-pickup-service/internal/ports"
)

const pgPickupColumns = `
	id, citizen_id, ward_number, house_number, area, waste_type,
	pickup_time, overflow, lat, lng, status, assigned_to, completed_by,
	segregation_verified, verification_status, created_at, updated_at
`

// Postgres-backed implementation of the PickupRepository port.
type PostgresPickupRepository struct{ db dbtx }

func NewPostgresPickupRepository(db *sql.DB) *PostgresPickupRepository {
	return &PostgresPickupRepository{db: db}
}

func scanPostgresPickup(row rowScanner) (*domain.PickupRequest, error) {
	var (
		p                        domain.PickupRequest
		area, assigned, complete sql.NullString
		lat, lng                 sql.NullFloat64
		wasteType, status, vstat string
	)

	err := row.Scan(
		&p.ID, &p.CitizenID, &p.WardNumber, &p.HouseNumber, &area, &wasteType,
		&p.PickupTime, &p.Overflow, &lat, &lng, &status, &assigned, &complete,
		&p.SegregationVerified, &vstat, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Area = stringPtr(area)
	p.WasteType = domain.WasteType(wasteType)
	p.PickupTime = p.PickupTime.UTC()
	p.Location = locationPtr(lat, lng)
	p.Status = domain.PickupStatus(status)
	p.AssignedTo = stringPtr(assigned)
	p.CompletedBy = stringPtr(complete)
	p.VerificationStatus = domain.VerificationStatus(vstat)

	return &p, nil
}

func (r *PostgresPickupRepository) queryPickups(ctx context.Context, query string, args ...any) ([]*domain.PickupRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pickup_requests table: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.PickupRequest, 0, 16)
	for rows.Next() {
		p, err := scanPostgresPickup(rows)
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

func (r *PostgresPickupRepository) updateReturning(ctx context.Context, query string, args ...any) (*domain.PickupRequest, bool, error) {
	p, err := scanPostgresPickup(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (r *PostgresPickupRepository) Insert(ctx context.Context, p *domain.PickupRequest) (err error) {
	defer obs.Time(ctx, "postgres.pickups.Insert")(&err)

	if p == nil {
		return errors.New("insert pickup: request is nil")
	}

	lat, lng := nullCoords(p.Location)
	_, err = r.db.ExecContext(ctx, `
	INSERT INTO pickup_requests (`+pgPickupColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`,
		p.ID, p.CitizenID, p.WardNumber, p.HouseNumber, nullString(p.Area), string(p.WasteType),
		p.PickupTime.UTC(), p.Overflow, lat, lng, string(p.Status),
		nullString(p.AssignedTo), nullString(p.CompletedBy),
		p.SegregationVerified, string(p.VerificationStatus),
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert pickup id=%s: %w", p.ID, err)
	}

	return nil
}

func (r *PostgresPickupRepository) GetByID(ctx context.Context, id string) (*domain.PickupRequest, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+pgPickupColumns+` FROM pickup_requests WHERE id = $1;`, id)

	p, err := scanPostgresPickup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get pickup id=%s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get pickup id=%s: %w", id, err)
	}

	return p, nil
}

func (r *PostgresPickupRepository) List(ctx context.Context, filter ports.PickupFilter) (_ []*domain.PickupRequest, err error) {
	defer obs.Time(ctx, "postgres.pickups.List")(&err)

	var (
		qb   strings.Builder
		args []any
		idx  = 1
	)

	qb.WriteString("SELECT " + pgPickupColumns + " FROM pickup_requests WHERE TRUE")

	if filter.CitizenID != "" {
		qb.WriteString(" AND citizen_id = $" + strconv.Itoa(idx))
		args = append(args, filter.CitizenID)
		idx++
	}
	if filter.WardNumber != "" {
		qb.WriteString(" AND ward_number = $" + strconv.Itoa(idx))
		args = append(args, filter.WardNumber)
		idx++
	}
	if filter.Status != "" {
		qb.WriteString(" AND status = $" + strconv.Itoa(idx))
		args = append(args, string(filter.Status))
		idx++
	}

	qb.WriteString(" ORDER BY pickup_time, seq")

	pickups, err := r.queryPickups(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list pickups: %w", err)
	}
	return pickups, nil
}

func (r *PostgresPickupRepository) ListRouteCandidates(ctx context.Context, wardNumber, collectorID string) ([]*domain.PickupRequest, error) {
	query := `
	SELECT ` + pgPickupColumns + `
	FROM pickup_requests
	WHERE ward_number = $1
		AND (status = 'pending' OR (status = 'assigned' AND assigned_to = $2))
	ORDER BY seq;
	`
	pickups, err := r.queryPickups(ctx, query, wardNumber, collectorID)
	if err != nil {
		return nil, fmt.Errorf("list route candidates ward=%s: %w", wardNumber, err)
	}
	return pickups, nil
}

func (r *PostgresPickupRepository) ListAssigned(ctx context.Context, wardNumber, collectorID string) ([]*domain.PickupRequest, error) {
	query := `
	SELECT ` + pgPickupColumns + `
	FROM pickup_requests
	WHERE ward_number = $1 AND status = 'assigned' AND assigned_to = $2
	ORDER BY seq;
	`
	pickups, err := r.queryPickups(ctx, query, wardNumber, collectorID)
	if err != nil {
		return nil, fmt.Errorf("list assigned ward=%s collector=%s: %w", wardNumber, collectorID, err)
	}
	return pickups, nil
}

func (r *PostgresPickupRepository) ClaimPending(ctx context.Context, ids []string, collectorID string) (_ int64, err error) {
	defer obs.Time(ctx, "postgres.pickups.ClaimPending")(&err)

	if len(ids) == 0 {
		return 0, nil
	}

	res, err := r.db.ExecContext(ctx, `
	UPDATE pickup_requests
	SET status = 'assigned', assigned_to = $1, updated_at = NOW()
	WHERE status = 'pending' AND id = ANY($2::text[]);
	`, collectorID, ids)
	if err != nil {
		return 0, fmt.Errorf("claim pending: update pickup_requests: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("claim pending: rows affected: %w", err)
	}

	return n, nil
}

func (r *PostgresPickupRepository) SetSegregationVerified(ctx context.Context, id string, verified bool) (*domain.PickupRequest, bool, error) {
	p, ok, err := r.updateReturning(ctx, `
	UPDATE pickup_requests
	SET segregation_verified = $1, updated_at = NOW()
	WHERE id = $2 AND status IN ('pending', 'assigned')
	RETURNING `+pgPickupColumns+`;
	`, verified, id)
	if err != nil {
		return nil, false, fmt.Errorf("set segregation verified id=%s: %w", id, err)
	}
	if ok {
		return p, true, nil
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func (r *PostgresPickupRepository) SetVerificationStatus(ctx context.Context, id string, status domain.VerificationStatus) (*domain.PickupRequest, bool, error) {
	p, ok, err := r.updateReturning(ctx, `
	UPDATE pickup_requests
	SET verification_status = $1, updated_at = NOW()
	WHERE id = $2 AND verification_status <> $1 AND status NOT IN ('cancelled', 'missed')
	RETURNING `+pgPickupColumns+`;
	`, string(status), id)
	if err != nil {
		return nil, false, fmt.Errorf("set verification status id=%s: %w", id, err)
	}
	if ok {
		return p, true, nil
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func (r *PostgresPickupRepository) MarkFalseAlarmPenalized(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	UPDATE pickup_requests
	SET false_alarm_penalized = TRUE, updated_at = NOW()
	WHERE id = $1 AND NOT false_alarm_penalized;
	`, id)
	if err != nil {
		return false, fmt.Errorf("mark false alarm penalized id=%s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark false alarm penalized id=%s: rows affected: %w", id, err)
	}
	return n == 1, nil
}

func (r *PostgresPickupRepository) Complete(ctx context.Context, id, collectorID string) (_ *domain.PickupRequest, err error) {
	defer obs.Time(ctx, "postgres.pickups.Complete")(&err)

	p, ok, err := r.updateReturning(ctx, `
	UPDATE pickup_requests
	SET status = 'completed',
		completed_by = $1,
		segregation_verified = (verification_status <> 'false_alarm'),
		updated_at = NOW()
	WHERE id = $2 AND status IN ('pending', 'assigned')
	RETURNING `+pgPickupColumns+`;
	`, collectorID, id)
	if err != nil {
		return nil, fmt.Errorf("complete pickup id=%s: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("complete pickup id=%s: %w", id, ports.ErrNotFound)
	}

	return p, nil
}

func (r *PostgresPickupRepository) Cancel(ctx context.Context, id, citizenID string) (*domain.PickupRequest, error) {
	p, ok, err := r.updateReturning(ctx, `
	UPDATE pickup_requests
	SET status = 'cancelled', assigned_to = NULL, updated_at = NOW()
	WHERE id = $1 AND citizen_id = $2 AND status IN ('pending', 'assigned')
	RETURNING `+pgPickupColumns+`;
	`, id, citizenID)
	if err != nil {
		return nil, fmt.Errorf("cancel pickup id=%s: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("cancel pickup id=%s: %w", id, ports.ErrNotFound)
	}

	return p, nil
}
