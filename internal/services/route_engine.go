package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"ward-pickup-service/internal/domain"
	"ward-pickup-service/internal/platform/obs"
	"ward-pickup-service/internal/ports"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// Default collection depot used when none is configured.
var DefaultDepot = domain.Location{Lat: 26.1445, Lng: 91.7362}

const (
	priorityExplanation = "Priority Stop: Reported Overflow. Please verify upon arrival."
	standardExplanation = "Optimized Stop: Shortest path from previous location"

	RouteExplanation = "Overflow reports are visited first, then standard requests; " +
		"each queue is ordered by nearest neighbor, starting at the depot and " +
		"continuing from the last priority stop."
)

// RouteEngine claims a collector's ward work and orders it into a shift route.
type RouteEngine struct {
	Accounts ports.AccountRepository
	Pickups  ports.PickupRepository
	Depot    domain.Location
}

func NewRouteEngine(accounts ports.AccountRepository, pickups ports.PickupRepository, depot domain.Location) *RouteEngine {
	return &RouteEngine{Accounts: accounts, Pickups: pickups, Depot: depot}
}

// GenerateShiftRoute builds the route for the calling collector's ward.
// Other roles are rejected before any pickup is read or claimed.
func (e *RouteEngine) GenerateShiftRoute(ctx context.Context, principalID string) (*domain.ShiftRoute, error) {
	principal, err := resolvePrincipal(ctx, e.Accounts, principalID)
	if err != nil {
		return nil, err
	}

	collector, ok := principal.(domain.Collector)
	if !ok {
		return nil, domain.AuthorizationError("only collectors can generate routes")
	}

	return e.BuildRoute(ctx, collector.Account.WardNumber, collector.Account.ID)
}

// BuildRoute claims every pending request in wardNumber for collectorID and
// orders everything the collector then holds. Requests claimed concurrently
// by another collector are left out without error.
func (e *RouteEngine) BuildRoute(ctx context.Context, wardNumber, collectorID string) (_ *domain.ShiftRoute, err error) {
	defer obs.Time(ctx, "route.BuildRoute")(&err)

	route := &domain.ShiftRoute{
		WardNumber:  wardNumber,
		CollectorID: collectorID,
		Depot:       e.Depot,
		Stops:       []domain.RouteStop{},
	}
	if wardNumber == "" {
		return route, nil
	}

	candidates, err := e.Pickups.ListRouteCandidates(ctx, wardNumber, collectorID)
	if err != nil {
		return nil, fmt.Errorf("build route: %w", err)
	}

	pendingIDs := make([]string, 0, len(candidates))
	for _, p := range candidates {
		if p.Status == domain.StatusPending {
			pendingIDs = append(pendingIDs, p.ID)
		}
	}

	claimed, err := e.Pickups.ClaimPending(ctx, pendingIDs, collectorID)
	if err != nil {
		return nil, fmt.Errorf("build route: %w", err)
	}

	// Re-read so only rows this collector actually holds are routed.
	assigned, err := e.Pickups.ListAssigned(ctx, wardNumber, collectorID)
	if err != nil {
		return nil, fmt.Errorf("build route: %w", err)
	}

	var priority, standard []*domain.PickupRequest
	for _, p := range assigned {
		if p.Overflow {
			priority = append(priority, p)
		} else {
			standard = append(standard, p)
		}
	}

	priorityTour, cursor := NearestNeighborTour(e.Depot, priority)
	standardTour, _ := NearestNeighborTour(cursor, standard)

	for _, s := range priorityTour {
		route.Stops = append(route.Stops, newRouteStop(len(route.Stops)+1, s))
	}
	for _, s := range standardTour {
		route.Stops = append(route.Stops, newRouteStop(len(route.Stops)+1, s))
	}
	route.PriorityCount = len(priorityTour)
	route.StandardCount = len(standardTour)

	obs.FromContext(ctx).WithFields(logrus.Fields{
		"ward":         wardNumber,
		"collector_id": collectorID,
		"candidates":   len(candidates),
		"claimed":      claimed,
		"lost":         int64(len(pendingIDs)) - claimed,
		"stops":        len(route.Stops),
	}).Info("shift route generated")

	return route, nil
}

func newRouteStop(seq int, s TourStop) domain.RouteStop {
	p := s.Pickup
	stop := domain.RouteStop{
		Sequence:           seq,
		PickupID:           p.ID,
		CitizenID:          p.CitizenID,
		HouseNumber:        p.HouseNumber,
		WardNumber:         p.WardNumber,
		Area:               p.AreaLabel(),
		WasteType:          p.WasteType,
		PickupTime:         p.PickupTime,
		Overflow:           p.Overflow,
		VerificationStatus: p.VerificationStatus,
		Location:           p.Location,
	}

	if !math.IsInf(s.LegKm, 1) {
		km := s.LegKm
		stop.DistanceKm = &km
	}
	stop.Explanation = explainStop(p.Overflow, stop.DistanceKm)

	return stop
}

func explainStop(overflow bool, legKm *float64) string {
	if overflow {
		return priorityExplanation
	}
	if legKm == nil {
		return standardExplanation + "."
	}
	return fmt.Sprintf("%s (%s km).", standardExplanation, humanize.FtoaWithDigits(*legKm, 2))
}

// resolvePrincipal loads the caller's account and maps it onto its role variant.
func resolvePrincipal(ctx context.Context, accounts ports.AccountRepository, principalID string) (domain.Principal, error) {
	if principalID == "" {
		return nil, domain.AuthorizationError("missing principal")
	}

	acc, err := accounts.GetAccount(ctx, principalID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, domain.AuthorizationError("unknown principal")
	}
	if err != nil {
		return nil, fmt.Errorf("resolve principal: %w", err)
	}

	principal, err := domain.PrincipalFor(*acc)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindAuthorization, Message: "unrecognized role", Err: err}
	}
	return principal, nil
}
