package services

import (
	"slices"
	"ward-pickup-service/internal/domain"
	"ward-pickup-service/internal/geo"
)

// One visited request and the great-circle leg that reached it.
// LegKm is +Inf when either end of the leg has no coordinates.
type TourStop struct {
	Pickup *domain.PickupRequest
	LegKm  float64
}

// Order pickups with a greedy nearest-neighbor walk starting at start.
//
// Each step moves to the closest remaining request. Ties keep input order,
// and when nothing remaining is measurable the first remaining request is
// taken. Requests without coordinates never move the cursor. The returned
// location is where the cursor stopped, so a second tour can continue from it.
//
// It does not attempt global route optimization.
func NearestNeighborTour(start domain.Location, pickups []*domain.PickupRequest) ([]TourStop, domain.Location) {
	remaining := slices.Clone(pickups)
	current := start

	stops := make([]TourStop, 0, len(remaining))
	for len(remaining) > 0 {
		bestIdx := 0
		best := geo.Unreachable

		// Select next stop by minimum distance (greedy step).
		for i, p := range remaining {
			if d := geo.DistanceKm(&current, p.Location); d < best {
				best = d
				bestIdx = i
			}
		}

		next := remaining[bestIdx]
		stops = append(stops, TourStop{Pickup: next, LegKm: best})
		remaining = slices.Delete(remaining, bestIdx, bestIdx+1)

		if next.Location != nil {
			current = *next.Location
		}
	}

	return stops, current
}
