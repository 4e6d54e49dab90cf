package geo

import (
	"math"
	"ward-pickup-service/internal/domain"

	"github.com/umahmood/haversine"
)

// Unreachable is returned when a leg cannot be measured.
var Unreachable = math.Inf(1)

// DistanceKm returns the great-circle distance between two points in kilometers.
// A nil endpoint yields Unreachable so callers can rank unlocated stops last.
func DistanceKm(from, to *domain.Location) float64 {
	if from == nil || to == nil {
		return Unreachable
	}

	_, km := haversine.Distance(
		haversine.Coord{Lat: from.Lat, Lon: from.Lng},
		haversine.Coord{Lat: to.Lat, Lon: to.Lng},
	)
	return km
}
