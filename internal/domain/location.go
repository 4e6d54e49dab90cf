package domain

import "math"

// Immutable geographic coordinates (latitude, longitude).
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both components are finite and within range.
func (l Location) Valid() bool {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lng) || math.IsInf(l.Lat, 0) || math.IsInf(l.Lng, 0) {
		return false
	}
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// LocationFromParts builds a Location only when both parts are present and valid.
func LocationFromParts(lat, lng *float64) *Location {
	if lat == nil || lng == nil {
		return nil
	}
	loc := Location{Lat: *lat, Lng: *lng}
	if !loc.Valid() {
		return nil
	}
	return &loc
}
