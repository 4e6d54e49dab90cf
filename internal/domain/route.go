package domain

import "time"

// Represents a single numbered stop in a collector's shift route.
// DistanceKm is the leg from the previous cursor position; it is nil
// when either end of the leg has no coordinates.
type RouteStop struct {
	Sequence           int
	PickupID           string
	CitizenID          string
	HouseNumber        string
	WardNumber         string
	Area               string
	WasteType          WasteType
	PickupTime         time.Time
	Overflow           bool
	VerificationStatus VerificationStatus
	Location           *Location
	DistanceKm         *float64
	Explanation        string
}

// Represents the ordered shift route for one collector in one ward.
// It is planning output and carries no side effects.
type ShiftRoute struct {
	WardNumber    string
	CollectorID   string
	Depot         Location
	PriorityCount int
	StandardCount int
	Stops         []RouteStop
}
