package dto

import (
	"time"
	"ward-pickup-service/internal/domain"
)

type RouteMeta struct {
	WardNumber    string          `json:"wardNumber"`
	CollectorID   string          `json:"collectorId"`
	Depot         domain.Location `json:"depot"`
	PriorityCount int             `json:"priorityCount"`
	StandardCount int             `json:"standardCount"`
	TotalStops    int             `json:"totalStops"`
	Explanation   string          `json:"explanation"`
}

type RouteStopResponse struct {
	Sequence           int              `json:"sequence"`
	PickupID           string           `json:"pickupId"`
	CitizenID          string           `json:"citizenId"`
	HouseNumber        string           `json:"houseNumber"`
	WardNumber         string           `json:"wardNumber"`
	Area               string           `json:"area"`
	WasteType          string           `json:"wasteType"`
	PickupTime         time.Time        `json:"pickupTime"`
	Overflow           bool             `json:"overflow"`
	VerificationStatus string           `json:"verificationStatus"`
	Location           *domain.Location `json:"location"`
	DistanceKm         *float64         `json:"distanceKm"`
	Explanation        string           `json:"explanation"`
}

type RouteResponse struct {
	Meta  RouteMeta           `json:"meta"`
	Route []RouteStopResponse `json:"route"`
}

func NewRouteResponse(r *domain.ShiftRoute, explanation string) RouteResponse {
	res := RouteResponse{
		Meta: RouteMeta{
			WardNumber:    r.WardNumber,
			CollectorID:   r.CollectorID,
			Depot:         r.Depot,
			PriorityCount: r.PriorityCount,
			StandardCount: r.StandardCount,
			TotalStops:    len(r.Stops),
			Explanation:   explanation,
		},
		Route: make([]RouteStopResponse, 0, len(r.Stops)),
	}

	for _, s := range r.Stops {
		res.Route = append(res.Route, RouteStopResponse{
			Sequence:           s.Sequence,
			PickupID:           s.PickupID,
			CitizenID:          s.CitizenID,
			HouseNumber:        s.HouseNumber,
			WardNumber:         s.WardNumber,
			Area:               s.Area,
			WasteType:          string(s.WasteType),
			PickupTime:         s.PickupTime,
			Overflow:           s.Overflow,
			VerificationStatus: string(s.VerificationStatus),
			Location:           s.Location,
			DistanceKm:         s.DistanceKm,
			Explanation:        s.Explanation,
		})
	}

	return res
}
