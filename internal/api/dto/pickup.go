package dto

import (
	"encoding/json"
	"time"
	"ward-pickup-service/internal/domain"
)

// CreatePickupRequest accepts coordinates either nested under "location"
// or as top-level lat/lng. Coordinates are decoded leniently: anything that
// is not a JSON number leaves the pair unset.
type CreatePickupRequest struct {
	WasteType  string          `json:"wasteType"`
	PickupTime *time.Time      `json:"pickupTime"`
	Overflow   bool            `json:"overflow"`
	Location   json.RawMessage `json:"location"`
	Lat        json.RawMessage `json:"lat"`
	Lng        json.RawMessage `json:"lng"`
}

// Coordinates returns the client-supplied pair. A nested location wins
// over the flat fields when it carries both numbers.
func (r CreatePickupRequest) Coordinates() (lat, lng *float64) {
	if len(r.Location) > 0 {
		var nested struct {
			Lat json.RawMessage `json:"lat"`
			Lng json.RawMessage `json:"lng"`
		}
		if json.Unmarshal(r.Location, &nested) == nil {
			lat, lng = number(nested.Lat), number(nested.Lng)
			if lat != nil && lng != nil {
				return lat, lng
			}
		}
	}
	return number(r.Lat), number(r.Lng)
}

func number(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return &f
}

type VerifyPickupRequest struct {
	Verified           *bool   `json:"verified"`
	VerificationStatus *string `json:"verificationStatus"`
}

type PickupResponse struct {
	ID                  string           `json:"id"`
	CitizenID           string           `json:"citizenId"`
	WardNumber          string           `json:"wardNumber"`
	HouseNumber         string           `json:"houseNumber"`
	Area                *string          `json:"area"`
	WasteType           string           `json:"wasteType"`
	PickupTime          time.Time        `json:"pickupTime"`
	Overflow            bool             `json:"overflow"`
	Location            *domain.Location `json:"location"`
	Status              string           `json:"status"`
	AssignedTo          *string          `json:"assignedTo"`
	CompletedBy         *string          `json:"completedBy"`
	SegregationVerified bool             `json:"segregationVerified"`
	VerificationStatus  string           `json:"verificationStatus"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

type VerifyPickupResponse struct {
	Pickup PickupResponse `json:"pickup"`
}

type CompletePickupResponse struct {
	Pickup    PickupResponse     `json:"pickup"`
	Incentive *IncentiveResponse `json:"incentive"`
}

type CancelPickupResponse struct {
	Message string         `json:"message"`
	Pickup  PickupResponse `json:"pickup"`
}

func NewPickupResponse(p *domain.PickupRequest) PickupResponse {
	return PickupResponse{
		ID:                  p.ID,
		CitizenID:           p.CitizenID,
		WardNumber:          p.WardNumber,
		HouseNumber:         p.HouseNumber,
		Area:                p.Area,
		WasteType:           string(p.WasteType),
		PickupTime:          p.PickupTime,
		Overflow:            p.Overflow,
		Location:            p.Location,
		Status:              string(p.Status),
		AssignedTo:          p.AssignedTo,
		CompletedBy:         p.CompletedBy,
		SegregationVerified: p.SegregationVerified,
		VerificationStatus:  string(p.VerificationStatus),
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}
