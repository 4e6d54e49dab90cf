package domain

import (
	"fmt"
	"time"
)

type PickupStatus string

const (
	StatusPending   PickupStatus = "pending"
	StatusAssigned  PickupStatus = "assigned"
	StatusCompleted PickupStatus = "completed"
	StatusCancelled PickupStatus = "cancelled"

	// Reserved for a time-based expiry sweep; nothing transitions into it yet.
	StatusMissed PickupStatus = "missed"
)

// ParsePickupStatus accepts only the five lifecycle states.
func ParsePickupStatus(s string) (PickupStatus, error) {
	switch st := PickupStatus(s); st {
	case StatusPending, StatusAssigned, StatusCompleted, StatusCancelled, StatusMissed:
		return st, nil
	}
	return "", fmt.Errorf("unknown pickup status %q", s)
}

// Terminal states accept no further lifecycle transition.
func (s PickupStatus) Terminal() bool {
	return s == StatusCompleted || s.Withdrawn()
}

// Withdrawn reports a request that ended without being collected.
func (s PickupStatus) Withdrawn() bool {
	return s == StatusCancelled || s == StatusMissed
}

type WasteType string

const (
	WasteWet    WasteType = "wet"
	WasteDry    WasteType = "dry"
	WasteEWaste WasteType = "e-waste"
)

type VerificationStatus string

const (
	VerificationPending    VerificationStatus = "pending"
	VerificationVerified   VerificationStatus = "verified"
	VerificationFalseAlarm VerificationStatus = "false_alarm"
)

func ParseVerificationStatus(s string) (VerificationStatus, error) {
	switch v := VerificationStatus(s); v {
	case VerificationPending, VerificationVerified, VerificationFalseAlarm:
		return v, nil
	}
	return "", fmt.Errorf("unknown verification status %q", s)
}

// Represents one resident's collection job within a single ward.
// WardNumber, HouseNumber and Area are copied from the owning citizen's
// account at creation and never change afterwards.
type PickupRequest struct {
	ID          string
	CitizenID   string
	WardNumber  string
	HouseNumber string
	Area        *string

	WasteType  WasteType
	PickupTime time.Time
	Overflow   bool
	Location   *Location

	Status      PickupStatus
	AssignedTo  *string
	CompletedBy *string

	SegregationVerified bool
	VerificationStatus  VerificationStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPickupRequest returns a request in its initial lifecycle state.
func NewPickupRequest(id string, citizen Account, wasteType WasteType, pickupTime time.Time, overflow bool, loc *Location, now time.Time) *PickupRequest {
	return &PickupRequest{
		ID:                 id,
		CitizenID:          citizen.ID,
		WardNumber:         citizen.WardNumber,
		HouseNumber:        citizen.HouseNumber,
		Area:               citizen.Area,
		WasteType:          wasteType,
		PickupTime:         pickupTime,
		Overflow:           overflow,
		Location:           loc,
		Status:             StatusPending,
		VerificationStatus: VerificationPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// AreaLabel returns the area or "Unknown" when it was never recorded.
func (p *PickupRequest) AreaLabel() string {
	if p.Area == nil || *p.Area == "" {
		return "Unknown"
	}
	return *p.Area
}
