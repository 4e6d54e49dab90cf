package domain

import "time"

// One balance per citizen. A missing record means zero points.
type IncentiveBalance struct {
	CitizenID string
	Points    int
	UpdatedAt time.Time
}
