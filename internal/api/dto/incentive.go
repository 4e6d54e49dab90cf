package dto

import "ward-pickup-service/internal/domain"

type IncentiveResponse struct {
	CitizenID string `json:"citizenId"`
	Points    int    `json:"points"`
}

func NewIncentiveResponse(b *domain.IncentiveBalance) *IncentiveResponse {
	if b == nil {
		return nil
	}
	return &IncentiveResponse{CitizenID: b.CitizenID, Points: b.Points}
}
