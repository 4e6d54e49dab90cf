package services

import (
	"context"
	"errors"
	"fmt"
	"ward-pickup-service/internal/domain"
	"ward-pickup-service/internal/platform/obs"
	"ward-pickup-service/internal/ports"

	"github.com/sirupsen/logrus"
)

// Points credited per verified pickup, by waste category.
var PointsTable = map[domain.WasteType]int{
	domain.WasteWet:    5,
	domain.WasteDry:    8,
	domain.WasteEWaste: 15,
}

const (
	// Credited for categories missing from PointsTable.
	DefaultPoints = 5
	// Debited for each confirmed false overflow report.
	FalseAlarmPenalty = 50

	ReasonFalseAlarm = "False Priority Alarm"
)

// PointsFor returns the accrual amount for a waste category.
func PointsFor(wt domain.WasteType) int {
	if pts, ok := PointsTable[wt]; ok {
		return pts
	}
	return DefaultPoints
}

// IncentiveLedger mutates citizen balances only through atomic increments.
type IncentiveLedger struct {
	Repo ports.IncentiveRepository
}

func NewIncentiveLedger(repo ports.IncentiveRepository) *IncentiveLedger {
	return &IncentiveLedger{Repo: repo}
}

// Accrue credits the table value for wasteType and returns the new balance.
func (l *IncentiveLedger) Accrue(ctx context.Context, citizenID string, wasteType domain.WasteType) (*domain.IncentiveBalance, error) {
	delta := PointsFor(wasteType)

	b, err := l.Repo.Increment(ctx, citizenID, delta)
	if err != nil {
		return nil, fmt.Errorf("accrue incentive: %w", err)
	}

	obs.FromContext(ctx).WithFields(logrus.Fields{
		"citizen_id": citizenID,
		"waste_type": wasteType,
		"delta":      delta,
		"points":     b.Points,
	}).Info("incentive accrued")

	return b, nil
}

// Penalize debits FalseAlarmPenalty. reason is recorded in the log only.
func (l *IncentiveLedger) Penalize(ctx context.Context, citizenID, reason string) (*domain.IncentiveBalance, error) {
	b, err := l.Repo.Increment(ctx, citizenID, -FalseAlarmPenalty)
	if err != nil {
		return nil, fmt.Errorf("penalize incentive: %w", err)
	}

	obs.FromContext(ctx).WithFields(logrus.Fields{
		"citizen_id": citizenID,
		"delta":      -FalseAlarmPenalty,
		"reason":     reason,
		"points":     b.Points,
	}).Warn("incentive penalty applied")

	return b, nil
}

// Balance returns the citizen's balance, or a zero balance when none exists yet.
func (l *IncentiveLedger) Balance(ctx context.Context, citizenID string) (*domain.IncentiveBalance, error) {
	b, err := l.Repo.Get(ctx, citizenID)
	if errors.Is(err, ports.ErrNotFound) {
		return &domain.IncentiveBalance{CitizenID: citizenID, Points: 0}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("incentive balance: %w", err)
	}
	return b, nil
}
