package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"ward-pickup-service/internal/domain"
	"ward-pickup-service/internal/platform/obs"
	"ward-pickup-service/internal/ports"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Client-supplied fields of a new pickup request. Identity fields are
// never accepted from the client; they come from the caller's account.
type CreatePickupInput struct {
	WasteType  string     `json:"wasteType" validate:"required,oneof=wet dry e-waste"`
	PickupTime *time.Time `json:"pickupTime" validate:"required"`
	Overflow   bool       `json:"overflow"`
	Lat        *float64   `json:"lat"`
	Lng        *float64   `json:"lng"`
}

// Collector attestation for a request. At least one field must be set.
type VerifyPickupInput struct {
	Verified           *bool   `json:"verified"`
	VerificationStatus *string `json:"verificationStatus"`
}

// PickupLifecycle owns every status transition of a pickup request.
type PickupLifecycle struct {
	Accounts ports.AccountRepository
	Pickups  ports.PickupRepository
	Tx       ports.Transactor

	Now   func() time.Time
	NewID func() string

	validate *validator.Validate
}

func NewPickupLifecycle(accounts ports.AccountRepository, pickups ports.PickupRepository, tx ports.Transactor) *PickupLifecycle {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &PickupLifecycle{
		Accounts: accounts,
		Pickups:  pickups,
		Tx:       tx,
		Now:      func() time.Time { return time.Now().UTC() },
		NewID:    uuid.NewString,
		validate: v,
	}
}

// Create records a new pending request for the calling citizen.
func (s *PickupLifecycle) Create(ctx context.Context, principalID string, in CreatePickupInput) (_ *domain.PickupRequest, err error) {
	defer obs.Time(ctx, "pickups.Create")(&err)

	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	principal, err := resolvePrincipal(ctx, s.Accounts, principalID)
	if err != nil {
		return nil, err
	}
	citizen, ok := principal.(domain.Citizen)
	if !ok {
		return nil, domain.AuthorizationError("only citizens can request pickups")
	}

	loc := domain.LocationFromParts(in.Lat, in.Lng)
	if loc == nil {
		loc = citizen.Account.Location
	}

	p := domain.NewPickupRequest(
		s.NewID(),
		citizen.Account,
		domain.WasteType(in.WasteType),
		in.PickupTime.UTC(),
		in.Overflow,
		loc,
		s.Now(),
	)
	if err := s.Pickups.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("create pickup: %w", err)
	}

	obs.FromContext(ctx).WithFields(logrus.Fields{
		"pickup_id":  p.ID,
		"citizen_id": p.CitizenID,
		"ward":       p.WardNumber,
		"overflow":   p.Overflow,
	}).Info("pickup requested")

	return p, nil
}

func (s *PickupLifecycle) validateInput(in CreatePickupInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate pickup input: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "oneof":
			msgs = append(msgs, fe.Field()+" must be one of: "+strings.ReplaceAll(fe.Param(), " ", ", "))
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return &domain.Error{Kind: domain.KindValidation, Message: strings.Join(msgs, "; "), Err: err}
}

// List returns the requests visible to the caller, optionally narrowed to
// one status, sorted by pickup time ascending.
func (s *PickupLifecycle) List(ctx context.Context, principalID, status string) ([]*domain.PickupRequest, error) {
	var filter ports.PickupFilter
	if status != "" {
		st, err := domain.ParsePickupStatus(status)
		if err != nil {
			return nil, &domain.Error{Kind: domain.KindValidation, Message: "invalid status filter", Err: err}
		}
		filter.Status = st
	}

	principal, err := resolvePrincipal(ctx, s.Accounts, principalID)
	if err != nil {
		return nil, err
	}

	switch p := principal.(type) {
	case domain.Citizen:
		filter.CitizenID = p.Account.ID
	case domain.Collector:
		// A collector without a ward sees nothing rather than everything.
		if p.Account.WardNumber == "" {
			return []*domain.PickupRequest{}, nil
		}
		filter.WardNumber = p.Account.WardNumber
	case domain.Admin:
	}

	pickups, err := s.Pickups.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list pickups: %w", err)
	}
	return pickups, nil
}

// Verify records a collector's segregation attestation and/or overflow
// verdict. Moving an overflow request into false_alarm penalizes its
// owner once, in the same transaction.
func (s *PickupLifecycle) Verify(ctx context.Context, principalID, pickupID string, in VerifyPickupInput) (_ *domain.PickupRequest, err error) {
	defer obs.Time(ctx, "pickups.Verify")(&err)

	if in.Verified == nil && in.VerificationStatus == nil {
		return nil, domain.ValidationError("verified or verificationStatus is required")
	}
	var vstatus domain.VerificationStatus
	if in.VerificationStatus != nil {
		vstatus, err = domain.ParseVerificationStatus(*in.VerificationStatus)
		if err != nil {
			return nil, &domain.Error{Kind: domain.KindValidation, Message: "invalid verificationStatus", Err: err}
		}
	}

	principal, err := resolvePrincipal(ctx, s.Accounts, principalID)
	if err != nil {
		return nil, err
	}
	if _, ok := principal.(domain.Collector); !ok {
		return nil, domain.AuthorizationError("only collectors can verify pickups")
	}

	var result *domain.PickupRequest
	err = s.Tx.WithinTx(ctx, func(repos ports.Repositories) error {
		current, err := repos.Pickups.GetByID(ctx, pickupID)
		if errors.Is(err, ports.ErrNotFound) {
			return domain.NotFoundError("pickup not found")
		}
		if err != nil {
			return err
		}
		if current.Status.Withdrawn() {
			return domain.ConflictError(fmt.Sprintf("cannot verify a %s pickup", current.Status))
		}
		result = current

		if in.Verified != nil {
			p, applied, err := repos.Pickups.SetSegregationVerified(ctx, pickupID, *in.Verified)
			if err != nil {
				return err
			}
			if !applied {
				return domain.ConflictError(fmt.Sprintf("cannot change segregation of a %s pickup", p.Status))
			}
			result = p
		}

		if in.VerificationStatus != nil {
			p, changed, err := repos.Pickups.SetVerificationStatus(ctx, pickupID, vstatus)
			if err != nil {
				return err
			}
			if !changed && p.Status.Withdrawn() {
				return domain.ConflictError(fmt.Sprintf("cannot verify a %s pickup", p.Status))
			}
			result = p

			if changed && vstatus == domain.VerificationFalseAlarm && p.Overflow {
				first, err := repos.Pickups.MarkFalseAlarmPenalized(ctx, pickupID)
				if err != nil {
					return err
				}
				if !first {
					return nil
				}
				ledger := NewIncentiveLedger(repos.Incentives)
				if _, err := ledger.Penalize(ctx, p.CitizenID, ReasonFalseAlarm); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapUnclassified("verify pickup", err)
	}

	return result, nil
}

// Complete marks a request completed by the calling collector and credits
// the owner when segregation holds. Completing an already completed
// request returns it unchanged with no balance.
func (s *PickupLifecycle) Complete(ctx context.Context, principalID, pickupID string) (_ *domain.PickupRequest, _ *domain.IncentiveBalance, err error) {
	defer obs.Time(ctx, "pickups.Complete")(&err)

	principal, err := resolvePrincipal(ctx, s.Accounts, principalID)
	if err != nil {
		return nil, nil, err
	}
	collector, ok := principal.(domain.Collector)
	if !ok {
		return nil, nil, domain.AuthorizationError("only collectors can complete pickups")
	}

	var (
		result  *domain.PickupRequest
		balance *domain.IncentiveBalance
	)
	err = s.Tx.WithinTx(ctx, func(repos ports.Repositories) error {
		p, err := repos.Pickups.Complete(ctx, pickupID, collector.Account.ID)
		if errors.Is(err, ports.ErrNotFound) {
			current, gerr := repos.Pickups.GetByID(ctx, pickupID)
			if errors.Is(gerr, ports.ErrNotFound) {
				return domain.NotFoundError("pickup not found")
			}
			if gerr != nil {
				return gerr
			}
			if current.Status == domain.StatusCompleted {
				result = current
				return nil
			}
			return domain.ConflictError(fmt.Sprintf("cannot complete a %s pickup", current.Status))
		}
		if err != nil {
			return err
		}
		result = p

		if p.SegregationVerified {
			ledger := NewIncentiveLedger(repos.Incentives)
			balance, err = ledger.Accrue(ctx, p.CitizenID, p.WasteType)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, wrapUnclassified("complete pickup", err)
	}

	return result, balance, nil
}

// Cancel withdraws a non-terminal request on behalf of its owner and
// releases any collector assignment.
func (s *PickupLifecycle) Cancel(ctx context.Context, principalID, pickupID string) (_ *domain.PickupRequest, err error) {
	defer obs.Time(ctx, "pickups.Cancel")(&err)

	principal, err := resolvePrincipal(ctx, s.Accounts, principalID)
	if err != nil {
		return nil, err
	}

	p, err := s.Pickups.Cancel(ctx, pickupID, principal.AccountID())
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return nil, fmt.Errorf("cancel pickup: %w", err)
	}

	// The conditional write matched nothing; work out why.
	current, err := s.Pickups.GetByID(ctx, pickupID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, domain.NotFoundError("pickup not found")
	}
	if err != nil {
		return nil, fmt.Errorf("cancel pickup: %w", err)
	}

	switch {
	case current.CitizenID != principal.AccountID():
		return nil, domain.AuthorizationError("only the requesting citizen can cancel this pickup")
	case current.Status == domain.StatusCompleted:
		return nil, domain.ConflictError("cannot cancel a completed pickup")
	case current.Status.Terminal():
		return nil, domain.ConflictError(fmt.Sprintf("pickup is already %s", current.Status))
	default:
		return nil, domain.ConflictError("pickup changed while cancelling, retry")
	}
}

// wrapUnclassified passes taxonomy errors through and adds context to the rest.
func wrapUnclassified(op string, err error) error {
	if _, ok := domain.KindOf(err); ok {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
