package ports

import (
	"context"
	"ward-pickup-service/internal/domain"
)

// Equality filters for listing pickup requests. Empty fields are ignored.
type PickupFilter struct {
	CitizenID  string
	WardNumber string
	Status     domain.PickupStatus
}

// Port: storage boundary for PickupRequest records.
//
// Every mutating method is a single conditional write so that racing
// callers never overwrite each other's lifecycle transitions.
type PickupRepository interface {
	Insert(ctx context.Context, p *domain.PickupRequest) error
	GetByID(ctx context.Context, id string) (*domain.PickupRequest, error)
	// List matches filter and sorts by pickup time ascending.
	List(ctx context.Context, filter PickupFilter) ([]*domain.PickupRequest, error)

	// Ward requests that are pending, or assigned to collectorID, in creation order.
	ListRouteCandidates(ctx context.Context, wardNumber, collectorID string) ([]*domain.PickupRequest, error)
	// Ward requests currently assigned to collectorID, in creation order.
	ListAssigned(ctx context.Context, wardNumber, collectorID string) ([]*domain.PickupRequest, error)
	// Assign every listed request that is still pending at write time.
	// Returns the number of rows actually claimed.
	ClaimPending(ctx context.Context, ids []string, collectorID string) (int64, error)

	// Sets the segregation attestation on a pending or assigned request.
	// applied is false when the request is already terminal; p is then its current state.
	SetSegregationVerified(ctx context.Context, id string, verified bool) (p *domain.PickupRequest, applied bool, err error)
	// Sets the verification sub-state. changed is false when the stored value
	// already equalled status, which keeps side effects to a single firing.
	SetVerificationStatus(ctx context.Context, id string, status domain.VerificationStatus) (p *domain.PickupRequest, changed bool, err error)
	// Flags the request as having drawn its false-alarm penalty.
	// first is true only for the call that set the flag.
	MarkFalseAlarmPenalized(ctx context.Context, id string) (first bool, err error)

	// Marks a pending or assigned request completed and resolves segregation
	// from the verification state stored at write time. Returns ErrNotFound
	// when no non-terminal row with id exists.
	Complete(ctx context.Context, id, collectorID string) (*domain.PickupRequest, error)
	// Cancels a pending or assigned request owned by citizenID and clears its
	// assignment. Returns ErrNotFound when no such row exists.
	Cancel(ctx context.Context, id, citizenID string) (*domain.PickupRequest, error)
}
