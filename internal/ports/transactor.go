package ports

import "context"

// Repositories bound to one unit of work.
type Repositories struct {
	Pickups    PickupRepository
	Incentives IncentiveRepository
}

// Transactor runs fn atomically: every write made through repos commits
// together or not at all.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}
