package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseAggregateRoot carries the identity and bookkeeping of an order or product.
//
// Version starts at 1 and is bumped by every guarded write of the ERP sync
// state, so a stale copy loaded by an overlapping sync run is refused with
// ErrStaleVersion instead of overwriting newer state.
type BaseAggregateRoot struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int
}

func NewBaseAggregateRoot() BaseAggregateRoot {
	now := time.Now()
	return BaseAggregateRoot{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

// Touch bumps UpdatedAt.
func (a *BaseAggregateRoot) Touch(at time.Time) {
	a.UpdatedAt = at
}

// IncrementVersion records that a guarded write went through.
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}
