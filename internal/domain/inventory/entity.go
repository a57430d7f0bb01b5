package inventory

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInsufficient      = errors.New("insufficient inventory")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInvariantViolated = errors.New("inventory invariant violated")
)

// Resource is one sellable inventory row: an (event, ticket class) pair.
// Counts are only ever mutated through Reserve / ConfirmSale / Release,
// mirroring the three atomic ledger operations; the repository executes
// them under a row lock.
type Resource struct {
	id        uuid.UUID
	eventID   uuid.UUID
	name      string
	capacity  int
	available int
	reserved  int
	sold      int
	updatedAt time.Time
}

func NewResource(eventID uuid.UUID, name string, capacity int) (*Resource, error) {
	if capacity <= 0 {
		return nil, ErrInvalidQuantity
	}
	return &Resource{
		id:        uuid.New(),
		eventID:   eventID,
		name:      name,
		capacity:  capacity,
		available: capacity,
	}, nil
}

func ReconstructResource(id, eventID uuid.UUID, name string, capacity, available, reserved, sold int, updatedAt time.Time) (*Resource, error) {
	r := &Resource{
		id:        id,
		eventID:   eventID,
		name:      name,
		capacity:  capacity,
		available: available,
		reserved:  reserved,
		sold:      sold,
		updatedAt: updatedAt,
	}
	if err := r.checkInvariant(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Resource) ID() uuid.UUID        { return r.id }
func (r *Resource) EventID() uuid.UUID   { return r.eventID }
func (r *Resource) Name() string         { return r.name }
func (r *Resource) Capacity() int        { return r.capacity }
func (r *Resource) Available() int       { return r.available }
func (r *Resource) Reserved() int        { return r.reserved }
func (r *Resource) Sold() int            { return r.sold }
func (r *Resource) UpdatedAt() time.Time { return r.updatedAt }

func (r *Resource) SoldOut() bool { return r.available == 0 }

// Reserve moves qty units from available to reserved. Fails closed: on
// insufficiency nothing is mutated.
func (r *Resource) Reserve(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if r.available < qty {
		return ErrInsufficient
	}
	r.available -= qty
	r.reserved += qty
	return r.checkInvariant()
}

// ConfirmSale moves qty units from reserved to sold. The caller must hold a
// pending reservation for the units; the reservation manager's status check
// is what keeps this from being applied twice.
func (r *Resource) ConfirmSale(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if r.reserved < qty {
		return ErrInvariantViolated
	}
	r.reserved -= qty
	r.sold += qty
	return r.checkInvariant()
}

// Release returns qty reserved units to available (expiry or cancellation).
func (r *Resource) Release(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if r.reserved < qty {
		return ErrInvariantViolated
	}
	r.reserved -= qty
	r.available += qty
	return r.checkInvariant()
}

func (r *Resource) checkInvariant() error {
	if r.available < 0 || r.reserved < 0 || r.sold < 0 {
		return ErrInvariantViolated
	}
	if r.reserved+r.sold > r.capacity {
		return ErrInvariantViolated
	}
	if r.available+r.reserved+r.sold != r.capacity {
		return ErrInvariantViolated
	}
	return nil
}
