package reservation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidTTL      = errors.New("ttl must be positive")
	ErrNotPending      = errors.New("reservation is not pending")
	ErrExpired         = errors.New("reservation has expired")
	ErrNotOwner        = errors.New("reservation belongs to another buyer")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConsumed  Status = "consumed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

func (s Status) Terminal() bool { return s != StatusPending }
func (s Status) String() string { return string(s) }

// Reservation is a buyer's time-boxed claim on inventory units. The state
// machine is pending -> consumed | expired | cancelled, each terminal; a
// reservation never leaves a terminal state.
type Reservation struct {
	id          uuid.UUID
	resourceID  uuid.UUID
	buyerID     uuid.UUID
	quantity    int
	status      Status
	expiresAt   time.Time
	consumedAt  *time.Time
	cancelledAt *time.Time
	createdAt   time.Time
}

func NewReservation(resourceID, buyerID uuid.UUID, quantity int, ttl time.Duration, now time.Time) (*Reservation, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	return &Reservation{
		id:         uuid.New(),
		resourceID: resourceID,
		buyerID:    buyerID,
		quantity:   quantity,
		status:     StatusPending,
		expiresAt:  now.Add(ttl),
		createdAt:  now,
	}, nil
}

func ReconstructReservation(
	id, resourceID, buyerID uuid.UUID,
	quantity int,
	status Status,
	expiresAt time.Time,
	consumedAt, cancelledAt *time.Time,
	createdAt time.Time,
) *Reservation {
	return &Reservation{
		id:          id,
		resourceID:  resourceID,
		buyerID:     buyerID,
		quantity:    quantity,
		status:      status,
		expiresAt:   expiresAt,
		consumedAt:  consumedAt,
		cancelledAt: cancelledAt,
		createdAt:   createdAt,
	}
}

func (r *Reservation) ID() uuid.UUID          { return r.id }
func (r *Reservation) ResourceID() uuid.UUID  { return r.resourceID }
func (r *Reservation) BuyerID() uuid.UUID     { return r.buyerID }
func (r *Reservation) Quantity() int          { return r.quantity }
func (r *Reservation) Status() Status         { return r.status }
func (r *Reservation) ExpiresAt() time.Time   { return r.expiresAt }
func (r *Reservation) ConsumedAt() *time.Time { return r.consumedAt }
func (r *Reservation) CancelledAt() *time.Time {
	return r.cancelledAt
}
func (r *Reservation) CreatedAt() time.Time { return r.createdAt }

func (r *Reservation) DueForExpiry(now time.Time) bool {
	return r.status == StatusPending && !now.Before(r.expiresAt)
}

// Consume finalizes the reservation on payment confirmation. A reservation
// past its expiry cannot be consumed even if the row was never swept; the
// caller must take the expiry path instead and route the payment to refund.
func (r *Reservation) Consume(now time.Time) error {
	if r.status != StatusPending {
		return ErrNotPending
	}
	if !now.Before(r.expiresAt) {
		return ErrExpired
	}
	r.status = StatusConsumed
	t := now
	r.consumedAt = &t
	return nil
}

func (r *Reservation) Expire() error {
	if r.status != StatusPending {
		return ErrNotPending
	}
	r.status = StatusExpired
	return nil
}

func (r *Reservation) Cancel(buyerID uuid.UUID, now time.Time) error {
	if r.buyerID != buyerID {
		return ErrNotOwner
	}
	if r.status != StatusPending {
		return ErrNotPending
	}
	r.status = StatusCancelled
	t := now
	r.cancelledAt = &t
	return nil
}
