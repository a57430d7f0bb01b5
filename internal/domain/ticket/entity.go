package ticket

import (
	"errors"
	"time"

	"ticketgate/internal/domain/credential"

	"github.com/google/uuid"
)

var (
	ErrNotActive     = errors.New("ticket is not active")
	ErrAlreadyUsed   = errors.New("ticket already used")
	ErrWrongEvent    = errors.New("ticket belongs to another event")
	ErrInvalidStatus = errors.New("invalid ticket status")
	ErrNotRefundable = errors.New("ticket cannot be refunded")
)

type Status string

const (
	StatusActive   Status = "active"
	StatusUsed     Status = "used"
	StatusRefunded Status = "refunded"
	StatusRevoked  Status = "revoked"
)

func (s Status) String() string { return string(s) }

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive, StatusUsed, StatusRefunded, StatusRevoked:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// Ticket is one admission unit, issued when a reservation is consumed. The
// secret is the per-ticket HMAC key for credential tokens; it never leaves
// the server except inside a scanner cache snapshot. Status transitions are
// one-directional: a used, refunded or revoked ticket never becomes active
// again through normal flow.
type Ticket struct {
	id              uuid.UUID
	resourceID      uuid.UUID
	eventID         uuid.UUID
	buyerID         uuid.UUID
	reservationID   uuid.UUID
	secret          []byte
	rotationCounter uint32
	status          Status
	issuedAt        time.Time
	usedAt          *time.Time
}

func Issue(resourceID, eventID, buyerID, reservationID uuid.UUID, now time.Time) (*Ticket, error) {
	secret, err := credential.NewSecret()
	if err != nil {
		return nil, err
	}
	return &Ticket{
		id:            uuid.New(),
		resourceID:    resourceID,
		eventID:       eventID,
		buyerID:       buyerID,
		reservationID: reservationID,
		secret:        secret,
		status:        StatusActive,
		issuedAt:      now,
	}, nil
}

func Reconstruct(
	id, resourceID, eventID, buyerID, reservationID uuid.UUID,
	secret []byte,
	rotationCounter uint32,
	status Status,
	issuedAt time.Time,
	usedAt *time.Time,
) *Ticket {
	return &Ticket{
		id:              id,
		resourceID:      resourceID,
		eventID:         eventID,
		buyerID:         buyerID,
		reservationID:   reservationID,
		secret:          secret,
		rotationCounter: rotationCounter,
		status:          status,
		issuedAt:        issuedAt,
		usedAt:          usedAt,
	}
}

func (t *Ticket) ID() uuid.UUID            { return t.id }
func (t *Ticket) ResourceID() uuid.UUID    { return t.resourceID }
func (t *Ticket) EventID() uuid.UUID       { return t.eventID }
func (t *Ticket) BuyerID() uuid.UUID       { return t.buyerID }
func (t *Ticket) ReservationID() uuid.UUID { return t.reservationID }
func (t *Ticket) Secret() []byte           { return t.secret }
func (t *Ticket) RotationCounter() uint32  { return t.rotationCounter }
func (t *Ticket) Status() Status           { return t.status }
func (t *Ticket) IssuedAt() time.Time      { return t.issuedAt }
func (t *Ticket) UsedAt() *time.Time       { return t.usedAt }

func (t *Ticket) IsActive() bool { return t.status == StatusActive }

// Redeem performs the single active -> used transition. The repository
// calls this while holding the row lock, which is what serializes
// concurrent scanners down to exactly one winner.
func (t *Ticket) Redeem(eventID uuid.UUID, now time.Time) error {
	if t.eventID != eventID {
		return ErrWrongEvent
	}
	switch t.status {
	case StatusActive:
	case StatusUsed:
		return ErrAlreadyUsed
	default:
		return ErrNotActive
	}
	t.status = StatusUsed
	u := now
	t.usedAt = &u
	return nil
}

// AdvanceRotation bumps the rotation counter after a rotating credential is
// issued, keeping issuer and verifiers within the ±1 drift the protocol
// tolerates.
func (t *Ticket) AdvanceRotation() {
	t.rotationCounter++
}

func (t *Ticket) Refund() error {
	if t.status != StatusActive {
		return ErrNotRefundable
	}
	t.status = StatusRefunded
	return nil
}

func (t *Ticket) Revoke() error {
	if t.status == StatusUsed {
		return ErrAlreadyUsed
	}
	t.status = StatusRevoked
	return nil
}
