package commands

import (
	"context"
	"time"

	"ticketgate/internal/domain/inventory"
	"ticketgate/internal/domain/reservation"
	"ticketgate/internal/domain/ticket"
	"ticketgate/internal/domain/user"
	"ticketgate/internal/infra/db"
	"ticketgate/internal/infra/repository"

	"github.com/google/uuid"
)

// Write-side ports. Repositories take an explicit db.DBTX so a command can
// compose several of them inside one transaction.

type InventoryRepository interface {
	FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*inventory.Resource, error)
	FindByIDForUpdate(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*inventory.Resource, error)
	SaveCounts(ctx context.Context, dbtx db.DBTX, res *inventory.Resource) error
}

type ReservationRepository interface {
	Create(ctx context.Context, dbtx db.DBTX, res *reservation.Reservation) error
	FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*reservation.Reservation, error)
	FindByIDForUpdate(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*reservation.Reservation, error)
	SaveStatus(ctx context.Context, dbtx db.DBTX, res *reservation.Reservation) error
	ListDueForUpdate(ctx context.Context, dbtx db.DBTX, now time.Time, limit int) ([]*reservation.Reservation, error)
}

type TicketRepository interface {
	CreateBatch(ctx context.Context, dbtx db.DBTX, tickets []*ticket.Ticket) error
	FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*ticket.Ticket, error)
	FindByIDForUpdate(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*ticket.Ticket, error)
	Save(ctx context.Context, dbtx db.DBTX, t *ticket.Ticket) error
	ListByReservation(ctx context.Context, dbtx db.DBTX, reservationID uuid.UUID) ([]*ticket.Ticket, error)
}

type CheckInRepository interface {
	Append(ctx context.Context, dbtx db.DBTX, rec ticket.CheckIn) error
	FindWinner(ctx context.Context, dbtx db.DBTX, ticketID uuid.UUID) (*ticket.CheckIn, error)
}

type UserRepository interface {
	FindByEmail(ctx context.Context, dbtx db.DBTX, email string) (*user.User, error)
}

type IdempotencyRepository interface {
	TryInsert(ctx context.Context, dbtx db.DBTX, key, userID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error)
	Get(ctx context.Context, dbtx db.DBTX, key, userID uuid.UUID) (*repository.IdempotencyRecord, error)
	MarkCompleted(ctx context.Context, dbtx db.DBTX, key, userID uuid.UUID, resultReservationID uuid.UUID) error
}

// NonceRegistry rules out static-token replay; first registration wins.
type NonceRegistry interface {
	Register(ctx context.Context, ticketID uuid.UUID, nonce string, ttl time.Duration) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// FraudGate is the pre-reservation risk decision consumed from the fraud
// layer. A gate error is treated as a refusal, never as permission.
type FraudGate interface {
	Evaluate(ctx context.Context, buyerID, resourceID uuid.UUID, quantity int) (FraudDecision, error)
}

type FraudDecision string

const (
	FraudAllowed            FraudDecision = "allowed"
	FraudDenied             FraudDecision = "denied"
	FraudRequiresCaptcha    FraudDecision = "requires_captcha"
	FraudRequiresPhoneCheck FraudDecision = "requires_phone_verification"
)

// ScannerIdentity attributes a check-in attempt to user + device.
type ScannerIdentity struct {
	UserID    uuid.UUID
	DeviceID  string
	Latitude  *float64
	Longitude *float64
}
