package queries

import (
	"context"

	"ticketgate/internal/domain/reservation"
	"ticketgate/internal/domain/ticket"
	"ticketgate/internal/infra/db"

	"github.com/google/uuid"
)

// Read-side ports. Queries never open transactions; every read goes straight
// through the pool.

type ReservationReader interface {
	FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*reservation.Reservation, error)
}

type TicketReader interface {
	FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*ticket.Ticket, error)
	ListByReservation(ctx context.Context, dbtx db.DBTX, reservationID uuid.UUID) ([]*ticket.Ticket, error)
	ListByEvent(ctx context.Context, dbtx db.DBTX, eventID uuid.UUID) ([]*ticket.Ticket, error)
}

type CheckInReader interface {
	ListByEvent(ctx context.Context, dbtx db.DBTX, eventID uuid.UUID, limit int) ([]ticket.CheckIn, error)
}
