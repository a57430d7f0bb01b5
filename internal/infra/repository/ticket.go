package repository

import (
	"context"
	"errors"
	"time"

	"ticketgate/internal/domain/ticket"
	"ticketgate/internal/infra"
	"ticketgate/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TicketRepository struct{}

func NewTicketRepository() *TicketRepository {
	return &TicketRepository{}
}

const ticketColumns = `id, resource_id, event_id, buyer_id, reservation_id, secret, rotation_counter, status, issued_at, used_at`

func (r *TicketRepository) CreateBatch(ctx context.Context, dbtx db.DBTX, tickets []*ticket.Ticket) error {
	for _, t := range tickets {
		_, err := dbtx.Exec(ctx, `
			INSERT INTO tickets (id, resource_id, event_id, buyer_id, reservation_id, secret, rotation_counter, status, issued_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			t.ID(), t.ResourceID(), t.EventID(), t.BuyerID(), t.ReservationID(), t.Secret(), int64(t.RotationCounter()), t.Status().String(), t.IssuedAt(),
		)
		if err != nil {
			return infra.WrapRepoErr("failed to insert ticket", err)
		}
	}
	return nil
}

func (r *TicketRepository) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*ticket.Ticket, error) {
	row := dbtx.QueryRow(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE id = $1`, id)
	return scanTicket(row)
}

// FindByIDForUpdate is the redemption lock: two concurrent check-ins for
// the same ticket serialize here and exactly one observes status 'active'.
func (r *TicketRepository) FindByIDForUpdate(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*ticket.Ticket, error) {
	row := dbtx.QueryRow(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE id = $1
		FOR UPDATE`, id)
	return scanTicket(row)
}

func (r *TicketRepository) Save(ctx context.Context, dbtx db.DBTX, t *ticket.Ticket) error {
	tag, err := dbtx.Exec(ctx, `
		UPDATE tickets
		SET status = $2, rotation_counter = $3, used_at = $4
		WHERE id = $1`,
		t.ID(), t.Status().String(), int64(t.RotationCounter()), t.UsedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update ticket", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("ticket not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *TicketRepository) ListByReservation(ctx context.Context, dbtx db.DBTX, reservationID uuid.UUID) ([]*ticket.Ticket, error) {
	rows, err := dbtx.Query(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE reservation_id = $1
		ORDER BY issued_at, id`, reservationID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list tickets by reservation", err)
	}
	defer rows.Close()

	var tickets []*ticket.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate tickets", err)
	}
	return tickets, nil
}

// ListByEvent feeds the scanner cache snapshot: every ticket for the event
// with its secret, counter and status.
func (r *TicketRepository) ListByEvent(ctx context.Context, dbtx db.DBTX, eventID uuid.UUID) ([]*ticket.Ticket, error) {
	rows, err := dbtx.Query(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE event_id = $1
		ORDER BY issued_at, id`, eventID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list tickets by event", err)
	}
	defer rows.Close()

	var tickets []*ticket.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate tickets", err)
	}
	return tickets, nil
}

func scanTicket(row pgx.Row) (*ticket.Ticket, error) {
	var (
		id, resourceID, eventID, buyerID, reservationID uuid.UUID
		secret                                          []byte
		rotationCounter                                 int64
		status                                          string
		issuedAt                                        time.Time
		usedAt                                          *time.Time
	)
	if err := row.Scan(&id, &resourceID, &eventID, &buyerID, &reservationID, &secret, &rotationCounter, &status, &issuedAt, &usedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("ticket not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to scan ticket", err)
	}
	st, err := ticket.ParseStatus(status)
	if err != nil {
		return nil, infra.WrapRepoErr("corrupt ticket status", err)
	}
	return ticket.Reconstruct(id, resourceID, eventID, buyerID, reservationID, secret, uint32(rotationCounter), st, issuedAt, usedAt), nil
}
