package queries

import (
	"context"
	"time"

	"ticketgate/internal/infra"
	"ticketgate/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrReservationNotFound = errs.New("reservation not found")

type ReservationView struct {
	ID          uuid.UUID  `json:"id"`
	ResourceID  uuid.UUID  `json:"resource_id"`
	Quantity    int        `json:"quantity"`
	Status      string     `json:"status"`
	ExpiresAt   time.Time  `json:"expires_at"`
	ConsumedAt  *time.Time `json:"consumed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type TicketView struct {
	ID            uuid.UUID  `json:"id"`
	ResourceID    uuid.UUID  `json:"resource_id"`
	EventID       uuid.UUID  `json:"event_id"`
	ReservationID uuid.UUID  `json:"reservation_id"`
	Status        string     `json:"status"`
	IssuedAt      time.Time  `json:"issued_at"`
	UsedAt        *time.Time `json:"used_at,omitempty"`
}

type ReservationQueries interface {
	GetReservation(ctx context.Context, id, buyerID uuid.UUID) (*ReservationView, error)
	ListTickets(ctx context.Context, reservationID, buyerID uuid.UUID) ([]TicketView, error)
}

type reservationQueriesImpl struct {
	reservationReader ReservationReader
	ticketReader      TicketReader
	pool              *pgxpool.Pool
}

func NewReservationQueries(reservationReader ReservationReader, ticketReader TicketReader, pool *pgxpool.Pool) ReservationQueries {
	return &reservationQueriesImpl{
		reservationReader: reservationReader,
		ticketReader:      ticketReader,
		pool:              pool,
	}
}

func (q *reservationQueriesImpl) GetReservation(ctx context.Context, id, buyerID uuid.UUID) (*ReservationView, error) {
	res, err := q.reservationReader.FindByID(ctx, q.pool, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	// Ownership errors look like not-found to avoid leaking reservation ids.
	if res.BuyerID() != buyerID {
		return nil, ErrReservationNotFound
	}

	return &ReservationView{
		ID:          res.ID(),
		ResourceID:  res.ResourceID(),
		Quantity:    res.Quantity(),
		Status:      res.Status().String(),
		ExpiresAt:   res.ExpiresAt(),
		ConsumedAt:  res.ConsumedAt(),
		CancelledAt: res.CancelledAt(),
		CreatedAt:   res.CreatedAt(),
	}, nil
}

func (q *reservationQueriesImpl) ListTickets(ctx context.Context, reservationID, buyerID uuid.UUID) ([]TicketView, error) {
	res, err := q.reservationReader.FindByID(ctx, q.pool, reservationID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if res.BuyerID() != buyerID {
		return nil, ErrReservationNotFound
	}

	tickets, err := q.ticketReader.ListByReservation(ctx, q.pool, reservationID)
	if err != nil {
		return nil, err
	}

	views := make([]TicketView, 0, len(tickets))
	for _, t := range tickets {
		views = append(views, TicketView{
			ID:            t.ID(),
			ResourceID:    t.ResourceID(),
			EventID:       t.EventID(),
			ReservationID: t.ReservationID(),
			Status:        t.Status().String(),
			IssuedAt:      t.IssuedAt(),
			UsedAt:        t.UsedAt(),
		})
	}
	return views, nil
}
