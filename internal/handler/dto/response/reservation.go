package response

import (
	"time"

	"ticketgate/internal/domain/reservation"
	"ticketgate/internal/domain/ticket"
	"ticketgate/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type ReservationResponse struct {
	ID          uuid.UUID  `json:"id"`
	ResourceID  uuid.UUID  `json:"resource_id"`
	Quantity    int        `json:"quantity"`
	Status      string     `json:"status"`
	ExpiresAt   time.Time  `json:"expires_at"`
	ConsumedAt  *time.Time `json:"consumed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	IsReplayed  bool       `json:"is_replayed,omitempty"`
}

type TicketResponse struct {
	ID            uuid.UUID  `json:"id"`
	ResourceID    uuid.UUID  `json:"resource_id"`
	EventID       uuid.UUID  `json:"event_id"`
	ReservationID uuid.UUID  `json:"reservation_id"`
	Status        string     `json:"status"`
	IssuedAt      time.Time  `json:"issued_at"`
	UsedAt        *time.Time `json:"used_at,omitempty"`
}

type ConsumeReservationResponse struct {
	Reservation ReservationResponse `json:"reservation"`
	Tickets     []TicketResponse    `json:"tickets"`
	IsReplayed  bool                `json:"is_replayed,omitempty"`
}

func FromReservation(res *reservation.Reservation, isReplayed bool) *ReservationResponse {
	return &ReservationResponse{
		ID:          res.ID(),
		ResourceID:  res.ResourceID(),
		Quantity:    res.Quantity(),
		Status:      res.Status().String(),
		ExpiresAt:   res.ExpiresAt(),
		ConsumedAt:  res.ConsumedAt(),
		CancelledAt: res.CancelledAt(),
		CreatedAt:   res.CreatedAt(),
		IsReplayed:  isReplayed,
	}
}

func FromTickets(tickets []*ticket.Ticket) []TicketResponse {
	resp := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		resp = append(resp, TicketResponse{
			ID:            t.ID(),
			ResourceID:    t.ResourceID(),
			EventID:       t.EventID(),
			ReservationID: t.ReservationID(),
			Status:        t.Status().String(),
			IssuedAt:      t.IssuedAt(),
			UsedAt:        t.UsedAt(),
		})
	}
	return resp
}

func FromReservationView(view *queries.ReservationView) *ReservationResponse {
	var resp ReservationResponse
	_ = copier.Copy(&resp, view)
	return &resp
}

func FromTicketViews(views []queries.TicketView) []TicketResponse {
	resp := make([]TicketResponse, 0, len(views))
	_ = copier.Copy(&resp, views)
	return resp
}
