package response

import (
	"time"

	"ticketgate/internal/usecase/commands"

	"github.com/google/uuid"
)

type CredentialResponse struct {
	Token     string    `json:"token"`
	Mode      string    `json:"mode"`
	TicketID  uuid.UUID `json:"ticket_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func FromIssuedCredential(cred *commands.IssuedCredential) *CredentialResponse {
	return &CredentialResponse{
		Token:     cred.Token,
		Mode:      cred.Mode.String(),
		TicketID:  cred.TicketID,
		ExpiresAt: cred.ExpiresAt,
	}
}
