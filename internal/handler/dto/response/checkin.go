package response

import (
	"time"

	"ticketgate/internal/usecase/commands"

	"github.com/google/uuid"
)

type CheckInResponse struct {
	Result   string          `json:"result"`
	Reason   string          `json:"reason,omitempty"`
	TicketID uuid.UUID       `json:"ticket_id,omitempty"`
	Winner   *WinnerResponse `json:"winner,omitempty"`
}

// WinnerResponse identifies the scan that got in first, shown to a losing
// scanner on a duplicate attempt.
type WinnerResponse struct {
	ScannerUserID uuid.UUID `json:"scanner_user_id"`
	DeviceID      string    `json:"device_id"`
	ScannedAt     time.Time `json:"scanned_at"`
}

func FromCheckInOutcome(outcome *commands.CheckInOutcome) *CheckInResponse {
	resp := &CheckInResponse{
		Result:   outcome.Result.String(),
		Reason:   outcome.Reason,
		TicketID: outcome.TicketID,
	}
	if outcome.Winner != nil {
		resp.Winner = &WinnerResponse{
			ScannerUserID: outcome.Winner.ScannerUserID,
			DeviceID:      outcome.Winner.DeviceID,
			ScannedAt:     outcome.Winner.ScannedAt,
		}
	}
	return resp
}
