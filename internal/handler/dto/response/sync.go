package response

import (
	"ticketgate/internal/usecase/commands"

	"github.com/google/uuid"
)

type SyncClaimsResponse struct {
	Resolutions []ClaimResolutionResponse `json:"resolutions"`
}

type ClaimResolutionResponse struct {
	ClaimID      uuid.UUID       `json:"claim_id"`
	TicketID     uuid.UUID       `json:"ticket_id,omitempty"`
	Result       string          `json:"result"`
	Reason       string          `json:"reason,omitempty"`
	TicketStatus string          `json:"ticket_status,omitempty"`
	Winner       *WinnerResponse `json:"winner,omitempty"`
}

func FromClaimResolutions(resolutions []commands.ClaimResolution) SyncClaimsResponse {
	resp := SyncClaimsResponse{
		Resolutions: make([]ClaimResolutionResponse, 0, len(resolutions)),
	}
	for _, r := range resolutions {
		item := ClaimResolutionResponse{
			ClaimID:      r.ClaimID,
			TicketID:     r.TicketID,
			Result:       r.Result.String(),
			Reason:       r.Reason,
			TicketStatus: r.TicketStatus,
		}
		if r.Winner != nil {
			item.Winner = &WinnerResponse{
				ScannerUserID: r.Winner.ScannerUserID,
				DeviceID:      r.Winner.DeviceID,
				ScannedAt:     r.Winner.ScannedAt,
			}
		}
		resp.Resolutions = append(resp.Resolutions, item)
	}
	return resp
}
