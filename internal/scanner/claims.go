package scanner

import (
	"time"

	"github.com/google/uuid"
)

type ClaimStatus string

const (
	ClaimPending ClaimStatus = "pending"
	ClaimSyncing ClaimStatus = "syncing"
	ClaimSynced  ClaimStatus = "synced"
	// ClaimConflict: the server had already redeemed the ticket when this
	// claim arrived. The grant stands locally but the holder got in on
	// another scan; the record is kept for dispute resolution.
	ClaimConflict ClaimStatus = "conflict"
	ClaimFailed   ClaimStatus = "failed"
)

// Claim is one offline grant queued for upload. Claims survive restarts;
// they live in the cache file next to the ticket snapshot.
type Claim struct {
	ID        uuid.UUID   `json:"id"`
	TicketID  uuid.UUID   `json:"ticket_id"`
	EventID   uuid.UUID   `json:"event_id"`
	Token     string      `json:"token"`
	ScannedAt time.Time   `json:"scanned_at"`
	Status    ClaimStatus `json:"status"`
	Attempts  int         `json:"attempts"`
	Reason    string      `json:"reason,omitempty"`
	// Winner is set on conflicted claims: the scan that actually holds the
	// redemption, kept for the operator's dispute display.
	Winner *ClaimWinner `json:"winner,omitempty"`
}

// ClaimWinner mirrors the server's winning check-in record.
type ClaimWinner struct {
	ScannerUserID uuid.UUID `json:"scanner_user_id"`
	DeviceID      string    `json:"device_id"`
	ScannedAt     time.Time `json:"scanned_at"`
}
