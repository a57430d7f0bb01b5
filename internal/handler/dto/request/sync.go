package request

import (
	"time"

	"github.com/google/uuid"
)

type SyncClaimsRequest struct {
	Claims []SyncClaim `json:"claims" binding:"required,max=100,dive"`
}

type SyncClaim struct {
	ClaimID   uuid.UUID `json:"claim_id" binding:"required"`
	EventID   uuid.UUID `json:"event_id" binding:"required"`
	Token     string    `json:"token" binding:"required"`
	ScannedAt time.Time `json:"scanned_at" binding:"required"`
}
