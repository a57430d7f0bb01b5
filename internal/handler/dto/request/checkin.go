package request

import (
	"github.com/google/uuid"
)

type CheckInRequest struct {
	Token     string    `json:"token" binding:"required"`
	EventID   uuid.UUID `json:"event_id" binding:"required"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
}
