package request

import (
	"time"

	"github.com/google/uuid"
)

type CreateReservationRequest struct {
	ResourceID uuid.UUID `json:"resource_id" binding:"required"`
	Quantity   int       `json:"quantity" binding:"required,min=1"`
	// TTLSeconds overrides the default hold duration; zero means default,
	// values above the configured maximum are clamped.
	TTLSeconds int `json:"ttl_seconds,omitempty" binding:"omitempty,min=1"`
}

func (r CreateReservationRequest) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}
