package request

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	// DeviceID is required for scanner accounts; it ends up on every
	// check-in record the scanner writes.
	DeviceID string `json:"device_id,omitempty"`
}
