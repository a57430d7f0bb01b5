package response

import (
	"ticketgate/internal/domain/user"

	"github.com/google/uuid"
)

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

func FromUser(u *user.User) UserResponse {
	return UserResponse{
		ID:    u.ID(),
		Email: u.Email(),
		Role:  u.Role().String(),
	}
}
