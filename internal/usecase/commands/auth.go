package commands

import (
	"context"

	"ticketgate/internal/domain/user"
	"ticketgate/internal/infra"
	"ticketgate/internal/pkg/errs"
	"ticketgate/internal/pkg/jwt"
	"ticketgate/internal/pkg/password"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrAuthenticationFailed = errs.New("invalid email or password")
	ErrUserInactive         = errs.New("user account is inactive")
	ErrDeviceIDRequired     = errs.New("device id required for scanner login")
)

type LoginResult struct {
	Token string
	User  *user.User
}

type AuthCommands interface {
	Login(ctx context.Context, email, rawPassword, deviceID string) (*LoginResult, error)
}

type authCommandsImpl struct {
	userRepo UserRepository
	jwt      *jwt.Service
	pool     *pgxpool.Pool
}

func NewAuthCommands(userRepo UserRepository, jwtService *jwt.Service, pool *pgxpool.Pool) AuthCommands {
	return &authCommandsImpl{
		userRepo: userRepo,
		jwt:      jwtService,
		pool:     pool,
	}
}

// Login authenticates by email and password. Scanner logins must name the
// device they run on; the device id travels inside the token and ends up on
// every check-in record the scanner writes.
func (a *authCommandsImpl) Login(ctx context.Context, email, rawPassword, deviceID string) (*LoginResult, error) {
	u, err := a.userRepo.FindByEmail(ctx, a.pool, email)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrAuthenticationFailed
		}
		return nil, err
	}

	if err := password.ComparePassword(u.PasswordHash(), rawPassword); err != nil {
		return nil, ErrAuthenticationFailed
	}
	if err := u.EnsureActive(); err != nil {
		return nil, ErrUserInactive
	}

	if u.Role() == user.RoleScanner && deviceID == "" {
		return nil, ErrDeviceIDRequired
	}
	if u.Role() != user.RoleScanner {
		deviceID = ""
	}

	token, err := a.jwt.GenerateToken(u.ID(), u.Role(), deviceID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to generate token")
	}

	return &LoginResult{Token: token, User: u}, nil
}
