package user

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrInvalidRole  = errors.New("invalid role")
	ErrInactiveUser = errors.New("user is inactive")
)

type Role string

const (
	// RoleBuyer can reserve inventory and request credentials for its own
	// tickets. RoleScanner can download event caches and submit check-ins.
	RoleBuyer   Role = "buyer"
	RoleScanner Role = "scanner"
	RoleAdmin   Role = "admin"
)

func (r Role) String() string { return string(r) }

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleBuyer:
		return RoleBuyer, nil
	case RoleScanner:
		return RoleScanner, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

type User struct {
	id           uuid.UUID
	email        string
	passwordHash string
	role         Role
	isActive     bool
	createdAt    time.Time
}

func NewUser(email, passwordHash string, role Role) (*User, error) {
	addr := strings.TrimSpace(email)
	if _, err := mail.ParseAddress(addr); err != nil {
		return nil, ErrInvalidEmail
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	return &User{
		id:           uuid.New(),
		email:        addr,
		passwordHash: passwordHash,
		role:         role,
		isActive:     true,
	}, nil
}

func ReconstructUser(id uuid.UUID, email, passwordHash string, role Role, isActive bool, createdAt time.Time) *User {
	return &User{
		id:           id,
		email:        email,
		passwordHash: passwordHash,
		role:         role,
		isActive:     isActive,
		createdAt:    createdAt,
	}
}

func (u *User) ID() uuid.UUID        { return u.id }
func (u *User) Email() string        { return u.email }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) Role() Role           { return u.role }
func (u *User) IsActive() bool       { return u.isActive }
func (u *User) CreatedAt() time.Time { return u.createdAt }

func (u *User) EnsureActive() error {
	if !u.isActive {
		return ErrInactiveUser
	}
	return nil
}
