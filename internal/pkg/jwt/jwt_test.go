//go:build unit

package jwt_test

import (
	"testing"
	"time"

	"ticketgate/internal/domain/user"
	"ticketgate/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := jwt.NewService("test-secret", time.Hour)

	t.Run("buyer token round trips without device id", func(t *testing.T) {
		userID := uuid.New()
		token, err := svc.GenerateToken(userID, user.RoleBuyer, "")
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, "buyer", claims.Role)
		assert.Empty(t, claims.DeviceID)
	})

	t.Run("scanner token carries the device id", func(t *testing.T) {
		token, err := svc.GenerateToken(uuid.New(), user.RoleScanner, "gate-a-01")
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "scanner", claims.Role)
		assert.Equal(t, "gate-a-01", claims.DeviceID)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		token, err := svc.GenerateToken(uuid.New(), user.RoleBuyer, "")
		require.NoError(t, err)

		other := jwt.NewService("other-secret", time.Hour)
		_, err = other.ValidateToken(token)
		require.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		shortLived := jwt.NewService("test-secret", -time.Minute)
		token, err := shortLived.GenerateToken(uuid.New(), user.RoleBuyer, "")
		require.NoError(t, err)

		_, err = shortLived.ValidateToken(token)
		require.ErrorIs(t, err, jwt.ErrExpiredToken)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		require.ErrorIs(t, err, jwt.ErrInvalidToken)
	})
}
