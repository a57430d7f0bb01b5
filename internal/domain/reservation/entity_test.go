//go:build unit

package reservation_test

import (
	"testing"
	"time"

	"ticketgate/internal/domain/reservation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newPending(t *testing.T, buyerID uuid.UUID, ttl time.Duration) *reservation.Reservation {
	t.Helper()
	r, err := reservation.NewReservation(uuid.New(), buyerID, 2, ttl, now)
	require.NoError(t, err)
	return r
}

func TestNewReservation(t *testing.T) {
	t.Run("pending with deadline", func(t *testing.T) {
		r := newPending(t, uuid.New(), 10*time.Minute)

		assert.Equal(t, reservation.StatusPending, r.Status())
		assert.Equal(t, now.Add(10*time.Minute), r.ExpiresAt())
		assert.Nil(t, r.ConsumedAt())
	})

	t.Run("non-positive quantity rejected", func(t *testing.T) {
		_, err := reservation.NewReservation(uuid.New(), uuid.New(), 0, time.Minute, now)
		require.ErrorIs(t, err, reservation.ErrInvalidQuantity)
	})

	t.Run("non-positive ttl rejected", func(t *testing.T) {
		_, err := reservation.NewReservation(uuid.New(), uuid.New(), 1, 0, now)
		require.ErrorIs(t, err, reservation.ErrInvalidTTL)
	})
}

func TestConsume(t *testing.T) {
	t.Run("before deadline", func(t *testing.T) {
		r := newPending(t, uuid.New(), 10*time.Minute)

		require.NoError(t, r.Consume(now.Add(5*time.Minute)))
		assert.Equal(t, reservation.StatusConsumed, r.Status())
		require.NotNil(t, r.ConsumedAt())
		assert.Equal(t, now.Add(5*time.Minute), *r.ConsumedAt())
	})

	t.Run("at the deadline is too late", func(t *testing.T) {
		r := newPending(t, uuid.New(), 10*time.Minute)

		require.ErrorIs(t, r.Consume(now.Add(10*time.Minute)), reservation.ErrExpired)
		assert.Equal(t, reservation.StatusPending, r.Status())
	})

	t.Run("terminal states refuse", func(t *testing.T) {
		r := newPending(t, uuid.New(), 10*time.Minute)
		require.NoError(t, r.Consume(now))

		require.ErrorIs(t, r.Consume(now), reservation.ErrNotPending)
	})
}

func TestExpire(t *testing.T) {
	t.Run("pending expires", func(t *testing.T) {
		r := newPending(t, uuid.New(), time.Minute)

		require.NoError(t, r.Expire())
		assert.Equal(t, reservation.StatusExpired, r.Status())
	})

	t.Run("expiry is terminal", func(t *testing.T) {
		r := newPending(t, uuid.New(), time.Minute)
		require.NoError(t, r.Expire())

		require.ErrorIs(t, r.Expire(), reservation.ErrNotPending)
		require.ErrorIs(t, r.Consume(now), reservation.ErrNotPending)
	})
}

func TestCancel(t *testing.T) {
	buyerID := uuid.New()

	t.Run("owner cancels pending", func(t *testing.T) {
		r := newPending(t, buyerID, time.Minute)

		require.NoError(t, r.Cancel(buyerID, now))
		assert.Equal(t, reservation.StatusCancelled, r.Status())
		require.NotNil(t, r.CancelledAt())
	})

	t.Run("non-owner refused", func(t *testing.T) {
		r := newPending(t, buyerID, time.Minute)

		require.ErrorIs(t, r.Cancel(uuid.New(), now), reservation.ErrNotOwner)
		assert.Equal(t, reservation.StatusPending, r.Status())
	})

	t.Run("consumed cannot be cancelled", func(t *testing.T) {
		r := newPending(t, buyerID, time.Minute)
		require.NoError(t, r.Consume(now))

		require.ErrorIs(t, r.Cancel(buyerID, now), reservation.ErrNotPending)
	})
}

func TestDueForExpiry(t *testing.T) {
	r := newPending(t, uuid.New(), time.Minute)

	assert.False(t, r.DueForExpiry(now))
	assert.False(t, r.DueForExpiry(now.Add(59*time.Second)))
	assert.True(t, r.DueForExpiry(now.Add(time.Minute)))

	require.NoError(t, r.Expire())
	assert.False(t, r.DueForExpiry(now.Add(2*time.Minute)))
}
