//go:build unit

package inventory_test

import (
	"sync"
	"testing"
	"time"

	"ticketgate/internal/domain/inventory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResource(t *testing.T) {
	t.Run("starts fully available", func(t *testing.T) {
		r, err := inventory.NewResource(uuid.New(), "general admission", 100)
		require.NoError(t, err)

		assert.Equal(t, 100, r.Capacity())
		assert.Equal(t, 100, r.Available())
		assert.Equal(t, 0, r.Reserved())
		assert.Equal(t, 0, r.Sold())
		assert.False(t, r.SoldOut())
	})

	t.Run("zero capacity rejected", func(t *testing.T) {
		_, err := inventory.NewResource(uuid.New(), "ga", 0)
		require.ErrorIs(t, err, inventory.ErrInvalidQuantity)
	})
}

func TestReconstructResource(t *testing.T) {
	t.Run("counts must add up", func(t *testing.T) {
		_, err := inventory.ReconstructResource(uuid.New(), uuid.New(), "ga", 100, 50, 30, 10, time.Now())
		require.ErrorIs(t, err, inventory.ErrInvariantViolated)
	})

	t.Run("consistent counts accepted", func(t *testing.T) {
		r, err := inventory.ReconstructResource(uuid.New(), uuid.New(), "ga", 100, 60, 30, 10, time.Now())
		require.NoError(t, err)
		assert.Equal(t, 60, r.Available())
	})
}

func TestReserve(t *testing.T) {
	t.Run("moves units from available to reserved", func(t *testing.T) {
		r, err := inventory.NewResource(uuid.New(), "ga", 10)
		require.NoError(t, err)

		require.NoError(t, r.Reserve(4))
		assert.Equal(t, 6, r.Available())
		assert.Equal(t, 4, r.Reserved())
	})

	t.Run("insufficiency leaves counts untouched", func(t *testing.T) {
		r, err := inventory.NewResource(uuid.New(), "ga", 3)
		require.NoError(t, err)

		require.ErrorIs(t, r.Reserve(4), inventory.ErrInsufficient)
		assert.Equal(t, 3, r.Available())
		assert.Equal(t, 0, r.Reserved())
	})

	t.Run("exact remaining quantity sells out", func(t *testing.T) {
		r, err := inventory.NewResource(uuid.New(), "ga", 3)
		require.NoError(t, err)

		require.NoError(t, r.Reserve(3))
		assert.True(t, r.SoldOut())
		require.ErrorIs(t, r.Reserve(1), inventory.ErrInsufficient)
	})

	t.Run("non-positive quantity rejected", func(t *testing.T) {
		r, err := inventory.NewResource(uuid.New(), "ga", 3)
		require.NoError(t, err)

		require.ErrorIs(t, r.Reserve(0), inventory.ErrInvalidQuantity)
		require.ErrorIs(t, r.Reserve(-1), inventory.ErrInvalidQuantity)
	})
}

func TestConfirmSale(t *testing.T) {
	t.Run("moves units from reserved to sold", func(t *testing.T) {
		r, err := inventory.NewResource(uuid.New(), "ga", 10)
		require.NoError(t, err)
		require.NoError(t, r.Reserve(4))

		require.NoError(t, r.ConfirmSale(4))
		assert.Equal(t, 6, r.Available())
		assert.Equal(t, 0, r.Reserved())
		assert.Equal(t, 4, r.Sold())
	})

	t.Run("more than reserved rejected", func(t *testing.T) {
		r, err := inventory.NewResource(uuid.New(), "ga", 10)
		require.NoError(t, err)
		require.NoError(t, r.Reserve(2))

		require.ErrorIs(t, r.ConfirmSale(3), inventory.ErrInvariantViolated)
		assert.Equal(t, 2, r.Reserved())
		assert.Equal(t, 0, r.Sold())
	})
}

func TestRelease(t *testing.T) {
	t.Run("returns reserved units to available", func(t *testing.T) {
		r, err := inventory.NewResource(uuid.New(), "ga", 10)
		require.NoError(t, err)
		require.NoError(t, r.Reserve(4))

		require.NoError(t, r.Release(4))
		assert.Equal(t, 10, r.Available())
		assert.Equal(t, 0, r.Reserved())
	})

	t.Run("more than reserved rejected", func(t *testing.T) {
		r, err := inventory.NewResource(uuid.New(), "ga", 10)
		require.NoError(t, err)
		require.NoError(t, r.Reserve(1))

		require.ErrorIs(t, r.Release(2), inventory.ErrInvariantViolated)
	})

	t.Run("full cycle conserves capacity", func(t *testing.T) {
		r, err := inventory.NewResource(uuid.New(), "ga", 10)
		require.NoError(t, err)

		require.NoError(t, r.Reserve(6))
		require.NoError(t, r.ConfirmSale(2))
		require.NoError(t, r.Release(4))

		assert.Equal(t, 8, r.Available())
		assert.Equal(t, 0, r.Reserved())
		assert.Equal(t, 2, r.Sold())
		assert.Equal(t, r.Capacity(), r.Available()+r.Reserved()+r.Sold())
	})
}

// Concurrent buyers racing one row. The mutex stands in for the row lock the
// repository takes; the ledger must hand out exactly capacity units and never
// oversell no matter the interleaving.
func TestReserveConcurrent(t *testing.T) {
	const (
		capacity = 10
		buyers   = 50
	)

	r, err := inventory.NewResource(uuid.New(), "ga", capacity)
	require.NoError(t, err)

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		granted  int
		soldOut  int
		failures int
	)

	wg.Add(buyers)
	for i := 0; i < buyers; i++ {
		go func() {
			defer wg.Done()
			mu.Lock()
			defer mu.Unlock()
			switch err := r.Reserve(1); {
			case err == nil:
				granted++
			case err == inventory.ErrInsufficient:
				soldOut++
			default:
				failures++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, capacity, granted)
	assert.Equal(t, buyers-capacity, soldOut)
	assert.Zero(t, failures)
	assert.True(t, r.SoldOut())
	assert.Equal(t, r.Capacity(), r.Available()+r.Reserved()+r.Sold())
}
