//go:build unit

package scanner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ticketgate/internal/scanner"
	"ticketgate/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	calls   int
	err     error
	resolve func(claims []scanner.Claim) []scanner.ClaimResolution
}

func (f *fakeUploader) SyncClaims(_ context.Context, claims []scanner.Claim) ([]scanner.ClaimResolution, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.resolve(claims), nil
}

func resolveAll(result string) func([]scanner.Claim) []scanner.ClaimResolution {
	return func(claims []scanner.Claim) []scanner.ClaimResolution {
		out := make([]scanner.ClaimResolution, 0, len(claims))
		for _, c := range claims {
			out = append(out, scanner.ClaimResolution{
				ClaimID:  c.ID,
				TicketID: c.TicketID,
				Result:   result,
			})
		}
		return out
	}
}

func syncCacheWithClaims(t *testing.T, n int) (*scanner.Cache, []scanner.Claim) {
	t.Helper()
	cache := openTestCache(t)
	require.NoError(t, cache.ReplaceSnapshot(&queries.CacheSnapshot{
		EventID:   uuid.New(),
		SyncedAt:  baseTime,
		ExpiresAt: baseTime.Add(4 * time.Hour),
	}))

	claims := make([]scanner.Claim, 0, n)
	for i := 0; i < n; i++ {
		claim := scanner.Claim{
			ID:        uuid.New(),
			TicketID:  uuid.New(),
			EventID:   uuid.New(),
			Token:     "tok",
			ScannedAt: baseTime,
			Status:    scanner.ClaimPending,
		}
		require.NoError(t, cache.EnqueueClaim(claim))
		claims = append(claims, claim)
	}
	return cache, claims
}

func claimByID(t *testing.T, cache *scanner.Cache, status scanner.ClaimStatus, id uuid.UUID) scanner.Claim {
	t.Helper()
	claims, err := cache.ClaimsByStatus(status, 0)
	require.NoError(t, err)
	for _, c := range claims {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("claim %s not found with status %s", id, status)
	return scanner.Claim{}
}

func TestSyncOnce(t *testing.T) {
	t.Run("granted claims become synced", func(t *testing.T) {
		cache, claims := syncCacheWithClaims(t, 3)
		uploader := &fakeUploader{resolve: resolveAll("granted")}
		syncer := scanner.NewSyncer(cache, uploader)

		n, err := syncer.SyncOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, 1, uploader.calls)

		for _, claim := range claims {
			got := claimByID(t, cache, scanner.ClaimSynced, claim.ID)
			assert.Equal(t, 1, got.Attempts)
		}
	})

	t.Run("lost race becomes conflict with reason", func(t *testing.T) {
		cache, claims := syncCacheWithClaims(t, 1)
		uploader := &fakeUploader{resolve: func(cs []scanner.Claim) []scanner.ClaimResolution {
			return []scanner.ClaimResolution{{
				ClaimID:  cs[0].ID,
				TicketID: cs[0].TicketID,
				Result:   "already_used",
				Reason:   "redeemed by another scanner",
			}}
		}}
		syncer := scanner.NewSyncer(cache, uploader)

		n, err := syncer.SyncOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got := claimByID(t, cache, scanner.ClaimConflict, claims[0].ID)
		assert.Equal(t, "redeemed by another scanner", got.Reason)
	})

	t.Run("rejected claim becomes failed", func(t *testing.T) {
		cache, claims := syncCacheWithClaims(t, 1)
		uploader := &fakeUploader{resolve: func(cs []scanner.Claim) []scanner.ClaimResolution {
			return []scanner.ClaimResolution{{
				ClaimID: cs[0].ID,
				Result:  "invalid_token",
				Reason:  "bad signature",
			}}
		}}
		syncer := scanner.NewSyncer(cache, uploader)

		_, err := syncer.SyncOnce(context.Background())
		require.NoError(t, err)

		got := claimByID(t, cache, scanner.ClaimFailed, claims[0].ID)
		assert.Equal(t, "bad signature", got.Reason)
	})

	t.Run("unresolved claim returns to pending", func(t *testing.T) {
		cache, claims := syncCacheWithClaims(t, 2)
		uploader := &fakeUploader{resolve: func(cs []scanner.Claim) []scanner.ClaimResolution {
			// Server answers for only one of the two.
			return []scanner.ClaimResolution{{ClaimID: cs[0].ID, Result: "granted"}}
		}}
		syncer := scanner.NewSyncer(cache, uploader)

		n, err := syncer.SyncOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		pending, err := cache.ClaimsByStatus(scanner.ClaimPending, 0)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Contains(t, []uuid.UUID{claims[0].ID, claims[1].ID}, pending[0].ID)
	})

	t.Run("empty queue is a no-op", func(t *testing.T) {
		cache, _ := syncCacheWithClaims(t, 0)
		uploader := &fakeUploader{resolve: resolveAll("granted")}
		syncer := scanner.NewSyncer(cache, uploader)

		n, err := syncer.SyncOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		assert.Equal(t, 0, uploader.calls)
	})
}

func TestSyncServerStatusOverride(t *testing.T) {
	t.Run("server status corrects a speculative local grant", func(t *testing.T) {
		cache := openTestCache(t)
		ticket, _ := cachedTicket(t)
		require.NoError(t, cache.ReplaceSnapshot(&queries.CacheSnapshot{
			EventID:   uuid.New(),
			Tickets:   []queries.CachedTicket{ticket},
			SyncedAt:  baseTime,
			ExpiresAt: baseTime.Add(4 * time.Hour),
		}))
		// A local grant flipped the cached copy to used before sync.
		require.NoError(t, cache.MarkTicketUsed(ticket.ID))

		claim := scanner.Claim{
			ID:        uuid.New(),
			TicketID:  ticket.ID,
			EventID:   uuid.New(),
			Token:     "tok",
			ScannedAt: baseTime,
			Status:    scanner.ClaimPending,
		}
		require.NoError(t, cache.EnqueueClaim(claim))

		uploader := &fakeUploader{resolve: func(cs []scanner.Claim) []scanner.ClaimResolution {
			return []scanner.ClaimResolution{{
				ClaimID:      cs[0].ID,
				TicketID:     cs[0].TicketID,
				Result:       "not_active",
				Reason:       "ticket is refunded",
				TicketStatus: "refunded",
			}}
		}}
		syncer := scanner.NewSyncer(cache, uploader)

		_, err := syncer.SyncOnce(context.Background())
		require.NoError(t, err)

		got, err := cache.Ticket(ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, "refunded", got.Status)

		failed := claimByID(t, cache, scanner.ClaimFailed, claim.ID)
		assert.Equal(t, "ticket is refunded", failed.Reason)
	})

	t.Run("status applies on granted resolutions too", func(t *testing.T) {
		cache := openTestCache(t)
		ticket, _ := cachedTicket(t)
		require.NoError(t, cache.ReplaceSnapshot(&queries.CacheSnapshot{
			EventID:   uuid.New(),
			Tickets:   []queries.CachedTicket{ticket},
			SyncedAt:  baseTime,
			ExpiresAt: baseTime.Add(4 * time.Hour),
		}))

		claim := scanner.Claim{
			ID:        uuid.New(),
			TicketID:  ticket.ID,
			EventID:   uuid.New(),
			Token:     "tok",
			ScannedAt: baseTime,
			Status:    scanner.ClaimPending,
		}
		require.NoError(t, cache.EnqueueClaim(claim))

		uploader := &fakeUploader{resolve: func(cs []scanner.Claim) []scanner.ClaimResolution {
			return []scanner.ClaimResolution{{
				ClaimID:      cs[0].ID,
				TicketID:     cs[0].TicketID,
				Result:       "granted",
				TicketStatus: "used",
			}}
		}}
		syncer := scanner.NewSyncer(cache, uploader)

		_, err := syncer.SyncOnce(context.Background())
		require.NoError(t, err)

		got, err := cache.Ticket(ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, "used", got.Status)
	})

	t.Run("status for a ticket outside the snapshot is ignored", func(t *testing.T) {
		cache, claims := syncCacheWithClaims(t, 1)
		uploader := &fakeUploader{resolve: func(cs []scanner.Claim) []scanner.ClaimResolution {
			return []scanner.ClaimResolution{{
				ClaimID:      cs[0].ID,
				TicketID:     cs[0].TicketID,
				Result:       "granted",
				TicketStatus: "used",
			}}
		}}
		syncer := scanner.NewSyncer(cache, uploader)

		n, err := syncer.SyncOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		claimByID(t, cache, scanner.ClaimSynced, claims[0].ID)
	})
}

func TestSyncConflictKeepsWinner(t *testing.T) {
	cache, claims := syncCacheWithClaims(t, 1)
	winnerDevice := "gate-b-02"
	wonAt := baseTime.Add(-10 * time.Minute)
	winnerID := uuid.New()

	uploader := &fakeUploader{resolve: func(cs []scanner.Claim) []scanner.ClaimResolution {
		return []scanner.ClaimResolution{{
			ClaimID:  cs[0].ID,
			TicketID: cs[0].TicketID,
			Result:   "already_used",
			Reason:   "ticket already used",
			Winner: &scanner.ClaimWinner{
				ScannerUserID: winnerID,
				DeviceID:      winnerDevice,
				ScannedAt:     wonAt,
			},
		}}
	}}
	syncer := scanner.NewSyncer(cache, uploader)

	_, err := syncer.SyncOnce(context.Background())
	require.NoError(t, err)

	got := claimByID(t, cache, scanner.ClaimConflict, claims[0].ID)
	require.NotNil(t, got.Winner)
	assert.Equal(t, winnerID, got.Winner.ScannerUserID)
	assert.Equal(t, winnerDevice, got.Winner.DeviceID)
	assert.True(t, got.Winner.ScannedAt.Equal(wonAt))
}

func TestSyncOnceTransportFailure(t *testing.T) {
	// Cancel during backoff so retries do not wait out the full schedule.
	newCtx := func() context.Context {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	t.Run("claims return to pending under the attempt budget", func(t *testing.T) {
		cache, claims := syncCacheWithClaims(t, 1)
		uploader := &fakeUploader{err: errors.New("network unreachable")}
		syncer := scanner.NewSyncer(cache, uploader)

		_, err := syncer.SyncOnce(newCtx())
		require.Error(t, err)

		got := claimByID(t, cache, scanner.ClaimPending, claims[0].ID)
		assert.Equal(t, 1, got.Attempts)
	})

	t.Run("budget exhaustion parks the claim as failed", func(t *testing.T) {
		cache, claims := syncCacheWithClaims(t, 1)
		uploader := &fakeUploader{err: errors.New("network unreachable")}
		syncer := scanner.NewSyncer(cache, uploader)

		for i := 0; i < 2; i++ {
			_, err := syncer.SyncOnce(newCtx())
			require.Error(t, err)
		}
		_, err := syncer.SyncOnce(newCtx())
		require.Error(t, err)

		got := claimByID(t, cache, scanner.ClaimFailed, claims[0].ID)
		assert.Equal(t, 3, got.Attempts)
		assert.NotEmpty(t, got.Reason)
	})
}

func TestDrain(t *testing.T) {
	cache, _ := syncCacheWithClaims(t, 5)
	uploader := &fakeUploader{resolve: resolveAll("granted")}
	syncer := scanner.NewSyncer(cache, uploader)

	total, err := syncer.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	pending, err := cache.ClaimsByStatus(scanner.ClaimPending, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
