package scanner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	maxBatchSize    = 100
	maxSyncAttempts = 3
	baseBackoff     = 2 * time.Second
)

// ClaimUploader is the transport the syncer pushes claims through, satisfied
// by *Client.
type ClaimUploader interface {
	SyncClaims(ctx context.Context, claims []Claim) ([]ClaimResolution, error)
}

// Syncer drains the offline claim queue once connectivity returns. Claims
// ride in bounded batches; a batch that cannot be delivered after the retry
// budget goes back to pending for the next run rather than being dropped.
type Syncer struct {
	cache  *Cache
	client ClaimUploader
}

func NewSyncer(cache *Cache, client ClaimUploader) *Syncer {
	return &Syncer{cache: cache, client: client}
}

// SyncOnce uploads one batch of pending claims and applies the server's
// resolutions. Returns the number of claims resolved.
func (s *Syncer) SyncOnce(ctx context.Context) (int, error) {
	claims, err := s.cache.ClaimsByStatus(ClaimPending, maxBatchSize)
	if err != nil {
		return 0, err
	}
	if len(claims) == 0 {
		return 0, nil
	}

	for i := range claims {
		claims[i].Status = ClaimSyncing
		claims[i].Attempts++
		if err := s.cache.UpdateClaim(claims[i]); err != nil {
			return 0, err
		}
	}

	resolutions, err := s.upload(ctx, claims)
	if err != nil {
		// Transport failed entirely: nothing was resolved. Claims under the
		// attempt budget go back to pending, the rest are parked as failed
		// for operator attention.
		for _, claim := range claims {
			if claim.Attempts >= maxSyncAttempts {
				claim.Status = ClaimFailed
				claim.Reason = "sync retry budget exhausted"
			} else {
				claim.Status = ClaimPending
			}
			if updateErr := s.cache.UpdateClaim(claim); updateErr != nil {
				return 0, updateErr
			}
		}
		return 0, err
	}

	byID := make(map[string]ClaimResolution, len(resolutions))
	for _, r := range resolutions {
		byID[r.ClaimID.String()] = r
	}

	resolved := 0
	for _, claim := range claims {
		resolution, ok := byID[claim.ID.String()]
		if !ok {
			claim.Status = ClaimPending
			if err := s.cache.UpdateClaim(claim); err != nil {
				return resolved, err
			}
			continue
		}

		// The server's ticket status is authoritative and overrides the
		// cached copy regardless of how the claim itself resolved.
		if err := s.applyServerStatus(resolution); err != nil {
			return resolved, err
		}

		switch resolution.Result {
		case "granted":
			claim.Status = ClaimSynced
		case "already_used":
			claim.Status = ClaimConflict
			claim.Reason = resolution.Reason
			claim.Winner = resolution.Winner
			slog.Warn("offline grant lost sync race",
				"claim_id", claim.ID, "ticket_id", claim.TicketID, "reason", resolution.Reason)
		default:
			claim.Status = ClaimFailed
			claim.Reason = resolution.Reason
		}
		if err := s.cache.UpdateClaim(claim); err != nil {
			return resolved, err
		}
		resolved++
	}
	return resolved, nil
}

func (s *Syncer) applyServerStatus(resolution ClaimResolution) error {
	if resolution.TicketStatus == "" || resolution.TicketID == uuid.Nil {
		return nil
	}
	err := s.cache.SetTicketStatus(resolution.TicketID, resolution.TicketStatus)
	if errors.Is(err, ErrTicketNotCached) {
		// The snapshot may predate the ticket; nothing to correct.
		return nil
	}
	return err
}

// Drain repeats SyncOnce until the pending queue is empty or the context
// ends.
func (s *Syncer) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := s.SyncOnce(ctx)
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, nil
		}
		total += n
	}
}

func (s *Syncer) upload(ctx context.Context, claims []Claim) ([]ClaimResolution, error) {
	var lastErr error
	for attempt := 0; attempt < maxSyncAttempts; attempt++ {
		if attempt > 0 {
			backoff := baseBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resolutions, err := s.client.SyncClaims(ctx, claims)
		if err == nil {
			return resolutions, nil
		}
		lastErr = err
		slog.Warn("claim upload failed", "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}
