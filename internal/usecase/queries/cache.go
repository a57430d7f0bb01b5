package queries

import (
	"context"
	"time"

	"ticketgate/internal/pkg/clock"
	"ticketgate/internal/pkg/config"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CachedTicket is one entry of a scanner cache snapshot: everything a
// scanner needs to verify credentials for the ticket with no connectivity.
type CachedTicket struct {
	ID              uuid.UUID `json:"id"`
	Secret          []byte    `json:"secret"`
	RotationCounter uint32    `json:"rotation_counter"`
	Status          string    `json:"status"`
}

// CacheSnapshot is the full per-event download. ExpiresAt bounds offline
// trust: a scanner must refuse to validate against a snapshot older than
// that.
type CacheSnapshot struct {
	EventID   uuid.UUID      `json:"event_id"`
	Tickets   []CachedTicket `json:"tickets"`
	SyncedAt  time.Time      `json:"synced_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

type CacheQueries interface {
	DownloadSnapshot(ctx context.Context, eventID uuid.UUID) (*CacheSnapshot, error)
}

type cacheQueriesImpl struct {
	ticketReader TicketReader
	pool         *pgxpool.Pool
	clock        clock.Clock
	cfg          config.CacheConfig
}

func NewCacheQueries(ticketReader TicketReader, pool *pgxpool.Pool, clk clock.Clock, cfg config.CacheConfig) CacheQueries {
	return &cacheQueriesImpl{
		ticketReader: ticketReader,
		pool:         pool,
		clock:        clk,
		cfg:          cfg,
	}
}

func (q *cacheQueriesImpl) DownloadSnapshot(ctx context.Context, eventID uuid.UUID) (*CacheSnapshot, error) {
	tickets, err := q.ticketReader.ListByEvent(ctx, q.pool, eventID)
	if err != nil {
		return nil, err
	}

	now := q.clock.Now()
	snapshot := &CacheSnapshot{
		EventID:   eventID,
		Tickets:   make([]CachedTicket, 0, len(tickets)),
		SyncedAt:  now,
		ExpiresAt: now.Add(q.cfg.SnapshotTTL),
	}
	for _, t := range tickets {
		snapshot.Tickets = append(snapshot.Tickets, CachedTicket{
			ID:              t.ID(),
			Secret:          t.Secret(),
			RotationCounter: t.RotationCounter(),
			Status:          t.Status().String(),
		})
	}
	return snapshot, nil
}
