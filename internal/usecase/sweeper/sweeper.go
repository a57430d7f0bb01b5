package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ticketgate/internal/infra/db"
	"ticketgate/internal/infra/queue"
	"ticketgate/internal/pkg/clock"
	"ticketgate/internal/pkg/config"
	"ticketgate/internal/usecase/commands"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sweeper expires overdue reservations in the background and returns their
// units to the pool. Each batch locks due rows with SKIP LOCKED, so several
// instances can sweep concurrently without stepping on each other or on a
// consume happening at the same moment.
type Sweeper struct {
	inventoryRepo   commands.InventoryRepository
	reservationRepo commands.ReservationRepository
	publisher       commands.EventPublisher
	pool            *pgxpool.Pool
	clock           clock.Clock
	cfg             config.SweepConfig

	stop chan struct{}
	done chan struct{}
}

func New(
	inventoryRepo commands.InventoryRepository,
	reservationRepo commands.ReservationRepository,
	publisher commands.EventPublisher,
	pool *pgxpool.Pool,
	clk clock.Clock,
	cfg config.SweepConfig,
) *Sweeper {
	return &Sweeper{
		inventoryRepo:   inventoryRepo,
		reservationRepo: reservationRepo,
		publisher:       publisher,
		pool:            pool,
		clock:           clk,
		cfg:             cfg,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	go s.run()
}

func (s *Sweeper) Stop(ctx context.Context) error {
	close(s.stop)
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Interval)
			expired, err := s.SweepOnce(ctx)
			cancel()
			if err != nil {
				slog.Error("reservation sweep failed", "error", err)
				continue
			}
			if expired > 0 {
				slog.Info("expired overdue reservations", "count", expired)
			}
		}
	}
}

// SweepOnce expires at most one batch of due reservations and reports how
// many it expired. Batches keep each transaction, and therefore each set of
// held row locks, small.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	expired := 0
	err := s.withTx(ctx, func(dbtx db.DBTX) error {
		due, err := s.reservationRepo.ListDueForUpdate(ctx, dbtx, s.clock.Now(), s.cfg.BatchSize)
		if err != nil {
			return err
		}

		for _, res := range due {
			if err := res.Expire(); err != nil {
				return err
			}
			if err := s.reservationRepo.SaveStatus(ctx, dbtx, res); err != nil {
				return err
			}

			resource, err := s.inventoryRepo.FindByIDForUpdate(ctx, dbtx, res.ResourceID())
			if err != nil {
				return err
			}
			if err := resource.Release(res.Quantity()); err != nil {
				return err
			}
			if err := s.inventoryRepo.SaveCounts(ctx, dbtx, resource); err != nil {
				return err
			}
			expired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		if err := s.publisher.Publish(ctx, queue.TopicReservationExpired, map[string]any{
			"expired_count": expired,
			"swept_at":      s.clock.Now(),
		}); err != nil {
			slog.Warn("failed to publish event", "topic", queue.TopicReservationExpired, "error", err)
		}
	}
	return expired, nil
}

func (s *Sweeper) withTx(ctx context.Context, fn func(dbtx db.DBTX) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			slog.Warn("failed to rollback sweep transaction", "error", rollbackErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
