package commands

import (
	"context"
	"errors"
	"log/slog"

	"ticketgate/internal/infra/db"
	"ticketgate/internal/pkg/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errTransactionFailed = errs.New("database transaction failed")

// withTx runs fn in one transaction. No external calls belong inside fn:
// the row locks taken there must only span the check-and-update itself.
func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(dbtx db.DBTX) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return errs.Mark(err, errTransactionFailed)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			slog.Warn("failed to rollback transaction", "error", rollbackErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errs.Mark(err, errTransactionFailed)
	}
	return nil
}
