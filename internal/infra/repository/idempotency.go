package repository

import (
	"context"
	"errors"
	"time"

	"ticketgate/internal/infra"
	"ticketgate/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// IdempotencyRecord mirrors one row of idempotency_keys. Buyers retry
// reservation creation freely; the (key, buyer) pair pins each retry to the
// first attempt's outcome.
type IdempotencyRecord struct {
	Key                 uuid.UUID
	UserID              uuid.UUID
	Endpoint            string
	RequestHash         string
	Status              string
	ResultReservationID *uuid.UUID
	ExpiresAt           time.Time
}

type IdempotencyRepository struct{}

func NewIdempotencyRepository() *IdempotencyRepository {
	return &IdempotencyRepository{}
}

// TryInsert claims the key if it is new. Returns false when the key already
// exists; the caller inspects the stored record next.
func (r *IdempotencyRepository) TryInsert(ctx context.Context, dbtx db.DBTX, key, userID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error) {
	tag, err := dbtx.Exec(ctx, `
		INSERT INTO idempotency_keys (key, user_id, endpoint, request_hash, status, expires_at)
		VALUES ($1, $2, $3, $4, 'processing', $5)
		ON CONFLICT (key, user_id) DO NOTHING`,
		key, userID, endpoint, requestHash, expiresAt,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to insert idempotency key", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *IdempotencyRepository) Get(ctx context.Context, dbtx db.DBTX, key, userID uuid.UUID) (*IdempotencyRecord, error) {
	row := dbtx.QueryRow(ctx, `
		SELECT key, user_id, endpoint, request_hash, status, result_reservation_id, expires_at
		FROM idempotency_keys
		WHERE key = $1 AND user_id = $2`, key, userID)

	var rec IdempotencyRecord
	if err := row.Scan(&rec.Key, &rec.UserID, &rec.Endpoint, &rec.RequestHash, &rec.Status, &rec.ResultReservationID, &rec.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("idempotency key not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to scan idempotency key", err)
	}
	return &rec, nil
}

func (r *IdempotencyRepository) MarkCompleted(ctx context.Context, dbtx db.DBTX, key, userID uuid.UUID, resultReservationID uuid.UUID) error {
	tag, err := dbtx.Exec(ctx, `
		UPDATE idempotency_keys
		SET status = 'completed', result_reservation_id = $3
		WHERE key = $1 AND user_id = $2`,
		key, userID, resultReservationID,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to complete idempotency key", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("idempotency key not found", nil, infra.KindNotFound)
	}
	return nil
}
