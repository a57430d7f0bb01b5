package repository

import (
	"context"
	"errors"
	"time"

	"ticketgate/internal/domain/reservation"
	"ticketgate/internal/infra"
	"ticketgate/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ReservationRepository struct{}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{}
}

const reservationColumns = `id, resource_id, buyer_id, quantity, status, expires_at, consumed_at, cancelled_at, created_at`

func (r *ReservationRepository) Create(ctx context.Context, dbtx db.DBTX, res *reservation.Reservation) error {
	_, err := dbtx.Exec(ctx, `
		INSERT INTO reservations (id, resource_id, buyer_id, quantity, status, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		res.ID(), res.ResourceID(), res.BuyerID(), res.Quantity(), res.Status().String(), res.ExpiresAt(), res.CreatedAt(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return infra.WrapRepoErr("resource does not exist", err, infra.KindNotFound)
		}
		return infra.WrapRepoErr("failed to create reservation", err)
	}
	return nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*reservation.Reservation, error) {
	row := dbtx.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE id = $1`, id)
	return scanReservation(row)
}

// FindByIDForUpdate locks the reservation row so consume, cancel and the
// expiry sweep serialize on the same reservation.
func (r *ReservationRepository) FindByIDForUpdate(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*reservation.Reservation, error) {
	row := dbtx.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE id = $1
		FOR UPDATE`, id)
	return scanReservation(row)
}

func (r *ReservationRepository) SaveStatus(ctx context.Context, dbtx db.DBTX, res *reservation.Reservation) error {
	tag, err := dbtx.Exec(ctx, `
		UPDATE reservations
		SET status = $2, consumed_at = $3, cancelled_at = $4
		WHERE id = $1`,
		res.ID(), res.Status().String(), res.ConsumedAt(), res.CancelledAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update reservation status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	return nil
}

// ListDueForUpdate returns pending reservations past their expiry, locked
// with SKIP LOCKED so the sweep never stalls behind an in-flight consume
// and never blocks one.
func (r *ReservationRepository) ListDueForUpdate(ctx context.Context, dbtx db.DBTX, now time.Time, limit int) ([]*reservation.Reservation, error) {
	rows, err := dbtx.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE status = 'pending' AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED`, now, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list due reservations", err)
	}
	defer rows.Close()

	var due []*reservation.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		due = append(due, res)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate due reservations", err)
	}
	return due, nil
}

func scanReservation(row pgx.Row) (*reservation.Reservation, error) {
	var (
		id, resourceID, buyerID uuid.UUID
		quantity                int
		status                  string
		expiresAt, createdAt    time.Time
		consumedAt, cancelledAt *time.Time
	)
	if err := row.Scan(&id, &resourceID, &buyerID, &quantity, &status, &expiresAt, &consumedAt, &cancelledAt, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to scan reservation", err)
	}
	return reservation.ReconstructReservation(
		id, resourceID, buyerID, quantity,
		reservation.Status(status),
		expiresAt, consumedAt, cancelledAt, createdAt,
	), nil
}
