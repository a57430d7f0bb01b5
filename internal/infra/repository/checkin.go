package repository

import (
	"context"
	"errors"
	"time"

	"ticketgate/internal/domain/ticket"
	"ticketgate/internal/infra"
	"ticketgate/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CheckInRepository appends to the immutable audit log. There is no update
// path on purpose.
type CheckInRepository struct{}

func NewCheckInRepository() *CheckInRepository {
	return &CheckInRepository{}
}

const checkInColumns = `id, ticket_id, event_id, scanner_user_id, device_id, result, reason, latitude, longitude, scanned_at`

func (r *CheckInRepository) Append(ctx context.Context, dbtx db.DBTX, rec ticket.CheckIn) error {
	_, err := dbtx.Exec(ctx, `
		INSERT INTO check_ins (id, ticket_id, event_id, scanner_user_id, device_id, result, reason, latitude, longitude, scanned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID, rec.TicketID, rec.EventID, rec.ScannerUserID, rec.DeviceID, rec.Result.String(), rec.Reason, rec.Latitude, rec.Longitude, rec.ScannedAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to append check-in record", err)
	}
	return nil
}

// FindWinner returns the successful redemption record for a ticket, used to
// tell a losing scanner who won and when.
func (r *CheckInRepository) FindWinner(ctx context.Context, dbtx db.DBTX, ticketID uuid.UUID) (*ticket.CheckIn, error) {
	row := dbtx.QueryRow(ctx, `
		SELECT `+checkInColumns+`
		FROM check_ins
		WHERE ticket_id = $1 AND result = 'granted'
		ORDER BY scanned_at
		LIMIT 1`, ticketID)
	return scanCheckIn(row)
}

func (r *CheckInRepository) ListByEvent(ctx context.Context, dbtx db.DBTX, eventID uuid.UUID, limit int) ([]ticket.CheckIn, error) {
	rows, err := dbtx.Query(ctx, `
		SELECT `+checkInColumns+`
		FROM check_ins
		WHERE event_id = $1
		ORDER BY scanned_at DESC
		LIMIT $2`, eventID, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list check-ins", err)
	}
	defer rows.Close()

	var recs []ticket.CheckIn
	for rows.Next() {
		rec, err := scanCheckIn(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate check-ins", err)
	}
	return recs, nil
}

func scanCheckIn(row pgx.Row) (*ticket.CheckIn, error) {
	var (
		rec       ticket.CheckIn
		result    string
		scannedAt time.Time
	)
	if err := row.Scan(&rec.ID, &rec.TicketID, &rec.EventID, &rec.ScannerUserID, &rec.DeviceID, &result, &rec.Reason, &rec.Latitude, &rec.Longitude, &scannedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("check-in record not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to scan check-in record", err)
	}
	rec.Result = ticket.CheckInResult(result)
	rec.ScannedAt = scannedAt
	return &rec, nil
}
