package queries

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultCheckInListLimit = 100

type CheckInView struct {
	ID            uuid.UUID `json:"id"`
	TicketID      uuid.UUID `json:"ticket_id"`
	ScannerUserID uuid.UUID `json:"scanner_user_id"`
	DeviceID      string    `json:"device_id"`
	Result        string    `json:"result"`
	Reason        string    `json:"reason,omitempty"`
	ScannedAt     time.Time `json:"scanned_at"`
}

type CheckInQueries interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID, limit int) ([]CheckInView, error)
}

type checkInQueriesImpl struct {
	checkInReader CheckInReader
	pool          *pgxpool.Pool
}

func NewCheckInQueries(checkInReader CheckInReader, pool *pgxpool.Pool) CheckInQueries {
	return &checkInQueriesImpl{checkInReader: checkInReader, pool: pool}
}

func (q *checkInQueriesImpl) ListByEvent(ctx context.Context, eventID uuid.UUID, limit int) ([]CheckInView, error) {
	if limit <= 0 || limit > defaultCheckInListLimit {
		limit = defaultCheckInListLimit
	}
	recs, err := q.checkInReader.ListByEvent(ctx, q.pool, eventID, limit)
	if err != nil {
		return nil, err
	}

	views := make([]CheckInView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, CheckInView{
			ID:            rec.ID,
			TicketID:      rec.TicketID,
			ScannerUserID: rec.ScannerUserID,
			DeviceID:      rec.DeviceID,
			Result:        rec.Result.String(),
			Reason:        rec.Reason,
			ScannedAt:     rec.ScannedAt,
		})
	}
	return views, nil
}
