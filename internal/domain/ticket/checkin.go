package ticket

import (
	"time"

	"github.com/google/uuid"
)

type CheckInResult string

const (
	ResultGranted      CheckInResult = "granted"
	ResultAlreadyUsed  CheckInResult = "already_used"
	ResultInvalidToken CheckInResult = "invalid_token"
	ResultNotActive    CheckInResult = "not_active"
	ResultWrongEvent   CheckInResult = "wrong_event"
	ResultExpired      CheckInResult = "expired"
)

func (r CheckInResult) String() string { return string(r) }

// CheckIn is one append-only audit row per redemption attempt, successful
// or not. Rows are immutable once written; they are the record of truth
// for dispute resolution.
type CheckIn struct {
	ID            uuid.UUID
	TicketID      uuid.UUID
	EventID       uuid.UUID
	ScannerUserID uuid.UUID
	DeviceID      string
	Result        CheckInResult
	Reason        string
	Latitude      *float64
	Longitude     *float64
	ScannedAt     time.Time
}

func NewCheckIn(ticketID, eventID, scannerUserID uuid.UUID, deviceID string, result CheckInResult, reason string, lat, lng *float64, scannedAt time.Time) CheckIn {
	return CheckIn{
		ID:            uuid.New(),
		TicketID:      ticketID,
		EventID:       eventID,
		ScannerUserID: scannerUserID,
		DeviceID:      deviceID,
		Result:        result,
		Reason:        reason,
		Latitude:      lat,
		Longitude:     lng,
		ScannedAt:     scannedAt,
	}
}
