package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ticketgate/internal/domain/credential"
	"ticketgate/internal/domain/ticket"
	"ticketgate/internal/infra"
	"ticketgate/internal/infra/db"
	"ticketgate/internal/infra/queue"
	"ticketgate/internal/pkg/clock"
	"ticketgate/internal/pkg/config"
	"ticketgate/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const MaxSyncBatchSize = 100

var ErrSyncBatchTooLarge = errs.New("sync batch exceeds maximum size")

// OfflineClaim is one check-in a scanner granted while offline, uploaded on
// reconnect. ScannedAt is the scanner's local time of the grant; the token
// is kept so the server can re-check the signature.
type OfflineClaim struct {
	ClaimID   uuid.UUID
	EventID   uuid.UUID
	Token     string
	ScannedAt time.Time
}

// ClaimResolution reports the server's verdict on one uploaded claim.
// Conflicts resolve first-to-sync: whichever claim reached the server first
// holds the redemption, regardless of which scan happened earlier offline.
// TicketStatus carries the authoritative server-side status so the scanner
// can correct its cached copy whatever the claim's own outcome.
type ClaimResolution struct {
	ClaimID      uuid.UUID
	TicketID     uuid.UUID
	Result       ticket.CheckInResult
	Reason       string
	TicketStatus string
	Winner       *ticket.CheckIn
}

type SyncCommands interface {
	Resolve(ctx context.Context, scanner ScannerIdentity, claims []OfflineClaim) ([]ClaimResolution, error)
}

type syncCommandsImpl struct {
	ticketRepo  TicketRepository
	checkInRepo CheckInRepository
	publisher   EventPublisher
	pool        *pgxpool.Pool
	clock       clock.Clock
	params      credential.Params
}

func NewSyncCommands(
	ticketRepo TicketRepository,
	checkInRepo CheckInRepository,
	publisher EventPublisher,
	pool *pgxpool.Pool,
	clk clock.Clock,
	cfg config.CredentialConfig,
) SyncCommands {
	return &syncCommandsImpl{
		ticketRepo:  ticketRepo,
		checkInRepo: checkInRepo,
		publisher:   publisher,
		pool:        pool,
		clock:       clk,
		params: credential.Params{
			StaticValidity: cfg.StaticValidity,
			WindowWidth:    cfg.WindowWidth,
			Tolerance:      cfg.ClockTolerance,
		},
	}
}

// Resolve replays a batch of offline grants against server state. Each claim
// gets its own transaction so one conflicted ticket never poisons the rest
// of the batch; the scanner marks claims synced or conflicted individually.
func (s *syncCommandsImpl) Resolve(
	ctx context.Context,
	scanner ScannerIdentity,
	claims []OfflineClaim,
) ([]ClaimResolution, error) {
	if len(claims) > MaxSyncBatchSize {
		return nil, ErrSyncBatchTooLarge
	}

	resolutions := make([]ClaimResolution, 0, len(claims))
	granted := 0
	for _, claim := range claims {
		resolution, err := s.resolveOne(ctx, scanner, claim)
		if err != nil {
			return nil, err
		}
		if resolution.Result == ticket.ResultGranted {
			granted++
		}
		resolutions = append(resolutions, resolution)
	}

	if granted > 0 {
		if err := s.publisher.Publish(ctx, queue.TopicCheckInRecorded, map[string]any{
			"scanner_id":    scanner.UserID,
			"device_id":     scanner.DeviceID,
			"synced_claims": granted,
			"synced_at":     s.clock.Now(),
		}); err != nil {
			slog.Warn("failed to publish event", "topic", queue.TopicCheckInRecorded, "error", err)
		}
	}

	return resolutions, nil
}

func (s *syncCommandsImpl) resolveOne(
	ctx context.Context,
	scanner ScannerIdentity,
	claim OfflineClaim,
) (ClaimResolution, error) {
	tok, err := credential.Decode(claim.Token)
	if err != nil {
		return ClaimResolution{
			ClaimID: claim.ClaimID,
			Result:  ticket.ResultInvalidToken,
			Reason:  "malformed token",
		}, nil
	}

	resolution := ClaimResolution{ClaimID: claim.ClaimID, TicketID: tok.TicketID}

	err = withTx(ctx, s.pool, func(dbtx db.DBTX) error {
		t, err := s.ticketRepo.FindByIDForUpdate(ctx, dbtx, tok.TicketID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				resolution.Result = ticket.ResultInvalidToken
				resolution.Reason = "unknown ticket"
				return nil
			}
			return err
		}

		resolution.TicketStatus = t.Status().String()

		// Only the signature is re-checked here. Window and nonce freshness
		// applied at scan time on the device; they cannot be re-evaluated
		// after the fact.
		if credential.Verify(t.Secret(), tok, tok.Counter, claim.ScannedAt, s.params) == credential.VerdictBadSignature {
			resolution.Result = ticket.ResultInvalidToken
			resolution.Reason = "bad signature"
			rec := ticket.NewCheckIn(t.ID(), claim.EventID, scanner.UserID, scanner.DeviceID,
				ticket.ResultInvalidToken, "bad signature", scanner.Latitude, scanner.Longitude, claim.ScannedAt)
			return s.checkInRepo.Append(ctx, dbtx, rec)
		}

		redeemErr := t.Redeem(claim.EventID, claim.ScannedAt)
		resolution.TicketStatus = t.Status().String()
		switch {
		case redeemErr == nil:
			if err := s.ticketRepo.Save(ctx, dbtx, t); err != nil {
				return err
			}
			resolution.Result = ticket.ResultGranted
			rec := ticket.NewCheckIn(t.ID(), claim.EventID, scanner.UserID, scanner.DeviceID,
				ticket.ResultGranted, "synced offline grant", scanner.Latitude, scanner.Longitude, claim.ScannedAt)
			return s.checkInRepo.Append(ctx, dbtx, rec)

		case errors.Is(redeemErr, ticket.ErrAlreadyUsed):
			winner, err := s.checkInRepo.FindWinner(ctx, dbtx, t.ID())
			if err != nil && !infra.IsKind(err, infra.KindNotFound) {
				return err
			}
			resolution.Result = ticket.ResultAlreadyUsed
			resolution.Reason = "ticket already used"
			resolution.Winner = winner
			rec := ticket.NewCheckIn(t.ID(), claim.EventID, scanner.UserID, scanner.DeviceID,
				ticket.ResultAlreadyUsed, "offline grant lost sync race", scanner.Latitude, scanner.Longitude, claim.ScannedAt)
			return s.checkInRepo.Append(ctx, dbtx, rec)

		case errors.Is(redeemErr, ticket.ErrWrongEvent):
			resolution.Result = ticket.ResultWrongEvent
			resolution.Reason = "ticket belongs to another event"
			rec := ticket.NewCheckIn(t.ID(), claim.EventID, scanner.UserID, scanner.DeviceID,
				ticket.ResultWrongEvent, "ticket belongs to another event", scanner.Latitude, scanner.Longitude, claim.ScannedAt)
			return s.checkInRepo.Append(ctx, dbtx, rec)

		case errors.Is(redeemErr, ticket.ErrNotActive):
			reason := "ticket is " + t.Status().String()
			resolution.Result = ticket.ResultNotActive
			resolution.Reason = reason
			rec := ticket.NewCheckIn(t.ID(), claim.EventID, scanner.UserID, scanner.DeviceID,
				ticket.ResultNotActive, reason, scanner.Latitude, scanner.Longitude, claim.ScannedAt)
			return s.checkInRepo.Append(ctx, dbtx, rec)

		default:
			return errs.Wrap(redeemErr, "failed to resolve offline claim")
		}
	})
	if err != nil {
		return ClaimResolution{}, err
	}
	return resolution, nil
}
