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

var ErrNonceRegistryDown = errs.New("nonce registry unavailable")

// CheckInOutcome is the full result of one redemption attempt. Business
// rejections come back as a non-granted Result, not as an error; errors are
// reserved for infrastructure failures.
type CheckInOutcome struct {
	Result ticket.CheckInResult
	Reason string
	// Winner is the audit row of the first granted check-in, set when
	// Result is already_used so the scanner can show who got in and when.
	Winner   *ticket.CheckIn
	TicketID uuid.UUID
}

type CheckInCommands interface {
	Redeem(ctx context.Context, encodedToken string, eventID uuid.UUID, scanner ScannerIdentity) (*CheckInOutcome, error)
}

type checkInCommandsImpl struct {
	ticketRepo  TicketRepository
	checkInRepo CheckInRepository
	nonces      NonceRegistry
	publisher   EventPublisher
	pool        *pgxpool.Pool
	clock       clock.Clock
	params      credential.Params
}

func NewCheckInCommands(
	ticketRepo TicketRepository,
	checkInRepo CheckInRepository,
	nonces NonceRegistry,
	publisher EventPublisher,
	pool *pgxpool.Pool,
	clk clock.Clock,
	cfg config.CredentialConfig,
) CheckInCommands {
	return &checkInCommandsImpl{
		ticketRepo:  ticketRepo,
		checkInRepo: checkInRepo,
		nonces:      nonces,
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

// Redeem is the online check-in path: full cryptographic re-verification,
// replay detection for static tokens, then the exactly-once active -> used
// transition under a row lock. Every attempt that names a real ticket leaves
// an audit row, rejected ones included.
func (c *checkInCommandsImpl) Redeem(
	ctx context.Context,
	encodedToken string,
	eventID uuid.UUID,
	scanner ScannerIdentity,
) (*CheckInOutcome, error) {
	now := c.clock.Now()

	tok, err := credential.Decode(encodedToken)
	if err != nil {
		// Nothing to audit: a token that does not decode names no ticket.
		return &CheckInOutcome{Result: ticket.ResultInvalidToken, Reason: decodeReason(err)}, nil
	}

	t, err := c.ticketRepo.FindByID(ctx, c.pool, tok.TicketID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return &CheckInOutcome{
				Result:   ticket.ResultInvalidToken,
				Reason:   "unknown ticket",
				TicketID: tok.TicketID,
			}, nil
		}
		return nil, err
	}

	verdict := credential.Verify(t.Secret(), tok, t.RotationCounter(), now, c.params)
	switch verdict {
	case credential.VerdictBadSignature:
		return c.reject(ctx, t, eventID, scanner, ticket.ResultInvalidToken, "bad signature", now)
	case credential.VerdictExpired:
		return c.reject(ctx, t, eventID, scanner, ticket.ResultExpired, "static token expired", now)
	case credential.VerdictOutOfWindow:
		return c.reject(ctx, t, eventID, scanner, ticket.ResultExpired, "rotating window expired", now)
	case credential.VerdictCounterStale:
		// The server's counter is authoritative; a stale one means the token
		// was minted from an outdated ticket state.
		return c.reject(ctx, t, eventID, scanner, ticket.ResultExpired, "rotation counter stale", now)
	}

	// Static tokens carry a one-time nonce. Claim it before the row lock so
	// the registry round trip never extends a held lock; losing the claim is
	// a replay.
	if tok.Mode == credential.ModeStatic {
		fresh, err := c.nonces.Register(ctx, tok.TicketID, tok.NonceHex(), c.params.StaticValidity)
		if err != nil {
			// Fail closed: without the registry a replay cannot be ruled out.
			return nil, errs.Mark(err, ErrNonceRegistryDown)
		}
		if !fresh {
			return c.reject(ctx, t, eventID, scanner, ticket.ResultInvalidToken, "nonce already used", now)
		}
	}

	var outcome *CheckInOutcome
	err = withTx(ctx, c.pool, func(dbtx db.DBTX) error {
		locked, err := c.ticketRepo.FindByIDForUpdate(ctx, dbtx, tok.TicketID)
		if err != nil {
			return err
		}

		redeemErr := locked.Redeem(eventID, now)
		switch {
		case redeemErr == nil:
			if err := c.ticketRepo.Save(ctx, dbtx, locked); err != nil {
				return err
			}
			rec := c.newRecord(locked, eventID, scanner, ticket.ResultGranted, "", now)
			if err := c.checkInRepo.Append(ctx, dbtx, rec); err != nil {
				return err
			}
			outcome = &CheckInOutcome{Result: ticket.ResultGranted, TicketID: locked.ID()}
			return nil

		case errors.Is(redeemErr, ticket.ErrAlreadyUsed):
			winner, err := c.checkInRepo.FindWinner(ctx, dbtx, locked.ID())
			if err != nil && !infra.IsKind(err, infra.KindNotFound) {
				return err
			}
			rec := c.newRecord(locked, eventID, scanner, ticket.ResultAlreadyUsed, "ticket already used", now)
			if err := c.checkInRepo.Append(ctx, dbtx, rec); err != nil {
				return err
			}
			outcome = &CheckInOutcome{
				Result:   ticket.ResultAlreadyUsed,
				Reason:   "ticket already used",
				Winner:   winner,
				TicketID: locked.ID(),
			}
			return nil

		case errors.Is(redeemErr, ticket.ErrWrongEvent):
			rec := c.newRecord(locked, eventID, scanner, ticket.ResultWrongEvent, "ticket belongs to another event", now)
			if err := c.checkInRepo.Append(ctx, dbtx, rec); err != nil {
				return err
			}
			outcome = &CheckInOutcome{Result: ticket.ResultWrongEvent, Reason: "ticket belongs to another event", TicketID: locked.ID()}
			return nil

		case errors.Is(redeemErr, ticket.ErrNotActive):
			reason := "ticket is " + locked.Status().String()
			rec := c.newRecord(locked, eventID, scanner, ticket.ResultNotActive, reason, now)
			if err := c.checkInRepo.Append(ctx, dbtx, rec); err != nil {
				return err
			}
			outcome = &CheckInOutcome{Result: ticket.ResultNotActive, Reason: reason, TicketID: locked.ID()}
			return nil

		default:
			return errs.Wrap(redeemErr, "failed to redeem ticket")
		}
	})
	if err != nil {
		return nil, err
	}

	if outcome.Result == ticket.ResultGranted {
		c.publishRecorded(ctx, outcome.TicketID, eventID, scanner, now)
	}

	return outcome, nil
}

// reject writes the audit row for a pre-lock rejection and reports it as an
// outcome. The row itself goes through the pool, not a transaction: audit
// rows for rejections must survive even when nothing else changes.
func (c *checkInCommandsImpl) reject(
	ctx context.Context,
	t *ticket.Ticket,
	eventID uuid.UUID,
	scanner ScannerIdentity,
	result ticket.CheckInResult,
	reason string,
	now time.Time,
) (*CheckInOutcome, error) {
	rec := c.newRecord(t, eventID, scanner, result, reason, now)
	if err := c.checkInRepo.Append(ctx, c.pool, rec); err != nil {
		return nil, err
	}
	return &CheckInOutcome{Result: result, Reason: reason, TicketID: t.ID()}, nil
}

func (c *checkInCommandsImpl) newRecord(
	t *ticket.Ticket,
	eventID uuid.UUID,
	scanner ScannerIdentity,
	result ticket.CheckInResult,
	reason string,
	now time.Time,
) ticket.CheckIn {
	return ticket.NewCheckIn(
		t.ID(), eventID, scanner.UserID, scanner.DeviceID,
		result, reason, scanner.Latitude, scanner.Longitude,
		now,
	)
}

func (c *checkInCommandsImpl) publishRecorded(ctx context.Context, ticketID, eventID uuid.UUID, scanner ScannerIdentity, now time.Time) {
	if err := c.publisher.Publish(ctx, queue.TopicCheckInRecorded, map[string]any{
		"ticket_id":  ticketID,
		"event_id":   eventID,
		"scanner_id": scanner.UserID,
		"device_id":  scanner.DeviceID,
		"scanned_at": now,
	}); err != nil {
		slog.Warn("failed to publish event", "topic", queue.TopicCheckInRecorded, "error", err)
	}
}

func decodeReason(err error) string {
	switch {
	case errors.Is(err, credential.ErrUnsupportedVersion):
		return "unsupported token version"
	case errors.Is(err, credential.ErrUnknownMode):
		return "unknown token mode"
	default:
		return "malformed token"
	}
}
