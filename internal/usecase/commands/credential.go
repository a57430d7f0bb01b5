package commands

import (
	"context"
	"time"

	"ticketgate/internal/domain/credential"
	"ticketgate/internal/domain/ticket"
	"ticketgate/internal/infra"
	"ticketgate/internal/infra/db"
	"ticketgate/internal/pkg/clock"
	"ticketgate/internal/pkg/config"
	"ticketgate/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrTicketNotFound  = errs.New("ticket not found")
	ErrNotTicketOwner  = errs.New("ticket belongs to another buyer")
	ErrTicketNotActive = errs.New("ticket is not active")
)

type IssuedCredential struct {
	Token     string
	Mode      credential.Mode
	TicketID  uuid.UUID
	ExpiresAt time.Time
}

type CredentialCommands interface {
	Issue(ctx context.Context, ticketID, buyerID uuid.UUID, mode credential.Mode) (*IssuedCredential, error)
}

type credentialCommandsImpl struct {
	ticketRepo TicketRepository
	pool       *pgxpool.Pool
	clock      clock.Clock
	params     credential.Params
}

func NewCredentialCommands(
	ticketRepo TicketRepository,
	pool *pgxpool.Pool,
	clk clock.Clock,
	cfg config.CredentialConfig,
) CredentialCommands {
	return &credentialCommandsImpl{
		ticketRepo: ticketRepo,
		pool:       pool,
		clock:      clk,
		params: credential.Params{
			StaticValidity: cfg.StaticValidity,
			WindowWidth:    cfg.WindowWidth,
			Tolerance:      cfg.ClockTolerance,
		},
	}
}

// Issue mints a presentable QR credential for a ticket the caller owns.
// Static issuance is a pure read; rotating issuance bumps the rotation
// counter under the ticket row lock so issuer and verifier stay within the
// tolerated drift.
func (c *credentialCommandsImpl) Issue(
	ctx context.Context,
	ticketID, buyerID uuid.UUID,
	mode credential.Mode,
) (*IssuedCredential, error) {
	now := c.clock.Now()

	switch mode {
	case credential.ModeStatic:
		t, err := c.findOwned(ctx, c.pool, ticketID, buyerID)
		if err != nil {
			return nil, err
		}
		tok, err := credential.IssueStatic(t.Secret(), t.ID(), now)
		if err != nil {
			return nil, errs.Wrap(err, "failed to issue static credential")
		}
		return &IssuedCredential{
			Token:     tok.Encode(),
			Mode:      credential.ModeStatic,
			TicketID:  t.ID(),
			ExpiresAt: tok.IssuedAt.Add(c.params.StaticValidity),
		}, nil

	case credential.ModeRotating:
		var issued *IssuedCredential
		err := withTx(ctx, c.pool, func(dbtx db.DBTX) error {
			t, err := c.ticketRepo.FindByIDForUpdate(ctx, dbtx, ticketID)
			if err != nil {
				if infra.IsKind(err, infra.KindNotFound) {
					return ErrTicketNotFound
				}
				return err
			}
			if t.BuyerID() != buyerID {
				return ErrNotTicketOwner
			}
			if !t.IsActive() {
				return ErrTicketNotActive
			}

			tok, err := credential.IssueRotating(t.Secret(), t.ID(), t.RotationCounter(), now, c.params)
			if err != nil {
				return errs.Wrap(err, "failed to issue rotating credential")
			}
			t.AdvanceRotation()
			if err := c.ticketRepo.Save(ctx, dbtx, t); err != nil {
				return err
			}

			windowEnd := time.Unix((tok.Window+2)*int64(c.params.WindowWidth/time.Second), 0).UTC()
			issued = &IssuedCredential{
				Token:     tok.Encode(),
				Mode:      credential.ModeRotating,
				TicketID:  t.ID(),
				ExpiresAt: windowEnd,
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return issued, nil

	default:
		return nil, errs.Wrap(credential.ErrUnknownMode, "failed to issue credential")
	}
}

func (c *credentialCommandsImpl) findOwned(ctx context.Context, dbtx db.DBTX, ticketID, buyerID uuid.UUID) (*ticket.Ticket, error) {
	t, err := c.ticketRepo.FindByID(ctx, dbtx, ticketID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if t.BuyerID() != buyerID {
		return nil, ErrNotTicketOwner
	}
	if !t.IsActive() {
		return nil, ErrTicketNotActive
	}
	return t, nil
}
