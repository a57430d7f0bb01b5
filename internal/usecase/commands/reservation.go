package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"ticketgate/internal/domain/inventory"
	"ticketgate/internal/domain/reservation"
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

var (
	ErrResourceNotFound      = errs.New("resource not found")
	ErrSoldOut               = errs.New("insufficient inventory")
	ErrInvalidQuantity       = errs.New("invalid quantity")
	ErrFraudRefused          = errs.New("reservation refused by risk gate")
	ErrCaptchaRequired       = errs.New("captcha verification required")
	ErrPhoneCheckRequired    = errs.New("phone verification required")
	ErrReservationNotFound   = errs.New("reservation not found")
	ErrReservationExpired    = errs.New("reservation expired")
	ErrReservationCancelled  = errs.New("reservation cancelled")
	ErrNotReservationOwner   = errs.New("reservation belongs to another buyer")
	ErrIdempotencyInProgress = errs.New("request already in progress")
	ErrDuplicateRequest      = errs.New("idempotency key reused with different request")
)

type CreateReservationInput struct {
	ResourceID uuid.UUID
	Quantity   int
	TTL        time.Duration
}

type CreateReservationResult struct {
	Reservation *reservation.Reservation
	IsReplayed  bool
}

type ConsumeReservationResult struct {
	Reservation *reservation.Reservation
	Tickets     []*ticket.Ticket
	IsReplayed  bool
}

type ReservationCommands interface {
	Create(ctx context.Context, buyerID uuid.UUID, in CreateReservationInput, idempotencyKey uuid.UUID) (*CreateReservationResult, error)
	Consume(ctx context.Context, reservationID uuid.UUID) (*ConsumeReservationResult, error)
	Cancel(ctx context.Context, reservationID, buyerID uuid.UUID) error
}

type reservationCommandsImpl struct {
	inventoryRepo   InventoryRepository
	reservationRepo ReservationRepository
	ticketRepo      TicketRepository
	idempotencyRepo IdempotencyRepository
	fraudGate       FraudGate
	publisher       EventPublisher
	pool            *pgxpool.Pool
	clock           clock.Clock
	cfg             config.ReservationConfig
}

func NewReservationCommands(
	inventoryRepo InventoryRepository,
	reservationRepo ReservationRepository,
	ticketRepo TicketRepository,
	idempotencyRepo IdempotencyRepository,
	fraudGate FraudGate,
	publisher EventPublisher,
	pool *pgxpool.Pool,
	clk clock.Clock,
	cfg config.ReservationConfig,
) ReservationCommands {
	return &reservationCommandsImpl{
		inventoryRepo:   inventoryRepo,
		reservationRepo: reservationRepo,
		ticketRepo:      ticketRepo,
		idempotencyRepo: idempotencyRepo,
		fraudGate:       fraudGate,
		publisher:       publisher,
		pool:            pool,
		clock:           clk,
		cfg:             cfg,
	}
}

func (c *reservationCommandsImpl) Create(
	ctx context.Context,
	buyerID uuid.UUID,
	in CreateReservationInput,
	idempotencyKey uuid.UUID,
) (*CreateReservationResult, error) {
	if in.Quantity <= 0 || in.Quantity > c.cfg.MaxQty {
		return nil, ErrInvalidQuantity
	}
	ttl := in.TTL
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}
	if ttl > c.cfg.MaxTTL {
		ttl = c.cfg.MaxTTL
	}

	// Risk gate comes first and fails closed: an unevaluable gate refuses
	// the reservation before any inventory lock is taken.
	decision, err := c.fraudGate.Evaluate(ctx, buyerID, in.ResourceID, in.Quantity)
	if err != nil {
		return nil, errs.Mark(err, ErrFraudRefused)
	}
	switch decision {
	case FraudAllowed:
	case FraudRequiresCaptcha:
		return nil, ErrCaptchaRequired
	case FraudRequiresPhoneCheck:
		return nil, ErrPhoneCheckRequired
	default:
		return nil, ErrFraudRefused
	}

	requestHash := hashCreateRequest(buyerID, in)
	replayed, err := c.handleIdempotency(ctx, idempotencyKey, buyerID, requestHash)
	if err != nil {
		return nil, err
	}
	if replayed != nil {
		return &CreateReservationResult{Reservation: replayed, IsReplayed: true}, nil
	}

	now := c.clock.Now()
	res, err := reservation.NewReservation(in.ResourceID, buyerID, in.Quantity, ttl, now)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidQuantity)
	}

	err = withTx(ctx, c.pool, func(dbtx db.DBTX) error {
		resource, err := c.inventoryRepo.FindByIDForUpdate(ctx, dbtx, in.ResourceID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrResourceNotFound
			}
			return err
		}

		if err := resource.Reserve(in.Quantity); err != nil {
			if errors.Is(err, inventory.ErrInsufficient) {
				return ErrSoldOut
			}
			return err
		}

		if err := c.inventoryRepo.SaveCounts(ctx, dbtx, resource); err != nil {
			return err
		}
		if err := c.reservationRepo.Create(ctx, dbtx, res); err != nil {
			return err
		}
		return c.idempotencyRepo.MarkCompleted(ctx, dbtx, idempotencyKey, buyerID, res.ID())
	})
	if err != nil {
		return nil, err
	}

	c.publish(ctx, queue.TopicReservationCreated, map[string]any{
		"reservation_id": res.ID(),
		"resource_id":    res.ResourceID(),
		"buyer_id":       res.BuyerID(),
		"quantity":       res.Quantity(),
		"expires_at":     res.ExpiresAt(),
	})

	return &CreateReservationResult{Reservation: res, IsReplayed: false}, nil
}

// handleIdempotency claims the key and resolves replays. At-least-once
// clients retry freely; only the first attempt reaches the inventory lock.
func (c *reservationCommandsImpl) handleIdempotency(
	ctx context.Context,
	key, buyerID uuid.UUID,
	requestHash string,
) (*reservation.Reservation, error) {
	expiresAt := c.clock.Now().Add(24 * time.Hour)
	inserted, err := c.idempotencyRepo.TryInsert(ctx, c.pool, key, buyerID, "POST /reservations", requestHash, expiresAt)
	if err != nil {
		return nil, err
	}
	if inserted {
		// This request owns the key.
		return nil, nil
	}

	existing, err := c.idempotencyRepo.Get(ctx, c.pool, key, buyerID)
	if err != nil {
		return nil, err
	}
	if existing.RequestHash != requestHash {
		return nil, ErrDuplicateRequest
	}

	switch existing.Status {
	case "completed":
		if existing.ResultReservationID == nil {
			return nil, errs.New("completed idempotency key missing reservation id")
		}
		res, err := c.reservationRepo.FindByID(ctx, c.pool, *existing.ResultReservationID)
		if err != nil {
			return nil, err
		}
		return res, nil

	case "processing":
		// Another attempt holds the key and has not finished.
		return nil, ErrIdempotencyInProgress

	default:
		return nil, errs.New("invalid idempotency key status")
	}
}

// Consume finalizes a reservation on payment confirmation. Safe under
// at-least-once webhook delivery: a re-delivery for an already consumed
// reservation replays the original outcome with no side effects.
func (c *reservationCommandsImpl) Consume(ctx context.Context, reservationID uuid.UUID) (*ConsumeReservationResult, error) {
	var result *ConsumeReservationResult

	err := withTx(ctx, c.pool, func(dbtx db.DBTX) error {
		res, err := c.reservationRepo.FindByIDForUpdate(ctx, dbtx, reservationID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrReservationNotFound
			}
			return err
		}

		switch res.Status() {
		case reservation.StatusConsumed:
			tickets, err := c.ticketRepo.ListByReservation(ctx, dbtx, reservationID)
			if err != nil {
				return err
			}
			result = &ConsumeReservationResult{Reservation: res, Tickets: tickets, IsReplayed: true}
			return nil
		case reservation.StatusExpired:
			return ErrReservationExpired
		case reservation.StatusCancelled:
			return ErrReservationCancelled
		}

		now := c.clock.Now()
		if res.DueForExpiry(now) {
			// Payment landed after the TTL: take the expiry path and report
			// failure so the payment layer can refund, never silently issue.
			if err := c.expireLocked(ctx, dbtx, res); err != nil {
				return err
			}
			return ErrReservationExpired
		}

		if err := res.Consume(now); err != nil {
			return errs.Wrap(err, "failed to consume reservation")
		}
		if err := c.reservationRepo.SaveStatus(ctx, dbtx, res); err != nil {
			return err
		}

		resource, err := c.inventoryRepo.FindByIDForUpdate(ctx, dbtx, res.ResourceID())
		if err != nil {
			return err
		}
		if err := resource.ConfirmSale(res.Quantity()); err != nil {
			return err
		}
		if err := c.inventoryRepo.SaveCounts(ctx, dbtx, resource); err != nil {
			return err
		}

		tickets := make([]*ticket.Ticket, 0, res.Quantity())
		for i := 0; i < res.Quantity(); i++ {
			t, err := ticket.Issue(resource.ID(), resource.EventID(), res.BuyerID(), res.ID(), now)
			if err != nil {
				return errs.Wrap(err, "failed to issue ticket")
			}
			tickets = append(tickets, t)
		}
		if err := c.ticketRepo.CreateBatch(ctx, dbtx, tickets); err != nil {
			return err
		}

		result = &ConsumeReservationResult{Reservation: res, Tickets: tickets, IsReplayed: false}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.IsReplayed {
		ticketIDs := make([]uuid.UUID, len(result.Tickets))
		for i, t := range result.Tickets {
			ticketIDs[i] = t.ID()
		}
		c.publish(ctx, queue.TopicReservationConsumed, map[string]any{
			"reservation_id": reservationID,
			"ticket_ids":     ticketIDs,
		})
	}

	return result, nil
}

func (c *reservationCommandsImpl) Cancel(ctx context.Context, reservationID, buyerID uuid.UUID) error {
	return withTx(ctx, c.pool, func(dbtx db.DBTX) error {
		res, err := c.reservationRepo.FindByIDForUpdate(ctx, dbtx, reservationID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrReservationNotFound
			}
			return err
		}

		if err := res.Cancel(buyerID, c.clock.Now()); err != nil {
			switch {
			case err == reservation.ErrNotOwner:
				return ErrNotReservationOwner
			case res.Status() == reservation.StatusExpired:
				return ErrReservationExpired
			case res.Status() == reservation.StatusCancelled:
				// Cancelling twice is harmless.
				return nil
			default:
				return errs.Wrap(err, "failed to cancel reservation")
			}
		}
		if err := c.reservationRepo.SaveStatus(ctx, dbtx, res); err != nil {
			return err
		}
		return c.releaseInventory(ctx, dbtx, res)
	})
}

// expireLocked finalizes an overdue reservation already locked by the
// caller and returns its units to the pool.
func (c *reservationCommandsImpl) expireLocked(ctx context.Context, dbtx db.DBTX, res *reservation.Reservation) error {
	if err := res.Expire(); err != nil {
		return errs.Wrap(err, "failed to expire reservation")
	}
	if err := c.reservationRepo.SaveStatus(ctx, dbtx, res); err != nil {
		return err
	}
	return c.releaseInventory(ctx, dbtx, res)
}

func (c *reservationCommandsImpl) releaseInventory(ctx context.Context, dbtx db.DBTX, res *reservation.Reservation) error {
	resource, err := c.inventoryRepo.FindByIDForUpdate(ctx, dbtx, res.ResourceID())
	if err != nil {
		return err
	}
	if err := resource.Release(res.Quantity()); err != nil {
		return err
	}
	return c.inventoryRepo.SaveCounts(ctx, dbtx, resource)
}

func (c *reservationCommandsImpl) publish(ctx context.Context, topic string, payload any) {
	if err := c.publisher.Publish(ctx, topic, payload); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "error", err)
	}
}

func hashCreateRequest(buyerID uuid.UUID, in CreateReservationInput) string {
	data, _ := json.Marshal(map[string]any{
		"buyer_id":    buyerID,
		"resource_id": in.ResourceID,
		"quantity":    in.Quantity,
	})
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
