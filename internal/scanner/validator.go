package scanner

import (
	"errors"

	"ticketgate/internal/domain/credential"
	"ticketgate/internal/pkg/clock"

	"github.com/google/uuid"
)

type Outcome string

const (
	OutcomeValid Outcome = "valid"
	// OutcomeNeedsOnline: the device cannot decide alone. Not a denial; the
	// gate operator escalates to an online check or a manual decision.
	OutcomeNeedsOnline Outcome = "needs_online_validation"
	OutcomeAlreadyUsed Outcome = "already_used"
	OutcomeInvalid     Outcome = "invalid"
	// OutcomeCacheExpired: the snapshot aged past its trust bound; the
	// device refuses all offline decisions until it resyncs.
	OutcomeCacheExpired Outcome = "cache_expired"
)

type Decision struct {
	Outcome  Outcome
	Reason   string
	TicketID uuid.UUID
	// ClaimID is set when a grant queued an offline claim.
	ClaimID uuid.UUID
}

// Validator is the on-device gate decision. It never touches the network:
// everything it knows comes from the last downloaded snapshot, and anything
// it cannot decide from that is escalated, not guessed.
type Validator struct {
	cache  *Cache
	clock  clock.Clock
	params credential.Params
}

func NewValidator(cache *Cache, clk clock.Clock, params credential.Params) *Validator {
	return &Validator{
		cache:  cache,
		clock:  clk,
		params: params,
	}
}

// Validate runs the offline decision tree for one presented token. A local
// grant flips the cached status to used immediately and queues a claim for
// sync, so a second presentation on this device is caught with no network.
func (v *Validator) Validate(encodedToken string) (Decision, error) {
	now := v.clock.Now()

	eventID, _, expiresAt, err := v.cache.Snapshot()
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			return Decision{Outcome: OutcomeCacheExpired, Reason: "no snapshot downloaded"}, nil
		}
		return Decision{}, err
	}
	if now.After(expiresAt) {
		return Decision{Outcome: OutcomeCacheExpired, Reason: "snapshot past its trust window"}, nil
	}

	tok, err := credential.Decode(encodedToken)
	if err != nil {
		return Decision{Outcome: OutcomeInvalid, Reason: "malformed token"}, nil
	}

	cached, err := v.cache.Ticket(tok.TicketID)
	if err != nil {
		if errors.Is(err, ErrTicketNotCached) {
			// Cache incompleteness is not proof of invalidity.
			return Decision{Outcome: OutcomeNeedsOnline, Reason: "ticket not in cache", TicketID: tok.TicketID}, nil
		}
		return Decision{}, err
	}

	switch cached.Status {
	case "active":
	case "used":
		return Decision{Outcome: OutcomeAlreadyUsed, Reason: "ticket already used", TicketID: tok.TicketID}, nil
	default:
		return Decision{Outcome: OutcomeInvalid, Reason: "ticket is " + cached.Status, TicketID: tok.TicketID}, nil
	}

	verdict := credential.Verify(cached.Secret, tok, cached.RotationCounter, now, v.params)
	switch verdict {
	case credential.VerdictBadSignature:
		return Decision{Outcome: OutcomeInvalid, Reason: "bad signature", TicketID: tok.TicketID}, nil

	case credential.VerdictExpired:
		return Decision{Outcome: OutcomeInvalid, Reason: "static token expired", TicketID: tok.TicketID}, nil

	case credential.VerdictOutOfWindow:
		return Decision{Outcome: OutcomeInvalid, Reason: "rotating window expired", TicketID: tok.TicketID}, nil

	case credential.VerdictCounterStale:
		// The cached counter may simply be older than the token's.
		return Decision{Outcome: OutcomeNeedsOnline, Reason: "rotation counter drift", TicketID: tok.TicketID}, nil

	case credential.VerdictProvisional:
		// Static token, good signature, inside validity. Nonce reuse cannot
		// be ruled out from the cache; only the server's registry can.
		return Decision{Outcome: OutcomeNeedsOnline, Reason: "nonce reuse undecidable offline", TicketID: tok.TicketID}, nil

	case credential.VerdictValid:
		return v.grant(encodedToken, tok.TicketID, eventID)

	default:
		return Decision{Outcome: OutcomeInvalid, Reason: "unrecognized verdict", TicketID: tok.TicketID}, nil
	}
}

// grant records the speculative local redemption: cached status flips to
// used and a claim is queued. The server's later resolution is authoritative
// and may turn this grant into a conflict.
func (v *Validator) grant(encodedToken string, ticketID, eventID uuid.UUID) (Decision, error) {
	if err := v.cache.MarkTicketUsed(ticketID); err != nil {
		return Decision{}, err
	}

	claim := Claim{
		ID:        uuid.New(),
		TicketID:  ticketID,
		EventID:   eventID,
		Token:     encodedToken,
		ScannedAt: v.clock.Now(),
		Status:    ClaimPending,
	}
	if err := v.cache.EnqueueClaim(claim); err != nil {
		return Decision{}, err
	}

	return Decision{Outcome: OutcomeValid, TicketID: ticketID, ClaimID: claim.ID}, nil
}
