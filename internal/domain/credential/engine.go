package credential

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrSecretRequired = errors.New("ticket secret required")

const SecretSize = 32

// Params fixes the protocol constants for one deployment. Issuer and
// verifier must agree on WindowWidth; Tolerance absorbs clock skew between
// them (≤5s by contract).
type Params struct {
	StaticValidity time.Duration
	WindowWidth    time.Duration
	Tolerance      time.Duration
}

func DefaultParams() Params {
	return Params{
		StaticValidity: 24 * time.Hour,
		WindowWidth:    30 * time.Second,
		Tolerance:      5 * time.Second,
	}
}

// WindowAt maps an instant to its fixed-width window index.
func (p Params) WindowAt(t time.Time) int64 {
	return t.Unix() / int64(p.WindowWidth/time.Second)
}

// Verdict is the complete set of verification outcomes. There is no
// "maybe": anything the engine cannot decide locally is Provisional or
// CounterStale, both of which defer to the server rather than guessing.
type Verdict int

const (
	VerdictValid Verdict = iota
	// VerdictProvisional: static token with a good signature inside its
	// validity window, but nonce reuse is undecidable without server state.
	VerdictProvisional
	VerdictBadSignature
	VerdictExpired
	VerdictOutOfWindow
	// VerdictCounterStale: rotating token whose counter is more than one
	// step away from the expected value; the verifier's view of the ticket
	// may be outdated.
	VerdictCounterStale
)

func (v Verdict) String() string {
	switch v {
	case VerdictValid:
		return "valid"
	case VerdictProvisional:
		return "provisional"
	case VerdictBadSignature:
		return "bad_signature"
	case VerdictExpired:
		return "expired"
	case VerdictOutOfWindow:
		return "out_of_window"
	case VerdictCounterStale:
		return "counter_stale"
	default:
		return "unknown"
	}
}

func NewSecret() ([]byte, error) {
	secret := make([]byte, SecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	return secret, nil
}

// IssueStatic mints a Mode A token: long validity, fresh one-time nonce.
func IssueStatic(secret []byte, ticketID uuid.UUID, now time.Time) (Token, error) {
	if len(secret) == 0 {
		return Token{}, ErrSecretRequired
	}
	tok := Token{
		Mode:     ModeStatic,
		TicketID: ticketID,
		IssuedAt: now.Truncate(time.Second).UTC(),
	}
	if _, err := rand.Read(tok.Nonce[:]); err != nil {
		return Token{}, err
	}
	tok.Signature = sign(secret, tok)
	return tok, nil
}

// IssueRotating mints a Mode B token bound to the window containing now and
// the ticket's current rotation counter.
func IssueRotating(secret []byte, ticketID uuid.UUID, counter uint32, now time.Time, params Params) (Token, error) {
	if len(secret) == 0 {
		return Token{}, ErrSecretRequired
	}
	tok := Token{
		Mode:     ModeRotating,
		TicketID: ticketID,
		Window:   params.WindowAt(now),
		Counter:  counter,
	}
	tok.Signature = sign(secret, tok)
	return tok, nil
}

// Verify checks a decoded token against the ticket secret. expectedCounter
// is only consulted for rotating tokens; pass the verifier's last known
// rotation counter for the ticket.
func Verify(secret []byte, tok Token, expectedCounter uint32, now time.Time, params Params) Verdict {
	want := sign(secret, tok)
	if !hmac.Equal(want[:], tok.Signature[:]) {
		return VerdictBadSignature
	}

	switch tok.Mode {
	case ModeStatic:
		age := now.Sub(tok.IssuedAt)
		if age < -params.Tolerance || age > params.StaticValidity {
			return VerdictExpired
		}
		return VerdictProvisional

	case ModeRotating:
		current := params.WindowAt(now)
		delta := tok.Window - current
		if delta < -1 || delta > 1 {
			return VerdictOutOfWindow
		}
		drift := int64(tok.Counter) - int64(expectedCounter)
		if drift < -1 || drift > 1 {
			return VerdictCounterStale
		}
		return VerdictValid

	default:
		return VerdictBadSignature
	}
}

// sign computes HMAC-SHA256 over the logical fields in fixed order. The
// field order here is the protocol contract; serialization layout is free
// to change without invalidating issued tokens.
func sign(secret []byte, tok Token) [signatureSize]byte {
	mac := hmac.New(sha256.New, secret)

	var scratch [8]byte
	mac.Write([]byte{byte(tok.Mode)})
	mac.Write(tok.TicketID[:])

	switch tok.Mode {
	case ModeStatic:
		binary.BigEndian.PutUint64(scratch[:], uint64(tok.IssuedAt.Unix()))
		mac.Write(scratch[:])
		mac.Write(tok.Nonce[:])
	case ModeRotating:
		binary.BigEndian.PutUint64(scratch[:], uint64(tok.Window))
		mac.Write(scratch[:])
		binary.BigEndian.PutUint32(scratch[:4], tok.Counter)
		mac.Write(scratch[:4])
	}

	var sig [signatureSize]byte
	copy(sig[:], mac.Sum(nil))
	return sig
}
