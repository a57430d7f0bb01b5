package credential

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMalformedToken     = errors.New("malformed credential token")
	ErrUnsupportedVersion = errors.New("unsupported credential version")
	ErrUnknownMode        = errors.New("unknown credential mode")
)

// Mode tags the token variant. It is decided exactly once, at decode time;
// everything downstream switches on the tag instead of probing fields.
type Mode uint8

const (
	// ModeStatic is a long-lived signed token with a one-time nonce. It can
	// be generated without connectivity but nonce reuse can only be ruled
	// out against server state.
	ModeStatic Mode = 1
	// ModeRotating binds validity to a moving time window plus a rotation
	// counter, which removes the need for any reuse table.
	ModeRotating Mode = 2
)

func (m Mode) Valid() bool {
	return m == ModeStatic || m == ModeRotating
}

func (m Mode) String() string {
	switch m {
	case ModeStatic:
		return "static"
	case ModeRotating:
		return "rotating"
	default:
		return "unknown"
	}
}

const (
	wireVersion = 1

	nonceSize     = 16
	signatureSize = 32

	// version + mode + ticket id
	headerSize = 1 + 1 + 16

	staticPayloadSize   = 8 + nonceSize  // issued_at + nonce
	rotatingPayloadSize = 8 + 4          // window + counter
)

// Token is the decoded wire credential. Mode-specific fields are zero for
// the other variant; Mode is the single source of truth for which set is
// meaningful.
type Token struct {
	Mode     Mode
	TicketID uuid.UUID

	// ModeStatic
	IssuedAt time.Time
	Nonce    [nonceSize]byte

	// ModeRotating
	Window  int64
	Counter uint32

	Signature [signatureSize]byte
}

// Encode serializes the token in fixed field order and returns it as an
// unpadded base64url string. The signature is appended verbatim; it is
// computed over the logical fields (see signingInput), never over these
// serialized bytes.
func (t Token) Encode() string {
	var buf []byte
	switch t.Mode {
	case ModeStatic:
		buf = make([]byte, headerSize+staticPayloadSize+signatureSize)
	case ModeRotating:
		buf = make([]byte, headerSize+rotatingPayloadSize+signatureSize)
	default:
		return ""
	}

	buf[0] = wireVersion
	buf[1] = byte(t.Mode)
	copy(buf[2:18], t.TicketID[:])

	off := headerSize
	switch t.Mode {
	case ModeStatic:
		binary.BigEndian.PutUint64(buf[off:], uint64(t.IssuedAt.Unix()))
		copy(buf[off+8:], t.Nonce[:])
		off += staticPayloadSize
	case ModeRotating:
		binary.BigEndian.PutUint64(buf[off:], uint64(t.Window))
		binary.BigEndian.PutUint32(buf[off+8:], t.Counter)
		off += rotatingPayloadSize
	}
	copy(buf[off:], t.Signature[:])

	return base64.RawURLEncoding.EncodeToString(buf)
}

// Decode parses an encoded credential. It rejects anything that is not an
// exact-length, known-version, known-mode payload before looking at any
// field, so downstream code never sees a half-parsed token.
func Decode(encoded string) (Token, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Token{}, ErrMalformedToken
	}
	if len(raw) < headerSize {
		return Token{}, ErrMalformedToken
	}
	if raw[0] != wireVersion {
		return Token{}, ErrUnsupportedVersion
	}

	mode := Mode(raw[1])
	var tok Token
	tok.Mode = mode
	copy(tok.TicketID[:], raw[2:18])

	off := headerSize
	switch mode {
	case ModeStatic:
		if len(raw) != headerSize+staticPayloadSize+signatureSize {
			return Token{}, ErrMalformedToken
		}
		tok.IssuedAt = time.Unix(int64(binary.BigEndian.Uint64(raw[off:])), 0).UTC()
		copy(tok.Nonce[:], raw[off+8:off+8+nonceSize])
		off += staticPayloadSize
	case ModeRotating:
		if len(raw) != headerSize+rotatingPayloadSize+signatureSize {
			return Token{}, ErrMalformedToken
		}
		tok.Window = int64(binary.BigEndian.Uint64(raw[off:]))
		tok.Counter = binary.BigEndian.Uint32(raw[off+8:])
		off += rotatingPayloadSize
	default:
		return Token{}, ErrUnknownMode
	}
	copy(tok.Signature[:], raw[off:])

	return tok, nil
}

// NonceHex renders the nonce for use as a replay-registry key.
func (t Token) NonceHex() string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, nonceSize*2)
	for i, b := range t.Nonce {
		out[i*2] = hexdigits[b>>4]
		out[i*2+1] = hexdigits[b&0x0f]
	}
	return string(out)
}
