//go:build unit

package credential_test

import (
	"encoding/base64"
	"testing"
	"time"

	"ticketgate/internal/domain/credential"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret, err := credential.NewSecret()
	require.NoError(t, err)
	ticketID := uuid.New()
	now := time.Date(2026, 3, 14, 12, 0, 15, 0, time.UTC)

	t.Run("static", func(t *testing.T) {
		tok, err := credential.IssueStatic(secret, ticketID, now)
		require.NoError(t, err)

		decoded, err := credential.Decode(tok.Encode())
		require.NoError(t, err)

		assert.Empty(t, cmp.Diff(tok, decoded))
		assert.Equal(t, credential.VerdictProvisional,
			credential.Verify(secret, decoded, 0, now, testParams()))
	})

	t.Run("rotating", func(t *testing.T) {
		tok, err := credential.IssueRotating(secret, ticketID, 42, now, testParams())
		require.NoError(t, err)

		decoded, err := credential.Decode(tok.Encode())
		require.NoError(t, err)

		assert.Empty(t, cmp.Diff(tok, decoded))
		assert.Equal(t, credential.VerdictValid,
			credential.Verify(secret, decoded, 42, now, testParams()))
	})
}

func TestDecodeRejects(t *testing.T) {
	secret, err := credential.NewSecret()
	require.NoError(t, err)
	tok, err := credential.IssueStatic(secret, uuid.New(), time.Now())
	require.NoError(t, err)
	encoded := tok.Encode()

	cases := []struct {
		name    string
		encoded string
		errIs   error
	}{
		{
			name:    "not base64",
			encoded: "!!!not-base64!!!",
			errIs:   credential.ErrMalformedToken,
		},
		{
			name:    "too short",
			encoded: base64.RawURLEncoding.EncodeToString([]byte{1, 1, 2, 3}),
			errIs:   credential.ErrMalformedToken,
		},
		{
			name:    "truncated payload",
			encoded: encoded[:len(encoded)-8],
			errIs:   credential.ErrMalformedToken,
		},
		{
			name: "unsupported version",
			encoded: func() string {
				raw, _ := base64.RawURLEncoding.DecodeString(encoded)
				raw[0] = 9
				return base64.RawURLEncoding.EncodeToString(raw)
			}(),
			errIs: credential.ErrUnsupportedVersion,
		},
		{
			name: "unknown mode",
			encoded: func() string {
				raw, _ := base64.RawURLEncoding.DecodeString(encoded)
				raw[1] = 7
				return base64.RawURLEncoding.EncodeToString(raw)
			}(),
			errIs: credential.ErrUnknownMode,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := credential.Decode(c.encoded)
			require.ErrorIs(t, err, c.errIs)
		})
	}
}

func TestDecodeTamperedTokenFailsVerify(t *testing.T) {
	secret, err := credential.NewSecret()
	require.NoError(t, err)
	now := time.Date(2026, 3, 14, 12, 0, 15, 0, time.UTC)

	tok, err := credential.IssueRotating(secret, uuid.New(), 1, now, testParams())
	require.NoError(t, err)

	// Flip one bit anywhere in the payload; the decoded token must fail
	// signature verification.
	raw, err := base64.RawURLEncoding.DecodeString(tok.Encode())
	require.NoError(t, err)

	for i := 2; i < len(raw); i++ {
		mutated := make([]byte, len(raw))
		copy(mutated, raw)
		mutated[i] ^= 0x80

		decoded, err := credential.Decode(base64.RawURLEncoding.EncodeToString(mutated))
		require.NoError(t, err)
		assert.Equal(t, credential.VerdictBadSignature,
			credential.Verify(secret, decoded, 1, now, testParams()), "byte %d", i)
	}
}

func TestNonceHex(t *testing.T) {
	var tok credential.Token
	for i := range tok.Nonce {
		tok.Nonce[i] = byte(i)
	}
	assert.Equal(t, "000102030405060708090a0b0c0d0e0f", tok.NonceHex())
}
