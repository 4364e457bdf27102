package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRTokenRoundTrip(t *testing.T) {
	t.Setenv("QR_TOKEN_SECRET", "test-secret")

	token, err := MintQRToken("card-abc-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	payload, err := ParseQRToken(token)
	require.NoError(t, err)
	assert.Equal(t, "card-abc-123", payload.CardCode)
	assert.NotEmpty(t, payload.Nonce)
}

func TestQRTokenUniqueNonce(t *testing.T) {
	t.Setenv("QR_TOKEN_SECRET", "test-secret")

	first, err := MintQRToken("card-abc-123")
	require.NoError(t, err)
	second, err := MintQRToken("card-abc-123")
	require.NoError(t, err)

	p1, err := ParseQRToken(first)
	require.NoError(t, err)
	p2, err := ParseQRToken(second)
	require.NoError(t, err)
	assert.NotEqual(t, p1.Nonce, p2.Nonce)
}

func TestParseQRTokenRejectsTampering(t *testing.T) {
	t.Setenv("QR_TOKEN_SECRET", "test-secret")

	token, err := MintQRToken("card-abc-123")
	require.NoError(t, err)

	// Flip a character in the signature segment.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	parts[2] = string(sig)

	_, err = ParseQRToken(strings.Join(parts, "."))
	assert.Error(t, err)
}

func TestParseQRTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv("QR_TOKEN_SECRET", "test-secret")
	token, err := MintQRToken("card-abc-123")
	require.NoError(t, err)

	t.Setenv("QR_TOKEN_SECRET", "another-secret")
	_, err = ParseQRToken(token)
	assert.Error(t, err)
}

func TestParseQRTokenRejectsGarbage(t *testing.T) {
	t.Setenv("QR_TOKEN_SECRET", "test-secret")

	_, err := ParseQRToken("not-a-token")
	assert.Error(t, err)
}

func TestDeriveScanKey(t *testing.T) {
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	// Reads inside the same ten second bucket collapse to one key.
	assert.Equal(t,
		DeriveScanKey("nonce-1", base),
		DeriveScanKey("nonce-1", base.Add(3*time.Second)))

	// A later bucket yields a fresh key.
	assert.NotEqual(t,
		DeriveScanKey("nonce-1", base),
		DeriveScanKey("nonce-1", base.Add(30*time.Second)))

	// Different cards never share a key.
	assert.NotEqual(t,
		DeriveScanKey("nonce-1", base),
		DeriveScanKey("nonce-2", base))
}
