package crypto

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureToken(t *testing.T) {
	token1, err := GenerateSecureToken()
	require.NoError(t, err)
	assert.NotEmpty(t, token1)

	token2, err := GenerateSecureToken()
	require.NoError(t, err)
	assert.NotEqual(t, token1, token2)
}

func TestSignAndValidate(t *testing.T) {
	key := []byte("test-signing-key")

	sig := SignData("payload", key)
	assert.True(t, ValidateSignedData("payload", sig, key))
	assert.False(t, ValidateSignedData("tampered", sig, key))
	assert.False(t, ValidateSignedData("payload", sig, []byte("other-key")))
	assert.False(t, ValidateSignedData("payload", "garbage", key))
}

func TestCSRFGenerateValidate(t *testing.T) {
	csrf := NewCSRFProtection([]byte("test-signing-key"), time.Hour)

	token, err := csrf.Generate()
	require.NoError(t, err)
	assert.True(t, csrf.Validate(token))
}

func TestCSRFRejectsTampering(t *testing.T) {
	csrf := NewCSRFProtection([]byte("test-signing-key"), time.Hour)

	token, err := csrf.Generate()
	require.NoError(t, err)

	assert.False(t, csrf.Validate(""))
	assert.False(t, csrf.Validate("not-a-token"))
	assert.False(t, csrf.Validate(token+"x"))

	// Swap the nonce but keep the signature.
	parts := strings.SplitN(token, ":", 3)
	require.Len(t, parts, 3)
	forged := "forged-nonce:" + parts[1] + ":" + parts[2]
	assert.False(t, csrf.Validate(forged))

	// Different signing key.
	other := NewCSRFProtection([]byte("other-key"), time.Hour)
	assert.False(t, other.Validate(token))
}

func TestCSRFExpiry(t *testing.T) {
	csrf := NewCSRFProtection([]byte("test-signing-key"), -time.Second)

	token, err := csrf.Generate()
	require.NoError(t, err)
	assert.False(t, csrf.Validate(token), "token past TTL must be rejected")
}
