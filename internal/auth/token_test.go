package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintVerifyRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 15*time.Minute)

	token, err := tm.Mint(42, "alex@example.com")
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)

	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
	assert.Equal(t, "alex@example.com", claims.Email)
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", 15*time.Minute).Mint(42, "alex@example.com")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 15*time.Minute).Verify(token)
	require.Error(t, err)
}

func TestVerifyExpiredToken(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute)

	token, err := tm.Mint(42, "alex@example.com")
	require.NoError(t, err)

	_, err = tm.Verify(token)
	require.Error(t, err)
}

func TestVerifyGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", 15*time.Minute)

	_, err := tm.Verify("not-a-token")
	require.Error(t, err)
}
