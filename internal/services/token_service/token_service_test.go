package services

import (
	"testing"
	"time"

	"vidstream/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCfg = config.TokenConfig{
	AccessSecret:  "access-secret",
	AccessTTL:     15 * time.Minute,
	RefreshSecret: "refresh-secret",
	RefreshTTL:    7 * 24 * time.Hour,
}

func TestGenerateTokens_RoundTrip(t *testing.T) {
	service := NewTokenService(testCfg)
	userID := uuid.New().String()

	pair, err := service.GenerateTokens(userID)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	accessClaims, err := service.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, accessClaims.UserID)
	assert.Greater(t, accessClaims.ExpiresAt, accessClaims.IssuedAt)

	refreshClaims, err := service.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, userID, refreshClaims.UserID)
}

func TestVerify_SecretsAreNotInterchangeable(t *testing.T) {
	service := NewTokenService(testCfg)

	pair, err := service.GenerateTokens(uuid.New().String())
	require.NoError(t, err)

	_, err = service.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = service.VerifyRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAccess_ExpiredToken(t *testing.T) {
	expiredCfg := testCfg
	expiredCfg.AccessTTL = -time.Hour

	expired := NewTokenService(expiredCfg)
	service := NewTokenService(testCfg)

	pair, err := expired.GenerateTokens(uuid.New().String())
	require.NoError(t, err)

	// Signature is valid, expiry is not.
	_, err = service.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAccess_Garbage(t *testing.T) {
	service := NewTokenService(testCfg)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := service.VerifyAccess(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestVerifyAccess_WrongSecret(t *testing.T) {
	service := NewTokenService(testCfg)

	otherCfg := testCfg
	otherCfg.AccessSecret = "some-other-secret"
	other := NewTokenService(otherCfg)

	pair, err := other.GenerateTokens(uuid.New().String())
	require.NoError(t, err)

	_, err = service.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
