package utils

import (
	"testing"
	"time"

	"jeffjackson/config"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	defer func() { config.AppConfig.JWTSecret = "" }()

	tok, err := GenerateSessionToken("sess-1", time.Minute)
	require.NoError(t, err)

	sid, err := ExtractSessionID(tok)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sid)
}

func TestSessionTokenRejectsExpiredAndForeign(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	defer func() { config.AppConfig.JWTSecret = "" }()

	expired, err := GenerateSessionToken("sess-1", -time.Minute)
	require.NoError(t, err)
	_, err = ExtractSessionID(expired)
	assert.Error(t, err)

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	signed, err := other.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = ExtractSessionID(signed)
	assert.Error(t, err, "tokens without the session type are refused")

	wrongKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "sess-1", "typ": sessionTokenType, "exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte("other"))
	require.NoError(t, err)
	_, err = ExtractSessionID(wrongKey)
	assert.Error(t, err)
}

func TestSecretRequiredInProduction(t *testing.T) {
	config.AppConfig.Env = "production"
	defer func() { config.AppConfig.Env = "" }()
	_, err := GenerateSessionToken("sess-1", time.Minute)
	assert.Error(t, err)
}
