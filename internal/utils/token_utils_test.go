package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseJWT(t *testing.T) {
	now := time.Now()
	token, expiresAt, err := GenerateJWT("acc-1", "secret", time.Hour, "workshop", now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), expiresAt, time.Second)

	claims, err := ParseAndValidateJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.Subject)
	assert.Equal(t, "workshop", claims.Issuer)
}

func TestParseAndValidateJWT_Rejects(t *testing.T) {
	now := time.Now()

	token, _, err := GenerateJWT("acc-1", "secret", time.Hour, "workshop", now)
	require.NoError(t, err)
	_, err = ParseAndValidateJWT(token, "other-secret")
	assert.Error(t, err)

	expired, _, err := GenerateJWT("acc-1", "secret", time.Minute, "workshop", now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = ParseAndValidateJWT(expired, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	noSubject, _, err := GenerateJWT("", "secret", time.Hour, "workshop", now)
	require.NoError(t, err)
	_, err = ParseAndValidateJWT(noSubject, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidClaims)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("s3cret!", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
	assert.False(t, CheckPasswordHash("s3cret!", ""))
}
