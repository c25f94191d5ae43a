package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTIssuer_Issue(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)

	token, err := issuer.Issue("user-123", "u@example.com", 24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Parse and verify claims
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(*jwtClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "u@example.com", claims.Email)
}

func TestJWTVerifier_RoundTrip(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)
	verifier := NewJWTVerifier(secret)

	token, err := issuer.Issue("user-456", "v@example.com", time.Hour)
	require.NoError(t, err)

	userID, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-456", userID)
}

func TestJWTVerifier_WrongSecret(t *testing.T) {
	token, err := NewJWTIssuer("secret-a").Issue("user-789", "w@example.com", time.Hour)
	require.NoError(t, err)

	_, err = NewJWTVerifier("secret-b").Verify(token)
	assert.Error(t, err)
}

func TestJWTVerifier_Expired(t *testing.T) {
	token, err := NewJWTIssuer("secret").Issue("user-1", "x@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = NewJWTVerifier("secret").Verify(token)
	assert.Error(t, err)
}
