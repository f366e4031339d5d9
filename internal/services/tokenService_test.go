package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"highway/internal/config"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService(&config.Config{JWTSecret: "round-trip-secret", JWTExpiry: time.Hour})
	userID := primitive.NewObjectID()

	token, err := svc.Issue(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID.Hex(), got)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenService(&config.Config{JWTSecret: "secret-a", JWTExpiry: time.Hour})
	verifier := NewTokenService(&config.Config{JWTSecret: "secret-b", JWTExpiry: time.Hour})

	token, err := issuer.Issue(primitive.NewObjectID())
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	svc := NewTokenService(&config.Config{JWTSecret: "expiring-secret", JWTExpiry: -time.Minute})

	token, err := svc.Issue(primitive.NewObjectID())
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenGarbage(t *testing.T) {
	svc := NewTokenService(&config.Config{JWTSecret: "garbage-secret", JWTExpiry: time.Hour})

	for _, tok := range []string{"", "not.a.jwt", "eyJhbGciOiJub25lIn0.e30."} {
		_, err := svc.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}
