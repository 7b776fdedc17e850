package auth

import (
	"testing"
	"time"

	"loyalty/config"

	"github.com/stretchr/testify/require"
)

func TestAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := &config.JWTConfig{AccessSecret: "s3cret", AccessExpiry: time.Minute, Issuer: "loyalty"}
	tok, err := GenerateAccessToken(cfg, 42, "m@example.com", "MEMBER")
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, tok)
	require.NoError(t, err)
	require.Equal(t, uint(42), claims.MemberID)
	require.Equal(t, "MEMBER", claims.Role)

	_, err = ParseAccessToken(&config.JWTConfig{AccessSecret: "other"}, tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessToken_Expired(t *testing.T) {
	t.Parallel()

	cfg := &config.JWTConfig{AccessSecret: "s3cret", AccessExpiry: -time.Minute}
	tok, err := GenerateAccessToken(cfg, 1, "m@example.com", "MEMBER")
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}
