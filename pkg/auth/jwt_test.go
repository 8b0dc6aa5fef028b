package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	tok, err := NewSessionToken("op-1", "ops@example.com", "operator", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, "op-1", claims.Sub)
	assert.Equal(t, "operator", claims.Role)
	assert.Equal(t, "ops@example.com", claims.Email)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, err := NewSessionToken("op-1", "ops@example.com", "operator", "secret", time.Hour)
	require.NoError(t, err)

	_, err = Parse(tok, "other")
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	tok, err := NewSessionToken("cust-1", "c@example.com", "customer", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(tok, "secret")
	assert.Error(t, err)
}
