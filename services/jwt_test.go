package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	jwtSecret = []byte("test-secret")

	token, err := GenerateSessionToken("user-42", true)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
	assert.True(t, claims.IsAdmin)
}

func TestParseSessionToken_WrongSecret(t *testing.T) {
	jwtSecret = []byte("test-secret")
	token, err := GenerateSessionToken("user-42", false)
	require.NoError(t, err)

	jwtSecret = []byte("another-secret")
	_, err = ParseSessionToken(token)
	assert.Error(t, err)
}

func TestParseSessionToken_Garbage(t *testing.T) {
	jwtSecret = []byte("test-secret")
	_, err := ParseSessionToken("not.a.token")
	assert.Error(t, err)
}
