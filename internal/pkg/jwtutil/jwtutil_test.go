package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	token, err := GenerateToken("secret", time.Minute, "user-1", "lin")
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "lin", claims.Username)
	assert.NotEmpty(t, claims.ID)
}

func TestParseRejectsWrongSecretAndExpiry(t *testing.T) {
	token, err := GenerateToken("secret", time.Minute, "user-1", "lin")
	require.NoError(t, err)
	_, err = ParseToken("other", token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := GenerateToken("secret", -time.Minute, "user-1", "lin")
	require.NoError(t, err)
	_, err = ParseToken("secret", expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken("secret", "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
