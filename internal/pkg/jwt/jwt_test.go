package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	tok, err := Generate(7, "lib@example.com", "librarian", "s3cret", time.Minute)
	require.NoError(t, err)

	claims, err := Validate(tok, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.AccountID)
	assert.Equal(t, "lib@example.com", claims.Email)
	assert.Equal(t, "librarian", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestGenerate_uniquePerCall(t *testing.T) {
	a, err := Generate(1, "a@example.com", "user", "k", time.Hour)
	require.NoError(t, err)
	b, err := Generate(1, "a@example.com", "user", "k", time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestValidate_failures(t *testing.T) {
	tok, err := Generate(1, "a@example.com", "user", "right", time.Minute)
	require.NoError(t, err)

	_, err = Validate(tok, "wrong")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	expired, err := Generate(1, "a@example.com", "user", "right", -time.Minute)
	require.NoError(t, err)
	_, err = Validate(expired, "right")
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = Validate("not-a-token", "right")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
