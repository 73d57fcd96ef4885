package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", "0b0c6f1e-7c1a-4c1e-9d57-2d3f1e0b9a11", RoleAdmin, 15)
	require.NoError(t, err)

	c, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "0b0c6f1e-7c1a-4c1e-9d57-2d3f1e0b9a11", c.Subject)
	assert.Equal(t, RoleAdmin, c.Role)

	_, err = ParseAccessToken("other", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	tok, err := NewAccessToken("s3cret", "m-1", RoleMember, -1)
	require.NoError(t, err)
	_, err = ParseAccessToken("s3cret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswords(t *testing.T) {
	h, err := HashPassword("hunter22", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "hunter22"))
	assert.False(t, VerifyPassword(h, "hunter23"))
	assert.False(t, VerifyPassword("", "hunter22"))

	p, err := GeneratePassword()
	require.NoError(t, err)
	assert.Len(t, p, 16)

	_, err = HashPassword(strings.Repeat("x", 73), bcrypt.MinCost)
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)
}

func TestHashRefreshRawIsStable(t *testing.T) {
	r, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.Len(t, r.Raw, 96)
	assert.Equal(t, HashRefreshRaw(r.Raw), HashRefreshRaw(r.Raw))
	assert.Len(t, HashRefreshRaw(r.Raw), 64)
}
