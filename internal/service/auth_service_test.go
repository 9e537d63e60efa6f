package service

import (
	"testing"
	"time"

	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	s := NewAuthService(nil, "test-secret", time.Hour)

	resp, err := s.issueToken(&models.User{ID: 42, IsGuest: true})
	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.UserID)
	assert.True(t, resp.IsGuest)

	userID, isGuest, err := s.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
	assert.True(t, isGuest)
}

func TestVerifyTokenRejections(t *testing.T) {
	s := NewAuthService(nil, "test-secret", time.Hour)

	_, _, err := s.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// signed with a different secret
	other := NewAuthService(nil, "other-secret", time.Hour)
	resp, err := other.issueToken(&models.User{ID: 1})
	require.NoError(t, err)

	_, _, err = s.VerifyToken(resp.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// expired token
	expired := NewAuthService(nil, "test-secret", -time.Minute)
	resp, err = expired.issueToken(&models.User{ID: 1})
	require.NoError(t, err)

	_, _, err = s.VerifyToken(resp.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	other, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other)
}
