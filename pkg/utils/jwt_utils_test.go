package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManagerRoundTrip(t *testing.T) {
	m, err := NewTokenManager("unit-secret", time.Minute)
	require.NoError(t, err)

	token, err := m.GenerateAccessToken(7, 3, "desk", "staff")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, int64(3), claims.GymID)
	assert.Equal(t, "staff", claims.Role)
}

func TestTokenManagerRejects(t *testing.T) {
	_, err := NewTokenManager("", time.Minute)
	assert.Error(t, err)

	m, _ := NewTokenManager("unit-secret", time.Minute)
	other, _ := NewTokenManager("other-secret", time.Minute)
	expired, _ := NewTokenManager("unit-secret", -time.Minute)

	foreign, err := other.GenerateAccessToken(7, 3, "desk", "staff")
	require.NoError(t, err)
	_, err = m.ValidateToken(foreign)
	assert.Error(t, err)

	stale, err := expired.GenerateAccessToken(7, 3, "desk", "staff")
	require.NoError(t, err)
	_, err = m.ValidateToken(stale)
	assert.Error(t, err)

	unscoped, err := m.GenerateAccessToken(7, 0, "desk", "staff")
	require.NoError(t, err)
	_, err = m.ValidateToken(unscoped)
	assert.Error(t, err)
}
