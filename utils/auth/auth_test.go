package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(expiry time.Duration) *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret",
		Expiry:        expiry,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "eduplatform-test",
	})
}

func TestGeneratePair_RoundTrip(t *testing.T) {
	m := newManager(15 * time.Minute)

	pair, err := m.GeneratePair(Subject{UserID: 7, Email: "ada@example.com", Role: "student", TokenVersion: 2})
	require.NoError(t, err)
	assert.Equal(t, 900, pair.ExpiresIn)

	access, err := m.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), access.UserID)
	assert.Equal(t, TokenTypeAccess, access.TokenType)
	assert.Equal(t, 2, access.TokenVersion)
	assert.NotEmpty(t, access.ID)

	refresh, err := m.ValidateToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
	assert.NotEqual(t, access.ID, refresh.ID)
}

func TestValidateToken_Expired(t *testing.T) {
	m := newManager(-time.Minute)

	token, _, err := m.GenerateAccessToken(Subject{UserID: 1})
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongSecretOrIssuer(t *testing.T) {
	m := newManager(time.Minute)
	token, _, err := m.GenerateAccessToken(Subject{UserID: 1})
	require.NoError(t, err)

	other := NewJWTManager(JWTConfig{Secret: "other", Expiry: time.Minute, Issuer: "eduplatform-test"})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	otherIssuer := NewJWTManager(JWTConfig{Secret: "test-secret", Expiry: time.Minute, Issuer: "someone-else"})
	_, err = otherIssuer.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	SetCost(4)
	defer SetCost(DefaultCost)

	_, err := HashPassword("12345")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	hash, err := HashPassword("123456")
	require.NoError(t, err)

	assert.NoError(t, VerifyPassword(hash, "123456"))
	assert.ErrorIs(t, VerifyPassword(hash, "654321"), ErrPasswordMismatch)
}
