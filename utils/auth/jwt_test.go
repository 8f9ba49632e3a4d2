package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewJWTManager(JWTConfig{Secret: "s3cret"})

	token, err := m.GenerateToken("ops", RoleAdmin)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "ops", claims.Subject)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := NewJWTManager(JWTConfig{Secret: "a"}).GenerateToken("ops", RoleAdmin)
	require.NoError(t, err)

	_, err = NewJWTManager(JWTConfig{Secret: "b"}).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	m := NewJWTManager(JWTConfig{Secret: "s3cret", Expiry: -time.Minute})
	token, err := m.GenerateToken("ops", RoleAdmin)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
