package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("secret", 1)
	id := uuid.New()

	token, err := svc.Generate(id, "ada@example.com", "Ada", RoleInstructor)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "Ada", claims.Name)
	assert.Equal(t, RoleInstructor, claims.Role)
}

func TestValidateRejects(t *testing.T) {
	svc := NewJWTService("secret", 1)
	other := NewJWTService("other", 1)
	token, err := other.Generate(uuid.New(), "x@example.com", "X", RoleStudent)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewJWTService("secret", -1)
	token, err = expired.Generate(uuid.New(), "x@example.com", "X", RoleStudent)
	require.NoError(t, err)
	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	token, err = svc.Generate(uuid.Nil, "x@example.com", "X", RoleStudent)
	require.NoError(t, err)
	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "a token without a user id is useless here")
}

func TestCanInstruct(t *testing.T) {
	assert.True(t, CanInstruct(RoleAdmin))
	assert.True(t, CanInstruct(RoleInstructor))
	assert.False(t, CanInstruct(RoleStudent))
	assert.False(t, CanInstruct(""))
}
