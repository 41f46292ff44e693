package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "booklib-backend/pkg/errors"
)

func TestNewUser_HashesPassword(t *testing.T) {
	user, err := NewUser("alice", "alice@example.com", "correct horse battery")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse battery", user.PasswordHash)
	assert.True(t, user.CheckPassword("correct horse battery"))
	assert.False(t, user.CheckPassword("wrong password"))
}

func TestNewUser_RequiresFields(t *testing.T) {
	_, err := NewUser("", "alice@example.com", "pw")
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewUser("alice", "", "pw")
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewUser("alice", "alice@example.com", "")
	assert.True(t, pkgerrors.IsValidation(err))
}
