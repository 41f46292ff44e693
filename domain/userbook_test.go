package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "booklib-backend/pkg/errors"
)

func intPtr(n int) *int {
	return &n
}

func TestNewUserBook_Defaults(t *testing.T) {
	ub, err := NewUserBook("1", "2", "", nil)
	require.NoError(t, err)

	assert.Equal(t, StatusNotStarted, ub.Status)
	assert.Equal(t, SyncPending, ub.SyncState)
	assert.Nil(t, ub.Rating)
	assert.False(t, ub.DateAdded.IsZero())
}

func TestNewUserBook_Validation(t *testing.T) {
	_, err := NewUserBook("", "2", StatusFinished, nil)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewUserBook("1", "2", ReadingStatus("reading"), nil)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewUserBook("1", "2", StatusFinished, intPtr(6))
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewUserBook("1", "2", StatusFinished, intPtr(0))
	assert.True(t, pkgerrors.IsValidation(err))

	ub, err := NewUserBook("1", "2", StatusFinished, intPtr(5))
	require.NoError(t, err)
	assert.Equal(t, 5, *ub.Rating)
}

func TestReadingStatus_Valid(t *testing.T) {
	assert.True(t, StatusNotStarted.Valid())
	assert.True(t, StatusInProgress.Valid())
	assert.True(t, StatusFinished.Valid())
	assert.False(t, ReadingStatus("done").Valid())
	assert.False(t, ReadingStatus("").Valid())
}

func TestSyncState_Valid(t *testing.T) {
	assert.True(t, SyncPending.Valid())
	assert.True(t, SyncSynced.Valid())
	assert.True(t, SyncFailed.Valid())
	assert.False(t, SyncState("queued").Valid())
}
