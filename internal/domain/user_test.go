package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_SuspendThenActivate(t *testing.T) {
	u := &User{Status: UserStatusActive, IsActive: true}
	at := time.Now().UTC()

	require.NoError(t, u.Apply(UserActionSuspend, ActionContext{Actor: "user-admin", Reason: "fraud", At: at}))
	assert.Equal(t, UserStatusSuspended, u.Status)
	assert.False(t, u.IsActive)
	require.NotNil(t, u.SuspendedAt)
	assert.Equal(t, "fraud", *u.SuspendedReason)
	assert.Equal(t, "user-admin", *u.SuspendedBy)
	assert.False(t, u.CanSignIn())

	require.NoError(t, u.Apply(UserActionActivate, ActionContext{At: at.Add(time.Minute)}))
	assert.Equal(t, UserStatusActive, u.Status)
	assert.True(t, u.IsActive)
	assert.Nil(t, u.SuspendedAt)
	assert.Nil(t, u.SuspendedReason)
	assert.Nil(t, u.SuspendedBy)
	assert.Equal(t, at.Add(time.Minute), u.UpdatedAt)
}

func TestUser_VerifyAndUnknownAction(t *testing.T) {
	u := &User{}
	require.NoError(t, u.Apply(UserActionVerify, ActionContext{At: time.Now()}))
	assert.True(t, u.EmailVerified)

	assert.ErrorIs(t, u.Apply(UserAction("promote"), ActionContext{}), ErrUnknownAction)
	assert.False(t, UserAction("promote").Valid())
}
