package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserRepository_PushToken(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openBadger(t))

	// Given a user without token
	_, ok, err := repository.GetPushToken(ctx, "alice")
	req.NoError(err)
	req.False(ok)

	// When a token is registered
	req.NoError(repository.SetPushToken(ctx, "alice", " device-1 "))
	token, ok, err := repository.GetPushToken(ctx, "alice")
	req.NoError(err)
	req.True(ok)
	req.Equal("device-1", token)

	// When it is cleared
	req.NoError(repository.SetPushToken(ctx, "alice", ""))
	_, ok, err = repository.GetPushToken(ctx, "alice")
	req.NoError(err)
	req.False(ok)
}
