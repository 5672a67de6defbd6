package repositories

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rendezvous/domain"
)

func TestNotificationRepository_AddAndList(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewNotificationRepository(openBadger(t), slog.Default())

	// Given three notifications for alice written one second apart and one for bob
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	repository.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	req.NoError(repository.AddNotification(ctx, "alice", domain.ActivityReminder, "first"))
	req.NoError(repository.AddNotification(ctx, "alice", domain.NoteReminder, "second"))
	req.NoError(repository.AddNotification(ctx, "bob", domain.NoteReminder, "other"))
	req.NoError(repository.AddNotification(ctx, "alice", domain.ActivityReminder, "third"))

	// When alice's notifications are listed
	all, err := repository.ListNotifications(ctx, "alice", 0)
	req.NoError(err)

	// Then they come back newest first, without bob's
	req.Len(all, 3)
	req.Equal("third", all[0].Message)
	req.Equal("second", all[1].Message)
	req.Equal(domain.NoteReminder, all[1].Type)
	req.Equal("first", all[2].Message)
	req.Equal("alice", all[0].Username)
	req.False(all[0].Read)
	req.True(all[0].CreatedAt.Equal(base.Add(4 * time.Second)))

	limited, err := repository.ListNotifications(ctx, "alice", 2)
	req.NoError(err)
	req.Len(limited, 2)
	req.Equal("third", limited[0].Message)
}

func TestNotificationRepository_UsernameSharingAPrefix(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewNotificationRepository(openBadger(t), slog.Default())

	// Given records for "bob" and for "bob:x"
	req.NoError(repository.AddNotification(ctx, "bob", domain.NoteReminder, "mine"))
	req.NoError(repository.AddNotification(ctx, "bob:x", domain.NoteReminder, "not mine"))

	// When bob's notifications are listed
	list, err := repository.ListNotifications(ctx, "bob", 0)
	req.NoError(err)

	// Then the other user's record is left out
	req.Len(list, 1)
	req.Equal("mine", list[0].Message)

	list, err = repository.ListNotifications(ctx, "bob:x", 0)
	req.NoError(err)
	req.Len(list, 1)
	req.Equal("not mine", list[0].Message)
}
