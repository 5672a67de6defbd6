package repositories

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rendezvous/domain"
	"rendezvous/errors"
)

func conversation(at time.Time) []domain.Message {
	content := "this message will self destruct in 5 seconds"
	return []domain.Message{
		{Sender: "alice", Receiver: "bob", Body: content, SentAt: domain.NewTimestamp(at)},
		{Sender: "bob", Receiver: "alice", Body: content, SentAt: domain.NewTimestamp(at.Add(time.Minute))},
		{Sender: "alice", Receiver: "bob", Body: content, SentAt: domain.NewTimestamp(at.Add(2 * time.Minute))},
	}
}

func Test_Record_Multiple_Message(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openBadger(t), slog.Default(), nil)

	at := time.Now()
	messages := conversation(at)
	for _, m := range messages {
		req.NoError(repository.SendMessage(ctx, m))
	}
	// A message of another pair must not leak into the history
	req.NoError(repository.SendMessage(ctx, domain.Message{
		Sender: "alice", Receiver: "carol", Body: "hey", SentAt: domain.NewTimestamp(at),
	}))

	fetched, err := repository.GetMessagesBetweenUsers(ctx, "bob", "alice")
	req.NoError(err)
	req.Len(fetched, len(messages))
	for i := range messages {
		req.Equal(messages[i].Sender, fetched[i].Sender)
		req.Equal(messages[i].Receiver, fetched[i].Receiver)
		req.True(messages[i].SentAt.Equal(fetched[i].SentAt.Time))
	}
}

func Test_Record_Multiple_Message_And_Limit(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	limit := 2
	repository := NewMessageRepository(openBadger(t), slog.Default(), &limit)

	at := time.Now()
	messages := conversation(at)
	for _, m := range messages {
		req.NoError(repository.SendMessage(ctx, m))
	}

	fetched, err := repository.GetMessagesBetweenUsers(ctx, "alice", "bob")
	req.NoError(err)
	// Then the two most recent messages come back oldest first
	req.Len(fetched, limit)
	req.True(messages[1].SentAt.Equal(fetched[0].SentAt.Time))
	req.True(messages[2].SentAt.Equal(fetched[1].SentAt.Time))
}

func TestMessageRepository_EditMessage(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openBadger(t), slog.Default(), nil)

	at := time.Now()
	original := domain.Message{Sender: "alice", Receiver: "bob", Body: "hi", SentAt: domain.NewTimestamp(at)}
	req.NoError(repository.SendMessage(ctx, original))

	// When the message is edited
	edited, err := repository.EditMessage(ctx, original.RoomKey(), "alice", at, "hi there")
	req.NoError(err)
	req.Equal("hi there", edited.Body)
	req.True(edited.Edited)

	// Then the stored history reflects the edit
	fetched, err := repository.GetMessagesBetweenUsers(ctx, "alice", "bob")
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("hi there", fetched[0].Body)
	req.True(fetched[0].Edited)

	// And editing a message that does not exist is reported
	_, err = repository.EditMessage(ctx, original.RoomKey(), "bob", at, "nope")
	req.ErrorIs(err, errors.ErrMessageNotFound)
}

func TestMessageRepository_DeleteMessage(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openBadger(t), slog.Default(), nil)

	at := time.Now()
	for _, m := range conversation(at) {
		req.NoError(repository.SendMessage(ctx, m))
	}
	room := domain.NewRoomKey("alice", "bob")

	req.NoError(repository.DeleteMessage(ctx, room, "bob", at.Add(time.Minute)))

	fetched, err := repository.GetMessagesBetweenUsers(ctx, "alice", "bob")
	req.NoError(err)
	req.Len(fetched, 2)
	for _, m := range fetched {
		req.Equal("alice", m.Sender)
	}

	req.ErrorIs(repository.DeleteMessage(ctx, room, "bob", at.Add(time.Minute)), errors.ErrMessageNotFound)
}

func Test_History_Ignores_Username_Sharing_A_Prefix(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openBadger(t), slog.Default(), nil)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)

	// Given a private conversation with "bob:x" and one with "bob|y"
	req.NoError(repository.SendMessage(ctx, domain.Message{
		Sender: "alice", Receiver: "bob:x", Body: "private", SentAt: domain.NewTimestamp(at),
	}))
	req.NoError(repository.SendMessage(ctx, domain.Message{
		Sender: "alice", Receiver: "bob|y", Body: "secret", SentAt: domain.NewTimestamp(at),
	}))
	req.NoError(repository.SendMessage(ctx, domain.Message{
		Sender: "bob", Receiver: "alice", Body: "hi", SentAt: domain.NewTimestamp(at.Add(time.Minute)),
	}))

	// When alice and bob's history is read
	fetched, err := repository.GetMessagesBetweenUsers(ctx, "alice", "bob")
	req.NoError(err)

	// Then only their own message comes back
	req.Len(fetched, 1)
	req.Equal("hi", fetched[0].Body)

	// Then the other pair still finds its message, and can edit it
	fetched, err = repository.GetMessagesBetweenUsers(ctx, "bob:x", "alice")
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("private", fetched[0].Body)
	edited, err := repository.EditMessage(ctx, domain.NewRoomKey("alice", "bob:x"), "alice", at, "edited")
	req.NoError(err)
	req.Equal("bob:x", edited.Receiver)
}
