package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomKey_IsUnordered(t *testing.T) {
	req := require.New(t)

	req.Equal(NewRoomKey("alice", "bob"), NewRoomKey("bob", " alice "))

	user1, user2 := NewRoomKey("bob", "alice").Users()
	req.Equal("alice", user1)
	req.Equal("bob", user2)
}

func TestRoomKey_Has(t *testing.T) {
	req := require.New(t)
	key := NewRoomKey("alice", "bob")

	req.True(key.Has("alice"))
	req.True(key.Has("bob"))
	req.False(key.Has("carol"))
	req.False(key.Has(""))
}

func TestMessage_RoomKey(t *testing.T) {
	req := require.New(t)
	msg := Message{Sender: "bob", Receiver: "alice", Body: "hi"}
	req.Equal(RoomKey("alice|bob"), msg.RoomKey())
}

func TestRoomKey_DelimitersInUsernames(t *testing.T) {
	req := require.New(t)

	// Given usernames holding the separators of room and storage keys
	left := NewRoomKey("a|b", "c")
	right := NewRoomKey("a", "b|c")

	// Then the two pairs stay distinct
	req.NotEqual(left, right)
	req.NotContains(left.String(), ":")

	// Then each key splits back into its own users
	user1, user2 := left.Users()
	req.Equal("a|b", user1)
	req.Equal("c", user2)
	req.True(left.Has("a|b"))
	req.False(left.Has("a"))
	req.True(NewRoomKey("alice", "bob:x").Has("bob:x"))
	req.NotEqual(NewRoomKey("alice", "bob:x"), NewRoomKey("alice", "bob"))
}
