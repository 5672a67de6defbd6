package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestActivity_Recipients(t *testing.T) {
	req := require.New(t)
	activity := Activity{Creator: "p1", Participants: []string{"p2", " p1 ", "", "p3", "p2"}}
	req.Equal([]string{"p1", "p2", "p3"}, activity.Recipients())
}

func TestMinutesUntil(t *testing.T) {
	req := require.New(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	req.Equal(25, MinutesUntil(now.Add(25*time.Minute), now))
	req.Equal(1, MinutesUntil(now.Add(10*time.Second), now))
	req.Equal(0, MinutesUntil(now, now))
	req.Equal(0, MinutesUntil(now.Add(-time.Minute), now))
}

func TestIdentity(t *testing.T) {
	req := require.New(t)

	req.True(NewIdentity(" ", "", "phone").IsEmpty())
	identity := NewIdentity(" alice ", "alice@example.com", "")
	req.False(identity.IsEmpty())
	req.Equal([]string{"alice", "alice@example.com"}, identity.Keys())
	req.Equal([]string{"bob@example.com"}, NewIdentity("", "bob@example.com", "").Keys())
}
