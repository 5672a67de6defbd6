package domain

import (
	"strings"

	"github.com/samber/lo"
)

// Identity holds the keys a session is reachable under. ClientID is an opaque
// per-device id used for self-exclusion.
type Identity struct {
	Username string
	Email    string
	ClientID string
}

func NewIdentity(username, email, clientID string) Identity {
	return Identity{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		ClientID: strings.TrimSpace(clientID),
	}
}

func (i Identity) IsEmpty() bool {
	return i.Username == "" && i.Email == ""
}

// Keys returns the non-empty identity keys, username first.
func (i Identity) Keys() []string {
	return lo.Compact([]string{i.Username, i.Email})
}
