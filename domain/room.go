package domain

import (
	"net/url"
	"strings"
)

const roomKeySeparator = "|"

// RoomKey identifies a two-party chat room by the unordered pair of its usernames.
// Both usernames are query-escaped, so neither the separator nor the ':' used
// by storage keys can appear inside a segment.
type RoomKey string

func NewRoomKey(user1, user2 string) RoomKey {
	a, b := strings.TrimSpace(user1), strings.TrimSpace(user2)
	if b < a {
		a, b = b, a
	}
	return RoomKey(EscapeKeySegment(a) + roomKeySeparator + EscapeKeySegment(b))
}

// Users returns both usernames in canonical order.
func (k RoomKey) Users() (string, string) {
	a, b, _ := strings.Cut(string(k), roomKeySeparator)
	return unescapeKeySegment(a), unescapeKeySegment(b)
}

// Has reports whether username is one of the two room parties.
func (k RoomKey) Has(username string) bool {
	if username == "" {
		return false
	}
	a, b := k.Users()
	return username == a || username == b
}

func (k RoomKey) String() string {
	return string(k)
}

// EscapeKeySegment makes s safe to embed between delimiters of a storage key.
func EscapeKeySegment(s string) string {
	return url.QueryEscape(s)
}

func unescapeKeySegment(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}
