package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	ConnectionEstablished NotificationType = "CONNECTION_ESTABLISHED"
	ProfileUpdate         NotificationType = "PROFILE_UPDATE"
	AccountDeleted        NotificationType = "ACCOUNT_DELETED"
	ActivityReminder      NotificationType = "ACTIVITY_REMINDER"
	NoteReminder          NotificationType = "NOTE_REMINDER"
	Pong                  NotificationType = "PONG"
)

// Title is the human-readable heading used for push notifications.
func (t NotificationType) Title() string {
	switch t {
	case ActivityReminder:
		return "Upcoming activity"
	case NoteReminder:
		return "Note reminder"
	case ProfileUpdate:
		return "Profile updated"
	case AccountDeleted:
		return "Account deleted"
	default:
		return "Notification"
	}
}

// NotificationEvent is a typed event delivered to every session of a user.
// OriginClientID identifies the device that triggered the event and is never
// serialized.
type NotificationEvent struct {
	Type             NotificationType `json:"type"`
	Username         string           `json:"username,omitempty"`
	Email            string           `json:"email,omitempty"`
	Message          string           `json:"message,omitempty"`
	UpdatedFields    []string         `json:"updatedFields,omitempty"`
	NewUsername      string           `json:"newUsername,omitempty"`
	ReferenceID      string           `json:"referenceId,omitempty"`
	MinutesRemaining *int             `json:"minutesRemaining,omitempty"`
	Timestamp        int64            `json:"timestamp"`
	OriginClientID   string           `json:"-"`
}

func NewNotificationEvent(kind NotificationType, username, message string, at time.Time) NotificationEvent {
	return NotificationEvent{
		Type:      kind,
		Username:  username,
		Message:   message,
		Timestamp: at.UnixMilli(),
	}
}

// Target returns the identity the event is addressed to.
func (e NotificationEvent) Target() Identity {
	return Identity{Username: e.Username, Email: e.Email}
}

// Notification is the persisted record of a dispatched event.
type Notification struct {
	ID        uuid.UUID
	Username  string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Read      bool
}
