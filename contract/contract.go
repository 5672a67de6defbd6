//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"rendezvous/domain"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Session is one live outbound channel to a single client device.
// Implementations must be comparable (pointer types) and safe for concurrent Send.
type Session interface {
	Send(ctx context.Context, payload []byte) error
	Close() error
}

// Connection is a Session that also yields inbound frames.
type Connection interface {
	Session
	Receive(ctx context.Context) ([]byte, error)
}

type ISessionRegistry interface {
	Register(ctx context.Context, session Session, identity domain.Identity) error
	Unregister(session Session)
	ResolveSessions(username, email string) []Session
	Broadcast(ctx context.Context, evt domain.NotificationEvent, target domain.Identity, excludeClientID string) int
	ActiveConnectionCount() int
}

// ModerationGate is the boolean verdict of a content classifier.
type ModerationGate interface {
	IsInappropriate(ctx context.Context, text string) (bool, error)
}

type MessageStore interface {
	GetMessagesBetweenUsers(ctx context.Context, user1, user2 string) ([]domain.Message, error)
	SendMessage(ctx context.Context, message domain.Message) error
	EditMessage(ctx context.Context, room domain.RoomKey, sender string, sentAt time.Time, newContent string) (domain.Message, error)
	DeleteMessage(ctx context.Context, room domain.RoomKey, sender string, sentAt time.Time) error
}

type NotificationStore interface {
	AddNotification(ctx context.Context, username string, kind domain.NotificationType, message string) error
}

type UserStore interface {
	// GetPushToken returns false when the user has no registered token.
	GetPushToken(ctx context.Context, username string) (string, bool, error)
}

type PushProvider interface {
	SendNotification(ctx context.Context, token, title, body string) error
}

type ActivityStore interface {
	UpcomingActivities(ctx context.Context, from, to time.Time) ([]domain.Activity, error)
}

type NoteStore interface {
	DueNotes(ctx context.Context, from, to time.Time) ([]domain.Note, error)
}

type Notifier interface {
	// Dispatch persists, pushes to live sessions and to the push provider.
	Dispatch(ctx context.Context, evt domain.NotificationEvent) error
	// Announce only reaches live sessions of target.
	Announce(ctx context.Context, evt domain.NotificationEvent, target domain.Identity) int
}

type RoomCounter interface {
	RoomCount() int
}

type PendingCounter interface {
	Pending() (activities, notes int)
}

// ChatRooms drives chat connections until they end.
type ChatRooms interface {
	RoomCounter
	Serve(ctx context.Context, key domain.RoomKey, conn Connection) error
}

type NotificationReader interface {
	// ListNotifications returns at most limit records, newest first.
	ListNotifications(ctx context.Context, username string, limit int) ([]domain.Notification, error)
}

type PushTokenWriter interface {
	// SetPushToken registers token for username; an empty token removes it.
	SetPushToken(ctx context.Context, username, token string) error
}
