package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"rendezvous/contract"
	"rendezvous/domain"
	"rendezvous/errors"
	"rendezvous/infrastructure/metrics"
)

const (
	msgInvalidFrame    = "Invalid message format"
	msgUnknownFrame    = "Unknown frame type"
	msgNotJoined       = "Not joined to this chat"
	msgNotInRoom       = "Message does not belong to this chat"
	msgFlagged         = "Message contains inappropriate content"
	msgEditFlagged     = "Edited content contains inappropriate content"
	msgSaveFailed      = "Could not save message"
	msgEditFailed      = "Could not edit message"
	msgDeleteFailed    = "Could not delete message"
	msgMessageNotFound = "Message not found"
)

// chatRoom holds the sessions currently joined to a two-party conversation.
// mu serializes frame handling so every member sees messages in the order
// they were accepted. A closed room is no longer in the broadcaster map and
// must not take new members.
type chatRoom struct {
	mu      sync.Mutex
	key     domain.RoomKey
	members map[contract.Session]struct{}
	closed  bool
}

func newChatRoom(key domain.RoomKey) *chatRoom {
	return &chatRoom{key: key, members: make(map[contract.Session]struct{})}
}

// ChatBroadcaster relays chat frames between the members of each room.
// Rooms are created on first join and discarded when their last member leaves.
// History lives in the MessageStore; rooms only hold live sessions.
// Lock order is room.mu then mu: mu is never held while waiting for a room.
type ChatBroadcaster struct {
	mu          sync.Mutex
	log         *slog.Logger
	rooms       map[domain.RoomKey]*chatRoom
	store       contract.MessageStore
	gate        contract.ModerationGate
	editWindow  time.Duration
	sendTimeout time.Duration
	now         func() time.Time
}

func NewChatBroadcaster(log *slog.Logger, store contract.MessageStore, gate contract.ModerationGate,
	editWindow, sendTimeout time.Duration) *ChatBroadcaster {
	return &ChatBroadcaster{
		log:         log,
		rooms:       make(map[domain.RoomKey]*chatRoom),
		store:       store,
		gate:        gate,
		editWindow:  editWindow,
		sendTimeout: sendTimeout,
		now:         time.Now,
	}
}

// Serve drives one connection: it joins the room, handles inbound frames
// until Receive fails, then leaves the room.
func (b *ChatBroadcaster) Serve(ctx context.Context, key domain.RoomKey, conn contract.Connection) error {
	defer b.Leave(key, conn)

	if err := b.Join(ctx, key, conn); err != nil {
		return err
	}
	for {
		data, err := conn.Receive(ctx)
		if err != nil {
			return err
		}
		b.HandleFrame(ctx, key, conn, data)
	}
}

// Join adds the session to the room and sends it the full history of the pair
// as a single frame. The room stays locked until the history is sent so no
// live message can overtake it.
func (b *ChatBroadcaster) Join(ctx context.Context, key domain.RoomKey, session contract.Session) error {
	room := b.openRoom(key)
	defer room.mu.Unlock()
	room.members[session] = struct{}{}

	user1, user2 := key.Users()
	history, err := b.store.GetMessagesBetweenUsers(ctx, user1, user2)
	if err != nil {
		b.log.Error("Unable to load chat history", "room", key, "error", err)
		history = nil
	}
	if err := b.sendFrame(ctx, session, domain.NewHistoryFrame(history)); err != nil {
		delete(room.members, session)
		b.discardIfEmpty(room)
		return fmt.Errorf("sending history: %w", err)
	}
	b.log.Debug("Session joined chat", "room", key, "history", len(history))
	return nil
}

// openRoom returns the live room of key, created if needed, with room.mu held.
// A room closed between the lookup and the lock is replaced.
func (b *ChatBroadcaster) openRoom(key domain.RoomKey) *chatRoom {
	for {
		b.mu.Lock()
		room, ok := b.rooms[key]
		if !ok {
			room = newChatRoom(key)
			b.rooms[key] = room
		}
		b.mu.Unlock()

		room.mu.Lock()
		if !room.closed {
			return room
		}
		room.mu.Unlock()
	}
}

// Leave removes the session from the room and discards the room once empty.
func (b *ChatBroadcaster) Leave(key domain.RoomKey, session contract.Session) {
	room := b.room(key)
	if room == nil {
		return
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	delete(room.members, session)
	b.discardIfEmpty(room)
}

// discardIfEmpty closes a memberless room and drops it from the map.
// Must be called with room.mu held.
func (b *ChatBroadcaster) discardIfEmpty(room *chatRoom) {
	if len(room.members) > 0 || room.closed {
		return
	}
	room.closed = true
	b.mu.Lock()
	if b.rooms[room.key] == room {
		delete(b.rooms, room.key)
	}
	b.mu.Unlock()
	b.log.Debug("Chat room discarded", "room", room.key)
}

// HandleFrame processes one inbound frame. Failures are reported to the
// sending session as ERROR frames and never end the connection.
func (b *ChatBroadcaster) HandleFrame(ctx context.Context, key domain.RoomKey, session contract.Session, data []byte) {
	frame, err := domain.DecodeFrame(data)
	if err != nil {
		b.log.Debug("Rejected chat frame", "room", key, "error", err)
		if errors.Is(err, errors.ErrUnknownFrame) {
			b.replyError(ctx, session, msgUnknownFrame)
			return
		}
		b.replyError(ctx, session, msgInvalidFrame)
		return
	}

	if _, ok := frame.(domain.PingFrame); ok {
		b.sendOrLog(ctx, session, domain.PongFrame{Type: domain.FramePong})
		return
	}

	room := b.room(key)
	if room == nil {
		b.replyError(ctx, session, msgNotJoined)
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed {
		b.replyError(ctx, session, msgNotJoined)
		return
	}

	switch f := frame.(type) {
	case domain.NewMessageFrame:
		b.handleNewMessage(ctx, room, session, f.Message)
	case domain.EditFrame:
		b.handleEdit(ctx, room, session, f)
	case domain.DeleteFrame:
		b.handleDelete(ctx, room, session, f)
	}
}

// handleNewMessage persists an accepted message and relays it to every other member.
func (b *ChatBroadcaster) handleNewMessage(ctx context.Context, room *chatRoom, session contract.Session, msg domain.Message) {
	if !room.key.Has(msg.Sender) || !room.key.Has(msg.Receiver) {
		countFrame("message", "rejected")
		b.replyError(ctx, session, msgNotInRoom)
		return
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = domain.NewTimestamp(b.now())
	}
	msg.Edited = false

	if b.isFlagged(ctx, msg.Body) {
		b.log.Info("Message rejected by moderation", "room", room.key, "sender", msg.Sender)
		countFrame("message", "flagged")
		b.replyError(ctx, session, msgFlagged)
		return
	}
	if err := b.store.SendMessage(ctx, msg); err != nil {
		b.log.Error("Unable to store message", "room", room.key, "error", err)
		countFrame("message", "failed")
		b.replyError(ctx, session, msgSaveFailed)
		return
	}
	b.fanout(ctx, room, msg, session)
	countFrame("message", "relayed")
}

// handleEdit applies an edit within the edit window and echoes it to every member, sender included.
func (b *ChatBroadcaster) handleEdit(ctx context.Context, room *chatRoom, session contract.Session, f domain.EditFrame) {
	if !room.key.Has(f.Sender) {
		b.replyError(ctx, session, msgNotInRoom)
		return
	}
	if b.now().Sub(f.OriginalTimestamp.Time) > b.editWindow {
		b.replyError(ctx, session, fmt.Sprintf("Messages can only be edited within %d minutes",
			int(b.editWindow.Minutes())))
		return
	}
	if b.isFlagged(ctx, f.NewContent) {
		countFrame(string(domain.FrameEdit), "flagged")
		b.replyError(ctx, session, msgEditFlagged)
		return
	}

	updated, err := b.store.EditMessage(ctx, room.key, f.Sender, f.OriginalTimestamp.Time, f.NewContent)
	if err != nil {
		if errors.Is(err, errors.ErrMessageNotFound) {
			b.replyError(ctx, session, msgMessageNotFound)
			return
		}
		b.log.Error("Unable to edit message", "room", room.key, "error", err)
		b.replyError(ctx, session, msgEditFailed)
		return
	}

	b.fanout(ctx, room, domain.EditFrame{
		Type:              domain.FrameEdit,
		Sender:            updated.Sender,
		OriginalTimestamp: f.OriginalTimestamp,
		NewContent:        updated.Body,
		Edited:            true,
	}, nil)
	countFrame(string(domain.FrameEdit), "relayed")
}

func (b *ChatBroadcaster) handleDelete(ctx context.Context, room *chatRoom, session contract.Session, f domain.DeleteFrame) {
	if !room.key.Has(f.Sender) {
		b.replyError(ctx, session, msgNotInRoom)
		return
	}
	if err := b.store.DeleteMessage(ctx, room.key, f.Sender, f.Timestamp.Time); err != nil {
		if errors.Is(err, errors.ErrMessageNotFound) {
			b.replyError(ctx, session, msgMessageNotFound)
			return
		}
		b.log.Error("Unable to delete message", "room", room.key, "error", err)
		b.replyError(ctx, session, msgDeleteFailed)
		return
	}

	b.fanout(ctx, room, domain.DeleteFrame{
		Type:      domain.FrameDelete,
		Sender:    f.Sender,
		Timestamp: f.Timestamp,
	}, nil)
	countFrame(string(domain.FrameDelete), "relayed")
}

func countFrame(kind, outcome string) {
	metrics.ChatFramesTotal.WithLabelValues(kind, outcome).Inc()
}

// isFlagged asks the moderation gate for a verdict. An unavailable gate lets
// the content through.
func (b *ChatBroadcaster) isFlagged(ctx context.Context, text string) bool {
	flagged, err := b.gate.IsInappropriate(ctx, text)
	if err != nil {
		b.log.Warn("Moderation unavailable, accepting content", "error", err)
		return false
	}
	return flagged
}

// fanout sends frame to every room member but except. Members whose send
// fails are closed and dropped. Must be called with room.mu held.
func (b *ChatBroadcaster) fanout(ctx context.Context, room *chatRoom, frame any, except contract.Session) int {
	payload, err := json.Marshal(frame)
	if err != nil {
		b.log.Error("Unable to marshal chat frame", "room", room.key, "error", err)
		return 0
	}
	delivered := 0
	for member := range room.members {
		if member == except {
			continue
		}
		if err := b.sendPayload(ctx, member, payload); err != nil {
			b.log.Warn("Dropping chat member after failed send", "room", room.key, "error", err)
			delete(room.members, member)
			_ = member.Close()
			continue
		}
		delivered++
	}
	return delivered
}

func (b *ChatBroadcaster) room(key domain.RoomKey) *chatRoom {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rooms[key]
}

// RoomCount returns the number of rooms with at least one live member.
func (b *ChatBroadcaster) RoomCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rooms)
}

// MemberCount returns the number of live sessions joined to key.
func (b *ChatBroadcaster) MemberCount(key domain.RoomKey) int {
	room := b.room(key)
	if room == nil {
		return 0
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	return len(room.members)
}

func (b *ChatBroadcaster) replyError(ctx context.Context, session contract.Session, message string) {
	b.sendOrLog(ctx, session, domain.NewErrorFrame(message))
}

func (b *ChatBroadcaster) sendOrLog(ctx context.Context, session contract.Session, frame any) {
	if err := b.sendFrame(ctx, session, frame); err != nil {
		b.log.Debug("Unable to reply to chat session", "error", err)
	}
}

func (b *ChatBroadcaster) sendFrame(ctx context.Context, session contract.Session, frame any) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return b.sendPayload(ctx, session, payload)
}

func (b *ChatBroadcaster) sendPayload(ctx context.Context, session contract.Session, payload []byte) error {
	if b.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.sendTimeout)
		defer cancel()
	}
	return session.Send(ctx, payload)
}
