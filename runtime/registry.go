package runtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"rendezvous/contract"
	"rendezvous/domain"
	"rendezvous/errors"
)

type sessionSet map[contract.Session]struct{}

// Registry tracks live notification sessions.
// Each session has a single canonical identity record; byUsername and byEmail
// are reverse indexes over those records, so unregistering only touches the
// keys of that session.
type Registry struct {
	mu          sync.RWMutex
	log         *slog.Logger
	sendTimeout time.Duration
	identities  map[contract.Session]domain.Identity
	byUsername  map[string]sessionSet
	byEmail     map[string]sessionSet
	now         func() time.Time
}

func NewRegistry(log *slog.Logger, sendTimeout time.Duration) *Registry {
	return &Registry{
		log:         log,
		sendTimeout: sendTimeout,
		identities:  make(map[contract.Session]domain.Identity),
		byUsername:  make(map[string]sessionSet),
		byEmail:     make(map[string]sessionSet),
		now:         time.Now,
	}
}

// Register makes the session reachable under every non-empty key of identity
// and sends it a CONNECTION_ESTABLISHED frame. Registering a session again
// replaces its previous identity. A session that cannot take the frame is closed.
func (r *Registry) Register(ctx context.Context, session contract.Session, identity domain.Identity) error {
	if identity.IsEmpty() {
		return errors.ErrEmptyIdentity
	}

	r.mu.Lock()
	r.removeLocked(session)
	r.identities[session] = identity
	addKey(r.byUsername, identity.Username, session)
	addKey(r.byEmail, identity.Email, session)
	r.mu.Unlock()

	evt := domain.NewNotificationEvent(domain.ConnectionEstablished, identity.Username,
		"Connected to notifications", r.now())
	evt.Email = identity.Email
	if err := r.send(ctx, session, evt); err != nil {
		r.Unregister(session)
		_ = session.Close()
		return err
	}
	r.log.Debug("Session registered",
		"username", identity.Username, "email", identity.Email, "client_id", identity.ClientID)
	return nil
}

// Unregister removes the session from every key it was reachable under.
// Calling it for an unknown session is a no-op.
func (r *Registry) Unregister(session contract.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(session)
}

func (r *Registry) removeLocked(session contract.Session) {
	identity, ok := r.identities[session]
	if !ok {
		return
	}
	delete(r.identities, session)
	removeKey(r.byUsername, identity.Username, session)
	removeKey(r.byEmail, identity.Email, session)
}

// ResolveSessions returns the union of the sessions known under username or email.
func (r *Registry) ResolveSessions(username, email string) []contract.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(username, email, "")
}

func (r *Registry) resolveLocked(username, email, excludeClientID string) []contract.Session {
	seen := make(sessionSet)
	var sessions []contract.Session
	collect := func(set sessionSet) {
		for s := range set {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			if excludeClientID != "" && r.identities[s].ClientID == excludeClientID {
				continue
			}
			sessions = append(sessions, s)
		}
	}
	if username != "" {
		collect(r.byUsername[username])
	}
	if email != "" {
		collect(r.byEmail[email])
	}
	return sessions
}

// Broadcast sends evt to every session of target except those registered
// with excludeClientID. A failed send unregisters and closes the session;
// delivery carries on for the others. It returns the number of successful sends.
func (r *Registry) Broadcast(ctx context.Context, evt domain.NotificationEvent, target domain.Identity, excludeClientID string) int {
	r.mu.RLock()
	sessions := r.resolveLocked(target.Username, target.Email, excludeClientID)
	r.mu.RUnlock()

	if len(sessions) == 0 {
		r.log.Debug("No live session for target", "username", target.Username, "type", evt.Type)
		return 0
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		r.log.Error("Unable to marshal notification event", "type", evt.Type, "error", err)
		return 0
	}

	delivered := 0
	for _, s := range sessions {
		if err := r.sendPayload(ctx, s, payload); err != nil {
			r.log.Warn("Dropping session after failed send",
				"username", target.Username, "type", evt.Type, "error", err)
			r.Unregister(s)
			_ = s.Close()
			continue
		}
		delivered++
	}
	return delivered
}

// ActiveConnectionCount counts distinct sessions, not key buckets.
func (r *Registry) ActiveConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.identities)
}

func (r *Registry) send(ctx context.Context, session contract.Session, evt domain.NotificationEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return r.sendPayload(ctx, session, payload)
}

func (r *Registry) sendPayload(ctx context.Context, session contract.Session, payload []byte) error {
	if r.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.sendTimeout)
		defer cancel()
	}
	return session.Send(ctx, payload)
}

func addKey(index map[string]sessionSet, key string, session contract.Session) {
	if key == "" {
		return
	}
	set, ok := index[key]
	if !ok {
		set = make(sessionSet)
		index[key] = set
	}
	set[session] = struct{}{}
}

// removeKey deletes the session and drops the key once its set is empty.
func removeKey(index map[string]sessionSet, key string, session contract.Session) {
	if key == "" {
		return
	}
	set, ok := index[key]
	if !ok {
		return
	}
	delete(set, session)
	if len(set) == 0 {
		delete(index, key)
	}
}
