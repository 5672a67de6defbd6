package services

import (
	"context"
	"fmt"
	"log/slog"

	"rendezvous/contract"
	"rendezvous/domain"
	"rendezvous/errors"
	"rendezvous/infrastructure/metrics"
)

// NotificationService delivers notification events through three independent
// channels: the persisted notification record, the live sessions of the
// target and the push provider. A failing channel never prevents the others.
type NotificationService struct {
	log           *slog.Logger
	registry      contract.ISessionRegistry
	notifications contract.NotificationStore
	users         contract.UserStore
	push          contract.PushProvider
}

func NewNotificationService(
	log *slog.Logger,
	registry contract.ISessionRegistry,
	notifications contract.NotificationStore,
	users contract.UserStore,
	push contract.PushProvider,
) *NotificationService {
	return &NotificationService{
		log:           log,
		registry:      registry,
		notifications: notifications,
		users:         users,
		push:          push,
	}
}

// Dispatch persists evt, broadcasts it to the live sessions of its target
// (minus the originating client) and submits it to the push provider.
// Every channel is attempted; the returned error joins the persistence and
// push failures, socket delivery being best effort.
func (s *NotificationService) Dispatch(ctx context.Context, evt domain.NotificationEvent) error {
	if evt.Username == "" {
		return errors.ErrEmptyIdentity
	}

	var persistErr, pushErr error
	if err := s.notifications.AddNotification(ctx, evt.Username, evt.Type, evt.Message); err != nil {
		s.log.Error("Unable to persist notification",
			"username", evt.Username, "type", evt.Type, "error", err)
		persistErr = fmt.Errorf("persisting notification: %w", err)
	}

	delivered := s.registry.Broadcast(ctx, evt, evt.Target(), evt.OriginClientID)
	metrics.NotificationsDispatched.WithLabelValues(string(evt.Type)).Inc()
	metrics.SessionDeliveries.Add(float64(delivered))

	if err := s.sendPush(ctx, evt); err != nil {
		metrics.PushFailures.Inc()
		s.log.Warn("Push delivery failed", "username", evt.Username, "type", evt.Type, "error", err)
		pushErr = fmt.Errorf("pushing notification: %w", err)
	}

	s.log.Debug("Notification dispatched",
		"username", evt.Username, "type", evt.Type, "sessions", delivered)
	return errors.Join(persistErr, pushErr)
}

// Announce only reaches the live sessions of target. Nothing is persisted
// nor pushed.
func (s *NotificationService) Announce(ctx context.Context, evt domain.NotificationEvent, target domain.Identity) int {
	delivered := s.registry.Broadcast(ctx, evt, target, evt.OriginClientID)
	metrics.SessionDeliveries.Add(float64(delivered))
	s.log.Debug("Notification announced",
		"username", target.Username, "email", target.Email, "type", evt.Type, "sessions", delivered)
	return delivered
}

func (s *NotificationService) sendPush(ctx context.Context, evt domain.NotificationEvent) error {
	token, ok, err := s.users.GetPushToken(ctx, evt.Username)
	if err != nil {
		return fmt.Errorf("loading push token: %w", err)
	}
	if !ok || token == "" {
		return nil
	}
	return s.push.SendNotification(ctx, token, evt.Type.Title(), evt.Message)
}
