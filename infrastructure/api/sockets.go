package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rendezvous/domain"
	ws "rendezvous/infrastructure/websocket"
)

// chatSocket joins the caller to the room of the two path users and relays
// frames until the socket closes.
func (s *Server) chatSocket(c *gin.Context) {
	user1, user2 := strings.TrimSpace(c.Param("user1")), strings.TrimSpace(c.Param("user2"))
	if user1 == "" || user2 == "" || user1 == user2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "two distinct users are required"})
		return
	}
	key := domain.NewRoomKey(user1, user2)

	raw, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "room", key, "error", err)
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	err = s.chat.Serve(c.Request.Context(), key, conn)
	if err != nil && !ws.IsNormalClose(err) {
		s.log.Debug("Chat connection ended", "room", key, "conn", conn.ID, "error", err)
	}
}

// notificationSocket registers the caller under its username, email and
// client id. The only inbound frame understood is PING.
func (s *Server) notificationSocket(c *gin.Context) {
	identity := domain.NewIdentity(c.Query("username"), c.Query("email"), c.Query("clientId"))
	if identity.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username or email is required"})
		return
	}

	raw, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "username", identity.Username, "error", err)
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	ctx := c.Request.Context()
	if err := s.registry.Register(ctx, conn, identity); err != nil {
		s.log.Warn("Unable to register notification session", "username", identity.Username, "error", err)
		return
	}
	defer s.registry.Unregister(conn)

	for {
		data, err := conn.Receive(ctx)
		if err != nil {
			if !ws.IsNormalClose(err) {
				s.log.Debug("Notification connection ended", "username", identity.Username, "error", err)
			}
			return
		}
		var envelope struct {
			Type domain.FrameType `json:"type"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil || envelope.Type != domain.FramePing {
			s.log.Debug("Ignoring notification frame", "username", identity.Username)
			continue
		}
		s.pong(ctx, conn, identity)
	}
}

func (s *Server) pong(ctx context.Context, conn *ws.Conn, identity domain.Identity) {
	payload, err := json.Marshal(domain.NewNotificationEvent(domain.Pong, identity.Username, "", s.now()))
	if err != nil {
		return
	}
	if s.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.sendTimeout)
		defer cancel()
	}
	if err := conn.Send(ctx, payload); err != nil {
		s.log.Debug("Unable to answer PING", "username", identity.Username, "error", err)
	}
}
