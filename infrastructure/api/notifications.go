package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"rendezvous/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type profileUpdatedRequest struct {
	Username      string   `json:"username" binding:"required"`
	Email         string   `json:"email" binding:"omitempty,email"`
	UpdatedFields []string `json:"updatedFields"`
	ClientID      string   `json:"clientId"`
	NewUsername   string   `json:"newUsername"`
}

type accountDeletedRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	ClientID string `json:"clientId"`
}

type pushTokenRequest struct {
	Username string `json:"username" binding:"required"`
	Token    string `json:"token"`
}

type notificationResponse struct {
	ID        string                  `json:"id"`
	Type      domain.NotificationType `json:"type"`
	Message   string                  `json:"message"`
	CreatedAt time.Time               `json:"createdAt"`
	Read      bool                    `json:"read"`
}

// profileUpdated tells every other device of the user that its profile changed.
func (s *Server) profileUpdated(c *gin.Context) {
	var body profileUpdatedRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	evt := domain.NewNotificationEvent(domain.ProfileUpdate, body.Username, "Your profile has been updated", s.now())
	evt.Email = body.Email
	evt.UpdatedFields = body.UpdatedFields
	evt.NewUsername = body.NewUsername
	evt.OriginClientID = body.ClientID

	delivered := s.notifier.Announce(c.Request.Context(), evt, evt.Target())
	c.JSON(http.StatusOK, gin.H{"delivered": delivered})
}

// accountDeleted warns the other devices, then closes every session of the
// deleted account.
func (s *Server) accountDeleted(c *gin.Context) {
	var body accountDeletedRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	evt := domain.NewNotificationEvent(domain.AccountDeleted, body.Username, "Your account has been deleted", s.now())
	evt.Email = body.Email
	evt.OriginClientID = body.ClientID

	delivered := s.notifier.Announce(c.Request.Context(), evt, evt.Target())
	for _, session := range s.registry.ResolveSessions(body.Username, body.Email) {
		s.registry.Unregister(session)
		_ = session.Close()
	}
	c.JSON(http.StatusOK, gin.H{"delivered": delivered})
}

func (s *Server) pushToken(c *gin.Context) {
	var body pushTokenRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.tokens.SetPushToken(c.Request.Context(), body.Username, body.Token); err != nil {
		s.log.Error("Unable to store push token", "username", body.Username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store push token"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listNotifications(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxListLimit)
	}

	username := c.Param("username")
	records, err := s.notifications.ListNotifications(c.Request.Context(), username, limit)
	if err != nil {
		s.log.Error("Unable to list notifications", "username", username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list notifications"})
		return
	}
	c.JSON(http.StatusOK, lo.Map(records, func(n domain.Notification, _ int) notificationResponse {
		return notificationResponse{
			ID:        n.ID.String(),
			Type:      n.Type,
			Message:   n.Message,
			CreatedAt: n.CreatedAt,
			Read:      n.Read,
		}
	}))
}

func (s *Server) connections(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"activeConnections": s.registry.ActiveConnectionCount(),
		"chatRooms":         s.chat.RoomCount(),
	})
}
