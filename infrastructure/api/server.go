package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rendezvous/contract"
	"rendezvous/infrastructure/metrics"
)

// Server exposes the chat and notification WebSocket endpoints and the REST
// triggers over a gin engine.
type Server struct {
	log           *slog.Logger
	registry      contract.ISessionRegistry
	chat          contract.ChatRooms
	notifier      contract.Notifier
	notifications contract.NotificationReader
	tokens        contract.PushTokenWriter
	upgrader      websocket.Upgrader
	sendTimeout   time.Duration
	now           func() time.Time
}

func NewServer(
	log *slog.Logger,
	registry contract.ISessionRegistry,
	chat contract.ChatRooms,
	notifier contract.Notifier,
	notifications contract.NotificationReader,
	tokens contract.PushTokenWriter,
	sendTimeout time.Duration,
) *Server {
	return &Server{
		log:           log,
		registry:      registry,
		chat:          chat,
		notifier:      notifier,
		notifications: notifications,
		tokens:        tokens,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sendTimeout: sendTimeout,
		now:         time.Now,
	}
}

// Router builds the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/ws/chat/:user1/:user2", s.chatSocket)
	r.GET("/ws/notifications", s.notificationSocket)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/connections", s.connections)
	notifications := api.Group("/notifications")
	notifications.POST("/profile-updated", s.profileUpdated)
	notifications.POST("/account-deleted", s.accountDeleted)
	notifications.PUT("/push-token", s.pushToken)
	notifications.GET("/:username", s.listNotifications)
	return r
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		if !c.IsWebsocket() {
			metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
		}
		s.log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start))
	}
}
