package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"rendezvous/contract"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rendezvous_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rendezvous_http_request_duration_seconds",
			Help:    "HTTP request duration, WebSocket upgrades excluded",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Chat metrics
	ChatFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rendezvous_chat_frames_total",
			Help: "Chat frames handled by outcome",
		},
		[]string{"type", "outcome"}, // outcome: "relayed", "flagged", "rejected", "failed"
	)

	// Notification metrics
	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rendezvous_notifications_dispatched_total",
			Help: "Notifications dispatched by type",
		},
		[]string{"type"},
	)

	SessionDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rendezvous_session_deliveries_total",
			Help: "Notification frames written to live sessions",
		},
	)

	PushFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rendezvous_push_failures_total",
			Help: "Push submissions that failed",
		},
	)

	// Reminder metrics
	RemindersSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rendezvous_reminders_sent_total",
			Help: "Reminders dispatched by kind",
		},
		[]string{"kind"}, // "activity" or "note"
	)
)

// RegisterLiveGauges exposes the in-memory state of the delivery core. It is
// called once at startup, the gauges read their sources on every scrape.
func RegisterLiveGauges(reg prometheus.Registerer, registry contract.ISessionRegistry,
	rooms contract.RoomCounter, pending contract.PendingCounter) error {
	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "rendezvous_active_connections",
			Help: "Registered notification sessions",
		}, func() float64 { return float64(registry.ActiveConnectionCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "rendezvous_chat_rooms",
			Help: "Chat rooms with at least one live member",
		}, func() float64 { return float64(rooms.RoomCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "rendezvous_reminders_remembered",
			Help: "Reminder ids kept to prevent duplicates",
		}, func() float64 {
			activities, notes := pending.Pending()
			return float64(activities + notes)
		}),
	}
	for _, g := range gauges {
		if err := reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}
