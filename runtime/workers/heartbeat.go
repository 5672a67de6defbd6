package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"rendezvous/contract"
)

// HeartbeatWorker logs the live state of the delivery core and of the
// process every interval.
type HeartbeatWorker struct {
	log      *slog.Logger
	interval time.Duration
	registry contract.ISessionRegistry
	rooms    contract.RoomCounter
	pending  contract.PendingCounter
}

func NewHeartbeatWorker(
	log *slog.Logger,
	interval time.Duration,
	registry contract.ISessionRegistry,
	rooms contract.RoomCounter,
	pending contract.PendingCounter,
) *HeartbeatWorker {
	return &HeartbeatWorker{
		log:      log,
		interval: interval,
		registry: registry,
		rooms:    rooms,
		pending:  pending,
	}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.beat(p)
		}
	}
}

func (w *HeartbeatWorker) beat(p *process.Process) {
	activities, notes := w.pending.Pending()
	attrs := []any{
		"connections", w.registry.ActiveConnectionCount(),
		"rooms", w.rooms.RoomCount(),
		"pending_activities", activities,
		"pending_notes", notes,
	}

	rss, cpu, err := selfStats(p)
	if err != nil {
		w.log.Debug("Failed to collect self stats", "error", err)
	} else {
		attrs = append(attrs, "rss_bytes", rss, "cpu_percent", cpu)
	}
	w.log.Info("Heartbeat", attrs...)
}

func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
