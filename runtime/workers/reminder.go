package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rendezvous/contract"
	"rendezvous/domain"
	"rendezvous/infrastructure/metrics"
	"rendezvous/runtime"
)

// ReminderWorker periodically scans upcoming activities and due notes and
// dispatches a reminder the first time each of them is observed.
type ReminderWorker struct {
	log        *slog.Logger
	activities contract.ActivityStore
	notes      contract.NoteStore
	notifier   contract.Notifier
	// One dedup set per target kind, activity and note ids may collide.
	notifiedActivities *runtime.DedupSet
	notifiedNotes      *runtime.DedupSet
	interval           time.Duration
	lookahead          time.Duration
	now                func() time.Time
}

func NewReminderWorker(
	log *slog.Logger,
	activities contract.ActivityStore,
	notes contract.NoteStore,
	notifier contract.Notifier,
	interval, lookahead time.Duration,
) *ReminderWorker {
	return &ReminderWorker{
		log:                log,
		activities:         activities,
		notes:              notes,
		notifier:           notifier,
		notifiedActivities: runtime.NewDedupSet(),
		notifiedNotes:      runtime.NewDedupSet(),
		interval:           interval,
		lookahead:          lookahead,
		now:                time.Now,
	}
}

// Run ticks once right away, then every interval, until ctx is canceled.
// Dedup state survives a supervisor restart since it lives on the worker.
func (w *ReminderWorker) Run(ctx context.Context) error {
	w.log.Info("Starting reminder worker", "interval", w.interval, "lookahead", w.lookahead)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Tick(ctx, w.now())
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping reminder worker")
			return nil
		case <-ticker.C:
			w.Tick(ctx, w.now())
		}
	}
}

// Tick runs both scans for the window [now, now+lookahead] and evicts the
// dedup entries that can no longer be returned by a scan.
func (w *ReminderWorker) Tick(ctx context.Context, now time.Time) {
	until := now.Add(w.lookahead)

	activities, err := w.activities.UpcomingActivities(ctx, now, until)
	if err != nil {
		w.log.Error("Unable to load upcoming activities", "error", err)
	}
	for _, activity := range activities {
		w.guard("activity", activity.ID, func() { w.remindActivity(ctx, activity, now) })
	}

	notes, err := w.notes.DueNotes(ctx, now, until)
	if err != nil {
		w.log.Error("Unable to load due notes", "error", err)
	}
	for _, note := range notes {
		w.guard("note", note.ID, func() { w.remindNote(ctx, note, now) })
	}

	evicted := w.notifiedActivities.Evict(now) + w.notifiedNotes.Evict(now)
	if evicted > 0 {
		w.log.Debug("Evicted past reminders", "count", evicted)
	}
}

func (w *ReminderWorker) remindActivity(ctx context.Context, activity domain.Activity, now time.Time) {
	if !w.notifiedActivities.MarkOnce(activity.ID, activity.StartsAt) {
		return
	}
	minutes := domain.MinutesUntil(activity.StartsAt, now)
	message := fmt.Sprintf("Your activity %q starts in %d minutes", activity.Name, minutes)

	for _, username := range activity.Recipients() {
		evt := domain.NewNotificationEvent(domain.ActivityReminder, username, message, now)
		evt.ReferenceID = activity.ID
		evt.MinutesRemaining = &minutes
		if err := w.notifier.Dispatch(ctx, evt); err != nil {
			w.log.Warn("Activity reminder partially delivered",
				"activity", activity.ID, "username", username, "error", err)
		}
	}
	metrics.RemindersSent.WithLabelValues("activity").Inc()
	w.log.Info("Activity reminder sent", "activity", activity.ID, "minutes", minutes)
}

func (w *ReminderWorker) remindNote(ctx context.Context, note domain.Note, now time.Time) {
	if !w.notifiedNotes.MarkOnce(note.ID, note.DueAt) {
		return
	}
	minutes := domain.MinutesUntil(note.DueAt, now)

	evt := domain.NewNotificationEvent(domain.NoteReminder, note.Owner,
		fmt.Sprintf("Reminder: %q in %d minutes", note.Comment, minutes), now)
	evt.ReferenceID = note.ID
	evt.MinutesRemaining = &minutes
	if err := w.notifier.Dispatch(ctx, evt); err != nil {
		w.log.Warn("Note reminder partially delivered", "note", note.ID, "error", err)
	}
	metrics.RemindersSent.WithLabelValues("note").Inc()
}

// guard keeps a panicking item from aborting the rest of the tick.
func (w *ReminderWorker) guard(kind, id string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Reminder processing panicked", "kind", kind, "id", id, "panic", r)
		}
	}()
	fn()
}

// Pending returns how many activity and note ids are currently remembered.
func (w *ReminderWorker) Pending() (activities, notes int) {
	return w.notifiedActivities.Len(), w.notifiedNotes.Len()
}
