package workers

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"rendezvous/domain"
	"rendezvous/mocks"
)

type reminderFixture struct {
	activities *mocks.MockActivityStore
	notes      *mocks.MockNoteStore
	notifier   *mocks.MockNotifier
	worker     *ReminderWorker
}

func newReminderFixture(t *testing.T) reminderFixture {
	ctrl := gomock.NewController(t)
	f := reminderFixture{
		activities: mocks.NewMockActivityStore(ctrl),
		notes:      mocks.NewMockNoteStore(ctrl),
		notifier:   mocks.NewMockNotifier(ctrl),
	}
	f.worker = NewReminderWorker(logs.GetLoggerFromLevel(slog.LevelDebug),
		f.activities, f.notes, f.notifier, time.Minute, 30*time.Minute)
	return f
}

func TestReminderWorker_ActivityDispatchedOncePerParticipant(t *testing.T) {
	req := require.New(t)
	f := newReminderFixture(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	// Given an activity starting in 25 minutes with two participants
	activity := domain.Activity{
		ID:           "act-1",
		Name:         "Climbing",
		StartsAt:     now.Add(25 * time.Minute),
		Creator:      "p1",
		Participants: []string{"p1", "p2"},
	}
	f.activities.EXPECT().UpcomingActivities(ctx, gomock.Any(), gomock.Any()).
		Return([]domain.Activity{activity}, nil).Times(3)
	f.notes.EXPECT().DueNotes(ctx, gomock.Any(), gomock.Any()).Return(nil, nil).Times(3)

	var received []domain.NotificationEvent
	f.notifier.EXPECT().Dispatch(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, evt domain.NotificationEvent) error {
			received = append(received, evt)
			return nil
		}).Times(2)

	// When three ticks observe it
	f.worker.Tick(ctx, now)
	f.worker.Tick(ctx, now.Add(time.Minute))
	f.worker.Tick(ctx, now.Add(2*time.Minute))

	// Then each participant got exactly one reminder
	req.Len(received, 2)
	req.ElementsMatch([]string{"p1", "p2"}, []string{received[0].Username, received[1].Username})
	for _, evt := range received {
		req.Equal(domain.ActivityReminder, evt.Type)
		req.Equal("act-1", evt.ReferenceID)
		req.NotNil(evt.MinutesRemaining)
		req.Equal(25, *evt.MinutesRemaining)
		req.Equal(`Your activity "Climbing" starts in 25 minutes`, evt.Message)
	}
}

func TestReminderWorker_CreatorCountsAsParticipant(t *testing.T) {
	req := require.New(t)
	f := newReminderFixture(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	// Given an organiser who is not listed among the participants
	activity := domain.Activity{
		ID:           "act-2",
		Name:         "Hike",
		StartsAt:     now.Add(10 * time.Minute),
		Creator:      "organiser",
		Participants: []string{"p1", "p2"},
	}
	f.activities.EXPECT().UpcomingActivities(ctx, gomock.Any(), gomock.Any()).
		Return([]domain.Activity{activity}, nil).Times(2)
	f.notes.EXPECT().DueNotes(ctx, gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)

	var usernames []string
	f.notifier.EXPECT().Dispatch(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, evt domain.NotificationEvent) error {
			usernames = append(usernames, evt.Username)
			return nil
		}).Times(3)

	// When two ticks observe it
	f.worker.Tick(ctx, now)
	f.worker.Tick(ctx, now.Add(time.Minute))

	// Then the organiser is reminded once along with each participant
	req.ElementsMatch([]string{"organiser", "p1", "p2"}, usernames)
}

func TestReminderWorker_QueriesLookaheadWindow(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	f.activities.EXPECT().UpcomingActivities(ctx, now, now.Add(30*time.Minute)).Return(nil, nil)
	f.notes.EXPECT().DueNotes(ctx, now, now.Add(30*time.Minute)).Return(nil, nil)

	f.worker.Tick(ctx, now)
}

func TestReminderWorker_NoteReminder(t *testing.T) {
	req := require.New(t)
	f := newReminderFixture(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	note := domain.Note{ID: "note-1", Owner: "alice", DueAt: now.Add(90 * time.Second), Comment: "Call mum"}
	f.activities.EXPECT().UpcomingActivities(ctx, gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)
	f.notes.EXPECT().DueNotes(ctx, gomock.Any(), gomock.Any()).Return([]domain.Note{note}, nil).Times(2)

	f.notifier.EXPECT().Dispatch(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, evt domain.NotificationEvent) error {
			req.Equal("alice", evt.Username)
			req.Equal(domain.NoteReminder, evt.Type)
			req.Equal(2, *evt.MinutesRemaining)
			req.Equal(`Reminder: "Call mum" in 2 minutes`, evt.Message)
			return nil
		}).Times(1)

	f.worker.Tick(ctx, now)
	f.worker.Tick(ctx, now.Add(30*time.Second))

	activities, notes := f.worker.Pending()
	req.Zero(activities)
	req.Equal(1, notes)
}

func TestReminderWorker_FailuresDoNotAbortTheTick(t *testing.T) {
	req := require.New(t)
	f := newReminderFixture(t)
	ctx := context.Background()
	now := time.Now()

	// Given a failing activity store and two notes, the first one making the notifier panic
	f.activities.EXPECT().UpcomingActivities(ctx, gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("connection refused"))
	f.notes.EXPECT().DueNotes(ctx, gomock.Any(), gomock.Any()).Return([]domain.Note{
		{ID: "n1", Owner: "alice", DueAt: now.Add(time.Minute)},
		{ID: "n2", Owner: "bob", DueAt: now.Add(2 * time.Minute)},
	}, nil)

	var delivered []string
	f.notifier.EXPECT().Dispatch(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, evt domain.NotificationEvent) error {
			if evt.ReferenceID == "n1" {
				panic("push provider exploded")
			}
			delivered = append(delivered, evt.ReferenceID)
			return fmt.Errorf("push rejected")
		}).Times(2)

	// When the tick runs
	req.NotPanics(func() { f.worker.Tick(ctx, now) })

	// Then the second note was still processed
	req.Equal([]string{"n2"}, delivered)
}

func TestReminderWorker_EvictsPastTargets(t *testing.T) {
	req := require.New(t)
	f := newReminderFixture(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	activity := domain.Activity{ID: "act-1", Name: "Run", StartsAt: now.Add(5 * time.Minute), Creator: "alice"}
	gomock.InOrder(
		f.activities.EXPECT().UpcomingActivities(ctx, gomock.Any(), gomock.Any()).Return([]domain.Activity{activity}, nil),
		f.activities.EXPECT().UpcomingActivities(ctx, gomock.Any(), gomock.Any()).Return(nil, nil),
	)
	f.notes.EXPECT().DueNotes(ctx, gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)
	f.notifier.EXPECT().Dispatch(ctx, gomock.Any()).Return(nil).Times(1)

	f.worker.Tick(ctx, now)
	activities, _ := f.worker.Pending()
	req.Equal(1, activities)

	// When a tick runs after the activity started
	f.worker.Tick(ctx, now.Add(6*time.Minute))

	// Then its id is forgotten
	activities, _ = f.worker.Pending()
	req.Zero(activities)
}

func TestReminderWorker_RunStopsOnCancel(t *testing.T) {
	req := require.New(t)
	f := newReminderFixture(t)
	f.worker.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	f.activities.EXPECT().UpcomingActivities(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).MinTimes(1)
	f.notes.EXPECT().DueNotes(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).MinTimes(1)

	done := make(chan error)
	go func() { done <- f.worker.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(time.Second):
		req.Fail("Run should return once the context is canceled")
	}
}
