package moderation

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T, maxLength int) *Gate {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mod, err := NewModerator([]string{"idiot", "merda"}, replacementChar, log)
	require.NoError(t, err)
	return NewGate(mod, maxLength, log)
}

func TestGate_IsInappropriate(t *testing.T) {
	gate := newTestGate(t, 0)

	tests := []struct {
		name    string
		input   string
		flagged bool
	}{
		{name: "Clean message", input: "See you at the climbing gym at 6", flagged: false},
		{name: "Dictionary word", input: "you are an idiot", flagged: true},
		{name: "Catalan word with noise", input: "quina m.e.r.d.a de dia", flagged: true},
		{name: "Empty message", input: "", flagged: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flagged, err := gate.IsInappropriate(context.Background(), tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.flagged, flagged)
		})
	}
}

func TestGate_MaxLength(t *testing.T) {
	req := require.New(t)
	gate := newTestGate(t, 10)

	// Given a message longer than the limit
	flagged, err := gate.IsInappropriate(context.Background(), strings.Repeat("a", 11))

	// Then it is flagged
	req.NoError(err)
	req.True(flagged)
}

func TestGate_CanceledContext(t *testing.T) {
	req := require.New(t)
	gate := newTestGate(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gate.IsInappropriate(ctx, "hello")
	req.ErrorIs(err, context.Canceled)
}
