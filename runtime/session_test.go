package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var errClosed = fmt.Errorf("use of closed connection")

// fakeSession records every frame it is sent. Inbound frames are fed through
// inbound; closing inbound ends Receive with io.EOF.
type fakeSession struct {
	mu       sync.Mutex
	frames   [][]byte
	failSend bool
	closed   bool
	inbound  chan []byte
}

func newFakeSession() *fakeSession {
	return &fakeSession{inbound: make(chan []byte, 16)}
}

func (f *fakeSession) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend || f.closed {
		return errClosed
	}
	f.frames = append(f.frames, append([]byte(nil), payload...))
	return nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSession) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data, ok := <-f.inbound:
		if !ok {
			return nil, io.EOF
		}
		return data, nil
	}
}

func (f *fakeSession) breakSend() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSend = true
}

func (f *fakeSession) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeSession) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

// decoded returns every frame sent so far as generic JSON objects.
func (f *fakeSession) decoded(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make([]map[string]any, 0, len(f.frames))
	for _, frame := range f.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(frame, &m))
		res = append(res, m)
	}
	return res
}

// last returns the most recent frame.
func (f *fakeSession) last(t *testing.T) map[string]any {
	t.Helper()
	frames := f.decoded(t)
	require.NotEmpty(t, frames)
	return frames[len(frames)-1]
}
