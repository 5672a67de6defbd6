package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const maxFrameBytes = 64 << 10

// Conn adapts a gorilla connection to contract.Connection.
// gorilla allows one concurrent writer, so Send is serialized by mu.
type Conn struct {
	ID        uuid.UUID
	mu        sync.Mutex
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

func NewConn(conn *websocket.Conn) *Conn {
	conn.SetReadLimit(maxFrameBytes)
	return &Conn{ID: uuid.New(), conn: conn}
}

// Send writes payload as a single text frame. The context deadline, if any,
// becomes the write deadline.
func (c *Conn) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Receive blocks until the next data frame. Closing the connection, or
// canceling ctx, unblocks it with an error.
func (c *Conn) Receive(ctx context.Context) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
			return data, nil
		}
	}
}

// Close sends a normal closure frame then closes the socket. It is safe to
// call more than once and concurrently with Send.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// IsNormalClose reports whether err is the expected end of a client session.
func IsNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived)
}
