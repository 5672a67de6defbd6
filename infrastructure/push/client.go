package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"rendezvous/errors"
)

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type request struct {
	To           string       `json:"to"`
	Notification notification `json:"notification"`
}

// Client submits notifications to an FCM-style HTTP endpoint.
type Client struct {
	endpoint  string
	serverKey string
	http      *http.Client
}

func NewClient(endpoint, serverKey string, timeout time.Duration) *Client {
	return &Client{
		endpoint:  endpoint,
		serverKey: serverKey,
		http:      &http.Client{Timeout: timeout},
	}
}

// SendNotification posts one notification for token. Any non-2xx answer is an
// error; nothing is retried.
func (c *Client) SendNotification(ctx context.Context, token, title, body string) error {
	b, err := json.Marshal(request{To: token, Notification: notification{Title: title, Body: body}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.serverKey != "" {
		req.Header.Set("Authorization", "key="+c.serverKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", errors.ErrPushRejected, resp.StatusCode)
	}
	return nil
}

// Noop is used when no push endpoint is configured.
type Noop struct {
	log *slog.Logger
}

func NewNoop(log *slog.Logger) *Noop {
	return &Noop{log: log}
}

func (n *Noop) SendNotification(_ context.Context, _, title, _ string) error {
	n.log.Debug("Push disabled, notification dropped", "title", title)
	return nil
}
