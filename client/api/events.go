package api

import (
	"context"
	"errors"
	"fmt"

	"Trackshelf/model"

	"github.com/gorilla/websocket"
)

// Event is one catalog change received from /api/events.
type Event struct {
	Type      string       `json:"type"`
	Track     *model.Track `json:"track,omitempty"`
	Count     int          `json:"count,omitempty"`
	Timestamp int64        `json:"timestamp"`
}

// Subscribe streams catalog events to fn until ctx is cancelled or the
// server closes the connection. fn runs on the reading goroutine.
func (c *Client) Subscribe(ctx context.Context, fn func(Event)) error {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/api/events"

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				return nil
			}
			return fmt.Errorf("event stream: %w", err)
		}
		fn(ev)
	}
}
