package host

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dusk-indust/mergeframes/internal/settings"
	"github.com/gorilla/websocket"
)

// EventsPath is the websocket path, relative to the host endpoint, on which
// host events are delivered.
const EventsPath = "/events"

// EncodeEvent wraps ev in a JSON-RPC notification.
func EncodeEvent(ev Event) (JSONRPCRequest, error) {
	req := JSONRPCRequest{JSONRPC: JSONRPCVersion}
	switch ev.Kind {
	case EventKindRun:
		req.Method = EventRun
	case EventKindAdvancedSettings:
		req.Method = EventAdvancedSettings
	case EventKindSettingsToggled:
		if ev.Toggle == nil {
			return JSONRPCRequest{}, fmt.Errorf("host: %s event without toggle", ev.Kind)
		}
		params, err := json.Marshal(ev.Toggle)
		if err != nil {
			return JSONRPCRequest{}, fmt.Errorf("host: marshal toggle: %w", err)
		}
		req.Method = EventSettingsToggled
		req.Params = params
	default:
		return JSONRPCRequest{}, fmt.Errorf("host: unknown event kind %q", ev.Kind)
	}
	return req, nil
}

// DecodeEvent turns a JSON-RPC notification back into an Event.
func DecodeEvent(req JSONRPCRequest) (Event, error) {
	switch req.Method {
	case EventRun:
		return Event{Kind: EventKindRun}, nil
	case EventAdvancedSettings:
		return Event{Kind: EventKindAdvancedSettings}, nil
	case EventSettingsToggled:
		var toggle settings.ToggleEvent
		if err := json.Unmarshal(req.Params, &toggle); err != nil {
			return Event{}, fmt.Errorf("host: decode %s: %w", req.Method, err)
		}
		return Event{Kind: EventKindSettingsToggled, Toggle: &toggle}, nil
	default:
		return Event{}, fmt.Errorf("host: unknown event method %q", req.Method)
	}
}

// eventsURL converts the HTTP endpoint into the websocket events URL.
func eventsURL(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("host: parse endpoint: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimRight(u.Path, "/") + EventsPath
	return u.String(), nil
}

// Subscribe dials the host event stream. Each received notification is
// decoded and delivered on the returned channel; malformed notifications
// produce an Event with Err set and the stream continues. The channel is
// closed when the connection drops or ctx is cancelled.
func (c *Client) Subscribe(ctx context.Context) (<-chan Event, error) {
	wsURL, err := eventsURL(c.endpoint)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("host: websocket connect: %w", err)
	}

	var once sync.Once
	closeConn := func() { once.Do(func() { conn.Close() }) }

	ch := make(chan Event)
	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	go func() {
		defer close(ch)
		defer close(done)
		defer closeConn()

		for {
			var req JSONRPCRequest
			if err := conn.ReadJSON(&req); err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					deliver(ctx, ch, Event{Err: fmt.Errorf("host: read event: %w", err)})
				}
				return
			}

			ev, err := DecodeEvent(req)
			if err != nil {
				ev = Event{Err: err}
			}
			if !deliver(ctx, ch, ev) {
				return
			}
		}
	}()

	return ch, nil
}

func deliver(ctx context.Context, ch chan<- Event, ev Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
