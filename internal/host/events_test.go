package host

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dusk-indust/mergeframes/internal/settings"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEvent(t *testing.T) {
	tests := []struct {
		name   string
		event  Event
		method string
	}{
		{name: "run", event: Event{Kind: EventKindRun}, method: EventRun},
		{name: "advanced", event: Event{Kind: EventKindAdvancedSettings}, method: EventAdvancedSettings},
		{
			name:   "toggle",
			event:  Event{Kind: EventKindSettingsToggled, Toggle: &settings.ToggleEvent{Flag: settings.FlagDeleteOriginals, Value: true}},
			method: EventSettingsToggled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := EncodeEvent(tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.method, req.Method)
			assert.Nil(t, req.ID, "events are notifications")

			got, err := DecodeEvent(req)
			require.NoError(t, err)
			assert.Equal(t, tt.event, got)
		})
	}
}

func TestEncodeEvent_Invalid(t *testing.T) {
	_, err := EncodeEvent(Event{Kind: EventKindSettingsToggled})
	require.Error(t, err)

	_, err = EncodeEvent(Event{Kind: "explode"})
	require.Error(t, err)
}

func TestDecodeEvent_UnknownMethod(t *testing.T) {
	_, err := DecodeEvent(JSONRPCRequest{JSONRPC: JSONRPCVersion, Method: "plugin/dance"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin/dance")
}

func TestEventsURL(t *testing.T) {
	got, err := eventsURL("http://localhost:8765")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8765/events", got)

	got, err = eventsURL("https://host.example/rpc/")
	require.NoError(t, err)
	assert.Equal(t, "wss://host.example/rpc/events", got)
}

// eventServer upgrades /events and writes the given notifications, then
// closes the connection normally.
func eventServer(t *testing.T, msgs []JSONRPCRequest) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+EventsPath, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for _, m := range msgs {
			require.NoError(t, conn.WriteJSON(m))
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})
	return httptest.NewServer(mux)
}

func TestSubscribe_DeliversEventsInOrder(t *testing.T) {
	run, err := EncodeEvent(Event{Kind: EventKindRun})
	require.NoError(t, err)
	toggle, err := EncodeEvent(Event{
		Kind:   EventKindSettingsToggled,
		Toggle: &settings.ToggleEvent{Flag: settings.FlagAlignCoordinates, Value: true},
	})
	require.NoError(t, err)
	bad := JSONRPCRequest{JSONRPC: JSONRPCVersion, Method: "plugin/unknown"}

	ts := eventServer(t, []JSONRPCRequest{toggle, bad, run})
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := NewClient(ts.URL).Subscribe(ctx)
	require.NoError(t, err)

	var got []Event
	for ev := range ch {
		got = append(got, ev)
	}

	require.Len(t, got, 3)
	assert.Equal(t, EventKindSettingsToggled, got[0].Kind)
	assert.True(t, got[0].Toggle.Value)
	assert.Error(t, got[1].Err, "malformed events surface as errors without ending the stream")
	assert.Equal(t, EventKindRun, got[2].Kind)
}

func TestSubscribe_ContextCancelClosesChannel(t *testing.T) {
	upgrader := websocket.Upgrader{}
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+EventsPath, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		<-release
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := NewClient(ts.URL).Subscribe(ctx)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should close without delivering an error event")
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestSubscribe_DialFailure(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1").Subscribe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "websocket connect")
}
