package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GregoryFarmer/orthant/domain/event"
	"github.com/GregoryFarmer/orthant/runtime"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	hub := runtime.NewHub(slog.Default(), runtime.PolicyFor(runtime.ModeBroadcast))
	server := NewServer("localhost:0", hub, slog.Default())
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, wsURL, username string) *websocket.Conn {
	t.Helper()
	if username != "" {
		wsURL += "?username=" + username
	}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) event.Outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var out event.Outbound
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func Test_Liveness_Endpoint(t *testing.T) {
	req := require.New(t)
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("application/json", resp.Header.Get("Content-Type"))

	var status struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&status))
	req.Equal(200, status.Code)
	req.Equal("OK", status.Message)
}

func Test_Messaging_Route(t *testing.T) {
	req := require.New(t)
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/messaging")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	req.Equal("Messaging test", string(body))
}

func Test_Socket_Message_Round_Trip(t *testing.T) {
	req := require.New(t)
	_, wsURL := newTestServer(t)

	alice := dial(t, wsURL, "alice")
	connect := readEvent(t, alice)
	req.Equal(event.Connect, connect.Event)
	req.Equal("alice", connect.Username)

	bob := dial(t, wsURL, "bob")
	bobConnect := readEvent(t, bob)
	req.Equal(event.Connect, bobConnect.Event)
	req.Equal("bob", bobConnect.Username)

	// Alice sees Bob arrive before sending, so Bob is registered.
	aliceSeesBob := readEvent(t, alice)
	req.Equal(event.Connect, aliceSeesBob.Event)
	req.Equal("bob", aliceSeesBob.Username)

	req.NoError(alice.WriteJSON(map[string]any{"event": "message", "data": "hi"}))

	received := readEvent(t, bob)
	req.Equal(event.Message, received.Event)
	req.Equal("hi", received.Text)
	req.Equal("alice", received.Username)

	// Broadcast-others: nothing loops back to Alice.
	req.NoError(alice.SetReadDeadline(time.Now().Add(300 * time.Millisecond)))
	var echoed event.Outbound
	req.Error(alice.ReadJSON(&echoed))
}

func Test_Socket_Anonymous_Handshake(t *testing.T) {
	req := require.New(t)
	_, wsURL := newTestServer(t)

	conn := dial(t, wsURL, "")
	connect := readEvent(t, conn)
	req.Equal(event.Connect, connect.Event)
	req.Equal("Anonymous", connect.Username)
}

func Test_Shutdown_Unwinds_Live_Sessions(t *testing.T) {
	req := require.New(t)
	hub := runtime.NewHub(slog.Default(), runtime.PolicyFor(runtime.ModeBroadcast))
	server := NewServer("localhost:0", hub, slog.Default())
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	conn := dial(t, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", "alice")
	connect := readEvent(t, conn)
	req.Equal(event.Connect, connect.Event)
	req.Len(hub.Sessions(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req.NoError(server.Shutdown(ctx))
	req.Empty(hub.Sessions())

	// The write pump flushes anything queued and then sends the close
	// frame; read until it arrives.
	var err error
	for i := 0; i < 10; i++ {
		req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
		if _, _, err = conn.ReadMessage(); err != nil {
			break
		}
	}
	req.Error(err)
	req.True(websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived))
}

func Test_Socket_Malformed_Frames_Are_Dropped(t *testing.T) {
	req := require.New(t)
	_, wsURL := newTestServer(t)

	alice := dial(t, wsURL, "alice")
	readEvent(t, alice) // own connect

	bob := dial(t, wsURL, "bob")
	readEvent(t, bob)   // own connect
	readEvent(t, alice) // bob's connect

	// None of these decode: not JSON, an unknown event name, and known
	// events with the wrong data type.
	req.NoError(alice.WriteMessage(websocket.TextMessage, []byte("not json")))
	req.NoError(alice.WriteJSON(map[string]any{"event": "subscribe", "data": "x"}))
	req.NoError(alice.WriteJSON(map[string]any{"event": "message", "data": true}))
	req.NoError(alice.WriteJSON(map[string]any{"event": "typing", "data": "yes"}))

	// The connection survives and nothing fanned out: deliveries keep
	// sender order, so Bob's next event is the valid message.
	req.NoError(alice.WriteJSON(map[string]any{"event": "message", "data": "still here"}))

	received := readEvent(t, bob)
	req.Equal(event.Message, received.Event)
	req.Equal("still here", received.Text)
	req.Equal("alice", received.Username)
}

func Test_Socket_Typing_Round_Trip(t *testing.T) {
	req := require.New(t)
	_, wsURL := newTestServer(t)

	alice := dial(t, wsURL, "alice")
	readEvent(t, alice) // own connect

	bob := dial(t, wsURL, "bob")
	readEvent(t, bob)   // own connect
	readEvent(t, alice) // bob's connect

	req.NoError(alice.WriteJSON(map[string]any{"event": "typing", "data": true}))

	typing := readEvent(t, bob)
	req.Equal(event.Typing, typing.Event)
	req.Equal("alice", typing.Username)
	req.NotNil(typing.Typing)
	req.True(*typing.Typing)
}
