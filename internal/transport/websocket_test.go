package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodleduel/client/internal/protocol"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PingInterval = 250 * time.Millisecond
	cfg.ReadTimeout = 2 * time.Second
	cfg.WriteTimeout = time.Second
	cfg.ReconnectWait = 20 * time.Millisecond
	cfg.MaxReconnectWait = 100 * time.Millisecond
	return cfg
}

// newTestServer runs a websocket endpoint that greets every connection
// with a connected frame and hands inbound frames to onFrame.
func newTestServer(t *testing.T, onFrame func(conn *websocket.Conn, f frame)) (string, chan frame) {
	t.Helper()
	received := make(chan frame, 16)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		data, _ := json.Marshal(protocol.ConnectedPayload{SocketID: "sock-test"})
		if err := conn.WriteJSON(frame{Type: string(protocol.EventConnected), Data: data}); err != nil {
			return
		}

		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			select {
			case received <- f:
			default:
			}
			if onFrame != nil {
				onFrame(conn, f)
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http"), received
}

func dialChannel(t *testing.T, url string) *WSChannel {
	t.Helper()
	ch := NewWSChannel(url, testConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, ch.Connect(ctx))
	t.Cleanup(func() { ch.Close() })
	return ch
}

// nextEvent waits for the next event of the wanted type, skipping others.
func nextEvent(t *testing.T, ch *WSChannel, want protocol.EventType) protocol.Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-ch.Events():
			require.True(t, ok, "event stream closed while waiting for %s", want)
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", want)
		}
	}
}

func TestConnectDeliversConnectedEvent(t *testing.T) {
	t.Parallel()
	url, _ := newTestServer(t, nil)
	ch := dialChannel(t, url)

	ev := nextEvent(t, ch, protocol.EventConnected)
	var payload protocol.ConnectedPayload
	require.NoError(t, json.Unmarshal(ev.Data, &payload))
	assert.Equal(t, "sock-test", payload.SocketID)
	assert.True(t, ch.Connected())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, ch.WaitConnected(ctx))
}

func TestCallAckRoundTrip(t *testing.T) {
	t.Parallel()
	url, received := newTestServer(t, func(conn *websocket.Conn, f frame) {
		if f.AckID == "" {
			return
		}
		resp, _ := json.Marshal(map[string]any{"success": true, "word": "OTTER"})
		conn.WriteJSON(frame{Type: frameTypeAck, Data: resp, AckID: f.AckID})
	})
	ch := dialChannel(t, url)
	nextEvent(t, ch, protocol.EventConnected)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	raw, err := ch.Call(ctx, "word:choice", "OTTER")
	require.NoError(t, err)

	var resp struct {
		Success bool   `json:"success"`
		Word    string `json:"word"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "OTTER", resp.Word)

	sent := <-received
	assert.Equal(t, "word:choice", sent.Type)
	assert.NotEmpty(t, sent.AckID)
}

func TestCallTimesOutWithoutAck(t *testing.T) {
	t.Parallel()
	url, _ := newTestServer(t, nil) // never acks
	ch := dialChannel(t, url)
	nextEvent(t, ch, protocol.EventConnected)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := ch.Call(ctx, "room:join", "R1")
	assert.ErrorIs(t, err, ErrCallTimeout)
}

func TestSendDeliversFireAndForgetFrame(t *testing.T) {
	t.Parallel()
	url, received := newTestServer(t, nil)
	ch := dialChannel(t, url)
	nextEvent(t, ch, protocol.EventConnected)

	require.NoError(t, ch.Send("chat:guessage", map[string]string{"guessage": "cat?"}))

	select {
	case f := <-received:
		assert.Equal(t, "chat:guessage", f.Type)
		assert.Empty(t, f.AckID)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the frame")
	}
}

func TestServerPushBecomesEvent(t *testing.T) {
	t.Parallel()
	url, _ := newTestServer(t, func(conn *websocket.Conn, f frame) {
		if f.Type != "poke" {
			return
		}
		data, _ := json.Marshal(protocol.TimerSyncPayload{Remaining: 45000, Phase: protocol.PhaseDrawing})
		conn.WriteJSON(frame{Type: string(protocol.EventTimerSync), Data: data})
	})
	ch := dialChannel(t, url)
	nextEvent(t, ch, protocol.EventConnected)
	require.NoError(t, ch.Send("poke", nil))

	ev := nextEvent(t, ch, protocol.EventTimerSync)
	var payload protocol.TimerSyncPayload
	require.NoError(t, json.Unmarshal(ev.Data, &payload))
	assert.Equal(t, 45000, payload.Remaining)
}

func TestDisconnectFailsPendingCalls(t *testing.T) {
	t.Parallel()
	url, _ := newTestServer(t, func(conn *websocket.Conn, f frame) {
		if f.Type == "room:join" {
			// Drop the connection instead of answering.
			conn.Close()
		}
	})
	ch := dialChannel(t, url)
	nextEvent(t, ch, protocol.EventConnected)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := ch.Call(ctx, "room:join", "R1")
	assert.ErrorIs(t, err, ErrDisconnected, "acks never cross a connection boundary")

	nextEvent(t, ch, protocol.EventDisconnected)
}

func TestReconnectAfterServerDrop(t *testing.T) {
	t.Parallel()
	url, _ := newTestServer(t, func(conn *websocket.Conn, f frame) {
		if f.Type == "die" {
			conn.Close()
		}
	})
	ch := dialChannel(t, url)
	nextEvent(t, ch, protocol.EventConnected)
	require.NoError(t, ch.Send("die", nil))

	nextEvent(t, ch, protocol.EventDisconnected)

	// The channel redials on its own; the fresh session greets with a new
	// connected frame.
	nextEvent(t, ch, protocol.EventConnected)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, ch.WaitConnected(ctx))
}

func TestUseBeforeConnect(t *testing.T) {
	t.Parallel()
	ch := NewWSChannel("ws://127.0.0.1:1/ws", testConfig())

	assert.False(t, ch.Connected())
	assert.ErrorIs(t, ch.Send("chat:guessage", nil), ErrNotConnected)

	_, err := ch.Call(context.Background(), "room:join", "R1")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestConnectAfterCloseFails(t *testing.T) {
	t.Parallel()
	url, _ := newTestServer(t, nil)
	ch := dialChannel(t, url)
	require.NoError(t, ch.Close())

	err := ch.Connect(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
