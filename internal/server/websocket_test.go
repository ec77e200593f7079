package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/npcbrain/internal/core/ai/bt"
	"github.com/zeusync/npcbrain/internal/core/events/bus"
	"github.com/zeusync/npcbrain/internal/core/npc"
	"github.com/zeusync/npcbrain/internal/core/observability/log"
	"github.com/zeusync/npcbrain/internal/core/systems/physics"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitClients(t *testing.T, s *Stream, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return s.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestStreamBroadcastsDecisions(t *testing.T) {
	eventBus := bus.New()
	stream, err := NewStream(eventBus, Options{}, log.NewNop())
	require.NoError(t, err)

	srv := httptest.NewServer(stream.Handler())
	defer srv.Close()

	first := dial(t, srv.URL)
	second := dial(t, srv.URL)
	waitClients(t, stream, 2)

	decision := npc.Decision{
		Entity:    "e-1",
		Archetype: "grunt",
		Tick:      7,
		Status:    bt.StatusSuccess,
		HasAction: true,
		Action:    bt.ActionAttack,
		Parameter: 10,
		Position:  physics.V3(1, 0, 2),
	}
	require.NoError(t, eventBus.Publish(bus.NewEvent(npc.EventDecision, "test", decision)))

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg DecisionMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, DecisionMessage{
			Entity:    "e-1",
			Archetype: "grunt",
			Tick:      7,
			Status:    "Success",
			Action:    "attack",
			Parameter: 10,
			Position:  [3]float64{1, 0, 2},
		}, msg)
	}

	require.NoError(t, first.Close())
	waitClients(t, stream, 1)
}

func TestStreamNoActionOmitted(t *testing.T) {
	msg := newDecisionMessage(npc.Decision{Entity: "e", Status: bt.StatusFailure})
	assert.Empty(t, msg.Action)
	assert.Equal(t, "Failure", msg.Status)
}

func TestStreamMaxClients(t *testing.T) {
	stream, err := NewStream(bus.New(), Options{MaxClients: 1}, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(stream.Handler())
	defer srv.Close()

	dial(t, srv.URL)
	waitClients(t, stream, 1)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStreamStartShutdown(t *testing.T) {
	eventBus := bus.New()
	stream, err := NewStream(eventBus, Options{}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, eventBus.Subscribers(npc.EventDecision))

	addr, err := stream.Start("127.0.0.1:0")
	require.NoError(t, err)
	_, err = stream.Start("127.0.0.1:0")
	assert.ErrorIs(t, err, ErrServerAlreadyRunning)

	conn := dial(t, "http://"+addr)
	waitClients(t, stream, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, stream.Shutdown(ctx))
	assert.Equal(t, 0, stream.Clients())
	assert.Equal(t, 0, eventBus.Subscribers(npc.EventDecision))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)

	assert.ErrorIs(t, stream.Shutdown(ctx), ErrServerNotRunning)
}

func TestStreamConnectRateLimit(t *testing.T) {
	stream, err := NewStream(bus.New(), Options{ConnectRate: 0.001, ConnectBurst: 1}, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(stream.Handler())
	defer srv.Close()

	dial(t, srv.URL)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestConnectLimiterPerIP(t *testing.T) {
	l := newConnectLimiter(0.001, 2)
	assert.True(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"))
}

func TestStreamDropsSlowClient(t *testing.T) {
	stream, err := NewStream(bus.New(), Options{}, nil)
	require.NoError(t, err)

	slow := &client{remote: "10.0.0.9:4000", send: make(chan []byte, 1)}
	stream.mu.Lock()
	stream.clients[slow] = struct{}{}
	stream.mu.Unlock()

	stream.broadcast([]byte("first"))
	assert.Equal(t, 1, stream.Clients())
	stream.broadcast([]byte("second"))
	assert.Equal(t, 0, stream.Clients())

	payload, ok := <-slow.send
	assert.True(t, ok)
	assert.Equal(t, []byte("first"), payload)
	_, ok = <-slow.send
	assert.False(t, ok)
}

func TestStreamDropsUnresponsiveClient(t *testing.T) {
	stream, err := NewStream(bus.New(), Options{PingInterval: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(stream.Handler())
	defer srv.Close()

	// Pongs are only sent while the peer reads, so this client goes silent.
	conn := dial(t, srv.URL)
	waitClients(t, stream, 1)
	waitClients(t, stream, 0)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, _, err = conn.ReadMessage()
		if err != nil {
			break
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "connection left open")
	}
}

func TestStreamKeepsRespondingClient(t *testing.T) {
	stream, err := NewStream(bus.New(), Options{PingInterval: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(stream.Handler())
	defer srv.Close()

	conn := dial(t, srv.URL)
	waitClients(t, stream, 1)

	// The default ping handler answers while the client reads.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.Equal(t, 1, stream.Clients())
}

func TestStreamReservesSlots(t *testing.T) {
	stream, err := NewStream(bus.New(), Options{MaxClients: 1}, nil)
	require.NoError(t, err)

	require.True(t, stream.reserve())
	assert.False(t, stream.reserve())
	stream.release()
	assert.True(t, stream.reserve())
	stream.release()

	srv := httptest.NewServer(stream.Handler())
	defer srv.Close()

	// A failed handshake gives its slot back.
	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	dial(t, srv.URL)
	waitClients(t, stream, 1)
	assert.False(t, stream.reserve())
}
