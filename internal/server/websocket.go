package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/zeusync/npcbrain/internal/core/events/bus"
	"github.com/zeusync/npcbrain/internal/core/npc"
	"github.com/zeusync/npcbrain/internal/core/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

const (
	clientBuffer = 256
	writeTimeout = 5 * time.Second

	defaultPingInterval = 30 * time.Second
)

// DecisionMessage is the JSON frame sent for every entity decision.
type DecisionMessage struct {
	Entity    string     `json:"entity"`
	Archetype string     `json:"archetype"`
	Tick      uint64     `json:"tick"`
	Status    string     `json:"status"`
	Action    string     `json:"action,omitempty"`
	Parameter float64    `json:"parameter"`
	Position  [3]float64 `json:"position"`
}

func newDecisionMessage(d npc.Decision) DecisionMessage {
	msg := DecisionMessage{
		Entity:    d.Entity,
		Archetype: d.Archetype,
		Tick:      d.Tick,
		Status:    d.Status.String(),
		Parameter: d.Parameter,
		Position:  [3]float64{d.Position.X, d.Position.Y, d.Position.Z},
	}
	if d.HasAction {
		msg.Action = d.Action.String()
	}
	return msg
}

type client struct {
	conn   *websocket.Conn
	remote string
	send   chan []byte
}

// Options limits who may connect to a Stream.
type Options struct {
	MaxClients   int     // Zero means unlimited
	ConnectRate  float64 // Connection attempts per second per remote IP; zero means unlimited
	ConnectBurst int
	PingInterval time.Duration // Defaults to 30s; a client silent for two intervals is dropped
}

// Stream broadcasts npc decisions to websocket clients. Clients only
// receive; a client that falls behind by more than its buffer is dropped.
type Stream struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	pending int // upgrades in flight, counted against MaxClients
	opts    Options
	limits  *connectLimiter

	sub    bus.Subscription
	server *http.Server
	logger log.Log
}

// NewStream subscribes to decision events on eventBus.
func NewStream(eventBus bus.EventBus, opts Options, logger log.Log) (*Stream, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}
	s := &Stream{
		clients: make(map[*client]struct{}),
		opts:    opts,
		logger:  logger.Named("stream"),
	}
	if opts.ConnectRate > 0 {
		s.limits = newConnectLimiter(rate.Limit(opts.ConnectRate), max(opts.ConnectBurst, 1))
	}
	sub, err := eventBus.Subscribe(npc.EventDecision, s.onDecision)
	if err != nil {
		return nil, err
	}
	s.sub = sub
	return s, nil
}

// Handler serves the stream at /ws.
func (s *Stream) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Clients returns the number of connected clients.
func (s *Stream) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Stream) onDecision(event bus.Event) error {
	d, ok := event.Data().(npc.Decision)
	if !ok {
		return nil
	}
	payload, err := json.Marshal(newDecisionMessage(d))
	if err != nil {
		return err
	}
	s.broadcast(payload)
	return nil
}

func (s *Stream) broadcast(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- payload:
		default:
			s.logger.Warn("Dropping slow client", log.String("remote", c.remote))
			s.removeLocked(c)
		}
	}
}

func (s *Stream) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.limits != nil && !s.limits.allow(remoteIP(r)) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	if !s.reserve() {
		http.Error(w, ErrMaxClientsReached.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.release()
		s.logger.Warn("Websocket upgrade failed", log.Err(err))
		return
	}

	c := &client{conn: conn, remote: conn.RemoteAddr().String(), send: make(chan []byte, clientBuffer)}
	s.mu.Lock()
	s.pending--
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.logger.Info("Client connected", log.String("remote", c.remote))

	go s.writeLoop(c)
	s.readLoop(c)
}

// reserve claims a client slot before the upgrade so concurrent handshakes
// cannot overshoot MaxClients.
func (s *Stream) reserve() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opts.MaxClients > 0 && len(s.clients)+s.pending >= s.opts.MaxClients {
		return false
	}
	s.pending++
	return true
}

func (s *Stream) release() {
	s.mu.Lock()
	s.pending--
	s.mu.Unlock()
}

// readLoop discards incoming frames and detects disconnects. Pongs extend
// the read deadline, so a peer that stops answering pings times out.
func (s *Stream) readLoop(c *client) {
	defer s.remove(c)

	pongWait := 2 * s.opts.PingInterval
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			s.logger.Debug("Read failed", log.String("remote", c.remote), log.Err(err))
			return
		}
	}
}

// writeLoop owns the connection and closes it on exit.
func (s *Stream) writeLoop(c *client) {
	ping := time.NewTicker(s.opts.PingInterval)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.logger.Debug("Write failed", log.String("remote", c.remote), log.Err(err))
				s.remove(c)
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				s.logger.Debug("Ping failed", log.String("remote", c.remote), log.Err(err))
				s.remove(c)
				return
			}
		}
	}
}

func (s *Stream) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(c)
}

func (s *Stream) removeLocked(c *client) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.send)
	s.logger.Info("Client disconnected", log.String("remote", c.remote))
}
