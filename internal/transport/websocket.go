package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/doodleduel/client/internal/protocol"
)

// frame is the wire envelope. Calls carry an ackId; the server answers
// them with a single frame of type "ack" echoing the same ackId.
type frame struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	AckID string          `json:"ackId,omitempty"`
}

const frameTypeAck = "ack"

// Config holds connection tuning for the websocket channel.
type Config struct {
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	PingInterval     time.Duration
	HandshakeTimeout time.Duration
	MaxMessageSize   int64
	ReconnectWait    time.Duration
	MaxReconnectWait time.Duration
}

// DefaultConfig returns the default websocket tuning.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingInterval:     30 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		MaxMessageSize:   64 * 1024,
		ReconnectWait:    time.Second,
		MaxReconnectWait: 30 * time.Second,
	}
}

// WSChannel is the websocket implementation of Channel.
type WSChannel struct {
	url    string
	cfg    Config
	events chan protocol.Event

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	connCh    chan struct{} // closed when a connection is live
	closed    bool
	cancel    context.CancelFunc

	outbox chan frame

	pendingMu sync.Mutex
	pending   map[string]chan json.RawMessage
}

// NewWSChannel creates a channel for the given websocket URL. Connect
// must be called before use.
func NewWSChannel(url string, cfg Config) *WSChannel {
	return &WSChannel{
		url:     url,
		cfg:     cfg,
		events:  make(chan protocol.Event, 64),
		connCh:  make(chan struct{}),
		outbox:  make(chan frame, 64),
		pending: make(map[string]chan json.RawMessage),
	}
}

func (c *WSChannel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("connect %s: %w", c.url, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	c.adopt(conn)

	go c.run(runCtx, conn)
	return nil
}

func (c *WSChannel) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(c.cfg.MaxMessageSize)
	return conn, nil
}

// adopt installs a freshly dialed connection and signals waiters.
func (c *WSChannel) adopt(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
	c.connected = true
	close(c.connCh)
	log.Info().Str("url", c.url).Msg("websocket connected")
}

// run owns the connection lifecycle: it pumps one session at a time and
// redials with backoff until the channel is closed.
func (c *WSChannel) run(ctx context.Context, conn *websocket.Conn) {
	defer close(c.events)

	for {
		c.session(ctx, conn)
		c.teardown()

		if ctx.Err() != nil {
			return
		}
		c.emit(ctx, protocol.Event{Type: protocol.EventDisconnected})

		var ok bool
		conn, ok = c.redial(ctx)
		if !ok {
			return
		}
		c.adopt(conn)
	}
}

// session runs the read and write pumps until either fails.
func (c *WSChannel) session(ctx context.Context, conn *websocket.Conn) {
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump(sessionCtx, conn)
	}()

	c.readPump(sessionCtx, conn)
	cancel()
	conn.Close()
	<-done
}

func (c *WSChannel) readPump(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			log.Warn().Err(err).Msg("malformed inbound frame dropped")
			continue
		}

		if f.Type == frameTypeAck {
			c.resolveAck(f)
			continue
		}
		c.emit(ctx, protocol.Event{Type: protocol.EventType(f.Type), Data: f.Data})
	}
}

func (c *WSChannel) writePump(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case f := <-c.outbox:
			conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := conn.WriteJSON(f); err != nil {
				log.Warn().Err(err).Str("type", f.Type).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// teardown marks the channel disconnected and fails every pending call:
// responses are never delivered across a connection boundary.
func (c *WSChannel) teardown() {
	c.mu.Lock()
	c.connected = false
	c.conn = nil
	c.connCh = make(chan struct{})
	c.mu.Unlock()

	c.pendingMu.Lock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()
}

// redial retries the connection with exponential backoff until it
// succeeds or the channel is closed.
func (c *WSChannel) redial(ctx context.Context) (*websocket.Conn, bool) {
	wait := c.cfg.ReconnectWait
	for {
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(wait):
		}

		conn, err := c.dial(ctx)
		if err == nil {
			return conn, true
		}
		log.Warn().Err(err).Dur("next_attempt_in", wait).Msg("websocket redial failed")
		c.emitConnError(ctx, err)

		wait *= 2
		if wait > c.cfg.MaxReconnectWait {
			wait = c.cfg.MaxReconnectWait
		}
	}
}

func (c *WSChannel) emit(ctx context.Context, ev protocol.Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

func (c *WSChannel) emitConnError(ctx context.Context, err error) {
	data, _ := json.Marshal(protocol.ConnErrorPayload{Message: err.Error()})
	c.emit(ctx, protocol.Event{Type: protocol.EventConnError, Data: data})
}

func (c *WSChannel) resolveAck(f frame) {
	c.pendingMu.Lock()
	ch, ok := c.pending[f.AckID]
	if ok {
		delete(c.pending, f.AckID)
	}
	c.pendingMu.Unlock()

	if !ok {
		// Late response after the caller already timed out.
		log.Debug().Str("ack_id", f.AckID).Msg("unmatched ack dropped")
		return
	}
	ch <- f.Data
}

func (c *WSChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	conn := c.conn
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
	return nil
}

func (c *WSChannel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *WSChannel) WaitConnected(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	ch := c.connCh
	c.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ErrNotConnected
	}
}

func (c *WSChannel) Send(name string, payload any) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	f, err := newFrame(name, payload, "")
	if err != nil {
		return err
	}

	select {
	case c.outbox <- f:
		return nil
	default:
		log.Warn().Str("type", name).Msg("outbox full, message dropped")
		return ErrNotConnected
	}
}

func (c *WSChannel) Call(ctx context.Context, name string, payload any) (json.RawMessage, error) {
	if !c.Connected() {
		return nil, ErrNotConnected
	}

	ackID := uuid.NewString()
	ch := make(chan json.RawMessage, 1)
	c.pendingMu.Lock()
	c.pending[ackID] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, ackID)
		c.pendingMu.Unlock()
	}()

	f, err := newFrame(name, payload, ackID)
	if err != nil {
		return nil, err
	}
	select {
	case c.outbox <- f:
	case <-ctx.Done():
		return nil, ErrCallTimeout
	}

	select {
	case raw, ok := <-ch:
		if !ok {
			return nil, ErrDisconnected
		}
		return raw, nil
	case <-ctx.Done():
		return nil, ErrCallTimeout
	}
}

func (c *WSChannel) Events() <-chan protocol.Event {
	return c.events
}

func newFrame(name string, payload any, ackID string) (frame, error) {
	var data json.RawMessage
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return frame{}, fmt.Errorf("marshal %s payload: %w", name, err)
		}
	}
	return frame{Type: name, Data: data, AckID: ackID}, nil
}
