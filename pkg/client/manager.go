// Package client is the Go client for the realtime API. It maintains a
// single websocket session with automatic reconnection, and falls back
// to HTTP polling when the session cannot be established.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/restovia/resto-realtime/internal/core/domain"
)

// State describes the connection lifecycle.
type State string

const (
	StateIdle         State = "IDLE"
	StateConnecting   State = "CONNECTING"
	StateConnected    State = "CONNECTED"
	StateDisconnected State = "DISCONNECTED"
	StateClosed       State = "CLOSED"
)

// Status is a snapshot of the manager's connection state.
type Status struct {
	State    State
	Attempts int
	LastErr  error
}

// ErrNotConnected is returned by request methods while no session is up.
var ErrNotConnected = errors.New("client: not connected")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("client: closed")

// ErrNoCredential is returned by Start when no token is configured; the
// manager stays idle instead of hammering the gate with doomed dials.
var ErrNoCredential = errors.New("client: credential required")

// Config configures a Manager. URL and Token are required.
type Config struct {
	URL   string // ws:// or wss:// endpoint, without the token
	Token string

	InitialBackoff   time.Duration // default 1s
	MaxBackoff       time.Duration // default 30s
	HandshakeTimeout time.Duration // default 10s
	RequestTimeout   time.Duration // ack wait, default 10s

	Logger *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
}

type outboundMessage struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

type inboundFrame struct {
	Type    domain.EventType `json:"type"`
	Payload json.RawMessage  `json:"payload"`
}

type ackFrame struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Manager owns the websocket session. A single run loop dials, reads,
// and schedules retries, so there is never more than one connection
// attempt in flight.
type Manager struct {
	cfg    Config
	logger *slog.Logger
	dialer *websocket.Dialer

	events chan domain.Event

	mu       sync.Mutex
	state    State
	attempts int
	lastErr  error
	conn     *websocket.Conn
	pending  map[string]chan ackFrame
	started  bool
	closed   bool

	// kick wakes the run loop out of a backoff sleep and resets the
	// delay to InitialBackoff.
	kick chan struct{}

	writeMu sync.Mutex
}

// NewManager creates a manager. Call Start to begin connecting.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.URL == "" {
		return nil, errors.New("client: URL is required")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("client: invalid URL: %w", err)
	}
	cfg.applyDefaults()

	return &Manager{
		cfg:     cfg,
		logger:  cfg.Logger,
		dialer:  &websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
		events:  make(chan domain.Event, 64),
		state:   StateIdle,
		pending: make(map[string]chan ackFrame),
		kick:    make(chan struct{}, 1),
	}, nil
}

// Events is the stream of server events. The channel is closed when the
// manager shuts down.
func (m *Manager) Events() <-chan domain.Event {
	return m.events
}

// Status reports the current connection state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{State: m.state, Attempts: m.attempts, LastErr: m.lastErr}
}

// Start launches the run loop. It returns an error if the manager was
// already started or closed. The loop stops when ctx is cancelled or
// Close is called.
func (m *Manager) Start(ctx context.Context) error {
	if m.cfg.Token == "" {
		return ErrNoCredential
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.started {
		m.mu.Unlock()
		return errors.New("client: already started")
	}
	m.started = true
	m.mu.Unlock()

	go m.run(ctx)
	return nil
}

// Reconnect resets the retry delay and forces an immediate new attempt.
// If a session is up it is torn down first.
func (m *Manager) Reconnect() {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// Close tears down the session and stops the run loop.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	conn := m.conn
	started := m.started
	m.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	select {
	case m.kick <- struct{}{}:
	default:
	}
	if !started {
		m.setState(StateClosed, nil)
		close(m.events)
	}
}

func (m *Manager) run(ctx context.Context) {
	defer func() {
		m.setState(StateClosed, nil)
		close(m.events)
	}()

	backoff := m.cfg.InitialBackoff

	for {
		if m.isClosed() || ctx.Err() != nil {
			return
		}

		m.mu.Lock()
		m.state = StateConnecting
		m.attempts++
		attempt := m.attempts
		m.mu.Unlock()

		conn, _, err := m.dialer.DialContext(ctx, m.sessionURL(), nil)
		if err != nil {
			m.setState(StateDisconnected, err)
			m.logger.Warn("connect failed",
				slog.Int("attempt", attempt),
				slog.Duration("retry_in", backoff),
				slog.String("error", err.Error()))

			kicked, ok := m.sleep(ctx, backoff)
			if !ok {
				return
			}
			if kicked {
				backoff = m.cfg.InitialBackoff
			} else {
				backoff = nextBackoff(backoff, m.cfg.MaxBackoff)
			}
			continue
		}

		m.mu.Lock()
		m.conn = conn
		m.state = StateConnected
		m.attempts = 0
		m.lastErr = nil
		m.mu.Unlock()
		m.logger.Info("connected", slog.String("url", m.cfg.URL))
		backoff = m.cfg.InitialBackoff

		err = m.readLoop(conn)

		m.mu.Lock()
		m.conn = nil
		m.mu.Unlock()
		conn.Close()
		m.failPending()
		m.setState(StateDisconnected, err)

		if m.isClosed() || ctx.Err() != nil {
			return
		}
		m.logger.Warn("session lost", slog.String("error", err.Error()))
		kicked, ok := m.sleep(ctx, backoff)
		if !ok {
			return
		}
		if kicked {
			backoff = m.cfg.InitialBackoff
		} else {
			backoff = nextBackoff(backoff, m.cfg.MaxBackoff)
		}
	}
}

// sleep waits for d, a kick, or cancellation. kicked means the delay was
// cut short by Reconnect; ok is false when it is time to shut down.
func (m *Manager) sleep(ctx context.Context, d time.Duration) (kicked, ok bool) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false, false
	case <-m.kick:
		return true, !m.isClosed()
	case <-timer.C:
		return false, true
	}
}

func (m *Manager) readLoop(conn *websocket.Conn) error {
	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return err
		}

		switch frame.Type {
		case "ack":
			var ack ackFrame
			if err := json.Unmarshal(frame.Payload, &ack); err != nil {
				m.logger.Warn("malformed ack", slog.String("error", err.Error()))
				continue
			}
			m.resolvePending(ack)
		case "pong":
			// keepalive reply, nothing to surface
		default:
			event := domain.Event{Type: frame.Type, Payload: frame.Payload}
			select {
			case m.events <- event:
			default:
				m.logger.Warn("event buffer full, dropping", slog.String("type", string(frame.Type)))
			}
		}
	}
}

// UpdateOrderStatus sends the status change over the session and waits
// for the server's ack.
func (m *Manager) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	return m.request(ctx, "order.status.update", map[string]string{
		"orderId": orderID,
		"status":  string(status),
	})
}

// UpdateTableStatus sends the status change over the session and waits
// for the server's ack.
func (m *Manager) UpdateTableStatus(ctx context.Context, tableID string, status domain.TableStatus) error {
	return m.request(ctx, "table.status.update", map[string]string{
		"tableId": tableID,
		"status":  string(status),
	})
}

func (m *Manager) request(ctx context.Context, op string, payload any) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	conn := m.conn
	if conn == nil {
		m.mu.Unlock()
		return ErrNotConnected
	}
	id := uuid.NewString()
	ch := make(chan ackFrame, 1)
	m.pending[id] = ch
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
	}()

	if err := m.writeJSON(conn, outboundMessage{Type: op, ID: id, Payload: payload}); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case ack, ok := <-ch:
		if !ok {
			return ErrNotConnected
		}
		if !ack.Success {
			return fmt.Errorf("client: request rejected: %s", ack.Error)
		}
		return nil
	}
}

func (m *Manager) writeJSON(conn *websocket.Conn, v any) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return conn.WriteJSON(v)
}

func (m *Manager) resolvePending(ack ackFrame) {
	m.mu.Lock()
	ch, ok := m.pending[ack.ID]
	if ok {
		delete(m.pending, ack.ID)
	}
	m.mu.Unlock()
	if ok {
		ch <- ack
	}
}

// failPending closes every in-flight request channel so waiters fail
// fast instead of running out their timeouts.
func (m *Manager) failPending() {
	m.mu.Lock()
	pending := m.pending
	m.pending = make(map[string]chan ackFrame)
	m.mu.Unlock()

	for _, ch := range pending {
		close(ch)
	}
}

func (m *Manager) setState(s State, err error) {
	m.mu.Lock()
	m.state = s
	if err != nil {
		m.lastErr = err
	}
	m.mu.Unlock()
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Manager) sessionURL() string {
	u, err := url.Parse(m.cfg.URL)
	if err != nil {
		return m.cfg.URL
	}
	q := u.Query()
	q.Set("token", m.cfg.Token)
	u.RawQuery = q.Encode()
	return u.String()
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		next = max
	}
	return next
}
