package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/restovia/resto-realtime/internal/core/domain"
	"github.com/restovia/resto-realtime/internal/core/ports"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Bound on one inbound operation, including the delegated mutation.
	requestTimeout = 10 * time.Second

	// Outbound event buffer per connection.
	sendBuffer = 256
)

// Wire-level frame types that are not domain events.
const (
	eventAck  domain.EventType = "ack"
	eventPong domain.EventType = "pong"
)

// Client is the server-side half of one staff connection. It is created
// only after the connection gate verified the credential, so identity
// and rooms are immutable for its lifetime.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	gateway  ports.EventGateway
	identity domain.Identity
	rooms    []string

	// send is the buffered channel of outbound events. sendMu and closed
	// guard it so a pump that is still reacting to inbound frames during
	// shutdown drops its ack instead of sending on a closed channel.
	send   chan domain.Event
	sendMu sync.Mutex
	closed bool

	pongWait   time.Duration
	pingPeriod time.Duration

	logger *slog.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, gateway ports.EventGateway, identity domain.Identity, pongWait time.Duration, logger *slog.Logger) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		gateway:    gateway,
		identity:   identity,
		rooms:      identity.Rooms(),
		send:       make(chan domain.Event, sendBuffer),
		pongWait:   pongWait,
		pingPeriod: pongWait * 9 / 10,
		logger:     logger.With("user_id", identity.ID),
	}
}

// closeSend closes the send channel exactly once.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// trySend queues an event without blocking. A slow or dead connection
// drops the event, and so does a connection whose send channel is
// already closed; the fallback poller covers the gap.
func (c *Client) trySend(event domain.Event) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- event:
	default:
		c.logger.Warn("send buffer full, dropping event",
			"event_type", event.Type,
		)
	}
}

// readPump pumps messages from the websocket connection to the gateway.
// This method runs in its own goroutine; inbound operations on one
// connection are processed strictly in order.
func (c *Client) readPump() {
	defer func() {
		// The hub may already have stopped; never block against it.
		select {
		case c.hub.Unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps events from the hub to the websocket connection.
// This method runs in its own goroutine.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.writeJSON(event); err != nil {
				c.logger.Error("failed to write event", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeJSON(event domain.Event) error {
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(w).Encode(event); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}

// --- Inbound operations ---

// InboundMessage is the envelope for client-to-server frames. ID is an
// optional correlation id echoed back in the acknowledgment.
type InboundMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// The closed set of inbound operation kinds.
const (
	opOrderStatusUpdate = "order.status.update"
	opTableStatusUpdate = "table.status.update"
	opPing              = "ping"
)

// OrderStatusUpdateRequest is the payload of order.status.update.
type OrderStatusUpdateRequest struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// TableStatusUpdateRequest is the payload of table.status.update.
type TableStatusUpdateRequest struct {
	TableID string `json:"tableId"`
	Status  string `json:"status"`
}

// AckPayload acknowledges one inbound operation.
type AckPayload struct {
	ID      string `json:"id,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// handleMessage dispatches one inbound frame. The switch is the single
// place inbound operation kinds are enumerated.
func (c *Client) handleMessage(message []byte) {
	var msg InboundMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal inbound message", "error", err)
		c.ack("", errAck(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	switch msg.Type {
	case opOrderStatusUpdate:
		c.handleOrderStatusUpdate(ctx, msg)

	case opTableStatusUpdate:
		c.handleTableStatusUpdate(ctx, msg)

	case opPing:
		c.trySend(domain.Event{Type: eventPong})

	default:
		c.logger.Debug("received unknown message type", "type", msg.Type)
		c.ack(msg.ID, "unknown message type: "+msg.Type)
	}
}

func (c *Client) handleOrderStatusUpdate(ctx context.Context, msg InboundMessage) {
	var req OrderStatusUpdateRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		c.ack(msg.ID, errAck(err))
		return
	}

	_, err := c.gateway.UpdateOrderStatus(ctx, c.identity, ports.UpdateOrderStatusParams{
		OrderID: req.OrderID,
		Status:  domain.OrderStatus(req.Status),
	})
	if err != nil {
		c.ack(msg.ID, errAck(err))
		return
	}
	// The broadcast has been handed off by the time the gateway
	// returns, so the positive ack is in order here.
	c.ack(msg.ID, "")
}

func (c *Client) handleTableStatusUpdate(ctx context.Context, msg InboundMessage) {
	var req TableStatusUpdateRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		c.ack(msg.ID, errAck(err))
		return
	}

	_, err := c.gateway.UpdateTableStatus(ctx, c.identity, ports.UpdateTableStatusParams{
		TableID: req.TableID,
		Status:  domain.TableStatus(req.Status),
	})
	if err != nil {
		c.ack(msg.ID, errAck(err))
		return
	}
	c.ack(msg.ID, "")
}

// ack sends an acknowledgment frame; empty errMsg means success.
func (c *Client) ack(id, errMsg string) {
	c.trySend(domain.Event{
		Type: eventAck,
		Payload: AckPayload{
			ID:      id,
			Success: errMsg == "",
			Error:   errMsg,
		},
	})
}

func errAck(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
