package ws

import (
	"context"
	"log/slog"
	"sync"

	"github.com/restovia/resto-realtime/internal/core/domain"
	"github.com/restovia/resto-realtime/internal/core/ports"
)

// Hub owns the room membership tables and fans events out to room
// members. Membership is mutated only here, in response to register and
// unregister, and a connection joins or leaves all of its rooms under a
// single lock hold: a broadcast never observes a half-joined client.
type Hub struct {
	// rooms maps room names (branch:*, role:*, user:*) to members.
	// Rooms exist implicitly; an empty room is deleted.
	rooms map[string]map[*Client]bool

	// clients is the set of registered connections.
	clients map[*Client]bool

	// broadcast carries events from the gateway to the fan-out loop.
	broadcast chan domain.Event

	// Register requests from freshly authenticated connections.
	Register chan *Client

	// Unregister requests from closing connections.
	Unregister chan *Client

	// done is closed when Run exits; pumps select on it so they never
	// block on Register/Unregister against a stopped loop.
	done chan struct{}

	// mu protects the clients and rooms maps.
	mu sync.RWMutex

	logger *slog.Logger
}

// Ensure Hub implements the EventBroadcaster interface.
var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new hub. Call Run to start its event loop.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan domain.Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With("component", "ws_hub"),
	}
}

// Deliver hands an event to the fan-out loop. Best-effort: if the
// broadcast buffer is full the event is dropped with a warning rather
// than blocking the caller. This implements ports.EventBroadcaster.
func (h *Hub) Deliver(event domain.Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event",
			"event_type", event.Type,
			"room", event.Room,
		)
	}
}

// Run starts the hub's event loop and blocks until ctx is cancelled.
// This MUST be run as a goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.deliverToRoom(event)

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// registerClient joins the client to all of its identity-derived rooms
// in one step.
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	for _, room := range client.rooms {
		if h.rooms[room] == nil {
			h.rooms[room] = make(map[*Client]bool)
		}
		h.rooms[room][client] = true
	}

	h.logger.Info("client registered",
		"user_id", client.identity.ID,
		"role", client.identity.Role,
		"branch_id", client.identity.BranchID,
		"total_connections", len(h.clients),
	)
}

// unregisterClient removes the client from every room as a single
// operation and closes its send channel.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	delete(h.clients, client)

	for _, room := range client.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}

	client.closeSend()

	h.logger.Info("client unregistered",
		"user_id", client.identity.ID,
		"total_connections", len(h.clients),
	)
}

// deliverToRoom sends an event to every current member of its room. The
// membership is snapshotted first so a member disconnecting mid-send
// cannot abort delivery to the rest.
func (h *Hub) deliverToRoom(event domain.Event) {
	h.mu.RLock()
	members, ok := h.rooms[event.Room]
	if !ok {
		h.mu.RUnlock()
		return
	}
	snapshot := make([]*Client, 0, len(members))
	for client := range members {
		snapshot = append(snapshot, client)
	}
	h.mu.RUnlock()

	h.logger.Debug("broadcasting event",
		"event_type", event.Type,
		"room", event.Room,
		"member_count", len(snapshot),
	)

	for _, client := range snapshot {
		client.trySend(event)
	}
}

// closeAll unregisters every client; used on shutdown.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.closeSend()
	}
	h.clients = make(map[*Client]bool)
	h.rooms = make(map[string]map[*Client]bool)
}

// ClientCount returns the total number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of non-empty rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// ClientsInRoom returns the current member count of a room.
func (h *Hub) ClientsInRoom(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
