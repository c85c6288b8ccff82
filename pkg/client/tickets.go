package client

import (
	"sync"

	"github.com/restovia/resto-realtime/internal/core/domain"
)

// TicketBoard accumulates kitchen tickets in arrival order. The live
// session and the fallback poller can both feed it for the same order;
// the board keeps the first ticket per order and drops the rest.
type TicketBoard struct {
	mu      sync.Mutex
	seen    map[string]bool
	tickets []domain.KitchenTicketPayload
}

// NewTicketBoard creates an empty board.
func NewTicketBoard() *TicketBoard {
	return &TicketBoard{seen: make(map[string]bool)}
}

// Add appends the ticket unless one for the same order is already on
// the board. It reports whether the ticket was added.
func (b *TicketBoard) Add(ticket domain.KitchenTicketPayload) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.seen[ticket.OrderID] {
		return false
	}
	b.seen[ticket.OrderID] = true
	b.tickets = append(b.tickets, ticket)
	return true
}

// Resolve removes the order's ticket, typically once the order leaves
// the kitchen. A later ticket for the same order is accepted again.
func (b *TicketBoard) Resolve(orderID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.seen[orderID] {
		return false
	}
	delete(b.seen, orderID)
	for i, t := range b.tickets {
		if t.OrderID == orderID {
			b.tickets = append(b.tickets[:i], b.tickets[i+1:]...)
			break
		}
	}
	return true
}

// Tickets returns the open tickets in arrival order.
func (b *TicketBoard) Tickets() []domain.KitchenTicketPayload {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]domain.KitchenTicketPayload, len(b.tickets))
	copy(out, b.tickets)
	return out
}

// Len reports the number of open tickets.
func (b *TicketBoard) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tickets)
}
