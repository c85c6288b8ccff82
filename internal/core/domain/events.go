package domain

import "time"

// EventType identifies a real-time event on the wire.
type EventType string

const (
	EventOrderStatusUpdated EventType = "order.status.updated"
	EventTableStatusUpdated EventType = "table.status.updated"
	EventKitchenTicketNew   EventType = "kitchen.ticket.new"
)

// Event is the payload sent over the persistent connection. Room is the
// multicast group the event is addressed to; it is routing metadata and
// never serialized.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
	Room    string    `json:"-"`
}

// Actor identifies the staff member whose action produced an event.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OrderStatusPayload is the payload of an order.status.updated event.
type OrderStatusPayload struct {
	OrderID     string      `json:"orderId"`
	OrderNumber string      `json:"orderNumber"`
	Status      OrderStatus `json:"status"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	UpdatedBy   Actor       `json:"updatedBy"`
}

// TableStatusPayload is the payload of a table.status.updated event.
type TableStatusPayload struct {
	TableID   string      `json:"tableId"`
	Status    TableStatus `json:"status"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// KitchenTicketPayload is the payload of a kitchen.ticket.new event.
// Status is always "NEW"; the ticket lifecycle beyond creation is a
// client-side concern.
type KitchenTicketPayload struct {
	OrderID     string      `json:"orderId"`
	OrderNumber string      `json:"orderNumber"`
	Status      string      `json:"status"`
	Items       []OrderItem `json:"items"`
	TableNumber string      `json:"tableNumber,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// NewOrderStatusEvent builds the event broadcast to an order's branch
// room after its status changed.
func NewOrderStatusEvent(order *Order, actor Actor) Event {
	return Event{
		Type: EventOrderStatusUpdated,
		Room: BranchRoom(order.BranchID),
		Payload: OrderStatusPayload{
			OrderID:     order.ID,
			OrderNumber: order.Number,
			Status:      order.Status,
			UpdatedAt:   order.UpdatedAt,
			UpdatedBy:   actor,
		},
	}
}

// NewTableStatusEvent builds the event broadcast to a table's branch
// room after its status changed.
func NewTableStatusEvent(table *Table) Event {
	return Event{
		Type: EventTableStatusUpdated,
		Room: BranchRoom(table.BranchID),
		Payload: TableStatusPayload{
			TableID:   table.ID,
			Status:    table.Status,
			UpdatedAt: table.UpdatedAt,
		},
	}
}

// NewKitchenTicketEvent builds the event that tells the kitchen display
// to materialize a preparation ticket for an order.
func NewKitchenTicketEvent(order *Order) Event {
	return Event{
		Type: EventKitchenTicketNew,
		Room: BranchRoom(order.BranchID),
		Payload: KitchenTicketPayload{
			OrderID:     order.ID,
			OrderNumber: order.Number,
			Status:      "NEW",
			Items:       order.Items,
			TableNumber: order.TableNumber,
			CreatedAt:   order.UpdatedAt,
		},
	}
}
