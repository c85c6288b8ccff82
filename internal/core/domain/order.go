package domain

import "time"

// OrderStatus represents the possible states of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderPreparing OrderStatus = "PREPARING"
	OrderReady     OrderStatus = "READY"
	OrderServed    OrderStatus = "SERVED"
	OrderPaid      OrderStatus = "PAID"
	OrderCancelled OrderStatus = "CANCELLED"
)

// Valid reports whether the status is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderPreparing, OrderReady,
		OrderServed, OrderPaid, OrderCancelled:
		return true
	}
	return false
}

// Active reports whether an order in this status still matters to the
// kitchen and the floor. Paid and cancelled orders drop out of the
// active snapshot used by polling clients.
func (s OrderStatus) Active() bool {
	return s.Valid() && s != OrderPaid && s != OrderCancelled
}

// OrderItem is a single line item of an order.
type OrderItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes,omitempty"`
}

// Order is the order entity as seen by this service. The full entity
// (pricing, customer, payment) is owned by the CRUD layer; only the
// fields needed to route and describe state changes live here.
type Order struct {
	ID          string
	Number      string
	BranchID    string
	Status      OrderStatus
	Items       []OrderItem
	TableNumber string
	UpdatedAt   time.Time
}
