package ports

import (
	"context"

	"github.com/restovia/resto-realtime/internal/core/domain"
)

// EventBroadcaster is the fan-out primitive. Delivery is best-effort:
// members that are not connected at delivery time simply miss the
// event, and a failure to reach one member is never surfaced to the
// caller.
type EventBroadcaster interface {
	Deliver(event domain.Event)
}

// UpdateOrderStatusParams is the input of the order status operation.
type UpdateOrderStatusParams struct {
	OrderID string
	Status  domain.OrderStatus
}

// UpdateTableStatusParams is the input of the table status operation.
type UpdateTableStatusParams struct {
	TableID string
	Status  domain.TableStatus
}

// EventGateway exposes the inbound state-change operations. Each op
// validates the request shape, delegates the mutation to the CRUD
// seam, and on success hands the resulting events to the broadcaster
// before returning them to the caller.
type EventGateway interface {
	UpdateOrderStatus(ctx context.Context, actor domain.Identity, params UpdateOrderStatusParams) ([]domain.Event, error)
	UpdateTableStatus(ctx context.Context, actor domain.Identity, params UpdateTableStatusParams) ([]domain.Event, error)
	ActiveOrders(ctx context.Context, actor domain.Identity, branchID string) ([]*domain.Order, error)
}
