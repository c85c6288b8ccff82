package services

import (
	"context"
	"log/slog"

	"github.com/restovia/resto-realtime/internal/core/domain"
	apperrors "github.com/restovia/resto-realtime/internal/core/errors"
	"github.com/restovia/resto-realtime/internal/core/ports"
)

// Gateway implements the inbound state-change operations. It owns no
// business rules: whether a status transition is legal is the CRUD
// layer's problem. The gateway validates request shape, delegates the
// mutation, and broadcasts the committed result.
type Gateway struct {
	orders      ports.OrderRepository
	tables      ports.TableRepository
	broadcaster ports.EventBroadcaster
	logger      *slog.Logger
}

var _ ports.EventGateway = (*Gateway)(nil)

// NewGateway creates a new event gateway.
func NewGateway(
	orders ports.OrderRepository,
	tables ports.TableRepository,
	broadcaster ports.EventBroadcaster,
	logger *slog.Logger,
) *Gateway {
	return &Gateway{
		orders:      orders,
		tables:      tables,
		broadcaster: broadcaster,
		logger:      logger.With("component", "event_gateway"),
	}
}

// UpdateOrderStatus commits an order status change and broadcasts the
// resulting events to the order's branch room. Moving an order into
// PREPARING additionally emits a kitchen ticket so displays can
// materialize the preparation request.
func (g *Gateway) UpdateOrderStatus(ctx context.Context, actor domain.Identity, params ports.UpdateOrderStatusParams) ([]domain.Event, error) {
	if params.OrderID == "" {
		return nil, apperrors.ErrOrderIDRequired
	}
	if params.Status == "" {
		return nil, apperrors.ErrStatusRequired
	}
	if !params.Status.Valid() {
		return nil, apperrors.ErrUnknownOrderStatus
	}

	// The broadcast must reflect the committed state, so the mutation
	// is awaited before any event is constructed.
	order, err := g.orders.UpdateStatus(ctx, params.OrderID, params.Status)
	if err != nil {
		return nil, err
	}

	events := []domain.Event{
		domain.NewOrderStatusEvent(order, domain.Actor{ID: actor.ID, Name: actor.Name}),
	}
	if order.Status == domain.OrderPreparing {
		events = append(events, domain.NewKitchenTicketEvent(order))
	}

	for _, event := range events {
		g.broadcaster.Deliver(event)
	}

	g.logger.Debug("order status broadcast",
		"order_id", order.ID,
		"status", order.Status,
		"actor_id", actor.ID,
		"events", len(events),
	)
	return events, nil
}

// UpdateTableStatus commits a table status change and broadcasts it to
// the table's branch room.
func (g *Gateway) UpdateTableStatus(ctx context.Context, actor domain.Identity, params ports.UpdateTableStatusParams) ([]domain.Event, error) {
	if params.TableID == "" {
		return nil, apperrors.ErrTableIDRequired
	}
	if params.Status == "" {
		return nil, apperrors.ErrStatusRequired
	}
	if !params.Status.Valid() {
		return nil, apperrors.ErrUnknownTableStatus
	}

	table, err := g.tables.UpdateStatus(ctx, params.TableID, params.Status)
	if err != nil {
		return nil, err
	}

	event := domain.NewTableStatusEvent(table)
	g.broadcaster.Deliver(event)

	g.logger.Debug("table status broadcast",
		"table_id", table.ID,
		"status", table.Status,
		"actor_id", actor.ID,
	)
	return []domain.Event{event}, nil
}

// ActiveOrders returns the branch's non-terminal orders. Polling
// clients diff successive snapshots of this list to approximate the
// event stream while their persistent connection is down. An empty
// branchID falls back to the actor's own branch scope.
func (g *Gateway) ActiveOrders(ctx context.Context, actor domain.Identity, branchID string) ([]*domain.Order, error) {
	if branchID == "" {
		branchID = actor.BranchID
	}
	if branchID == "" {
		return nil, apperrors.ErrBranchRequired
	}
	return g.orders.ListActive(ctx, branchID)
}
