package services_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restovia/resto-realtime/internal/core/domain"
	apperrors "github.com/restovia/resto-realtime/internal/core/errors"
	"github.com/restovia/resto-realtime/internal/core/mocks"
	"github.com/restovia/resto-realtime/internal/core/ports"
	"github.com/restovia/resto-realtime/internal/core/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

var waiter = domain.Identity{ID: "u-9", Name: "Deniz", Role: domain.RoleWaiter, BranchID: "b1"}

func TestGateway_UpdateOrderStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("broadcasts one event for a plain status change", func(t *testing.T) {
		orders := mocks.NewMockOrderRepository()
		tables := mocks.NewMockTableRepository()
		broadcaster := mocks.NewRecordingBroadcaster()
		gw := services.NewGateway(orders, tables, broadcaster, testLogger())

		updated := &domain.Order{
			ID:        "o1",
			Number:    "A-104",
			BranchID:  "b1",
			Status:    domain.OrderReady,
			UpdatedAt: time.Now().UTC(),
		}
		orders.On("UpdateStatus", ctx, "o1", domain.OrderReady).Return(updated, nil)

		events, err := gw.UpdateOrderStatus(ctx, waiter, ports.UpdateOrderStatusParams{
			OrderID: "o1",
			Status:  domain.OrderReady,
		})

		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventOrderStatusUpdated, events[0].Type)
		assert.Equal(t, domain.BranchRoom("b1"), events[0].Room)

		payload := events[0].Payload.(domain.OrderStatusPayload)
		assert.Equal(t, "o1", payload.OrderID)
		assert.Equal(t, "A-104", payload.OrderNumber)
		assert.Equal(t, domain.OrderReady, payload.Status)
		assert.Equal(t, "u-9", payload.UpdatedBy.ID)

		delivered := broadcaster.Events()
		require.Len(t, delivered, 1)
		assert.Equal(t, events[0], delivered[0])
		orders.AssertExpectations(t)
	})

	t.Run("preparing additionally emits a kitchen ticket", func(t *testing.T) {
		orders := mocks.NewMockOrderRepository()
		tables := mocks.NewMockTableRepository()
		broadcaster := mocks.NewRecordingBroadcaster()
		gw := services.NewGateway(orders, tables, broadcaster, testLogger())

		updated := &domain.Order{
			ID:       "o1",
			Number:   "A-104",
			BranchID: "b1",
			Status:   domain.OrderPreparing,
			Items: []domain.OrderItem{
				{ID: "i1", Name: "Adana kebap", Quantity: 2},
				{ID: "i2", Name: "Ayran", Quantity: 2, Notes: "no ice"},
			},
			TableNumber: "12",
			UpdatedAt:   time.Now().UTC(),
		}
		orders.On("UpdateStatus", ctx, "o1", domain.OrderPreparing).Return(updated, nil)

		events, err := gw.UpdateOrderStatus(ctx, waiter, ports.UpdateOrderStatusParams{
			OrderID: "o1",
			Status:  domain.OrderPreparing,
		})

		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, domain.EventOrderStatusUpdated, events[0].Type)
		assert.Equal(t, domain.EventKitchenTicketNew, events[1].Type)
		// Both events target the same branch room.
		assert.Equal(t, domain.BranchRoom("b1"), events[0].Room)
		assert.Equal(t, domain.BranchRoom("b1"), events[1].Room)

		ticket := events[1].Payload.(domain.KitchenTicketPayload)
		assert.Equal(t, "NEW", ticket.Status)
		assert.Equal(t, "12", ticket.TableNumber)
		assert.Len(t, ticket.Items, 2)

		assert.Len(t, broadcaster.Events(), 2)
	})

	t.Run("validation failure broadcasts nothing", func(t *testing.T) {
		orders := mocks.NewMockOrderRepository()
		tables := mocks.NewMockTableRepository()
		broadcaster := mocks.NewRecordingBroadcaster()
		gw := services.NewGateway(orders, tables, broadcaster, testLogger())

		cases := []struct {
			name   string
			params ports.UpdateOrderStatusParams
			want   error
		}{
			{"missing order id", ports.UpdateOrderStatusParams{Status: domain.OrderReady}, apperrors.ErrOrderIDRequired},
			{"missing status", ports.UpdateOrderStatusParams{OrderID: "o1"}, apperrors.ErrStatusRequired},
			{"unknown status", ports.UpdateOrderStatusParams{OrderID: "o1", Status: "SINGING"}, apperrors.ErrUnknownOrderStatus},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				events, err := gw.UpdateOrderStatus(ctx, waiter, tc.params)
				assert.Nil(t, events)
				assert.ErrorIs(t, err, tc.want)
			})
		}

		assert.Empty(t, broadcaster.Events())
		orders.AssertNotCalled(t, "UpdateStatus")
	})

	t.Run("mutation failure broadcasts nothing", func(t *testing.T) {
		orders := mocks.NewMockOrderRepository()
		tables := mocks.NewMockTableRepository()
		broadcaster := mocks.NewRecordingBroadcaster()
		gw := services.NewGateway(orders, tables, broadcaster, testLogger())

		orders.On("UpdateStatus", ctx, "o404", domain.OrderReady).
			Return(nil, apperrors.ErrOrderNotFound)

		events, err := gw.UpdateOrderStatus(ctx, waiter, ports.UpdateOrderStatusParams{
			OrderID: "o404",
			Status:  domain.OrderReady,
		})

		assert.Nil(t, events)
		assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
		assert.Empty(t, broadcaster.Events())
	})
}

func TestGateway_UpdateTableStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("broadcasts to the table's branch room", func(t *testing.T) {
		orders := mocks.NewMockOrderRepository()
		tables := mocks.NewMockTableRepository()
		broadcaster := mocks.NewRecordingBroadcaster()
		gw := services.NewGateway(orders, tables, broadcaster, testLogger())

		updated := &domain.Table{
			ID:        "t3",
			Number:    3,
			BranchID:  "b2",
			Status:    domain.TableOccupied,
			UpdatedAt: time.Now().UTC(),
		}
		tables.On("UpdateStatus", ctx, "t3", domain.TableOccupied).Return(updated, nil)

		events, err := gw.UpdateTableStatus(ctx, waiter, ports.UpdateTableStatusParams{
			TableID: "t3",
			Status:  domain.TableOccupied,
		})

		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventTableStatusUpdated, events[0].Type)
		assert.Equal(t, domain.BranchRoom("b2"), events[0].Room)

		payload := events[0].Payload.(domain.TableStatusPayload)
		assert.Equal(t, "t3", payload.TableID)
		assert.Equal(t, domain.TableOccupied, payload.Status)
		tables.AssertExpectations(t)
	})

	t.Run("rejects unknown table status", func(t *testing.T) {
		orders := mocks.NewMockOrderRepository()
		tables := mocks.NewMockTableRepository()
		broadcaster := mocks.NewRecordingBroadcaster()
		gw := services.NewGateway(orders, tables, broadcaster, testLogger())

		events, err := gw.UpdateTableStatus(ctx, waiter, ports.UpdateTableStatusParams{
			TableID: "t3",
			Status:  "ON_FIRE",
		})

		assert.Nil(t, events)
		assert.ErrorIs(t, err, apperrors.ErrUnknownTableStatus)
		tables.AssertNotCalled(t, "UpdateStatus")
	})
}

func TestGateway_ActiveOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to the actor's branch", func(t *testing.T) {
		orders := mocks.NewMockOrderRepository()
		tables := mocks.NewMockTableRepository()
		broadcaster := mocks.NewRecordingBroadcaster()
		gw := services.NewGateway(orders, tables, broadcaster, testLogger())

		active := []*domain.Order{{ID: "o1", BranchID: "b1", Status: domain.OrderPreparing}}
		orders.On("ListActive", ctx, "b1").Return(active, nil)

		got, err := gw.ActiveOrders(ctx, waiter, "")
		require.NoError(t, err)
		assert.Equal(t, active, got)
	})

	t.Run("requires some branch scope", func(t *testing.T) {
		orders := mocks.NewMockOrderRepository()
		tables := mocks.NewMockTableRepository()
		broadcaster := mocks.NewRecordingBroadcaster()
		gw := services.NewGateway(orders, tables, broadcaster, testLogger())

		admin := domain.Identity{ID: "u-1", Role: domain.RoleAdmin}
		_, err := gw.ActiveOrders(ctx, admin, "")
		assert.ErrorIs(t, err, apperrors.ErrBranchRequired)
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		orders := mocks.NewMockOrderRepository()
		tables := mocks.NewMockTableRepository()
		broadcaster := mocks.NewRecordingBroadcaster()
		gw := services.NewGateway(orders, tables, broadcaster, testLogger())

		dbErr := errors.New("connection reset")
		orders.On("ListActive", ctx, "b7").Return(nil, dbErr)

		_, err := gw.ActiveOrders(ctx, waiter, "b7")
		assert.ErrorIs(t, err, dbErr)
	})
}
