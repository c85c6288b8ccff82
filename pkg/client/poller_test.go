package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restovia/resto-realtime/internal/core/domain"
)

// scriptedReader returns one prepared snapshot per call.
type scriptedReader struct {
	snapshots []func() ([]*domain.Order, error)
	calls     int
}

func (r *scriptedReader) ActiveOrders(ctx context.Context) ([]*domain.Order, error) {
	if r.calls >= len(r.snapshots) {
		return nil, errors.New("no more snapshots")
	}
	snap := r.snapshots[r.calls]
	r.calls++
	return snap()
}

func orderAt(id string, status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:        id,
		Number:    "ORD-" + id,
		BranchID:  "b-1",
		Status:    status,
		UpdatedAt: time.Now().UTC(),
	}
}

func snapshot(orders ...*domain.Order) func() ([]*domain.Order, error) {
	return func() ([]*domain.Order, error) { return orders, nil }
}

func failure(err error) func() ([]*domain.Order, error) {
	return func() ([]*domain.Order, error) { return nil, err }
}

// collect drains everything currently buffered on the poller.
func collect(p *Poller) []domain.Event {
	var events []domain.Event
	for {
		select {
		case event := <-p.events:
			events = append(events, event)
		default:
			return events
		}
	}
}

func TestPoller_FirstPollPrimesWithoutEvents(t *testing.T) {
	reader := &scriptedReader{snapshots: []func() ([]*domain.Order, error){
		snapshot(orderAt("o-1", domain.OrderPending), orderAt("o-2", domain.OrderPreparing)),
	}}
	p := NewPoller(reader, PollerConfig{Interval: time.Second})

	p.poll(context.Background())

	assert.Empty(t, collect(p), "baseline snapshot must not emit events")
	assert.Equal(t, 1, reader.calls)
}

func TestPoller_StatusChangeSynthesizesEvent(t *testing.T) {
	reader := &scriptedReader{snapshots: []func() ([]*domain.Order, error){
		snapshot(orderAt("o-1", domain.OrderPending)),
		snapshot(orderAt("o-1", domain.OrderReady)),
	}}
	p := NewPoller(reader, PollerConfig{Interval: time.Second})

	p.poll(context.Background())
	p.poll(context.Background())

	events := collect(p)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventOrderStatusUpdated, events[0].Type)
	payload := events[0].Payload.(domain.OrderStatusPayload)
	assert.Equal(t, "o-1", payload.OrderID)
	assert.Equal(t, domain.OrderReady, payload.Status)
}

func TestPoller_TransitionIntoPreparingAddsTicket(t *testing.T) {
	reader := &scriptedReader{snapshots: []func() ([]*domain.Order, error){
		snapshot(orderAt("o-1", domain.OrderConfirmed)),
		snapshot(orderAt("o-1", domain.OrderPreparing)),
	}}
	p := NewPoller(reader, PollerConfig{Interval: time.Second})

	p.poll(context.Background())
	p.poll(context.Background())

	events := collect(p)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventOrderStatusUpdated, events[0].Type)
	assert.Equal(t, domain.EventKitchenTicketNew, events[1].Type)
	ticket := events[1].Payload.(domain.KitchenTicketPayload)
	assert.Equal(t, "o-1", ticket.OrderID)
	assert.Equal(t, "NEW", ticket.Status)
}

func TestPoller_NewOrderInSnapshot(t *testing.T) {
	reader := &scriptedReader{snapshots: []func() ([]*domain.Order, error){
		snapshot(orderAt("o-1", domain.OrderPending)),
		snapshot(orderAt("o-1", domain.OrderPending), orderAt("o-2", domain.OrderPending)),
	}}
	p := NewPoller(reader, PollerConfig{Interval: time.Second})

	p.poll(context.Background())
	p.poll(context.Background())

	events := collect(p)
	require.Len(t, events, 1, "unchanged order is silent, new order is announced")
	payload := events[0].Payload.(domain.OrderStatusPayload)
	assert.Equal(t, "o-2", payload.OrderID)
}

func TestPoller_FailureKeepsBaseline(t *testing.T) {
	reader := &scriptedReader{snapshots: []func() ([]*domain.Order, error){
		snapshot(orderAt("o-1", domain.OrderPending)),
		failure(errors.New("connection refused")),
		snapshot(orderAt("o-1", domain.OrderPending)),
	}}
	p := NewPoller(reader, PollerConfig{Interval: time.Second})

	p.poll(context.Background())
	p.poll(context.Background())
	p.poll(context.Background())

	assert.Empty(t, collect(p), "an unchanged order must stay silent across a failed poll")
}

func TestPoller_RunEmitsOnSchedule(t *testing.T) {
	reader := &scriptedReader{snapshots: []func() ([]*domain.Order, error){
		snapshot(orderAt("o-1", domain.OrderPending)),
		snapshot(orderAt("o-1", domain.OrderServed)),
	}}
	p := NewPoller(reader, PollerConfig{Interval: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)

	select {
	case event := <-p.Events():
		assert.Equal(t, domain.EventOrderStatusUpdated, event.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for synthesized event")
	}

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-p.Events()
		return !open
	}, 2*time.Second, 10*time.Millisecond, "events channel should close after Run returns")
}

func TestHTTPSnapshotReader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/orders/active", r.URL.Path)
		assert.Equal(t, "Bearer snapshot-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"orderId":"o-1","orderNumber":"ORD-41","status":"PREPARING","items":[{"id":"i-1","name":"Ribeye","quantity":1}],"tableNumber":"7","updatedAt":"2026-08-28T12:00:00Z"}],"count":1}`))
	}))
	defer server.Close()

	reader := NewHTTPSnapshotReader(server.URL, "snapshot-token", nil)
	orders, err := reader.ActiveOrders(context.Background())
	require.NoError(t, err)

	require.Len(t, orders, 1)
	assert.Equal(t, "o-1", orders[0].ID)
	assert.Equal(t, "ORD-41", orders[0].Number)
	assert.Equal(t, domain.OrderPreparing, orders[0].Status)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Ribeye", orders[0].Items[0].Name)
	assert.Equal(t, "7", orders[0].TableNumber)
}

func TestHTTPSnapshotReader_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	reader := NewHTTPSnapshotReader(server.URL, "expired", nil)
	_, err := reader.ActiveOrders(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
