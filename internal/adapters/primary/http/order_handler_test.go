package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mw "github.com/restovia/resto-realtime/internal/adapters/primary/http/middleware"
	"github.com/restovia/resto-realtime/internal/auth"
	"github.com/restovia/resto-realtime/internal/core/domain"
	apperrors "github.com/restovia/resto-realtime/internal/core/errors"
	"github.com/restovia/resto-realtime/internal/core/mocks"
	"github.com/restovia/resto-realtime/internal/core/services"
)

type restFixture struct {
	tm          *auth.TokenManager
	orders      *mocks.MockOrderRepository
	tables      *mocks.MockTableRepository
	broadcaster *mocks.RecordingBroadcaster
	server      *httptest.Server
}

func newRESTFixture(t *testing.T) *restFixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	orders := mocks.NewMockOrderRepository()
	tables := mocks.NewMockTableRepository()
	broadcaster := mocks.NewRecordingBroadcaster()
	gateway := services.NewGateway(orders, tables, broadcaster, logger)

	tm := auth.NewTokenManager("rest-test-secret", time.Hour)
	errorHandler := NewErrorHandler(logger)
	orderHandler := NewOrderHandler(gateway, errorHandler, logger)
	tableHandler := NewTableHandler(gateway, errorHandler, logger)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(mw.JWTMiddleware(tm))
		r.Route("/api/v1/orders", orderHandler.RegisterRoutes)
		r.Route("/api/v1/tables", tableHandler.RegisterRoutes)
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &restFixture{tm: tm, orders: orders, tables: tables, broadcaster: broadcaster, server: server}
}

func (f *restFixture) do(t *testing.T, method, path, body string, identity *domain.Identity) *http.Response {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	if identity != nil {
		token, err := f.tm.Issue(*identity)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

var restWaiter = domain.Identity{ID: "u-1", Name: "Mert", Role: domain.RoleWaiter, BranchID: "b1"}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	f := newRESTFixture(t)

	f.orders.On("UpdateStatus", mock.Anything, "o1", domain.OrderServed).Return(&domain.Order{
		ID:        "o1",
		Number:    "A-7",
		BranchID:  "b1",
		Status:    domain.OrderServed,
		UpdatedAt: time.Now().UTC(),
	}, nil)

	resp := f.do(t, http.MethodPatch, "/api/v1/orders/o1/status", `{"status":"SERVED"}`, &restWaiter)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var ack AckResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	assert.True(t, ack.Success)

	// The HTTP path feeds the same broadcaster as the socket path.
	delivered := f.broadcaster.Events()
	require.Len(t, delivered, 1)
	assert.Equal(t, domain.EventOrderStatusUpdated, delivered[0].Type)
	assert.Equal(t, domain.BranchRoom("b1"), delivered[0].Room)
}

func TestOrderHandler_UpdateStatus_UnknownStatus(t *testing.T) {
	f := newRESTFixture(t)

	resp := f.do(t, http.MethodPatch, "/api/v1/orders/o1/status", `{"status":"TELEPORTED"}`, &restWaiter)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var ack AckResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	assert.False(t, ack.Success)
	assert.Contains(t, ack.Error, "unknown order status")
	f.orders.AssertNotCalled(t, "UpdateStatus")
}

func TestOrderHandler_UpdateStatus_NotFound(t *testing.T) {
	f := newRESTFixture(t)

	f.orders.On("UpdateStatus", mock.Anything, "ghost", domain.OrderReady).
		Return(nil, apperrors.ErrOrderNotFound)

	resp := f.do(t, http.MethodPatch, "/api/v1/orders/ghost/status", `{"status":"READY"}`, &restWaiter)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOrderHandler_RequiresToken(t *testing.T) {
	f := newRESTFixture(t)

	resp := f.do(t, http.MethodPatch, "/api/v1/orders/o1/status", `{"status":"READY"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOrderHandler_ActiveOrders(t *testing.T) {
	f := newRESTFixture(t)

	now := time.Now().UTC().Truncate(time.Second)
	f.orders.On("ListActive", mock.Anything, "b1").Return([]*domain.Order{
		{
			ID:        "o1",
			Number:    "A-7",
			BranchID:  "b1",
			Status:    domain.OrderPreparing,
			Items:     []domain.OrderItem{{ID: "i1", Name: "Lahmacun", Quantity: 3}},
			UpdatedAt: now,
		},
	}, nil)

	resp := f.do(t, http.MethodGet, "/api/v1/orders/active", "", &restWaiter)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body ListResponse[ActiveOrderResponse]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "o1", body.Data[0].OrderID)
	assert.Equal(t, domain.OrderPreparing, body.Data[0].Status)
	require.Len(t, body.Data[0].Items, 1)
}

func TestTableHandler_UpdateStatus(t *testing.T) {
	f := newRESTFixture(t)

	f.tables.On("UpdateStatus", mock.Anything, "t2", domain.TableReserved).Return(&domain.Table{
		ID:        "t2",
		Number:    2,
		BranchID:  "b1",
		Status:    domain.TableReserved,
		UpdatedAt: time.Now().UTC(),
	}, nil)

	resp := f.do(t, http.MethodPatch, "/api/v1/tables/t2/status", `{"status":"RESERVED"}`, &restWaiter)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	delivered := f.broadcaster.Events()
	require.Len(t, delivered, 1)
	assert.Equal(t, domain.EventTableStatusUpdated, delivered[0].Type)
}
