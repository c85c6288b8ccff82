package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/restovia/resto-realtime/internal/adapters/primary/http/middleware"
	apperrors "github.com/restovia/resto-realtime/internal/core/errors"
	"github.com/restovia/resto-realtime/internal/core/domain"
	"github.com/restovia/resto-realtime/internal/core/ports"
)

// OrderHandler exposes the order operations over plain HTTP. This is
// the fallback path: user actions must keep working while the
// persistent connection is down, and polling clients read the active
// snapshot from here.
type OrderHandler struct {
	gateway      ports.EventGateway
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(gateway ports.EventGateway, errorHandler *ErrorHandler, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		gateway:      gateway,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// RegisterRoutes registers order routes on the given router
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/active", h.HandleActiveOrders)
	r.Patch("/{orderID}/status", h.HandleUpdateStatus)
}

// UpdateOrderStatusRequest is the request body for a status change.
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// ActiveOrderResponse is one order in the active snapshot.
type ActiveOrderResponse struct {
	OrderID     string             `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	Status      domain.OrderStatus `json:"status"`
	Items       []domain.OrderItem `json:"items"`
	TableNumber string             `json:"tableNumber,omitempty"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// HandleUpdateStatus handles PATCH /orders/{orderID}/status
func (h *OrderHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}

	var req UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "invalid request body"))
		return
	}

	_, err := h.gateway.UpdateOrderStatus(r.Context(), identity, ports.UpdateOrderStatusParams{
		OrderID: chi.URLParam(r, "orderID"),
		Status:  domain.OrderStatus(req.Status),
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteAck(w)
}

// HandleActiveOrders handles GET /orders/active
func (h *OrderHandler) HandleActiveOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}

	orders, err := h.gateway.ActiveOrders(r.Context(), identity, r.URL.Query().Get("branchId"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	data := make([]ActiveOrderResponse, 0, len(orders))
	for _, order := range orders {
		data = append(data, ActiveOrderResponse{
			OrderID:     order.ID,
			OrderNumber: order.Number,
			Status:      order.Status,
			Items:       order.Items,
			TableNumber: order.TableNumber,
			UpdatedAt:   order.UpdatedAt,
		})
	}

	WriteJSON(w, http.StatusOK, ListResponse[ActiveOrderResponse]{Data: data, Count: len(data)})
}
