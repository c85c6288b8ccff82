package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/restovia/resto-realtime/internal/adapters/primary/http/middleware"
	"github.com/restovia/resto-realtime/internal/core/domain"
	apperrors "github.com/restovia/resto-realtime/internal/core/errors"
	"github.com/restovia/resto-realtime/internal/core/ports"
)

// TableHandler exposes the table status operation over plain HTTP.
type TableHandler struct {
	gateway      ports.EventGateway
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewTableHandler creates a new table handler
func NewTableHandler(gateway ports.EventGateway, errorHandler *ErrorHandler, logger *slog.Logger) *TableHandler {
	return &TableHandler{
		gateway:      gateway,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// RegisterRoutes registers table routes on the given router
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Patch("/{tableID}/status", h.HandleUpdateStatus)
}

// UpdateTableStatusRequest is the request body for a status change.
type UpdateTableStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateStatus handles PATCH /tables/{tableID}/status
func (h *TableHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}

	var req UpdateTableStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "invalid request body"))
		return
	}

	_, err := h.gateway.UpdateTableStatus(r.Context(), identity, ports.UpdateTableStatusParams{
		TableID: chi.URLParam(r, "tableID"),
		Status:  domain.TableStatus(req.Status),
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteAck(w)
}
