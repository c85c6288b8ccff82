package http

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/restovia/resto-realtime/internal/core/errors"
)

// ErrorHandler translates service errors into HTTP acknowledgments.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle writes the error as a negative acknowledgment with the status
// code implied by the error kind. Unknown errors are logged and masked.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		WriteJSON(w, appErr.StatusCode, AckResponse{Success: false, Error: appErr.Message})
		return
	}

	status := http.StatusInternalServerError
	message := "An unexpected error occurred"

	switch {
	case errors.Is(err, apperrors.ErrOrderIDRequired),
		errors.Is(err, apperrors.ErrTableIDRequired),
		errors.Is(err, apperrors.ErrStatusRequired),
		errors.Is(err, apperrors.ErrUnknownOrderStatus),
		errors.Is(err, apperrors.ErrUnknownTableStatus),
		errors.Is(err, apperrors.ErrBranchRequired),
		errors.Is(err, apperrors.ErrBadRequest):
		status = http.StatusUnprocessableEntity
		message = err.Error()

	case errors.Is(err, apperrors.ErrOrderNotFound),
		errors.Is(err, apperrors.ErrTableNotFound),
		errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()

	case errors.Is(err, apperrors.ErrUnauthorized),
		errors.Is(err, apperrors.ErrTokenMissing),
		errors.Is(err, apperrors.ErrTokenInvalid),
		errors.Is(err, apperrors.ErrTokenExpired):
		status = http.StatusUnauthorized
		message = err.Error()

	default:
		h.logger.Error("unhandled error",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
	}

	WriteJSON(w, status, AckResponse{Success: false, Error: message})
}
