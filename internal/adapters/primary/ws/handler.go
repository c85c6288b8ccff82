package ws

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/restovia/resto-realtime/internal/auth"
	"github.com/restovia/resto-realtime/internal/config"
	apperrors "github.com/restovia/resto-realtime/internal/core/errors"
	"github.com/restovia/resto-realtime/internal/core/ports"
)

// Handler is the connection gate: it verifies the credential supplied
// during the handshake and only then upgrades the connection and
// registers it with the hub. A connection that fails the gate is never
// visible to any room.
type Handler struct {
	hub      *Hub
	tm       *auth.TokenManager
	gateway  ports.EventGateway
	pongWait time.Duration
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a new connection gate over the given hub.
func NewHandler(
	hub *Hub,
	tm *auth.TokenManager,
	gateway ports.EventGateway,
	cfg *config.Config,
	logger *slog.Logger,
) *Handler {
	handler := &Handler{
		hub:      hub,
		tm:       tm,
		gateway:  gateway,
		pongWait: cfg.WebSocket.PongWait,
		logger:   logger.With("component", "ws_gate"),
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:   cfg.WebSocket.ReadBufferSize,
		WriteBufferSize:  cfg.WebSocket.WriteBufferSize,
		HandshakeTimeout: cfg.WebSocket.HandshakeTimeout,
		CheckOrigin:      makeOriginChecker(cfg, logger),
	}

	return handler
}

// makeOriginChecker creates an origin checking function based on configuration
func makeOriginChecker(cfg *config.Config, logger *slog.Logger) func(r *http.Request) bool {
	allowedOrigins := cfg.WebSocket.AllowedOrigins
	development := cfg.IsDevelopment()

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// In development mode, allow all origins
		if development {
			return true
		}

		// No origin header (same-origin request or non-browser client)
		if origin == "" {
			return true
		}

		parsedOrigin, err := url.Parse(origin)
		if err != nil {
			logger.Warn("failed to parse websocket origin", "origin", origin, "error", err)
			return false
		}

		originHost := parsedOrigin.Host
		for _, allowed := range allowedOrigins {
			// Support wildcard subdomains like "*.example.com"
			if strings.HasPrefix(allowed, "*.") {
				suffix := allowed[1:]
				if strings.HasSuffix(originHost, suffix) || originHost == allowed[2:] {
					return true
				}
			} else if originHost == allowed {
				return true
			}
		}

		logger.Warn("websocket connection rejected due to origin",
			"origin", origin,
			"remote_addr", r.RemoteAddr,
		)
		return false
	}
}

// Handshake rejection bodies. The client distinguishes "go refresh your
// credential" from "retry the transport" by these.
const (
	reasonTokenRequired = "token required"
	reasonTokenInvalid  = "token invalid"
)

// ServeHTTP runs the gate for one connection request. The credential is
// taken from the handshake (query parameter), verified before the
// upgrade, and no application message is read for a connection that has
// not passed verification.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := h.tm.Verify(r.URL.Query().Get("token"))
	if err != nil {
		reason := reasonTokenInvalid
		if errors.Is(err, apperrors.ErrTokenMissing) {
			reason = reasonTokenRequired
		}
		h.logger.Warn("websocket connection rejected",
			"reason", reason,
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		http.Error(w, reason, http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Error("failed to upgrade websocket connection",
			"user_id", identity.ID,
			"error", err,
		)
		return
	}

	h.logger.Info("websocket connection established",
		"user_id", identity.ID,
		"role", identity.Role,
		"branch_id", identity.BranchID,
		"remote_addr", r.RemoteAddr,
	)

	client := newClient(h.hub, conn, h.gateway, *identity, h.pongWait, h.logger)
	select {
	case h.hub.Register <- client:
	case <-h.hub.done:
		// Shutting down; the upgraded connection is not admitted.
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
