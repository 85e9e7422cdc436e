package ws

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"rebellion/internal/app"
	"rebellion/internal/domain"
)

// Handler handles host bridge WebSocket connections
type Handler struct {
	hub       *app.BridgeHub
	tokenHash []byte
	upgrader  websocket.Upgrader
	logger    *slog.Logger
}

// NewHandler creates a new WebSocket handler. An empty tokenHash accepts
// every bridge; otherwise the bridge must present a token matching the
// bcrypt hash.
func NewHandler(hub *app.BridgeHub, tokenHash string, logger *slog.Logger) *Handler {
	return &Handler{
		hub:       hub,
		tokenHash: []byte(strings.TrimSpace(tokenHash)),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Bridges are game server plugins, not browsers
				return true
			},
		},
		logger: logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r); err != nil {
		h.logger.Warn("host bridge rejected", "remote", r.RemoteAddr, "error", err)
		http.Error(w, "invalid bridge token", http.StatusUnauthorized)
		return
	}

	serverID := strings.TrimSpace(r.URL.Query().Get("serverId"))
	session, resumed := h.hub.OpenSession(serverID)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(conn, session, h.logger)

	// The connected message goes out before any relabel the attach triggers
	client.sendConnected(resumed)
	session.Attach(client)

	h.logger.Info("host bridge connected",
		"serverID", session.ID(),
		"resumed", resumed,
	)

	client.Run()
}

// authorize checks the bridge token from the query or a bearer header
func (h *Handler) authorize(r *http.Request) error {
	if len(h.tokenHash) == 0 {
		return nil
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if token == "" {
		return fmt.Errorf("%w: no token presented", domain.ErrUnauthorizedHost)
	}

	if err := bcrypt.CompareHashAndPassword(h.tokenHash, []byte(token)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnauthorizedHost, err)
	}
	return nil
}
