package gateway

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Non-browser clients send no Origin header.
		if origin == "" {
			return true
		}

		allowedOrigins := []string{
			"http://localhost:3000",
			"https://localhost:3000",
			"http://127.0.0.1:3000",
		}
		if customOrigins := os.Getenv("ALLOWED_ORIGINS"); customOrigins != "" {
			for _, customOrigin := range strings.Split(customOrigins, ",") {
				allowedOrigins = append(allowedOrigins, strings.TrimSpace(customOrigin))
			}
		}

		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin {
				return true
			}
		}

		// Development convenience: any localhost variation passes.
		if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
			return true
		}

		return false
	},
}

// credentialFrom extracts the bearer token from the handshake: the
// "token" query parameter or the Authorization header.
func credentialFrom(r *http.Request) (string, error) {
	if token := r.URL.Query().Get("token"); token != "" {
		return strings.TrimPrefix(token, "Bearer "), nil
	}
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer "), nil
	}
	return "", ErrNoCredential
}

// ServeWS authenticates the handshake and hands the connection to the
// hub. The full auth chain runs before the upgrade: no credential, a
// failed verification or an unknown user refuses the connection outright,
// so an unauthenticated socket never reaches the session registry.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	token, err := credentialFrom(r)
	if err != nil {
		slog.Warn("Connection rejected: no credential", "remote", r.RemoteAddr)
		http.Error(w, "token is required", http.StatusUnauthorized)
		return
	}

	subject, err := h.deps.Tokens.Verify(token)
	if err != nil {
		slog.Warn("Connection rejected: invalid token", "remote", r.RemoteAddr, "error", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	user, err := h.deps.Users.FindSummary(r.Context(), subject)
	if err != nil {
		slog.Warn("Connection rejected: unknown user", "subject", subject, "error", err)
		http.Error(w, "unknown user", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "userID", user.ID, "error", err)
		return
	}

	client := NewClient(h, conn, user)
	slog.Info("New WebSocket connection established", "clientID", client.id, "userID", client.userID)

	select {
	case h.register <- client:
	case <-time.After(5 * time.Second):
		slog.Error("Timeout sending registration request", "clientID", client.id)
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
