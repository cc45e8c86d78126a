package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/calder/choreboard/internal/auth"
)

// HandleWebSocket upgrades connections and runs them as hub clients scoped to
// the caller's household. Must run behind the auth middleware.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok || ac.HouseholdID == 0 {
			http.Error(w, "household required", http.StatusForbidden)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Allow connections from any origin (household LAN)
		})
		if err != nil {
			logger.Error("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, ac.HouseholdID)
		logger.Debug("websocket connected", "client_id", client.ID(), "household_id", ac.HouseholdID)
		client.Run(r.Context())
	}
}
