package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/greenpoints/internal/auth"
	"github.com/dukerupert/greenpoints/internal/model"
)

// HandleWebSocket upgrades authenticated staff connections and runs them as
// Hub clients. originPatterns is passed to the origin check; empty means
// same-origin only.
func HandleWebSocket(hub *Hub, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok || !auth.IsStaff(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			hub.logger.Warn("accept", "error", err)
			return
		}
		defer conn.CloseNow()

		scope := Scope{
			Admin:    ac.Actor.AccountType == model.AccountAdmin,
			CenterID: ac.Actor.CenterID,
		}
		hub.logger.Debug("client connected", "user_id", ac.Actor.UserID, "admin", scope.Admin)
		NewClient(hub, conn, scope).Run(r.Context())
		conn.Close(ws.StatusNormalClosure, "")
	}
}
