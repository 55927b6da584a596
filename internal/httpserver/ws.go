// internal/httpserver/ws.go
//
// GET /ws — upgrades the request to a WebSocket and attaches the connection
// to the game gateway. Authenticated requests carry their account id into the
// connection so finished matches get attributed; guests connect with none.

package httpserver

import (
	"net/http"
	"os"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/letterdash/go-server/internal/ws"
)

// upgrader mirrors the CORS policy: a configured CLIENT_ORIGIN is enforced,
// otherwise any origin is accepted (local development).
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		allowed := os.Getenv("CLIENT_ORIGIN")
		if allowed == "" {
			return true
		}
		return r.Header.Get("Origin") == allowed
	},
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	userID := ""
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		userID = me.ID
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade")
		return
	}

	c := ws.NewClient(conn, s.hub, userID)
	log.Debug().Str("conn", c.ID).Bool("authed", userID != "").Msg("websocket connected")
	c.Run(s.handler)
}
