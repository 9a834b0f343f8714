package web

import (
	"encoding/json"
	"net/http"

	"github.com/GregoryFarmer/orthant/runtime"
	"github.com/gorilla/websocket"
)

type statusResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleLiveness reports process liveness only. It never reflects store
// or hub health.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(statusResponse{Code: http.StatusOK, Message: "OK"})
}

func (s *Server) handleMessaging(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("Messaging test"))
}

// handleSocket upgrades the connection and hands it to the hub. The
// optional username travels in the handshake as a query parameter.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	client := runtime.NewClient(s.hub, conn, s.log)
	client.Start(r.URL.Query().Get("username"))
}
