package handlers

import (
	"net/http"

	"dev-connector/internal/api"
	"dev-connector/internal/websocket"

	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func (s *Server) upgrader() *ws.Upgrader {
	return &ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range s.AllowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}
}

// HandleWebSocket handles GET /api/post/ws?token=... and streams post events
// to the connected client. Browsers cannot set headers on a websocket
// handshake, so the token travels in the query string.
func (s *Server) HandleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			api.WriteJSON(w, http.StatusUnauthorized, api.MessageResponse{Msg: "No token, authorization denied"})
			return
		}

		claims, err := s.Auth.ValidateToken(tokenString)
		if err != nil {
			api.WriteJSON(w, http.StatusUnauthorized, api.MessageResponse{Msg: "Token is not valid"})
			return
		}
		userID := claims.User.ID

		conn, err := s.upgrader().Upgrade(w, r, nil)
		if err != nil {
			// The upgrader has already answered the request
			s.Logger.Debug("WebSocket upgrade failed", zap.String("user_id", userID.String()), zap.Error(err))
			return
		}

		client := websocket.NewClient(s.Hub, userID, conn)
		if !s.Hub.Add(client) {
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
