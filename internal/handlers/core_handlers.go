package handlers

import (
	"net/http"
	"time"

	"dev-connector/internal/api"
)

// HandleRoot answers GET / so load balancers can see the API is up.
func (s *Server) HandleRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("API Running"))
	}
}

func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]string{
			"status": "ok",
		}
		if s.Metrics != nil {
			resp["uptime"] = s.Metrics.Uptime().Round(time.Second).String()
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}
