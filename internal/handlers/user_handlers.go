package handlers

import (
	"net/http"

	"dev-connector/internal/api"
	"dev-connector/internal/engine/actors"
)

// HandleUserRegistration handles POST /api/users
func (s *Server) HandleUserRegistration() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.RegisterUserRequest
		if !s.decodeAndValidate(w, r, &req) {
			return
		}

		result, err := s.ask(r.Context(), s.Engine.GetUserActor(), &actors.RegisterUserMsg{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
		}, "user")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, api.TokenResponse{Token: result.(*actors.AuthResult).Token})
	}
}

// HandleUserLogin handles POST /api/auth
func (s *Server) HandleUserLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.LoginRequest
		if !s.decodeAndValidate(w, r, &req) {
			return
		}

		result, err := s.ask(r.Context(), s.Engine.GetUserActor(), &actors.LoginMsg{
			Email:    req.Email,
			Password: req.Password,
		}, "user")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, api.TokenResponse{Token: result.(*actors.AuthResult).Token})
	}
}

// HandleCurrentUser handles GET /api/auth and returns the caller without the password hash.
func (s *Server) HandleCurrentUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.ask(r.Context(), s.Engine.GetUserActor(), &actors.GetUserMsg{UserID: currentUser(r)}, "user")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, user)
	}
}
