package handlers

import (
	"net/http"

	"dev-connector/internal/middleware"
)

// Routes builds the route table. Method and wildcard matching use the
// standard ServeMux patterns.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	auth := s.Auth.Require

	mux.HandleFunc("GET /{$}", s.HandleRoot())
	mux.HandleFunc("GET /health", s.HandleHealth())
	if s.MetricsEnabled && s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics.Handler())
	}

	// Users and auth
	mux.HandleFunc("POST /api/users", s.HandleUserRegistration())
	mux.HandleFunc("POST /api/auth", s.HandleUserLogin())
	mux.HandleFunc("GET /api/auth", auth(s.HandleCurrentUser()))

	// Profiles
	mux.HandleFunc("GET /api/profile/me", auth(s.HandleMyProfile()))
	mux.HandleFunc("POST /api/profile", auth(s.HandleUpsertProfile()))
	mux.HandleFunc("GET /api/profile", s.HandleListProfiles())
	mux.HandleFunc("GET /api/profile/user/{user_id}", s.HandleProfileByUser())
	mux.HandleFunc("DELETE /api/profile", auth(s.HandleDeleteAccount()))

	// Posts
	mux.HandleFunc("POST /api/post", auth(s.HandleCreatePost()))
	mux.HandleFunc("GET /api/post", auth(s.HandleListPosts()))
	mux.HandleFunc("GET /api/post/ws", s.HandleWebSocket())
	mux.HandleFunc("GET /api/post/{id}", auth(s.HandleGetPost()))
	mux.HandleFunc("DELETE /api/post/{id}", auth(s.HandleDeletePost()))
	mux.HandleFunc("PUT /api/post/like/{id}", auth(s.HandleLikePost()))
	mux.HandleFunc("PUT /api/post/unlike/{id}", auth(s.HandleUnlikePost()))
	mux.HandleFunc("POST /api/post/comment/{id}", auth(s.HandleAddComment()))
	mux.HandleFunc("DELETE /api/post/comment/{id}/{comment_id}", auth(s.HandleRemoveComment()))

	return mux
}

// Handler wraps the routes in the middleware every request passes through.
func (s *Server) Handler() http.Handler {
	return middleware.Chain(s.Routes(),
		middleware.CORSMiddleware(middleware.DefaultCORSConfig(s.AllowedOrigins)),
		middleware.RequestLogger(s.Logger, s.Metrics),
		middleware.Timeout(s.RequestTimeout),
	)
}
