package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"dev-connector/internal/api"
	"dev-connector/internal/engine"
	"dev-connector/internal/middleware"
	"dev-connector/internal/utils"
	"dev-connector/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Auth           *middleware.Authenticator
	Validator      *api.Validator
	Metrics        *utils.MetricsCollector
	Hub            *websocket.Hub
	Logger         *zap.Logger
	RequestTimeout time.Duration
	AllowedOrigins []string
	MetricsEnabled bool
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	engine *engine.Engine,
	auth *middleware.Authenticator,
	metrics *utils.MetricsCollector,
	hub *websocket.Hub,
	logger *zap.Logger,
) *Server {
	return &Server{
		System:         system,
		Context:        system.Root,
		Engine:         engine,
		Auth:           auth,
		Validator:      api.NewValidator(),
		Metrics:        metrics,
		Hub:            hub,
		Logger:         logger,
		RequestTimeout: 5 * time.Second, // Default timeout for actor requests
		AllowedOrigins: []string{"*"},
		MetricsEnabled: true,
	}
}

// storeShare is the part of an actor call's budget handed to the actor's store
// calls. The rest leaves room to answer once the store has committed.
const storeShare = 0.8

// deadliner is implemented by actor messages that carry the caller's deadline.
type deadliner interface {
	SetDeadline(time.Time)
}

// ask sends msg to pid and waits for the reply, no longer than RequestTimeout
// or the deadline of ctx. An *utils.AppError reply is returned as the error.
func (s *Server) ask(ctx context.Context, pid *actor.PID, msg interface{}, name string) (interface{}, error) {
	timeout := s.RequestTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, utils.NewActorTimeoutError(name, err)
	}
	if timeout <= 0 {
		return nil, utils.NewActorTimeoutError(name, context.DeadlineExceeded)
	}

	if m, ok := msg.(deadliner); ok {
		m.SetDeadline(time.Now().Add(time.Duration(float64(timeout) * storeShare)))
	}

	type reply struct {
		result interface{}
		err    error
	}
	future := s.Context.RequestFuture(pid, msg, timeout)
	done := make(chan reply, 1)
	go func() {
		result, err := future.Result()
		done <- reply{result, err}
	}()

	var rep reply
	select {
	case rep = <-done:
	case <-ctx.Done():
		return nil, utils.NewActorTimeoutError(name, ctx.Err())
	}
	if rep.err != nil {
		return nil, utils.NewActorTimeoutError(name, rep.err)
	}
	if appErr, ok := rep.result.(*utils.AppError); ok {
		return nil, appErr
	}
	return rep.result, nil
}

// writeError renders err with the status its code maps to. Server-side
// failures are logged and answered with a bare "Server Error".
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := utils.AsAppError(err)
	if !ok {
		appErr = utils.NewAppError(utils.ErrInternal, "Unexpected failure", err)
	}

	status := utils.AppErrorToHTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("code", appErr.Code),
			zap.Error(err))
		api.WriteServerError(w)
		return
	}

	switch appErr.Code {
	case utils.ErrUserAlreadyExists, utils.ErrInvalidCredentials:
		api.WriteJSON(w, status, api.Errors(appErr.Message))
	default:
		api.WriteJSON(w, status, api.MessageResponse{Msg: appErr.Message})
	}
}

// decodeAndValidate reads a JSON body into req and checks its validation
// tags. An empty body decodes as an empty object, so missing fields are
// reported by validation. On failure it writes the 400 response and reports false.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
		api.WriteJSON(w, http.StatusBadRequest, api.ErrorsResponse{Errors: []api.FieldError{{
			Msg:      "Invalid request body",
			Location: "body",
		}}})
		return false
	}
	if fieldErrs := s.Validator.Struct(req); len(fieldErrs) > 0 {
		api.WriteJSON(w, http.StatusBadRequest, api.ErrorsResponse{Errors: fieldErrs})
		return false
	}
	return true
}

// currentUser returns the identity attached by the auth middleware.
func currentUser(r *http.Request) uuid.UUID {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	return userID
}

// pathID parses a path parameter as a record id. A malformed id is reported
// with notFound, exactly like a missing record.
func pathID(r *http.Request, name string, notFound *utils.AppError) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}
