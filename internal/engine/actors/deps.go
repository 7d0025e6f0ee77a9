package actors

import (
	stdctx "context"
	"time"

	"dev-connector/internal/database"
	"dev-connector/internal/events"
	"dev-connector/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	GenerateToken(userID uuid.UUID) (string, error)
}

// Deps are the collaborators shared by every actor instance.
type Deps struct {
	Store   database.DBAdapter
	Bus     events.Bus // optional
	Metrics *utils.MetricsCollector
	Tokens  TokenIssuer
	Timeout time.Duration // bound on each store call
	Logger  *zap.Logger
}

// Request carries the caller's deadline. Every actor message embeds it, and
// store calls made for a message never outlive it.
type Request struct {
	Deadline time.Time
}

func (r *Request) SetDeadline(t time.Time) { r.Deadline = t }

// storeContext bounds store calls by budget and by the caller's deadline,
// whichever comes first.
func storeContext(deadline time.Time, budget time.Duration) (stdctx.Context, stdctx.CancelFunc) {
	d := time.Now().Add(budget)
	if !deadline.IsZero() && deadline.Before(d) {
		d = deadline
	}
	return stdctx.WithDeadline(stdctx.Background(), d)
}

// respondError records a failed operation and returns the AppError the actor
// replies with. Anything that is not already an AppError is hidden behind a
// generic internal error.
func respondError(logger *zap.Logger, metrics *utils.MetricsCollector, operation string, err error) *utils.AppError {
	appErr, ok := utils.AsAppError(err)
	if !ok {
		appErr = utils.NewAppError(utils.ErrInternal, "Unexpected failure", err)
	}

	metrics.IncrementErrors(operation, appErr.Code)
	if utils.AppErrorToHTTPStatus(appErr.Code) >= 500 {
		logger.Error("Operation failed",
			zap.String("operation", operation),
			zap.String("code", appErr.Code),
			zap.Error(err))
	}
	return appErr
}
