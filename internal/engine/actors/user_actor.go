package actors

import (
	"time"

	"dev-connector/internal/database"
	"dev-connector/internal/models"
	"dev-connector/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type (
	RegisterUserMsg struct {
		Request
		Name     string
		Email    string
		Password string
	}

	LoginMsg struct {
		Request
		Email    string
		Password string
	}

	GetUserMsg struct {
		Request
		UserID uuid.UUID
	}

	// DeleteAccountMsg removes a user together with their profile and posts.
	DeleteAccountMsg struct {
		Request
		UserID uuid.UUID
	}
)

// AuthResult is the reply to a successful registration or login.
type AuthResult struct {
	Token string
	User  *models.User
}

// AccountDeleted is the reply to a successful DeleteAccountMsg.
type AccountDeleted struct {
	UserID uuid.UUID
}

// UserActor handles registration, login and account lookups.
type UserActor struct {
	store      database.DBAdapter
	tokens     TokenIssuer
	metrics    *utils.MetricsCollector
	timeout    time.Duration
	logger     *zap.Logger
	bcryptCost int
}

func NewUserActor(deps Deps) actor.Actor {
	return &UserActor{
		store:      deps.Store,
		tokens:     deps.Tokens,
		metrics:    deps.Metrics,
		timeout:    deps.Timeout,
		logger:     deps.Logger.Named("user_actor"),
		bcryptCost: bcrypt.DefaultCost,
	}
}

func (a *UserActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		a.logger.Debug("UserActor started")
	case *RegisterUserMsg:
		a.handleRegister(context, msg)
	case *LoginMsg:
		a.handleLogin(context, msg)
	case *GetUserMsg:
		a.handleGetUser(context, msg)
	case *DeleteAccountMsg:
		a.handleDeleteAccount(context, msg)
	}
}

func (a *UserActor) handleRegister(context actor.Context, msg *RegisterUserMsg) {
	startTime := time.Now()
	ctx, cancel := storeContext(msg.Deadline, a.timeout)
	defer cancel()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(msg.Password), a.bcryptCost)
	if err != nil {
		a.fail(context, "register_user", err)
		return
	}

	user := &models.User{
		ID:             uuid.New(),
		Name:           msg.Name,
		Email:          models.NormalizeEmail(msg.Email),
		HashedPassword: string(hashedPassword),
		Avatar:         models.GravatarURL(msg.Email),
		Date:           time.Now().UTC(),
	}

	// The store's unique email constraint decides duplicate registrations,
	// including concurrent ones.
	if err := a.store.SaveUser(ctx, user); err != nil {
		a.fail(context, "register_user", err)
		return
	}

	a.respondWithToken(context, "register_user", user, startTime)
}

func (a *UserActor) handleLogin(context actor.Context, msg *LoginMsg) {
	startTime := time.Now()
	ctx, cancel := storeContext(msg.Deadline, a.timeout)
	defer cancel()

	invalid := utils.NewAppError(utils.ErrInvalidCredentials, "Invalid Credentials", nil)

	user, err := a.store.GetUserByEmail(ctx, msg.Email)
	if utils.IsNotFound(err) {
		a.fail(context, "login", invalid)
		return
	}
	if err != nil {
		a.fail(context, "login", err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(msg.Password)); err != nil {
		a.fail(context, "login", invalid)
		return
	}

	a.respondWithToken(context, "login", user, startTime)
}

func (a *UserActor) respondWithToken(context actor.Context, operation string, user *models.User, startTime time.Time) {
	token, err := a.tokens.GenerateToken(user.ID)
	if err != nil {
		a.fail(context, operation, err)
		return
	}
	a.metrics.AddOperationLatency(operation, time.Since(startTime))
	context.Respond(&AuthResult{Token: token, User: user})
}

func (a *UserActor) handleGetUser(context actor.Context, msg *GetUserMsg) {
	ctx, cancel := storeContext(msg.Deadline, a.timeout)
	defer cancel()

	user, err := a.store.GetUser(ctx, msg.UserID)
	if err != nil {
		a.fail(context, "get_user", err)
		return
	}
	context.Respond(user)
}

func (a *UserActor) handleDeleteAccount(context actor.Context, msg *DeleteAccountMsg) {
	startTime := time.Now()
	ctx, cancel := storeContext(msg.Deadline, a.timeout)
	defer cancel()

	if err := a.store.DeletePostsByUser(ctx, msg.UserID); err != nil {
		a.fail(context, "delete_account", err)
		return
	}
	if err := a.store.DeleteProfileByUser(ctx, msg.UserID); err != nil {
		a.fail(context, "delete_account", err)
		return
	}
	// A user that is already gone counts as deleted.
	if err := a.store.DeleteUser(ctx, msg.UserID); err != nil && !utils.IsNotFound(err) {
		a.fail(context, "delete_account", err)
		return
	}

	a.logger.Info("Account deleted", zap.String("user_id", msg.UserID.String()))
	a.metrics.AddOperationLatency("delete_account", time.Since(startTime))
	context.Respond(&AccountDeleted{UserID: msg.UserID})
}

func (a *UserActor) fail(context actor.Context, operation string, err error) {
	context.Respond(respondError(a.logger, a.metrics, operation, err))
}
