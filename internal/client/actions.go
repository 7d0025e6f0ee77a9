package client

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	AlertDanger  = "danger"
	AlertSuccess = "success"

	DefaultAlertTimeout = 5 * time.Second
)

// Actions performs the side effects of the client (API calls and alert
// timers) and reports their outcome to the store as actions.
type Actions struct {
	store        *Store
	api          *APIClient
	alertTimeout time.Duration
}

func NewActions(store *Store, api *APIClient) *Actions {
	return &Actions{store: store, api: api, alertTimeout: DefaultAlertTimeout}
}

// WithAlertTimeout sets how long alerts stay up.
func (a *Actions) WithAlertTimeout(d time.Duration) *Actions {
	a.alertTimeout = d
	return a
}

func (a *Actions) Store() *Store { return a.store }

// SetAlert shows msg until the alert timeout elapses and returns the alert id.
func (a *Actions) SetAlert(msg, alertType string) string {
	return SetAlert(a.store, msg, alertType, a.alertTimeout)
}

// SetAlert dispatches SET_ALERT with a fresh id and schedules the matching
// REMOVE_ALERT after timeout.
func SetAlert(store *Store, msg, alertType string, timeout time.Duration) string {
	id := uuid.NewString()
	store.Dispatch(Action{Type: ActionSetAlert, Payload: Alert{ID: id, Msg: msg, AlertType: alertType}})
	time.AfterFunc(timeout, func() {
		store.Dispatch(Action{Type: ActionRemoveAlert, Payload: id})
	})
	return id
}

// LoadUser fetches the user behind the current token.
func (a *Actions) LoadUser(ctx context.Context) error {
	user, err := a.api.LoadUser(ctx)
	if err != nil {
		a.store.Dispatch(Action{Type: ActionAuthError})
		return err
	}
	a.store.Dispatch(Action{Type: ActionUserLoaded, Payload: user})
	return nil
}

// Register creates an account, stores its token and loads the user. Every
// error the server reports becomes a danger alert.
func (a *Actions) Register(ctx context.Context, name, email, password string) error {
	token, err := a.api.Register(ctx, name, email, password)
	if err != nil {
		a.alertErrors(err)
		a.api.SetToken("")
		a.store.Dispatch(Action{Type: ActionRegisterFail})
		return err
	}

	a.api.SetToken(token)
	a.store.Dispatch(Action{Type: ActionRegisterSuccess, Payload: token})
	return a.LoadUser(ctx)
}

func (a *Actions) Login(ctx context.Context, email, password string) error {
	token, err := a.api.Login(ctx, email, password)
	if err != nil {
		a.alertErrors(err)
		a.api.SetToken("")
		a.store.Dispatch(Action{Type: ActionLoginFail})
		return err
	}

	a.api.SetToken(token)
	a.store.Dispatch(Action{Type: ActionLoginSuccess, Payload: token})
	return a.LoadUser(ctx)
}

// Logout forgets the token and the loaded profile.
func (a *Actions) Logout() {
	a.api.SetToken("")
	a.store.Dispatch(Action{Type: ActionClearProfile})
	a.store.Dispatch(Action{Type: ActionLogout})
}

// GetCurrentProfile loads the caller's profile. A missing profile is not an
// error for the caller; it ends up as PROFILE_ERROR in the state.
func (a *Actions) GetCurrentProfile(ctx context.Context) error {
	profile, err := a.api.CurrentProfile(ctx)
	if err != nil {
		apiErr, ok := AsAPIError(err)
		if !ok {
			a.store.Dispatch(Action{Type: ActionProfileError, Payload: ProfileError{Msg: err.Error()}})
			return err
		}
		a.store.Dispatch(Action{Type: ActionProfileError, Payload: ProfileError{Msg: apiErr.Msg, Status: apiErr.Status}})
		return nil
	}
	a.store.Dispatch(Action{Type: ActionGetProfile, Payload: profile})
	return nil
}

func (a *Actions) alertErrors(err error) {
	apiErr, ok := AsAPIError(err)
	if !ok {
		return
	}
	for _, fe := range apiErr.Errors {
		a.SetAlert(fe.Msg, AlertDanger)
	}
}
