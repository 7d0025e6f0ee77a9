// Package client holds the browser-side application state of DevConnector
// expressed in Go: a reducer-driven store, the actions that talk to the API
// and the components built on top of them.
package client

import (
	"dev-connector/internal/models"
)

// ActionType names a state transition.
type ActionType string

const (
	ActionSetAlert        ActionType = "SET_ALERT"
	ActionRemoveAlert     ActionType = "REMOVE_ALERT"
	ActionRegisterSuccess ActionType = "REGISTER_SUCCESS"
	ActionRegisterFail    ActionType = "REGISTER_FAIL"
	ActionUserLoaded      ActionType = "USER_LOADED"
	ActionAuthError       ActionType = "AUTH_ERROR"
	ActionLoginSuccess    ActionType = "LOGIN_SUCCESS"
	ActionLoginFail       ActionType = "LOGIN_FAIL"
	ActionLogout          ActionType = "LOGOUT"
	ActionGetProfile      ActionType = "GET_PROFILE"
	ActionProfileError    ActionType = "PROFILE_ERROR"
	ActionClearProfile    ActionType = "CLEAR_PROFILE"
)

// Action is a message to the reducer. The payload type depends on Type:
//
//	SET_ALERT                       Alert
//	REMOVE_ALERT                    string (alert id)
//	REGISTER_SUCCESS, LOGIN_SUCCESS string (token)
//	USER_LOADED                     *models.User
//	GET_PROFILE                     *models.PopulatedProfile
//	PROFILE_ERROR                   ProfileError
//
// The remaining actions carry no payload.
type Action struct {
	Type    ActionType
	Payload any
}

// Alert is a transient message shown at the top of the page.
type Alert struct {
	ID        string
	Msg       string
	AlertType string
}

type AuthState struct {
	Token           string
	IsAuthenticated bool
	Loading         bool
	User            *models.User
}

type ProfileError struct {
	Msg    string
	Status int
}

type ProfileState struct {
	Profile *models.PopulatedProfile
	Loading bool
	Error   *ProfileError
}

// State is the whole client application state.
type State struct {
	Alerts  []Alert
	Auth    AuthState
	Profile ProfileState
}

// InitialState is the state before any action has been dispatched. Both the
// user and the profile start out loading.
func InitialState() State {
	return State{
		Alerts:  []Alert{},
		Auth:    AuthState{Loading: true},
		Profile: ProfileState{Loading: true},
	}
}

// Reduce returns the state that results from applying action to state. It
// never mutates its input; unknown actions return state unchanged.
func Reduce(state State, action Action) State {
	state.Alerts = reduceAlerts(state.Alerts, action)
	state.Auth = reduceAuth(state.Auth, action)
	state.Profile = reduceProfile(state.Profile, action)
	return state
}

func reduceAlerts(alerts []Alert, action Action) []Alert {
	switch action.Type {
	case ActionSetAlert:
		alert, ok := action.Payload.(Alert)
		if !ok {
			return alerts
		}
		next := make([]Alert, 0, len(alerts)+1)
		next = append(next, alerts...)
		return append(next, alert)

	case ActionRemoveAlert:
		id, ok := action.Payload.(string)
		if !ok {
			return alerts
		}
		next := make([]Alert, 0, len(alerts))
		for _, alert := range alerts {
			if alert.ID != id {
				next = append(next, alert)
			}
		}
		return next
	}
	return alerts
}

func reduceAuth(auth AuthState, action Action) AuthState {
	switch action.Type {
	case ActionUserLoaded:
		user, _ := action.Payload.(*models.User)
		return AuthState{
			Token:           auth.Token,
			IsAuthenticated: true,
			Loading:         false,
			User:            user,
		}

	case ActionRegisterSuccess, ActionLoginSuccess:
		token, _ := action.Payload.(string)
		return AuthState{
			Token:           token,
			IsAuthenticated: true,
			Loading:         false,
			User:            auth.User,
		}

	case ActionRegisterFail, ActionAuthError, ActionLoginFail, ActionLogout:
		return AuthState{}
	}
	return auth
}

func reduceProfile(profile ProfileState, action Action) ProfileState {
	switch action.Type {
	case ActionGetProfile:
		p, _ := action.Payload.(*models.PopulatedProfile)
		return ProfileState{Profile: p}

	case ActionProfileError:
		perr, ok := action.Payload.(ProfileError)
		if !ok {
			perr = ProfileError{Msg: "Unknown error"}
		}
		return ProfileState{Profile: profile.Profile, Error: &perr}

	case ActionClearProfile:
		return ProfileState{}
	}
	return profile
}
