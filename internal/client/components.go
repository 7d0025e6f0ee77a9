package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// AlertView is one rendered alert.
type AlertView struct {
	Key   string
	Class string
	Msg   string
}

// RenderAlerts renders every alert in state, oldest first. No alerts render
// nothing.
func RenderAlerts(state State) []AlertView {
	if len(state.Alerts) == 0 {
		return nil
	}
	views := make([]AlertView, len(state.Alerts))
	for i, alert := range state.Alerts {
		views[i] = AlertView{
			Key:   alert.ID,
			Class: "alert alert-" + alert.AlertType,
			Msg:   alert.Msg,
		}
	}
	return views
}

// ErrPasswordMismatch is returned by RegisterForm.Submit when the two
// password fields differ. Nothing is sent to the server.
var ErrPasswordMismatch = errors.New("passwords do not match")

// RegisterFields is the local state of the sign up form.
type RegisterFields struct {
	Name      string
	Email     string
	Password  string
	Password2 string
}

type RegisterForm struct {
	actions *Actions

	mu     sync.Mutex
	fields RegisterFields
}

func NewRegisterForm(actions *Actions) *RegisterForm {
	return &RegisterForm{actions: actions}
}

// OnChange sets one field by its input name and leaves the others as they are.
func (f *RegisterForm) OnChange(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch field {
	case "name":
		f.fields.Name = value
	case "email":
		f.fields.Email = value
	case "password":
		f.fields.Password = value
	case "password2":
		f.fields.Password2 = value
	default:
		return fmt.Errorf("register form has no field %q", field)
	}
	return nil
}

func (f *RegisterForm) Fields() RegisterFields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// Submit checks the password confirmation locally, then registers.
func (f *RegisterForm) Submit(ctx context.Context) error {
	fields := f.Fields()
	if fields.Password != fields.Password2 {
		f.actions.SetAlert("Passwords do not match", AlertDanger)
		return ErrPasswordMismatch
	}
	return f.actions.Register(ctx, fields.Name, fields.Email, fields.Password)
}

// DashboardView is what the dashboard shows for a given state.
type DashboardView struct {
	Spinner bool

	Title   string
	Welcome string

	// ShowActions is set when the user has a profile. Otherwise the
	// create-profile prompt is shown instead.
	ShowActions       bool
	CreateProfileText string
	CreateProfileLink string
}

type Dashboard struct {
	actions *Actions
}

func NewDashboard(actions *Actions) *Dashboard {
	return &Dashboard{actions: actions}
}

// Load fetches the current profile once.
func (d *Dashboard) Load(ctx context.Context) error {
	return d.actions.GetCurrentProfile(ctx)
}

// Render shows a spinner while the profile is still loading and nothing has
// arrived yet.
func (d *Dashboard) Render(state State) DashboardView {
	if state.Profile.Loading && state.Profile.Profile == nil {
		return DashboardView{Spinner: true}
	}

	view := DashboardView{
		Title:   "Dashboard",
		Welcome: "Welcome",
	}
	if state.Auth.User != nil {
		view.Welcome = "Welcome " + state.Auth.User.Name
	}

	if state.Profile.Profile != nil {
		view.ShowActions = true
	} else {
		view.CreateProfileText = "You have not yet setup a profile, please add some info"
		view.CreateProfileLink = "/create-profile"
	}
	return view
}
